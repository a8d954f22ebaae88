// Package cachetest provides an in-memory cache.SharedCache double.
package cachetest

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type entry struct {
	value   string
	expires time.Time // zero means no expiry
}

// SharedCache is an in-memory cache.SharedCache double.
type SharedCache struct {
	mu      sync.Mutex
	data    map[string]entry
	PingErr error
	GetErr  error
	SetErr  error
	IncrErr error
}

// New returns an empty in-memory shared cache.
func New() *SharedCache {
	return &SharedCache{data: make(map[string]entry)}
}

func (c *SharedCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.GetErr != nil {
		return "", false, c.GetErr
	}
	e, ok := c.data[key]
	if !ok {
		return "", false, nil
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		delete(c.data, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (c *SharedCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SetErr != nil {
		return c.SetErr
	}
	e := entry{value: value}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}
	c.data[key] = e
	return nil
}

func (c *SharedCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.IncrErr != nil {
		return 0, c.IncrErr
	}
	e := c.data[key]
	var n int64
	if e.value != "" {
		for _, ch := range e.value {
			n = n*10 + int64(ch-'0')
		}
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	c.data[key] = e
	return n, nil
}

func (c *SharedCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data[key]
	if !ok {
		return nil
	}
	e.expires = time.Now().Add(ttl)
	c.data[key] = e
	return nil
}

func (c *SharedCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *SharedCache) Ping(ctx context.Context) error {
	return c.PingErr
}
