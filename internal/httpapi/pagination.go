package httpapi

import (
	"errors"
	"net/http"
	"strconv"
)

// defaultLimit/maxLimit and the parse shape are grounded on
// app/query/controller/pagination.go's parsePageSpec.
const (
	defaultLimit = 50
	maxLimit     = 100
)

var (
	errInvalidLimit  = errors.New("invalid limit")
	errInvalidStatus = errors.New("invalid status, must be 'true' or 'false'")
)

type linkPageSpec struct {
	Domain string
	Status *bool
	Cursor string
	Limit  int
}

func parseLinkPageSpec(r *http.Request) (linkPageSpec, error) {
	qs := r.URL.Query()

	limit := defaultLimit
	if v := qs.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return linkPageSpec{}, errInvalidLimit
		}
		if n > maxLimit {
			n = maxLimit
		}
		limit = n
	}

	var status *bool
	if v := qs.Get("status"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return linkPageSpec{}, errInvalidStatus
		}
		status = &b
	}

	return linkPageSpec{
		Domain: qs.Get("domain"),
		Status: status,
		Cursor: qs.Get("cursor"),
		Limit:  limit,
	}, nil
}
