package registry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/redirectdispatch/dispatcher/internal/registry"
)

func TestRegistryPreservesOrderAndInversionSet(t *testing.T) {
	reg := registry.New(
		[]string{"a.com", "b.com", "c.com"},
		[]string{"b.com"},
	)

	require.Equal(t, 3, reg.Len())
	require.Equal(t, []string{"a.com", "b.com", "c.com"}, reg.Hosts())
	require.False(t, reg.IsInverted("a.com"))
	require.True(t, reg.IsInverted("b.com"))
	require.Equal(t, "c.com", reg.At(2).Host)
}

func TestDefaultRegistryMatchesThePublishedDomainSet(t *testing.T) {
	reg := registry.Default()
	require.Equal(t, 4, reg.Len())
	require.True(t, reg.IsInverted("appmobile4u.com"))
	require.False(t, reg.IsInverted("appnewsdaily.com"))
}
