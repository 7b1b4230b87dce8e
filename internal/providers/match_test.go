package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchClaimsByPattern(t *testing.T) {
	inner := &prefixAdapter{name: "generic", prefix: ""}

	a, err := Match(inner, Info{Name: "Example", Link: "https://example.com"},
		"https://{www.example.com,example.com}/manga/**")
	require.NoError(t, err)

	assert.True(t, a.Claims("https://example.com/manga/x"))
	assert.True(t, a.Claims("https://www.example.com/manga/x/chapter-1"))
	assert.False(t, a.Claims("https://example.org/manga/x"))
	assert.False(t, a.Claims("https://example.com/news"))
	assert.Equal(t, "Example", a.Info().Name)
}

func TestMatchKeepsInnerInfo(t *testing.T) {
	inner := &prefixAdapter{name: "generic"}

	a, err := Match(inner, Info{}, "https://*.example.com/**")
	require.NoError(t, err)
	assert.Equal(t, "generic", a.Info().Name)
	assert.True(t, a.Claims("https://cdn.example.com/a/b"))
}

func TestMatchRejectsBadInput(t *testing.T) {
	inner := &prefixAdapter{name: "generic"}

	_, err := Match(inner, Info{})
	assert.Error(t, err)
}

func TestMatchedAdapterInRegistry(t *testing.T) {
	site, err := Match(&prefixAdapter{name: "site"}, Info{}, "https://example.com/**")
	require.NoError(t, err)
	fallback := &prefixAdapter{name: "fallback", prefix: "http"}

	reg := NewRegistry(site, fallback)

	a, err := reg.Resolve("https://example.com/manga/x")
	require.NoError(t, err)
	assert.Equal(t, "site", a.Info().Name)

	a, err = reg.Resolve("https://elsewhere.net/x")
	require.NoError(t, err)
	assert.Same(t, fallback, a)
}
