package providers

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type prefixAdapter struct {
	name   string
	prefix string
}

func (a *prefixAdapter) Info() Info { return Info{Name: a.name} }

func (a *prefixAdapter) Claims(identifier string) bool {
	return strings.HasPrefix(identifier, a.prefix)
}

func (a *prefixAdapter) FindChapters(context.Context, string, ProgressFunc) ([]Chapter, error) {
	return nil, nil
}

func (a *prefixAdapter) FindImages(context.Context, Chapter, ProgressFunc) ([]string, error) {
	return nil, nil
}

func TestResolveFirstMatchWins(t *testing.T) {
	specific := &prefixAdapter{name: "specific", prefix: "https://example.com/manga/"}
	broad := &prefixAdapter{name: "broad", prefix: "https://"}
	reg := NewRegistry(specific, broad)

	for range 5 {
		a, err := reg.Resolve("https://example.com/manga/x")
		require.NoError(t, err)
		assert.Same(t, specific, a)
	}

	a, err := reg.Resolve("https://other.org/title")
	require.NoError(t, err)
	assert.Same(t, broad, a)
}

func TestResolveRegistrationOrderDecides(t *testing.T) {
	broad := &prefixAdapter{name: "broad", prefix: "https://"}
	specific := &prefixAdapter{name: "specific", prefix: "https://example.com/"}
	reg := NewRegistry(broad, specific)

	a, err := reg.Resolve("https://example.com/manga/x")
	require.NoError(t, err)
	assert.Same(t, broad, a)
}

func TestResolveNoAdapter(t *testing.T) {
	reg := NewRegistry(&prefixAdapter{name: "web", prefix: "https://"})

	_, err := reg.Resolve("ftp://example.com")
	require.ErrorIs(t, err, ErrNoAdapterFound)

	var nf *NoAdapterFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ftp://example.com", nf.Identifier)
}

func TestRegisterKeepsDuplicates(t *testing.T) {
	a := &prefixAdapter{name: "web", prefix: "https://"}
	reg := NewRegistry()
	reg.Register(a)
	reg.Register(a)

	assert.Len(t, reg.Adapters(), 2)
}

func TestAdaptersReturnsCopy(t *testing.T) {
	reg := NewRegistry(&prefixAdapter{name: "one", prefix: "a"})
	list := reg.Adapters()
	list[0] = &prefixAdapter{name: "two", prefix: "b"}

	assert.Equal(t, "one", reg.Adapters()[0].Info().Name)
}

func TestProgressFuncNilSafe(t *testing.T) {
	var p ProgressFunc
	assert.NotPanics(t, func() { p.Report(10) })
}
