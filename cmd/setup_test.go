package cmd

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/brogergvhs/mangarip/internal/config"
	"github.com/brogergvhs/mangarip/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRegistryOrder(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Sites = []config.Site{{
		Name:     "Example",
		Link:     "https://example.com",
		Patterns: []string{"https://example.com/manga/**"},
	}}

	reg, err := buildRegistry(cfg, http.DefaultClient, ui.NewLogger(false))
	require.NoError(t, err)

	adapters := reg.Adapters()
	require.Len(t, adapters, 2)
	assert.Equal(t, "Example", adapters[0].Info().Name)
	assert.Equal(t, "Generic HTML", adapters[1].Info().Name)

	a, err := reg.Resolve("https://example.com/manga/one-piece")
	require.NoError(t, err)
	assert.Equal(t, "Example", a.Info().Name)

	a, err = reg.Resolve("https://other.org/title/1")
	require.NoError(t, err)
	assert.Equal(t, "Generic HTML", a.Info().Name)

	_, err = reg.Resolve("not a url")
	assert.Error(t, err)
}

func TestSitesCommand(t *testing.T) {
	t.Setenv("APPDATA", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"sites", "--ignore-config"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Generic HTML")
}

func TestSplitExt(t *testing.T) {
	assert.Equal(t, []string{"webp", "jpg", "png"}, splitExt("WEBP|jpg, png"))
	assert.Empty(t, splitExt(""))
}
