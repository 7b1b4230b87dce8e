package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("APPDATA", "")
	t.Setenv("XDG_CONFIG_HOME", dir)

	return filepath.Join(dir, "mangarip")
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadMergedWithoutProfile(t *testing.T) {
	isolate(t)

	cfg, source, err := LoadMerged(Options{Output: "/tmp/out", Concurrency: 4, Formats: []string{"cbz"}})
	require.NoError(t, err)

	assert.Contains(t, source, "default config in memory")
	assert.Equal(t, "/tmp/out", cfg.Output)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, []string{"cbz"}, cfg.Formats)
	assert.Equal(t, 3, cfg.Retries)
}

func TestLoadMergedIgnoreConfig(t *testing.T) {
	root := isolate(t)
	_, err := InitDefaultConfig()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "configs", "Default.yaml"), []byte("concurrency: 7\n"), 0644))

	cfg, source, err := LoadMerged(Options{IgnoreConfig: true})
	require.NoError(t, err)
	assert.Equal(t, "(ignored config)", source)
	assert.Equal(t, 2, cfg.Concurrency)
}

func TestLoadMergedFromProfile(t *testing.T) {
	root := isolate(t)

	path, err := InitDefaultConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "configs", "Default.yaml"), path)

	yml := strings.Join([]string{
		"output: ./manga",
		"concurrency: 3",
		"formats: [folder, cbz]",
		"retry_backoff: 250ms",
		"timeout: 1m",
		"series_folder: true",
		"sites:",
		"  - name: Example",
		"    patterns: ['https://example.com/**']",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))

	cfg, source, err := LoadMerged(Options{Concurrency: 1, Debug: true})
	require.NoError(t, err)

	assert.Equal(t, path, source)
	assert.Equal(t, "./manga", cfg.Output)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"folder", "cbz"}, cfg.Formats)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.True(t, cfg.SeriesFolder)
	require.Len(t, cfg.Sites, 1)
	assert.Equal(t, "Example", cfg.Sites[0].Name)

	_, err = InitDefaultConfig()
	assert.ErrorIs(t, err, os.ErrExist)
}

func TestLoadMergedRejectsInvalidProfile(t *testing.T) {
	isolate(t)

	path, err := InitDefaultConfig()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("formats: [pdf]\n"), 0644))

	_, _, err = LoadMerged(Options{})
	assert.ErrorContains(t, err, "pdf")
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Concurrency = -1
	cfg.Retries = 0
	cfg.Formats = []string{"pdf"}
	cfg.Sites = []Site{
		{Name: "", Patterns: []string{"https://a/**"}},
		{Name: "b"},
	}

	err := cfg.Validate()

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 5)
}

func TestProfiles(t *testing.T) {
	isolate(t)

	_, err := InitDefaultConfig()
	require.NoError(t, err)

	_, err = CreateEmptyConfig("fast")
	require.NoError(t, err)
	_, err = CreateEmptyConfig("fast")
	assert.Error(t, err)

	require.NoError(t, SwitchConfig("fast"))
	assert.Error(t, SwitchConfig("missing"))

	list, err := ListConfigs()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Default", list[0].Label)
	assert.Equal(t, "fast", list[1].Label)
	assert.True(t, list[1].Active)

	require.NoError(t, RenameConfig("fast", "quick"))
	label, err := CurrentLabel()
	require.NoError(t, err)
	assert.Equal(t, "quick", label)

	fellBack, err := RemoveConfig("quick")
	require.NoError(t, err)
	assert.True(t, fellBack)

	label, err = CurrentLabel()
	require.NoError(t, err)
	assert.Equal(t, DefaultLabel, label)

	_, err = RemoveConfig(DefaultLabel)
	assert.Error(t, err)
}

func TestResetConfig(t *testing.T) {
	isolate(t)

	path, err := InitDefaultConfig()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("concurrency: 9\n"), 0644))

	_, err = ResetConfig(DefaultLabel)
	require.NoError(t, err)

	cfg, err := Load(DefaultLabel)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Concurrency)
}

func TestAddConfigValidates(t *testing.T) {
	isolate(t)
	src := t.TempDir()

	good := filepath.Join(src, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("concurrency: 4\n"), 0644))
	require.NoError(t, AddConfig("imported", good))

	bad := filepath.Join(src, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("sites:\n  - name: x\n"), 0644))
	assert.Error(t, AddConfig("broken", bad))

	assert.Error(t, AddConfig("../escape", good))
}

func TestEditorCommand(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", `"/opt/my editor/bin/edit" --wait`)

	args, err := EditorCommand("/tmp/Default.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/my editor/bin/edit", "--wait", "/tmp/Default.yaml"}, args)

	t.Setenv("VISUAL", "nvim")
	args, err = EditorCommand("x.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"nvim", "x.yaml"}, args)
}
