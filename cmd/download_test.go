package cmd

import (
	"path/filepath"
	"testing"

	"github.com/brogergvhs/mangarip/internal/config"
	"github.com/brogergvhs/mangarip/internal/downloader"
	"github.com/brogergvhs/mangarip/internal/output"
	"github.com/brogergvhs/mangarip/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestinationsDoNotCollide(t *testing.T) {
	all := []providers.Chapter{
		{Name: "Read", URL: "https://example.com/manga/x/chapter-1"},
		{Name: "Read", URL: "https://example.com/manga/x/chapter-2"},
		{Name: "Ch 1.5", URL: "https://example.com/manga/x/chapter-1-5"},
		{Name: "Ch 1-5", URL: "https://example.com/manga/x/chapter-1-5b"},
	}

	root := "out"
	dests := destinations(root, all, positions(all))

	assert.Equal(t, []string{
		filepath.Join(root, "read"),
		filepath.Join(root, "read_002"),
		filepath.Join(root, "ch_1_5"),
		filepath.Join(root, "ch_1_5_004"),
	}, dests)

	q := downloader.NewQueue(nil)
	formats := []downloader.OutputFormat{{Kind: output.Folder}}
	for i, ch := range all {
		require.NoError(t, q.Add(downloader.NewTask(ch, dests[i], formats)))
	}
	assert.Len(t, q.Tasks(), 4)
}

func TestSeriesRoot(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output = "out"
	cfg.DefaultURL = "https://example.com/manga/one-piece"

	assert.Equal(t, "out", seriesRoot(cfg))

	cfg.SeriesFolder = true
	assert.Equal(t, filepath.Join("out", "one_piece"), seriesRoot(cfg))

	cfg.DefaultURL = "::"
	assert.Equal(t, "out", seriesRoot(cfg))
}
