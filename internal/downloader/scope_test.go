package downloader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/brogergvhs/mangarip/internal/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeCancel(t *testing.T) {
	s := NewScope(context.Background())
	assert.False(t, s.Cancelled())

	s.Cancel()
	s.Cancel()

	assert.True(t, s.Cancelled())
	assert.ErrorIs(t, s.Context().Err(), context.Canceled)
}

func TestCancelledClassification(t *testing.T) {
	live := context.Background()
	dead, cancel := context.WithCancel(live)
	cancel()

	assert.True(t, cancelled(live, ErrCancelled))
	assert.True(t, cancelled(live, fmt.Errorf("get: %w", context.Canceled)))
	assert.True(t, cancelled(dead, errors.New("read: connection reset")))
	assert.False(t, cancelled(live, errors.New("boom")))
	assert.False(t, cancelled(dead, nil))
}

func TestMonotonicReporter(t *testing.T) {
	var got []int
	var stored int
	m := newMonotonic(func(p int) { got = append(got, p) }, func(p int) { stored = p })

	m.Report(0)
	m.Report(10)
	m.Report(5)
	m.Report(10)
	m.scaled(50, 50)(50)
	m.Report(250)

	assert.Equal(t, []int{0, 10, 75, 100}, got)
	assert.Equal(t, 100, stored)
}

func TestParseFormats(t *testing.T) {
	fs, err := ParseFormats([]string{"cbz", "folder", "CBZ", ""}, true)
	require.NoError(t, err)
	assert.Equal(t, []OutputFormat{
		{Kind: output.Archive, UseCounterNaming: true},
		{Kind: output.Folder, UseCounterNaming: true},
	}, fs)

	_, err = ParseFormats(nil, false)
	assert.Error(t, err)

	_, err = ParseFormats([]string{"pdf"}, false)
	assert.Error(t, err)
}

func TestCopyCounting(t *testing.T) {
	var sb strings.Builder
	var chunks int64

	n, err := copyCounting(&sb, strings.NewReader("hello world"), func(c int64) { chunks += c })
	require.NoError(t, err)
	assert.EqualValues(t, 11, n)
	assert.EqualValues(t, 11, chunks)
	assert.Equal(t, "hello world", sb.String())
}
