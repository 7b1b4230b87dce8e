package downloader

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/brogergvhs/mangarip/internal/output"
	"github.com/brogergvhs/mangarip/internal/providers"
	"github.com/google/uuid"
)

// OutputFormat is one requested artifact. UseCounterNaming asks for pages to
// be staged as zero-padded indices so lexical order equals page order.
type OutputFormat struct {
	Kind             output.Kind
	UseCounterNaming bool
}

// ParseFormats turns names like "folder,cbz" into formats.
func ParseFormats(names []string, counter bool) ([]OutputFormat, error) {
	var out []OutputFormat
	seen := map[output.Kind]bool{}

	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		k, err := output.ParseKind(n)
		if err != nil {
			return nil, err
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, OutputFormat{Kind: k, UseCounterNaming: counter})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("at least one output format is required")
	}

	return out, nil
}

// Task is one chapter download. The caller creates it and may read Busy and
// Percent at any time; only the orchestrator changes them.
type Task struct {
	ID          string
	Chapter     providers.Chapter
	Destination string
	Formats     []OutputFormat

	busy    atomic.Bool
	percent atomic.Int32
	pages   atomic.Int32
}

func NewTask(ch providers.Chapter, destination string, formats []OutputFormat) *Task {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	return &Task{
		ID:          id.String(),
		Chapter:     ch,
		Destination: destination,
		Formats:     formats,
	}
}

func (t *Task) Busy() bool { return t.busy.Load() }

func (t *Task) Percent() int { return int(t.percent.Load()) }

// Pages is the number of images found for the chapter by the last run.
func (t *Task) Pages() int { return int(t.pages.Load()) }

func (t *Task) UseCounterNaming() bool {
	for _, f := range t.Formats {
		if f.UseCounterNaming {
			return true
		}
	}

	return false
}

// monotonic forwards clamped, non-decreasing percentages to sink and drops
// repeats.
type monotonic struct {
	mu    sync.Mutex
	last  int
	sink  providers.ProgressFunc
	store func(int)
}

func newMonotonic(sink providers.ProgressFunc, store func(int)) *monotonic {
	return &monotonic{last: -1, sink: sink, store: store}
}

func (m *monotonic) Report(p int) {
	p = min(max(p, 0), 100)

	m.mu.Lock()
	defer m.mu.Unlock()

	if p <= m.last {
		return
	}
	m.last = p

	if m.store != nil {
		m.store(p)
	}
	m.sink.Report(p)
}

// scaled maps a 0..100 sub-progress into [from, from+span].
func (m *monotonic) scaled(from, span int) providers.ProgressFunc {
	return func(p int) {
		p = min(max(p, 0), 100)
		m.Report(from + p*span/100)
	}
}
