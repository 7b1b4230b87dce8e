package downloader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/brogergvhs/mangarip/internal/providers"
)

type Outcome int

const (
	Done Outcome = iota
	Failed
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Done:
		return "done"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	}

	return fmt.Sprintf("outcome(%d)", int(o))
}

type Result struct {
	Task    *Task
	Outcome Outcome
	Err     error
}

type runner interface {
	RunDownload(ctx context.Context, task *Task, progress providers.ProgressFunc) error
}

// Hooks let the caller follow each task. Both fields are optional.
type Hooks struct {
	Progress func(*Task) providers.ProgressFunc
	Done     func(Result)
}

// Queue holds chapter tasks, at most one per chapter URL and one per
// destination.
type Queue struct {
	run runner

	mu    sync.Mutex
	tasks []*Task
	urls  map[string]bool
	dests map[string]bool
}

func NewQueue(r runner) *Queue {
	return &Queue{run: r, urls: map[string]bool{}, dests: map[string]bool{}}
}

func (q *Queue) Add(t *Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.urls[t.Chapter.URL] {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, t.Chapter.URL)
	}

	dest := filepath.Clean(t.Destination)
	if q.dests[dest] {
		return fmt.Errorf("%w: destination %s is taken", ErrDuplicateTask, dest)
	}

	q.urls[t.Chapter.URL] = true
	q.dests[dest] = true
	q.tasks = append(q.tasks, t)

	return nil
}

func (q *Queue) Tasks() []*Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*Task, len(q.tasks))
	copy(out, q.tasks)

	return out
}

// Run starts every queued task on its own goroutine and waits for all of
// them. Results are in queue order.
func (q *Queue) Run(ctx context.Context, hooks Hooks) []Result {
	tasks := q.Tasks()
	results := make([]Result, len(tasks))

	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()

			var progress providers.ProgressFunc
			if hooks.Progress != nil {
				progress = hooks.Progress(t)
			}

			err := q.run.RunDownload(ctx, t, progress)
			res := Result{Task: t, Outcome: Done, Err: err}
			switch {
			case errors.Is(err, ErrCancelled):
				res.Outcome = Cancelled
			case err != nil:
				res.Outcome = Failed
			}

			results[i] = res
			if hooks.Done != nil {
				hooks.Done(res)
			}
		}()
	}
	wg.Wait()

	return results
}
