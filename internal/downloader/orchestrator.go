package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brogergvhs/mangarip/internal/output"
	"github.com/brogergvhs/mangarip/internal/providers"
	"github.com/brogergvhs/mangarip/internal/util"
	"github.com/google/uuid"
)

const DefaultConcurrency = 2

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

type PackagerFactory interface {
	Packager(k output.Kind) (output.Packager, error)
}

type Options struct {
	// Concurrency bounds discovery and download operations process-wide.
	Concurrency int
	// StagingRoot holds the per-task staging folders; os.TempDir when empty.
	StagingRoot string
	// KeepStaging leaves staging folders behind after successful runs too.
	KeepStaging bool
}

// Orchestrator runs chapter discovery and chapter downloads. At most
// Options.Concurrency of them do network work at the same time, whoever
// starts them.
type Orchestrator struct {
	registry    *providers.Registry
	fetcher     *Fetcher
	packagers   PackagerFactory
	log         Logger
	slots       chan struct{}
	stagingRoot string
	keepStaging bool
}

func New(registry *providers.Registry, fetcher *Fetcher, packagers PackagerFactory, log Logger, opts Options) *Orchestrator {
	n := opts.Concurrency
	if n < 1 {
		n = DefaultConcurrency
	}

	root := opts.StagingRoot
	if root == "" {
		root = os.TempDir()
	}

	return &Orchestrator{
		registry:    registry,
		fetcher:     fetcher,
		packagers:   packagers,
		log:         log,
		slots:       make(chan struct{}, n),
		stagingRoot: root,
		keepStaging: opts.KeepStaging,
	}
}

func (o *Orchestrator) acquire(ctx context.Context) error {
	if ctx.Err() != nil {
		return ErrCancelled
	}

	select {
	case o.slots <- struct{}{}:
	case <-ctx.Done():
		return ErrCancelled
	}

	// select picks at random when both are ready
	if ctx.Err() != nil {
		o.release()
		return ErrCancelled
	}

	return nil
}

func (o *Orchestrator) release() {
	<-o.slots
}

// DiscoverChapters lists the chapters behind identifier in the order the
// adapter returns them. Progress goes 0 → adapter progress → 100.
func (o *Orchestrator) DiscoverChapters(ctx context.Context, identifier string, progress providers.ProgressFunc) ([]providers.Chapter, error) {
	adapter, err := o.registry.Resolve(identifier)
	if err != nil {
		return nil, err
	}

	if err := o.acquire(ctx); err != nil {
		return nil, err
	}
	defer o.release()

	o.log.Infof("finding chapters of %s with %s\n", identifier, adapter.Info().Name)

	report := newMonotonic(progress, nil)
	report.Report(0)

	chapters, err := adapter.FindChapters(ctx, identifier, report.scaled(0, 100))
	if err != nil {
		if cancelled(ctx, err) {
			o.log.Infof("chapter discovery for %s cancelled\n", identifier)
			return nil, ErrCancelled
		}
		o.log.Errorf("failed to find chapters of %s: %v\n", identifier, err)
		return nil, err
	}

	report.Report(100)
	return chapters, nil
}

// RunDownload stages every image of task.Chapter in order, then hands the
// staging folder to the packager of each requested format. Image discovery
// fills 0..50% and the downloads 50..100%.
//
// Any image that cannot be fetched aborts the task before packaging. The
// staging folder is removed on success and on cancellation and kept for
// inspection on failure.
func (o *Orchestrator) RunDownload(ctx context.Context, task *Task, progress providers.ProgressFunc) (err error) {
	adapter, err := o.registry.Resolve(task.Chapter.URL)
	if err != nil {
		return err
	}

	if err := o.acquire(ctx); err != nil {
		return err
	}
	defer o.release()

	task.busy.Store(true)
	defer task.busy.Store(false)

	task.percent.Store(0)
	task.pages.Store(0)
	report := newMonotonic(progress, func(p int) { task.percent.Store(int32(p)) })
	report.Report(0)

	o.log.Infof("downloading %q (%s) to %s\n", task.Chapter.Name, task.Chapter.URL, task.Destination)

	staging, err := o.newStagingArea()
	if err != nil {
		return fmt.Errorf("create staging area: %w", err)
	}
	defer func() {
		err = o.finish(ctx, task, staging, err)
	}()

	if ctx.Err() != nil {
		return ErrCancelled
	}

	images, err := adapter.FindImages(ctx, task.Chapter, report.scaled(0, 50))
	if err != nil {
		return fmt.Errorf("find images of %s: %w", task.Chapter.URL, err)
	}
	if len(images) == 0 {
		return ErrNoImages
	}
	task.pages.Store(int32(len(images)))
	report.Report(50)

	fetcher := o.fetcher.WithReferer(task.Chapter.URL)
	counter := task.UseCounterNaming()

	for i, location := range images {
		if ctx.Err() != nil {
			return ErrCancelled
		}

		var index *int
		if counter {
			index = &i
		}

		path, err := fetcher.Fetch(ctx, location, staging, index)
		if err != nil {
			return err
		}
		o.log.Debugf("page %d/%d -> %s\n", i+1, len(images), filepath.Base(path))

		report.Report(50 + (i+1)*50/len(images))
	}

	for _, f := range task.Formats {
		p, err := o.packagers.Packager(f.Kind)
		if err != nil {
			return &PackagingError{Format: f.Kind, Cause: err}
		}
		if err := p.CreateOutput(staging, task.Destination); err != nil {
			return &PackagingError{Format: f.Kind, Cause: err}
		}
	}

	report.Report(100)
	return nil
}

func (o *Orchestrator) newStagingArea() (string, error) {
	if err := os.MkdirAll(o.stagingRoot, 0755); err != nil {
		return "", err
	}

	dir := filepath.Join(o.stagingRoot, "mangarip-"+uuid.NewString())
	if err := os.Mkdir(dir, 0700); err != nil {
		return "", err
	}

	return dir, nil
}

// finish disposes of the staging folder according to the outcome and turns
// context errors into ErrCancelled.
func (o *Orchestrator) finish(ctx context.Context, task *Task, staging string, err error) error {
	switch {
	case err == nil:
		if !o.keepStaging {
			_ = os.RemoveAll(staging)
		}
		o.log.Infof("finished %q\n", task.Chapter.Name)
		return nil

	case cancelled(ctx, err) && !errors.Is(err, ErrPackaging) && !errors.Is(err, ErrFetchFailed):
		_ = os.RemoveAll(staging)
		o.log.Infof("download of %q cancelled\n", task.Chapter.Name)
		return ErrCancelled
	}

	if util.RemoveIfEmpty(staging) {
		o.log.Errorf("failed to download %q: %v\n", task.Chapter.Name, err)
	} else {
		o.log.Errorf("failed to download %q: %v (staged pages kept in %s)\n", task.Chapter.Name, err, staging)
	}

	return err
}
