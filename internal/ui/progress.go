package ui

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

type ProgressManager struct {
	p *mpb.Progress
}

func NewProgressManager(out io.Writer) *ProgressManager {
	p := mpb.New(
		mpb.WithWidth(52),
		mpb.WithOutput(out),
		mpb.WithRefreshRate(120*time.Millisecond),
	)
	return &ProgressManager{p: p}
}

// Write prints above the running bars, so log output can be routed here.
func (pm *ProgressManager) Write(b []byte) (int, error) {
	return pm.p.Write(b)
}

// Close waits for every registered bar to complete or abort.
func (pm *ProgressManager) Close() {
	pm.p.Wait()
}

// Register adds a 0..100 percent bar.
func (pm *ProgressManager) Register(prefix string) *ProgressHandle {
	h := &ProgressHandle{
		prefix: prefix,
		start:  time.Now(),
	}
	h.status.Store("")
	h.initBar(pm.p)
	return h
}

type ProgressHandle struct {
	prefix string
	bar    *mpb.Bar

	start   time.Time
	elapsed atomic.Int64
	status  atomic.Value

	final atomic.Bool
}

func (h *ProgressHandle) initBar(p *mpb.Progress) {
	h.bar = p.New(
		100,
		mpb.BarStyle().Rbound("]"),

		mpb.PrependDecorators(
			decor.Name(h.prefix+"  "),
		),

		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncWidth),

			decor.Any(func(_ decor.Statistics) string {
				if h.final.Load() {
					return fmt.Sprintf(" | %ds", h.elapsed.Load())
				}
				return fmt.Sprintf(" | %ds", int(time.Since(h.start).Seconds()))
			}),

			decor.Any(func(_ decor.Statistics) string {
				if s := h.status.Load().(string); s != "" {
					return " | " + s
				}
				return ""
			}),
		),
	)
}

// Report moves the bar to percent. It matches providers.ProgressFunc.
func (h *ProgressHandle) Report(percent int) {
	if h.final.Load() {
		return
	}

	// reaching 100 would complete the bar before MarkDone sets the status
	h.bar.SetCurrent(int64(min(max(percent, 0), 99)))
}

func (h *ProgressHandle) finish(status string) bool {
	if h.final.Swap(true) {
		return false
	}

	h.elapsed.Store(int64(time.Since(h.start).Seconds()))
	h.status.Store(status)
	return true
}

func (h *ProgressHandle) MarkDone() {
	if h.finish("done") {
		h.bar.SetCurrent(100)
	}
}

// Abort stops the bar where it is and labels it with status.
func (h *ProgressHandle) Abort(status string) {
	if h.finish(status) {
		h.bar.Abort(false)
	}
}
