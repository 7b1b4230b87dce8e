package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brogergvhs/mangarip/internal/chapters"
	"github.com/brogergvhs/mangarip/internal/config"
	"github.com/brogergvhs/mangarip/internal/downloader"
	"github.com/brogergvhs/mangarip/internal/providers"
	"github.com/brogergvhs/mangarip/internal/ui"
	"github.com/brogergvhs/mangarip/internal/util"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var (
	// selection
	flagURL         string
	flagChapter     string
	flagRange       string
	flagList        string
	flagInteractive bool
	flagAllowExt    string

	// output
	flagOutput      string
	flagFormats     []string
	flagCounter     bool
	flagKeepStaging bool
	flagSeries      bool
	flagStagingDir  string

	// runtime
	flagConcurrency int
	flagRetries     int
	flagTimeout     time.Duration
	flagDryRun      bool

	// headers/auth
	flagCookie     string
	flagCookieFile string
	flagUserAgent  string
	flagReferer    string
	flagCloudflare bool
)

func init() {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download manga chapters. Uses the defaults from the selected config, overwritten by CLI flags",
		RunE:  runDownload,
	}

	// selection
	downloadCmd.Flags().StringVar(&flagURL, "url", "", "manga series/chapters page URL")
	downloadCmd.Flags().StringVar(&flagChapter, "chapter", "", "download single chapter by position or name (e.g. 5 or \"Chapter 28.5\")")
	downloadCmd.Flags().StringVar(&flagRange, "range", "", "download range of chapters by position (e.g. 5-12)")
	downloadCmd.Flags().StringVar(&flagList, "list", "", "download specific chapter positions (e.g. 1,3,5)")
	downloadCmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "pick chapters from the list before downloading")
	downloadCmd.Flags().StringVar(&flagAllowExt, "allow-ext", "", "Allowed image extensions (e.g. \"webp|jpg|png\")")
	downloadCmd.MarkFlagsMutuallyExclusive("chapter", "range", "list")

	// output
	downloadCmd.Flags().StringVar(&flagOutput, "output", "", "output folder, one sub folder per chapter")
	downloadCmd.Flags().StringSliceVar(&flagFormats, "format", nil, "output formats: folder, cbz, plain (e.g. folder,cbz)")
	downloadCmd.Flags().BoolVar(&flagCounter, "counter", false, "name staged pages 0000.jpg, 0001.jpg... instead of the server names")
	downloadCmd.Flags().BoolVar(&flagKeepStaging, "keep-staging", false, "keep staging folders after successful downloads")
	downloadCmd.Flags().BoolVar(&flagSeries, "series-folder", false, "put the chapters in a sub folder named after the series")
	downloadCmd.Flags().StringVar(&flagStagingDir, "staging-dir", "", "where staging folders are created (default: system temp)")

	// runtime
	downloadCmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "chapter operations running at once (default 2)")
	downloadCmd.Flags().IntVar(&flagRetries, "retries", 0, "attempts per image (default 3)")
	downloadCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "per request timeout (default 30s)")
	downloadCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "show what would be downloaded, don’t download")

	// headers/auth
	downloadCmd.Flags().StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	downloadCmd.Flags().StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	downloadCmd.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")
	downloadCmd.Flags().StringVar(&flagReferer, "referer", "", "Referer sent with page requests")
	downloadCmd.Flags().BoolVar(&flagCloudflare, "cloudflare", false, "use the Cloudflare bypass transport")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	s, err := newSession(config.Options{
		IgnoreConfig:  flagIgnoreConfig,
		Debug:         flagDebug,
		Output:        flagOutput,
		Concurrency:   flagConcurrency,
		Formats:       flagFormats,
		CounterNaming: flagCounter,
		KeepStaging:   flagKeepStaging,
		SeriesFolder:  flagSeries,
		StagingDir:    flagStagingDir,
		Retries:       flagRetries,
		Timeout:       flagTimeout,
		AllowExt:      splitExt(flagAllowExt),
		DefaultURL:    flagURL,
		DefaultRange:  flagRange,
		DefaultList:   flagList,
		Cookie:        flagCookie,
		CookieFile:    flagCookieFile,
		UserAgent:     flagUserAgent,
		Referer:       flagReferer,
		Cloudflare:    flagCloudflare,
	})
	if err != nil {
		return err
	}
	cfg := s.cfg

	fmt.Fprintf(out, "Config file: %s\n", s.source)
	if cfg.Debug {
		fmt.Fprintln(out, "Full config:")
		cfg.Print(out)
		fmt.Fprintln(out)
	}

	if cfg.DefaultURL == "" {
		return fmt.Errorf("missing --url and no default_url in config")
	}

	formats, err := downloader.ParseFormats(cfg.Formats, cfg.CounterNaming)
	if err != nil {
		return err
	}

	scope := downloader.NewScope(cmd.Context())
	stop := util.SetupInterruptHandler(scope.Cancel)
	defer stop()

	stats := &ui.Stats{}
	orch := s.orchestrator(stats)

	all, err := discover(scope.Context(), orch, cfg.DefaultURL, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Found %d chapters on the site.\n\n", len(all))

	sel := chapters.Selection{Chapter: flagChapter, Range: cfg.DefaultRange, List: cfg.DefaultList}
	if flagInteractive && sel.Empty() {
		if sel, err = promptSelection(out, all); err != nil {
			return err
		}
	}

	selected, err := chapters.Filter(all, sel)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return fmt.Errorf("no chapters selected")
	}

	position := positions(all)
	dests := destinations(seriesRoot(cfg), selected, position)

	q := downloader.NewQueue(orch)
	for i, ch := range selected {
		if err := q.Add(downloader.NewTask(ch, dests[i], formats)); err != nil {
			s.log.Warnf("skipping %q: %v", ch.Name, err)
		}
	}

	if flagDryRun {
		fmt.Fprintf(out, "Dry-run: %d chapters selected.\n\n", len(q.Tasks()))
		rows := [][]string{}
		for _, t := range q.Tasks() {
			rows = append(rows, []string{strconv.Itoa(position[t.Chapter.URL]), t.Chapter.Name, t.Destination, t.Chapter.URL})
		}
		return printTable(out, []string{"#", "Chapter", "Destination", "URL"}, rows)
	}

	if err := os.MkdirAll(cfg.Output, 0755); err != nil {
		return fmt.Errorf("cannot create output folder: %w", err)
	}

	start := time.Now()
	results := runQueue(scope.Context(), q, s.log, stats, out)

	return summarize(out, results, stats, time.Since(start), scope.Cancelled())
}

// positions maps each chapter URL to its 1-based place in the listing.
func positions(all []providers.Chapter) map[string]int {
	position := make(map[string]int, len(all))
	for i, ch := range all {
		if _, ok := position[ch.URL]; !ok {
			position[ch.URL] = i + 1
		}
	}

	return position
}

// seriesRoot is the folder chapters are written under.
func seriesRoot(cfg *config.Config) string {
	if !cfg.SeriesFolder {
		return cfg.Output
	}

	series := chapters.SeriesFolder(cfg.DefaultURL)
	if series == "" {
		return cfg.Output
	}

	return filepath.Join(cfg.Output, series)
}

// destinations gives every selected chapter its own folder under root, in
// selection order.
func destinations(root string, selected []providers.Chapter, position map[string]int) []string {
	namer := chapters.NewNamer()

	dests := make([]string, len(selected))
	for i, ch := range selected {
		dests[i] = filepath.Join(root, namer.Name(ch, position[ch.URL]))
	}

	return dests
}

// discover lists the chapters behind url with a progress bar.
func discover(ctx context.Context, orch *downloader.Orchestrator, url string, out io.Writer) ([]providers.Chapter, error) {
	pm := ui.NewProgressManager(out)
	h := pm.Register("Chapters")

	all, err := orch.DiscoverChapters(ctx, url, h.Report)
	switch {
	case errors.Is(err, downloader.ErrCancelled):
		h.Abort("cancelled")
	case err != nil:
		h.Abort("failed")
	default:
		h.MarkDone()
	}
	pm.Close()

	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no chapters found at %s", url)
	}

	return all, nil
}

func promptSelection(out io.Writer, all []providers.Chapter) (chapters.Selection, error) {
	rows := make([][]string, 0, len(all))
	for i, ch := range all {
		rows = append(rows, []string{strconv.Itoa(i + 1), ch.Name})
	}
	if err := printTable(out, []string{"#", "Chapter"}, rows); err != nil {
		return chapters.Selection{}, err
	}

	parse := func(in string) chapters.Selection {
		if strings.Contains(in, "-") {
			return chapters.Selection{Range: in}
		}
		return chapters.Selection{List: in}
	}

	prompt := promptui.Prompt{
		Label: "Chapters to download (e.g. 3-7 or 1,4,9; empty for all)",
		Validate: func(in string) error {
			if in == "" {
				return nil
			}
			_, err := chapters.Filter(all, parse(in))
			return err
		},
	}

	in, err := prompt.Run()
	if err != nil {
		return chapters.Selection{}, fmt.Errorf("selection cancelled")
	}
	if in == "" {
		return chapters.Selection{}, nil
	}

	return parse(in), nil
}

// runQueue downloads every queued chapter with one bar each. Log lines are
// printed above the bars while they run.
func runQueue(ctx context.Context, q *downloader.Queue, log *ui.Logger, stats *ui.Stats, out io.Writer) []downloader.Result {
	pm := ui.NewProgressManager(out)
	log.SetOutput(pm)
	defer log.SetOutput(os.Stderr)

	var (
		mu      sync.Mutex
		handles = map[string]*ui.ProgressHandle{}
	)
	handle := func(t *downloader.Task) *ui.ProgressHandle {
		mu.Lock()
		defer mu.Unlock()

		h, ok := handles[t.ID]
		if !ok {
			h = pm.Register(t.Chapter.Name)
			handles[t.ID] = h
		}
		return h
	}

	results := q.Run(ctx, downloader.Hooks{
		Progress: func(t *downloader.Task) providers.ProgressFunc {
			return handle(t).Report
		},
		Done: func(r downloader.Result) {
			h := handle(r.Task)
			switch r.Outcome {
			case downloader.Done:
				h.MarkDone()
				stats.TotalChapters.Add(1)
				stats.TotalImages.Add(int64(r.Task.Pages()))
			case downloader.Cancelled:
				h.Abort("cancelled")
				stats.Cancelled.Add(1)
			default:
				h.Abort("failed")
				stats.Failed.Add(1)
			}
		},
	})
	pm.Close()

	return results
}

func summarize(out io.Writer, results []downloader.Result, stats *ui.Stats, took time.Duration, cancelled bool) error {
	fmt.Fprintln(out)
	_, _ = headerStyle.Fprintln(out, "Download Summary:")
	fmt.Fprintf(out, "Chapters: %d\n", stats.TotalChapters.Load())
	fmt.Fprintf(out, "Images:   %d\n", stats.TotalImages.Load())
	fmt.Fprintf(out, "Data:     %s\n", util.Human(stats.TotalBytes.Load()))
	fmt.Fprintf(out, "Time:     %s\n", took.Round(time.Second))

	for _, r := range results {
		if r.Outcome == downloader.Failed {
			_, _ = errorStyle.Fprintf(out, "  failed  %s: %v\n", r.Task.Chapter.Name, r.Err)
		}
	}

	if n := stats.Cancelled.Load(); n > 0 {
		_, _ = warningStyle.Fprintf(out, "%d chapters cancelled\n", n)
	}

	if failed := stats.Failed.Load(); failed > 0 {
		return fmt.Errorf("%d of %d chapters failed", failed, len(results))
	}
	if cancelled {
		return downloader.ErrCancelled
	}

	_, _ = successStyle.Fprintln(out, "\nAll done.")
	return nil
}
