package cmd

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/brogergvhs/mangarip/internal/config"
	"github.com/brogergvhs/mangarip/internal/downloader"
	"github.com/brogergvhs/mangarip/internal/output"
	"github.com/brogergvhs/mangarip/internal/providers"
	"github.com/brogergvhs/mangarip/internal/providers/generic"
	"github.com/brogergvhs/mangarip/internal/ui"
	"github.com/brogergvhs/mangarip/internal/util"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// session is what every network command needs: the merged config, a logger,
// the shared HTTP client and the adapter registry.
type session struct {
	cfg      *config.Config
	source   string
	log      *ui.Logger
	client   *http.Client
	registry *providers.Registry
}

func newSession(opts config.Options) (*session, error) {
	cfg, source, err := config.LoadMerged(opts)
	if err != nil {
		return nil, err
	}

	log := ui.NewLogger(cfg.Debug)

	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:          cfg.Timeout,
		UserAgent:        util.PickUserAgent(cfg.UserAgent),
		Cookie:           cfg.Cookie,
		CookieFile:       cfg.CookieFile,
		Referer:          cfg.Referer,
		CloudflareBypass: cfg.Cloudflare,
		DebugLogger:      log,
	})
	if err != nil {
		return nil, err
	}

	registry, err := buildRegistry(cfg, client, log)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:      cfg,
		source:   source,
		log:      log,
		client:   client,
		registry: registry,
	}, nil
}

// buildRegistry lists adapters in priority order: configured sites first,
// the generic scraper last so it only gets what nobody else claims.
func buildRegistry(cfg *config.Config, client *http.Client, log *ui.Logger) (*providers.Registry, error) {
	reg := providers.NewRegistry()

	for _, s := range cfg.Sites {
		allow := s.AllowExt
		if len(allow) == 0 {
			allow = cfg.AllowExt
		}

		a, err := providers.Match(
			generic.NewScraper(client, log.WithField("site", s.Name), allow),
			providers.Info{Name: s.Name, Link: s.Link},
			s.Patterns...,
		)
		if err != nil {
			return nil, fmt.Errorf("site %q: %w", s.Name, err)
		}
		reg.Register(a)
	}

	reg.Register(generic.NewScraper(client, log, cfg.AllowExt))
	return reg, nil
}

func (s *session) orchestrator(stats *ui.Stats) *downloader.Orchestrator {
	fetcher := downloader.NewFetcher(s.client,
		downloader.WithRetry(s.cfg.Retries, s.cfg.RetryBackoff),
		downloader.WithByteCounter(func(n int64) { stats.TotalBytes.Add(n) }),
	)

	return downloader.New(s.registry, fetcher, output.Factory{}, s.log, downloader.Options{
		Concurrency: s.cfg.Concurrency,
		StagingRoot: s.cfg.StagingDir,
		KeepStaging: s.cfg.KeepStaging,
	})
}

func printTable(w io.Writer, headers []string, data [][]string) error {
	table := tablewriter.NewTable(w)
	table.Configure(func(tableConfig *tablewriter.Config) {
		tableConfig.Header.Alignment.Global = tw.AlignLeft
		tableConfig.Row.Alignment.Global = tw.AlignLeft
		tableConfig.Header.Padding.Global = tw.Padding{Left: " ", Right: " "}
		tableConfig.Row.Padding.Global = tw.Padding{Left: " ", Right: " "}
	})

	table.Header(headers)
	if err := table.Bulk(data); err != nil {
		return err
	}

	return table.Render()
}

func splitExt(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ',' || r == ' '
	})

	out := []string{}
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			out = append(out, f)
		}
	}

	return out
}
