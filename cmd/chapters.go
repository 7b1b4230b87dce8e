package cmd

import (
	"fmt"
	"strconv"

	"github.com/brogergvhs/mangarip/internal/chapters"
	"github.com/brogergvhs/mangarip/internal/config"
	"github.com/brogergvhs/mangarip/internal/downloader"
	"github.com/brogergvhs/mangarip/internal/ui"
	"github.com/brogergvhs/mangarip/internal/util"

	"github.com/spf13/cobra"
)

var chaptersURL string

var chaptersCmd = &cobra.Command{
	Use:   "chapters",
	Short: "List the chapters found at a URL without downloading",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(config.Options{
			IgnoreConfig: flagIgnoreConfig,
			Debug:        flagDebug,
			DefaultURL:   chaptersURL,
		})
		if err != nil {
			return err
		}
		if s.cfg.DefaultURL == "" {
			return fmt.Errorf("missing --url and no default_url in config")
		}

		adapter, err := s.registry.Resolve(s.cfg.DefaultURL)
		if err != nil {
			return err
		}

		scope := downloader.NewScope(cmd.Context())
		stop := util.SetupInterruptHandler(scope.Cancel)
		defer stop()

		out := cmd.OutOrStdout()
		all, err := discover(scope.Context(), s.orchestrator(&ui.Stats{}), s.cfg.DefaultURL, out)
		if err != nil {
			return err
		}

		_, _ = headerStyle.Fprintf(out, "%d chapters via %s\n", len(all), adapter.Info().Name)

		rows := make([][]string, 0, len(all))
		for i, ch := range all {
			rows = append(rows, []string{strconv.Itoa(i + 1), ch.Name, chapters.FolderName(ch, i+1), ch.URL})
		}
		return printTable(out, []string{"#", "Chapter", "Folder", "URL"}, rows)
	},
}

func init() {
	chaptersCmd.Flags().StringVar(&chaptersURL, "url", "", "manga series/chapters page URL")
	rootCmd.AddCommand(chaptersCmd)
}
