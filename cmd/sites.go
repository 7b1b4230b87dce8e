package cmd

import (
	"strconv"

	"github.com/brogergvhs/mangarip/internal/config"

	"github.com/spf13/cobra"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the registered site adapters in the order they are tried",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(config.Options{
			IgnoreConfig: flagIgnoreConfig,
			Debug:        flagDebug,
		})
		if err != nil {
			return err
		}

		rows := [][]string{}
		for i, a := range s.registry.Adapters() {
			info := a.Info()
			link := info.Link
			if link == "" {
				link = "-"
			}
			rows = append(rows, []string{strconv.Itoa(i + 1), info.Name, link})
		}

		return printTable(cmd.OutOrStdout(), []string{"#", "Site", "Link"}, rows)
	},
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}
