package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/brogergvhs/mangarip/internal/config"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var (
	flagAddFrom     string
	flagForceRemove bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config profiles of mangarip",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, used, err := config.LoadMerged(config.Options{
			IgnoreConfig: flagIgnoreConfig,
			Debug:        flagDebug,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Loaded config from:\n  %s\n\n", used)
		cfg.Print(out)
		return nil
	},
}

func confirm(label string) bool {
	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := prompt.Run()
	return err == nil
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the Default config and make it active",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "Default configuration:")
		config.DefaultConfig().Print(out)
		fmt.Fprintln(out)

		if !confirm(fmt.Sprintf("Create Default config in %s", config.ConfigsDir())) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}

		path, err := config.InitDefaultConfig()
		if errors.Is(err, os.ErrExist) {
			fmt.Fprintln(out, "Configuration already exists at:")
			fmt.Fprintln(out, "  ", path)
			fmt.Fprintln(out, "Use `mangarip config reset` to recreate it.")
			return nil
		}
		if err != nil {
			return err
		}

		_, _ = successStyle.Fprintln(out, "Config created at:", path)
		fmt.Fprintln(out, "This config is now active (label: Default).")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available configs",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := config.ListConfigs()
		if err != nil {
			return fmt.Errorf("cannot read configs directory: %w", err)
		}

		rows := [][]string{}
		for _, c := range list {
			active := ""
			if c.Active {
				active = "yes"
			}
			rows = append(rows, []string{c.Label, c.Path, active})
		}

		return printTable(cmd.OutOrStdout(), []string{"Label", "Path", "Active"}, rows)
	},
}

var configSwitchCmd = &cobra.Command{
	Use:   "switch [label]",
	Short: "Switch to a different configuration profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var label string

		if len(args) == 1 {
			label = args[0]
		} else {
			list, err := config.ListConfigs()
			if err != nil {
				return err
			}
			if len(list) == 0 {
				return fmt.Errorf("no configs available")
			}

			items := []string{}
			for _, c := range list {
				if c.Active {
					items = append(items, c.Label+"  (active)")
				} else {
					items = append(items, c.Label)
				}
			}

			prompt := promptui.Select{
				Label: "Select config",
				Items: items,
			}

			idx, _, err := prompt.Run()
			if err != nil {
				return fmt.Errorf("selection cancelled")
			}

			label = list[idx].Label
		}

		if err := config.SwitchConfig(label); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Switched to:", label)
		return nil
	},
}

var configAddCmd = &cobra.Command{
	Use:   "add <label>",
	Short: "Create a new config from the defaults or from an existing file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := args[0]

		if flagAddFrom != "" {
			if err := config.AddConfig(label, flagAddFrom); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s as %q\n", flagAddFrom, label)
			return nil
		}

		path, err := config.CreateEmptyConfig(label)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created new config: %s\n", path)
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit [label]",
	Short: "Open the current or the given config in $EDITOR",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string

		if len(args) == 0 {
			var err error
			path, err = config.ActiveConfigPath()
			if err != nil {
				return fmt.Errorf("failed to get current config: %w", err)
			}
		} else {
			list, err := config.ListConfigs()
			if err != nil {
				return err
			}
			for _, c := range list {
				if c.Label == args[0] {
					path = c.Path
				}
			}
			if path == "" {
				return fmt.Errorf("config %q does not exist", args[0])
			}
		}

		argv, err := config.EditorCommand(path)
		if err != nil {
			return err
		}

		editor := exec.CommandContext(cmd.Context(), argv[0], argv[1:]...)
		editor.Stdin = os.Stdin
		editor.Stdout = os.Stdout
		editor.Stderr = os.Stderr

		if err := editor.Run(); err != nil {
			return fmt.Errorf("failed to open editor: %w", err)
		}
		return nil
	},
}

var configRenameCmd = &cobra.Command{
	Use:   "rename <old_label> <new_label>",
	Short: "Rename an existing labeled config",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldLabel, newLabel := args[0], args[1]

		if err := config.RenameConfig(oldLabel, newLabel); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Renamed config %q → %q\n", oldLabel, newLabel)
		return nil
	},
}

var configRemoveCmd = &cobra.Command{
	Use:   "remove <label>",
	Short: "Remove a config",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := args[0]
		out := cmd.OutOrStdout()

		if active, _ := config.CurrentLabel(); label == active && !flagForceRemove {
			if !confirm(fmt.Sprintf("Config %q is currently active. Remove it anyway", label)) {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}
		}

		fellBack, err := config.RemoveConfig(label)
		if err != nil {
			return err
		}
		if fellBack {
			fmt.Fprintln(out, "Fallback switched to:", config.DefaultLabel)
		}

		fmt.Fprintf(out, "Removed configuration %q\n", label)
		return nil
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset [label]",
	Short: "Reset the current or the given config to default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := ""
		if len(args) == 1 {
			label = args[0]
		} else {
			var err error
			if label, err = config.CurrentLabel(); err != nil {
				return err
			}
		}

		path, err := config.ResetConfig(label)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Reset config: %s\n", path)
		return nil
	},
}

func init() {
	configAddCmd.Flags().StringVar(&flagAddFrom, "from", "", "import an existing YAML file instead of the defaults")
	configRemoveCmd.Flags().BoolVarP(&flagForceRemove, "force", "f", false, "do not ask before removing the active config")

	configCmd.AddCommand(
		configInitCmd,
		configListCmd,
		configSwitchCmd,
		configAddCmd,
		configEditCmd,
		configRenameCmd,
		configRemoveCmd,
		configResetCmd,
	)
	rootCmd.AddCommand(configCmd)
}
