package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/taskpad/internal/version"
	"github.com/GoCodeAlone/taskpad/update"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	storage    string
	path       string
	logLevel   string
	verbose    bool
}

// runFunc is a subcommand body that needs the wired application.
type runFunc func(cmd *cobra.Command, args []string, a *app) error

// appWrapper turns a runFunc into a cobra RunE.
type appWrapper func(runFunc) func(*cobra.Command, []string) error

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "taskpad",
		Short:         "taskpad - personal task manager with AI subtask breakdown",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(version.String() + "\n")

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to YAML config file (or $TASKPAD_CONFIG)")
	pf.StringVar(&flags.storage, "storage", "", "storage driver: sqlite, file or memory")
	pf.StringVar(&flags.path, "path", "", "database file (sqlite) or data directory (file)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "print task change events to stderr")

	// withApp opens storage for the duration of one command.
	var withApp appWrapper = func(fn runFunc) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			return fn(cmd, args, a)
		}
	}

	root.AddCommand(
		listCmd(withApp),
		addCmd(withApp),
		showCmd(withApp),
		editCmd(withApp),
		toggleCmd(withApp),
		subtaskCmd(withApp),
		generateCmd(withApp),
		removeCmd(withApp),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, version.String())
			if !check {
				return nil
			}
			rel, err := update.New(version.Version).Latest(cmd.Context())
			if err != nil {
				return fmt.Errorf("check for updates: %w", err)
			}
			if rel == nil {
				fmt.Fprintln(out, "up to date")
				return nil
			}
			fmt.Fprintf(out, "newer release available: %s\n", rel.Version)
			if rel.URL != "" {
				fmt.Fprintf(out, "download: %s\n", rel.URL)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "check GitHub for a newer release")
	return cmd
}
