package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/mindfulme/backend/internal/app"
	"github.com/zhouzirui/mindfulme/backend/internal/config"
	"github.com/zhouzirui/mindfulme/backend/internal/logging"
	"github.com/zhouzirui/mindfulme/backend/pkg/utils"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

// opener builds the services for one command invocation.
type opener func(ctx context.Context, dbPath string, verbose bool) (*app.App, error)

// openApp loads configuration from the environment and points the record
// store at the SQLite file at dbPath.
func openApp(ctx context.Context, dbPath string, verbose bool) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	path, err := utils.ResolveDataPath(dbPath)
	if err != nil {
		return nil, err
	}
	cfg.Storage.Backend = config.BackendSQLite
	cfg.Storage.Path = path

	level := "error"
	if verbose {
		level = "debug"
	}
	logger := logging.NewWithWriter(logging.Config{Level: level, Pretty: true}, os.Stderr)
	logging.BridgeStdlib(logger)

	return app.Build(ctx, cfg, logger)
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

func newRootCmd(open opener) *cobra.Command {
	var (
		dbPath  string
		verbose bool
	)

	rootCmd := &cobra.Command{
		Use:           "moodctl",
		Short:         "Inspect and edit the local MindfulMe data store",
		Version:       version,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", fmt.Sprintf("SQLite data file (default %s)", utils.DefaultDataPath()))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log service activity to stderr")

	// withApp opens the services for the duration of fn.
	withApp := func(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := open(ctx, dbPath, verbose)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, a)
	}

	rootCmd.AddCommand(
		newMoodCmd(withApp),
		newStatsCmd(withApp),
		newChatCmd(withApp),
		newExportCmd(withApp),
		newCompletionCmd(rootCmd),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number of moodctl",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)
	return rootCmd
}

type runner func(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error

func newCompletionCmd(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("completion %s", strings.Join(completionShells, "|")),
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for moodctl.

  Bash:
    $ source <(moodctl completion bash)

  Zsh:
    $ moodctl completion zsh > "${fpath[1]}/_moodctl"

  Fish:
    $ moodctl completion fish | source`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(out)
			case "zsh":
				return rootCmd.GenZshCompletion(out)
			case "fish":
				return rootCmd.GenFishCompletion(out, true)
			case "powershell":
				return rootCmd.GenPowerShellCompletion(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}

func printJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}
