// Package cli implements the metaspector command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/simonhull/metaspector"
	"github.com/simonhull/metaspector/internal/config"
)

// app carries the state shared by every subcommand once the persistent
// flags are parsed.
type app struct {
	configPath string
	verbose    bool

	cfg *config.Config
	log *slog.Logger
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "metaspector",
		Short:         "Inspect metadata in MP4, MP3 and FLAC files",
		Version:       metaspector.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default $"+config.EnvPath+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log decoder diagnostics to stderr")

	root.AddCommand(
		newInspectCommand(a),
		newExportCommand(a),
		newBoxesCommand(a),
		newServeCommand(a),
		newVersionCommand(),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = cfg.Logger(cmd.ErrOrStderr(), a.verbose)
	return nil
}

// options returns the library options for the loaded configuration.
func (a *app) options(extra ...metaspector.Option) []metaspector.Option {
	return append(a.cfg.Options(a.log), extra...)
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}
