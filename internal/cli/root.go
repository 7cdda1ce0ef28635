// Package cli implements the overlay command: content validation, manifest
// and object inspection, pak listing, scenario tests and save slots.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/overlay/internal/config"
	"github.com/roach88/overlay/internal/source"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DataDir string
	SaveDB  string

	Config config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command. cfg supplies flag defaults.
func NewRootCommand(cfg config.Config) *cobra.Command {
	opts := &RootOptions{Config: cfg}

	cmd := &cobra.Command{
		Use:   "overlay",
		Short: "overlay - paged game data runtime",
		Long:  "Tools for content authors: validate data sources, inspect manifests, packed images and save slots, and run play scenarios.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data", cfg.DataDir, "content directory")
	cmd.PersistentFlags().StringVar(&opts.SaveDB, "db", cfg.SaveDB, "save database path")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewManifestCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewPakCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewSavesCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// Logger returns a text logger on w at the configured level, or debug
// when --verbose is set.
func (o *RootOptions) Logger(w io.Writer) *slog.Logger {
	level, err := o.Config.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openStore opens a data store over dir.
func (o *RootOptions) openStore(dir string, logger *slog.Logger) *source.Store {
	opts := []source.Option{source.WithLogger(logger)}
	if !o.Config.Reclaim {
		opts = append(opts, source.WithReclaimer(nil))
	}
	return source.NewStore(source.MultiLoader{Dir: dir}, opts...)
}
