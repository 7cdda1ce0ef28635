package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/overlay/internal/data"
	"github.com/roach88/overlay/internal/source"
)

// ManifestResult is the manifest of one source.
type ManifestResult struct {
	Source      string   `json:"source"`
	Description string   `json:"description"`
	Exports     []string `json:"exports"`
}

// NewManifestCommand creates the manifest command.
func NewManifestCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "manifest <source>",
		Short: "Show what a data source exports",
		Long: `Read the manifest of a data source without loading its body.

Examples:
  overlay manifest actors
  overlay manifest map_001 --data ./content --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManifest(rootOpts, args[0], cmd)
		},
	}
}

func runManifest(opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	store := opts.openStore(opts.DataDir, opts.Logger(formatter.GetErrWriter()))

	m, err := store.Manifest(name)
	if err != nil {
		return sourceError(formatter, err)
	}
	exports := m.Exports
	if exports == nil {
		exports = []string{}
	}
	result := ManifestResult{Source: name, Description: m.Description, Exports: exports}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	w := formatter.Writer
	fmt.Fprintf(w, "%s: %s\n", result.Source, result.Description)
	for _, e := range result.Exports {
		fmt.Fprintf(w, "  %s\n", e)
	}
	return nil
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <source> <object>",
		Short: "Print one exported object as canonical JSON",
		Long: `Load one object from a data source and print it as canonical JSON.
The source is released again before the command returns.

Examples:
  overlay get actors ACTOR_001
  overlay get tilesets TILESET_001 --data ./content`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runGet(opts *RootOptions, name, object string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.Logger(formatter.GetErrWriter())
	store := opts.openStore(opts.DataDir, logger)

	v, err := store.Get(cmd.Context(), name, object)
	if err != nil {
		return sourceError(formatter, err)
	}
	formatter.VerboseLog("Resident after get: %v", store.Resident())

	if formatter.Format == "json" {
		return formatter.Success(v)
	}
	out, err := data.MarshalCanonical(v)
	if err != nil {
		return WrapExitError(ExitCommandError, "marshal object", err)
	}
	fmt.Fprintln(formatter.Writer, string(out))
	return nil
}

// sourceError reports a data store error with the matching code.
func sourceError(formatter *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	switch {
	case source.IsUnavailable(err):
		code = ErrCodeNotFound
	case source.IsNotExported(err):
		code = ErrCodeNotExported
	}
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, code, err)
}
