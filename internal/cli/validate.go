package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/overlay/internal/mapevent"
	"github.com/roach88/overlay/internal/source"
	"github.com/roach88/overlay/internal/state"
)

// SourceReport is the validation outcome of one data source.
type SourceReport struct {
	Name    string   `json:"name"`
	Exports int      `json:"exports"`
	Bytes   int64    `json:"bytes"`
	Errors  []string `json:"errors,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool           `json:"valid"`
	Sources []SourceReport `json:"sources"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [data-dir]",
		Short: "Check every data source in a content directory",
		Long: `Load every data source in a content directory and check it.

Each manifest must parse, each body must load, every exported object must
be present in the body, and every map source must set up as a playable map.

Exit codes:
  0 - All sources valid
  1 - One or more sources invalid
  2 - Command error (directory not found, etc.)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootOpts.DataDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(rootOpts, dir, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("data directory not found: %s", dir), nil)
	}

	loader := source.MultiLoader{Dir: dir}
	names, err := loader.Names()
	if err != nil {
		return outputValidateError(formatter, ErrCodeGeneric, err.Error(), nil)
	}
	formatter.VerboseLog("Found %d source(s) in %s", len(names), dir)

	logger := opts.Logger(formatter.GetErrWriter())
	result := ValidationResult{Valid: true, Sources: make([]SourceReport, 0, len(names))}
	for _, name := range names {
		report := validateSource(cmd.Context(), opts, loader, name, logger)
		if len(report.Errors) > 0 {
			result.Valid = false
		}
		result.Sources = append(result.Sources, report)
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// validateSource checks one source through the loader directly, so a
// malformed manifest is reported instead of degrading to empty.
func validateSource(ctx context.Context, opts *RootOptions, loader source.MultiLoader, name string, logger *slog.Logger) SourceReport {
	report := SourceReport{Name: name}

	manifest, err := loader.LoadManifest(name)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("manifest: %v", err))
		return report
	}
	report.Exports = len(manifest.Exports)

	loaded, err := loader.LoadSource(name)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("body: %v", err))
		return report
	}
	report.Bytes = loaded.Bytes
	for _, obj := range manifest.Exports {
		if _, ok := loaded.Objects[obj]; !ok {
			report.Errors = append(report.Errors, fmt.Sprintf("export %s missing from body", obj))
		}
	}

	if id, ok := mapID(name); ok && len(report.Errors) == 0 {
		if ctx == nil {
			ctx = context.Background()
		}
		store := opts.openStore(loader.Dir, logger)
		m := mapevent.New(store, state.NewRegistry(store, logger), idleInterpreter{}, logger)
		if err := m.Setup(ctx, id); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("map setup: %v", err))
		}
	}
	return report
}

// mapID reports whether name is a map source and returns its id.
func mapID(name string) (int, bool) {
	var id int
	if n, err := fmt.Sscanf(name, "map_%d", &id); err != nil || n != 1 {
		return 0, false
	}
	return id, source.MapSource(id) == name
}

// idleInterpreter never runs anything. Validation only sets maps up.
type idleInterpreter struct{}

func (idleInterpreter) Setup([]mapevent.Instruction, int) {}
func (idleInterpreter) IsRunning() bool                   { return false }
func (idleInterpreter) Update()                           {}
func (idleInterpreter) Clear()                            {}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	for _, s := range result.Sources {
		fmt.Fprintf(formatter.Writer, "✓ %s (%d exports, %d bytes)\n", s.Name, s.Exports, s.Bytes)
	}
	fmt.Fprintf(formatter.Writer, "✓ All %d sources valid\n", len(result.Sources))
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs every failing source.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	failed := 0
	for _, s := range result.Sources {
		if len(s.Errors) > 0 {
			failed++
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Report(result, ErrCodeInvalidContent, fmt.Sprintf("%d source(s) invalid", failed)); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d source(s)", failed))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, s := range result.Sources {
		if len(s.Errors) == 0 {
			fmt.Fprintf(formatter.Writer, "✓ %s\n", s.Name)
			continue
		}
		fmt.Fprintf(formatter.Writer, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(formatter.Writer, "  %s\n", e)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d source(s)", failed))
}
