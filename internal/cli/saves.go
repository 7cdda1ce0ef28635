package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/overlay/internal/data"
	"github.com/roach88/overlay/internal/state"
	"github.com/roach88/overlay/internal/store"
)

// SaveSummary describes one save slot.
type SaveSummary struct {
	Slot      int    `json:"slot"`
	SessionID string `json:"session_id"`
	Seq       int64  `json:"seq"`
	PlayTime  int64  `json:"play_time"`
	BlobHash  string `json:"blob_hash"`
}

// SaveDetail is a slot with its decoded blob.
type SaveDetail struct {
	SaveSummary
	Blob data.Object `json:"blob"`
}

// NewSavesCommand creates the saves command group.
func NewSavesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saves",
		Short: "Inspect save slots",
		Long: `Inspect the save slots in a save database (--db).

Examples:
  overlay saves list --db overlay.db
  overlay saves inspect 1 --db overlay.db --format json
  overlay saves delete 3`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List save slots",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSavesList(rootOpts, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "inspect <slot>",
		Short:         "Show one save slot, verifying its hash",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSavesInspect(rootOpts, args[0], cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "delete <slot>",
		Short:         "Delete one save slot",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSavesDelete(rootOpts, args[0], cmd)
		},
	})
	return cmd
}

// openSaves opens an existing save database. A missing file is a command
// error rather than a fresh empty database.
func openSaves(opts *RootOptions, formatter *OutputFormatter) (*store.Store, error) {
	if _, err := os.Stat(opts.SaveDB); err != nil {
		msg := fmt.Sprintf("save database not found: %s", opts.SaveDB)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return nil, NewExitError(ExitCommandError, msg)
	}
	st, err := store.Open(opts.SaveDB)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "open save database", err)
	}
	return st, nil
}

func parseSlot(arg string, formatter *OutputFormatter) (int, error) {
	slot, err := strconv.Atoi(arg)
	if err != nil || slot < 0 {
		msg := fmt.Sprintf("invalid slot %q", arg)
		_ = formatter.Error(ErrCodeGeneric, msg, nil)
		return 0, NewExitError(ExitCommandError, msg)
	}
	return slot, nil
}

func summarize(s store.Save) SaveSummary {
	return SaveSummary{
		Slot:      s.Slot,
		SessionID: s.SessionID,
		Seq:       s.Seq,
		PlayTime:  s.PlayTime,
		BlobHash:  s.BlobHash,
	}
}

func runSavesList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	st, err := openSaves(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	saves, err := st.ListSaves(cmd.Context())
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "list saves", err)
	}

	summaries := make([]SaveSummary, 0, len(saves))
	for _, s := range saves {
		summaries = append(summaries, summarize(s))
	}

	if formatter.Format == "json" {
		return formatter.Success(summaries)
	}
	w := formatter.Writer
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No saves.")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(w, "slot %d  seq %d  play time %s  session %s\n",
			s.Slot, s.Seq, formatPlayTime(s.PlayTime), s.SessionID)
	}
	return nil
}

func runSavesInspect(opts *RootOptions, arg string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	slot, err := parseSlot(arg, formatter)
	if err != nil {
		return err
	}
	st, err := openSaves(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	save, err := st.ReadSave(cmd.Context(), slot)
	if err != nil {
		return saveError(formatter, slot, err)
	}
	detail := SaveDetail{SaveSummary: summarize(save), Blob: save.Blob}

	if formatter.Format == "json" {
		return formatter.Success(detail)
	}
	w := formatter.Writer
	fmt.Fprintf(w, "slot %d  seq %d  play time %s  session %s\n",
		detail.Slot, detail.Seq, formatPlayTime(detail.PlayTime), detail.SessionID)
	fmt.Fprintf(w, "  hash      %s\n", detail.BlobHash)
	fmt.Fprintf(w, "  party     %v\n", detail.Blob.Object(state.KeyParty).List("actors").Ints())
	fmt.Fprintf(w, "  switches  %d set\n", len(detail.Blob.Object(state.KeySwitches)))
	fmt.Fprintf(w, "  variables %d set\n", len(detail.Blob.Object(state.KeyVariables)))
	fmt.Fprintf(w, "  self sw   %d set\n", len(detail.Blob.Object(state.KeySelfSwitches)))
	fmt.Fprintf(w, "  actors    %d saved\n", len(detail.Blob.Object(state.KeyActors)))
	return nil
}

func runSavesDelete(opts *RootOptions, arg string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	slot, err := parseSlot(arg, formatter)
	if err != nil {
		return err
	}
	st, err := openSaves(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteSave(cmd.Context(), slot); err != nil {
		return saveError(formatter, slot, err)
	}
	return formatter.Success(fmt.Sprintf("deleted slot %d", slot))
}

func saveError(formatter *OutputFormatter, slot int, err error) error {
	code := ErrCodeGeneric
	if errors.Is(err, store.ErrSlotEmpty) {
		code = ErrCodeSlotEmpty
	}
	_ = formatter.Error(code, err.Error(), map[string]int{"slot": slot})
	return WrapExitError(ExitCommandError, fmt.Sprintf("slot %d", slot), err)
}

// formatPlayTime renders seconds as h:mm:ss.
func formatPlayTime(secs int64) string {
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}
