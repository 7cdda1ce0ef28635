package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/overlay/internal/pak"
)

// PakEntry is one row of a container listing.
type PakEntry struct {
	Name       string `json:"name"`
	Profile    uint8  `json:"profile"`
	ColorCount uint16 `json:"color_count"`
	Width      uint16 `json:"width"`
	Height     uint16 `json:"height"`
	Stride     uint16 `json:"stride"`
	PaletteLen uint32 `json:"palette_len"`
	DataLen    uint32 `json:"data_len"`
}

// PakResult lists a container.
type PakResult struct {
	File    string     `json:"file"`
	Entries []PakEntry `json:"entries"`
}

// NewPakCommand creates the pak command group.
func NewPakCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pak",
		Short: "Inspect packed image containers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "inspect <file>",
		Short: "List the entries of a packed image container",
		Long: `List the entry table of a packed image container. Only the header and
the entry table are read.

Examples:
  overlay pak inspect data/tiles.pak
  overlay pak inspect data/tiles.pak --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPakInspect(rootOpts, args[0], cmd)
		},
	})
	return cmd
}

func runPakInspect(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	f, err := pak.OpenFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeBadPak, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open container", err)
	}
	defer f.Close()

	result := PakResult{File: path, Entries: make([]PakEntry, 0, len(f.Entries()))}
	for _, e := range f.Entries() {
		result.Entries = append(result.Entries, PakEntry{
			Name:       e.Name,
			Profile:    e.Profile,
			ColorCount: e.ColorCount,
			Width:      e.Width,
			Height:     e.Height,
			Stride:     e.Stride,
			PaletteLen: e.PaletteLen,
			DataLen:    e.DataLen,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	w := formatter.Writer
	fmt.Fprintf(w, "%s: %d entries\n", result.File, len(result.Entries))
	for _, e := range result.Entries {
		fmt.Fprintf(w, "  %-32s %3dx%-3d profile=%d colors=%d stride=%d palette=%d data=%d\n",
			e.Name, e.Width, e.Height, e.Profile, e.ColorCount, e.Stride, e.PaletteLen, e.DataLen)
	}
	return nil
}
