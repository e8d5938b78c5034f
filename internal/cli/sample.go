package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/halo/internal/colour"
	"github.com/jmylchreest/halo/internal/palette"
)

type sampleFlags struct {
	sampling samplingOptions
	format   string
	preview  bool
}

func newSampleCmd(a *app) *cobra.Command {
	f := &sampleFlags{}
	cmd := &cobra.Command{
		Use:   "sample <image>",
		Short: "Print the dominant colour of an image",
		Long: `Sample the dominant colour of an image and print it.

The image may be a local file or an http(s) URL. Supported formats:
JPEG, PNG, GIF, WebP.

Examples:
  # Print the dominant colour as hex
  halo sample photo.jpg

  # Print hex and dark flag as JSON
  halo sample --format json https://example.com/photo.png

  # Show a colour swatch in the terminal
  halo sample --preview photo.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(cmd, a, f, args[0])
		},
	}

	f.sampling.bind(cmd.Flags())
	cmd.Flags().StringVarP(&f.format, "format", "f", "hex", "output format (hex, json)")
	cmd.Flags().BoolVarP(&f.preview, "preview", "p", false, "show a colour swatch when writing to a terminal")
	return cmd
}

func runSample(cmd *cobra.Command, a *app, f *sampleFlags, source string) error {
	if f.format != "hex" && f.format != "json" {
		return fmt.Errorf("unsupported format: %s (supported: hex, json)", f.format)
	}

	c, err := a.newController(f.sampling)
	if err != nil {
		return err
	}
	defer c.OnDispose()

	state, err := c.Resolve(commandContext(cmd), palette.ImageDescriptor{Source: source})
	if err != nil {
		return fmt.Errorf("sampling interrupted: %w", err)
	}
	if state.Phase != palette.Sampled {
		return fmt.Errorf("failed to sample %s: %s", source, state.Reason)
	}

	out := cmd.OutOrStdout()
	if f.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(state.Sample)
	}

	line := state.Sample.Hex
	if state.Sample.IsDark {
		line += " dark"
	} else {
		line += " light"
	}
	if f.preview && writesToTerminal(out) {
		if rgb, err := colour.ParseHex(state.Sample.Hex); err == nil {
			line = colour.SwatchWithText(rgb, state.Sample.Hex, 9) + " " + line
		}
	}
	_, err = fmt.Fprintln(out, line)
	return err
}

// writesToTerminal reports whether w is a terminal accepting colour escapes.
func writesToTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && colour.SupportsANSI(f)
}

// commandContext returns the command's context or Background.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
