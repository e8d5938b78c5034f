package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/halo/internal/halo"
	"github.com/jmylchreest/halo/internal/palette"
)

type renderFlags struct {
	sampling   samplingOptions
	alt        string
	styleClass string
	output     string
	json       bool
}

func newRenderCmd(a *app) *cobra.Command {
	f := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render <image>",
		Short: "Render the HTML of an image with its colour halo",
		Long: `Render the image component: a blurred halo in the image's dominant
colour, the image itself and a palette panel showing the colour.

If sampling fails the image is still rendered, without halo or panel.

Examples:
  halo render --alt "Sunset over the bay" sunset.jpg
  halo render --class hero -o hero.html https://example.com/cover.png
  halo render --json cover.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, a, f, args[0])
		},
	}

	f.sampling.bind(cmd.Flags())
	cmd.Flags().StringVar(&f.alt, "alt", "", "alternative text for the image")
	cmd.Flags().StringVar(&f.styleClass, "class", "", "extra CSS class for the container")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the halo parameters as JSON instead of HTML")
	return cmd
}

func runRender(cmd *cobra.Command, a *app, f *renderFlags, source string) error {
	c, err := a.newController(f.sampling)
	if err != nil {
		return err
	}
	defer c.OnDispose()

	d := palette.ImageDescriptor{Source: source, AltText: f.alt}
	state, err := c.Resolve(commandContext(cmd), d)
	if err != nil {
		a.logger.Warn("sampling interrupted, rendering without halo", "source", source, "error", err)
	}
	h := halo.Render(state)

	var out io.Writer = cmd.OutOrStdout()
	if f.output != "" {
		file, err := os.Create(f.output) // #nosec G304 - user-specified output path
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	if f.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(h)
	}

	props := halo.Props{Source: source, AltText: f.alt, StyleClass: f.styleClass}
	if err := halo.RenderHTML(out, props, h); err != nil {
		return err
	}
	_, err = fmt.Fprintln(out)
	return err
}
