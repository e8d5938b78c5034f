package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/halo/internal/links"
)

type linkFlags struct {
	base    string
	explain bool
}

func newLinkCmd(a *app) *cobra.Command {
	f := &linkFlags{}
	cmd := &cobra.Command{
		Use:   "link <href>...",
		Short: "Resolve internal links against the site base path",
		Long: `Resolve each href against the base path the site is deployed under.

External links (http, mailto) and fragments are left alone, as are relative
paths. Absolute paths are always prefixed with the base path, even when they
already start with the same segment.

Examples:
  halo link --base /blog/ /about /
  HALO_BASE_URL=/blog/ halo link --explain /blog/post-1 about`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLink(cmd, a, f, args)
		},
	}

	cmd.Flags().StringVarP(&f.base, "base", "b", "", "deployment base URL (default from config)")
	cmd.Flags().BoolVarP(&f.explain, "explain", "e", false, "print a table showing which rule applied")
	return cmd
}

func (a *app) basePath(override string, changed bool) string {
	if changed {
		return links.TrimBase(override)
	}
	return a.cfg.BasePath()
}

func runLink(cmd *cobra.Command, a *app, f *linkFlags, hrefs []string) error {
	base := a.basePath(f.base, cmd.Flags().Changed("base"))
	out := cmd.OutOrStdout()

	if !f.explain {
		for _, href := range hrefs {
			if _, err := fmt.Fprintln(out, links.Normalize(href, base)); err != nil {
				return err
			}
		}
		return nil
	}

	table := NewTable("HREF", "RESOLVED", "RULE")
	for _, href := range hrefs {
		resolved, rule := links.Resolve(href, base)
		table.AddRow(href, resolved, rule.String())
	}
	_, err := fmt.Fprint(out, table.Render())
	return err
}
