package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/halo/internal/links"
)

type rewriteFlags struct {
	base    string
	output  string
	inPlace bool
}

func newRewriteCmd(a *app) *cobra.Command {
	f := &rewriteFlags{}
	cmd := &cobra.Command{
		Use:   "rewrite <file.html>",
		Short: "Resolve every internal link in an HTML file",
		Long: `Rewrite the href of every <a> element in an HTML document or fragment
against the deployment base path, using the same rules as "halo link".

Examples:
  halo rewrite --base /blog/ index.html
  halo rewrite --in-place dist/about.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewrite(cmd, a, f, args[0])
		},
	}

	cmd.Flags().StringVarP(&f.base, "base", "b", "", "deployment base URL (default from config)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVarP(&f.inPlace, "in-place", "i", false, "overwrite the input file")
	return cmd
}

func runRewrite(cmd *cobra.Command, a *app, f *rewriteFlags, path string) error {
	if f.inPlace && f.output != "" {
		return fmt.Errorf("--in-place and --output are mutually exclusive")
	}

	data, err := os.ReadFile(path) // #nosec G304 - user-specified input path
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	base := a.basePath(f.base, cmd.Flags().Changed("base"))
	a.logger.Debug("rewriting links", "file", path, "base_path", base)

	out, err := links.RewriteHTML(string(data), base)
	if err != nil {
		return fmt.Errorf("failed to rewrite %s: %w", path, err)
	}

	target := f.output
	if f.inPlace {
		target = path
	}
	if target == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}
	if err := os.WriteFile(target, []byte(out), 0o644); err != nil { // #nosec G306 - HTML output is world readable
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return nil
}
