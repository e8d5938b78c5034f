// Package cli provides the command-line interface for halo.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/halo/internal/colour"
	"github.com/jmylchreest/halo/internal/config"
	imageloader "github.com/jmylchreest/halo/internal/image"
	"github.com/jmylchreest/halo/internal/palette"
	"github.com/jmylchreest/halo/internal/security"
	httputil "github.com/jmylchreest/halo/internal/util/http"
	"github.com/jmylchreest/halo/internal/util/imagecache"
	"github.com/jmylchreest/halo/internal/version"
)

// app carries state shared by every command of one invocation.
type app struct {
	configPath string
	verbose    bool
	quiet      bool

	cfg    *config.Config
	logger hclog.Logger
}

// NewRootCmd builds the halo command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "halo",
		Short: "Render images with a colour halo taken from their dominant colour",
		Long: `Halo samples the dominant colour of an image and renders it with a soft,
blurred accent behind it and a small palette panel underneath.

It also resolves internal links against the base path a site is deployed
under, so pages hosted in a subdirectory link to the right place.`,
		Version:           version.Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	a.bindPersistentFlags(root.PersistentFlags())
	root.SetVersionTemplate(version.String() + "\n")

	root.AddCommand(
		newVersionCmd(),
		newSampleCmd(a),
		newRenderCmd(a),
		newLinkCmd(a),
		newRewriteCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) bindPersistentFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	fs.BoolVarP(&a.quiet, "quiet", "q", false, "suppress non-error output")
	fs.StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
}

// setup loads configuration and the logger before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.verbose && a.quiet {
		return fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), a.verbose, a.quiet)
	a.logger.Debug("configuration loaded", "base_path", cfg.BasePath(), "timeout", cfg.Sampling.Timeout)
	return nil
}

// newLogger returns the CLI logger: debug with --verbose, silent with
// --quiet, warnings and above otherwise.
func newLogger(w io.Writer, verbose, quiet bool) hclog.Logger {
	level := hclog.Warn
	switch {
	case verbose:
		level = hclog.Debug
	case quiet:
		level = hclog.Off
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "halo",
		Output: w,
		Level:  level,
	})
}

// samplingOptions are per-command overrides of the sampling config.
type samplingOptions struct {
	algorithm string
	timeout   time.Duration

	// guardFetch routes remote fetches through security.GuardedClient.
	guardFetch bool
}

func (o *samplingOptions) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.algorithm, "algorithm", "a", "", "sampling algorithm (dominant, average; default from config)")
	fs.DurationVar(&o.timeout, "timeout", 0, "sampling timeout (default from config, 0 keeps it)")
}

// newLoader builds the image loader, using the disk cache when configured.
func (a *app) newLoader(fetch httputil.FetchOptions) (imageloader.Loader, error) {
	if !a.cfg.Cache.Enabled {
		return imageloader.NewSmartLoader(imageloader.WithFetchOptions(fetch)), nil
	}
	cache, err := imagecache.New(a.cfg.Cache.Dir)
	if err != nil {
		return nil, err
	}
	cache.Fetch = fetch
	a.logger.Debug("remote image cache enabled", "dir", cache.Dir)
	return imageloader.NewSmartLoader(imageloader.WithCache(cache)), nil
}

// fetchOptions shares the sampling timeout with remote fetches.
func fetchOptions(timeout time.Duration, guard bool) httputil.FetchOptions {
	fetch := httputil.FetchOptions{Timeout: timeout}
	if guard {
		if timeout == 0 {
			timeout = httputil.DefaultTimeout
		}
		fetch.Client = security.GuardedClient(timeout)
	}
	return fetch
}

// samplerSetup resolves the loader, sampler factory and timeout for a command.
func (a *app) samplerSetup(o samplingOptions) (imageloader.Loader, func() colour.Sampler, time.Duration, error) {
	alg := colour.Algorithm(a.cfg.Sampling.Algorithm)
	if o.algorithm != "" {
		alg = colour.Algorithm(o.algorithm)
	}
	factory, err := colour.SamplerFactory(alg)
	if err != nil {
		return nil, nil, 0, err
	}

	timeout, err := a.cfg.SamplingTimeout()
	if err != nil {
		return nil, nil, 0, err
	}
	if o.timeout > 0 {
		timeout = o.timeout
	}

	loader, err := a.newLoader(fetchOptions(timeout, o.guardFetch))
	if err != nil {
		return nil, nil, 0, err
	}
	return loader, factory, timeout, nil
}

// newController builds a PaletteController for one command invocation.
func (a *app) newController(o samplingOptions) (*palette.Controller, error) {
	loader, factory, timeout, err := a.samplerSetup(o)
	if err != nil {
		return nil, err
	}
	return palette.NewController(loader, factory,
		palette.WithLogger(a.logger.Named("palette")),
		palette.WithTimeout(timeout),
	), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
