package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/halo/internal/server"
)

type serveFlags struct {
	sampling samplingOptions
	listen   string
	base     string
	root     string
	private  bool
}

func newServeCmd(a *app) *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendered components over HTTP for previewing",
		Long: `Start a preview server.

Endpoints:
  GET /halo?src=<image>&alt=<text>&class=<css>[&format=json]
  GET /link?href=<path>
  GET /healthz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, a, f)
		},
	}

	f.sampling.bind(cmd.Flags())
	cmd.Flags().StringVarP(&f.listen, "listen", "l", "", "listen address (default from config)")
	cmd.Flags().StringVarP(&f.base, "base", "b", "", "deployment base URL (default from config)")
	cmd.Flags().StringVarP(&f.root, "root", "r", ".", "directory local image sources are resolved against")
	cmd.Flags().BoolVar(&f.private, "allow-private-hosts", false, "allow remote images on loopback and private networks")
	return cmd
}

func runServe(cmd *cobra.Command, a *app, f *serveFlags) error {
	f.sampling.guardFetch = !f.private
	loader, factory, timeout, err := a.samplerSetup(f.sampling)
	if err != nil {
		return err
	}

	addr := a.cfg.Server.Listen
	if f.listen != "" {
		addr = f.listen
	}

	// Serve logs at info level unless --quiet; the CLI default is warn.
	logger := a.logger.Named("server")
	if !a.quiet && !a.verbose {
		logger.SetLevel(hclog.Info)
	}

	srv := server.New(server.Options{
		BasePath:          a.basePath(f.base, cmd.Flags().Changed("base")),
		Timeout:           timeout,
		Root:              f.root,
		AllowPrivateHosts: f.private,
		Loader:            loader,
		NewSampler:        factory,
	}, logger)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, addr)
}
