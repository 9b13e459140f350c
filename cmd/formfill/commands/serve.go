package commands

import (
	"net"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/formfill/internal/infrastructure/server"
)

func newServeCommand(g *globals) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves the extraction and generation API over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return err
				}
				g.cfg.Server.Host, g.cfg.Server.Port = host, port
			}
			a, err := newApp(g, wiring{})
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.NewServer(a.cfg, a.runner, a.metrics, a.tracer, a.log.Named("api"))
			a.log.Info("Serving formfill API",
				zap.String("addr", srv.Addr()),
				zap.String("cache_dir", a.cfg.Cache.Dir),
				zap.Bool("browser", a.cfg.Browser.Enabled))
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address HOST:PORT (default from config)")
	return cmd
}
