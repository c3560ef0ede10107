package cmd

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/olehluchkiv/topicmap/internal/aggregate"
	"github.com/olehluchkiv/topicmap/internal/config"
	"github.com/olehluchkiv/topicmap/internal/mindmap"
	"github.com/olehluchkiv/topicmap/internal/render"
	"github.com/olehluchkiv/topicmap/internal/server"
	"github.com/olehluchkiv/topicmap/internal/ui"
	"github.com/olehluchkiv/topicmap/internal/view"
)

func serveCmd(g *globalFlags) *cobra.Command {
	var (
		host      string
		port      int
		noBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "serve [topic...]",
		Short: "Serve the interactive map",
		Long: `Start the HTTP server with the topic picker and the interactive map.
Topics given as arguments are selected before the server starts.

  topicmap serve                       # Empty map, pick topics in the browser
  topicmap serve Climate Energy        # Preselect two topics
  topicmap serve --port 9000 --no-browser`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd, func(cfg *config.Config) {
				if cmd.Flags().Changed("host") {
					cfg.Server.Host = host
				}
				if cmd.Flags().Changed("port") {
					cfg.Server.Port = port
				}
				if noBrowser {
					cfg.Server.OpenBrowser = false
				}
			})
			if err != nil {
				return err
			}

			a, err := newApp(cfg, aggregate.ItemImageRef)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext(cmd.Context(), a.logger)
			defer cancel()

			out := cmd.OutOrStdout()
			views := view.NewController(a.builder, a.logger)
			if topics := mindmap.Topics(args); len(topics) > 0 {
				fmt.Fprintf(out, "Building map for %d topic(s)...\n", len(topics))
				v, err := views.Select(ctx, topics)
				if err != nil {
					return fmt.Errorf("initial selection: %w", err)
				}
				fmt.Fprintf(out, "  %s %s · %d items\n", ui.StatusIcon(true), v.Header(), v.Satellites())
			}

			srv, err := server.New(a.client, views, a.metrics, server.Options{
				Host:        cfg.Server.Host,
				Port:        cfg.Server.Port,
				OpenBrowser: cfg.Server.OpenBrowser,
				SVG:         render.DefaultSVGOptions(),
			}, a.logger)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Starting server on %s\n", ui.Info.Sprint("http://"+net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))))
			if err := srv.Serve(ctx); err != nil {
				a.logger.Error("server error", "error", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "localhost", "HTTP listen host")
	cmd.Flags().IntVar(&port, "port", 8080, "HTTP server port")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "skip auto-opening browser")

	return cmd
}
