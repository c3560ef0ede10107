package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/olehluchkiv/topicmap/internal/aggregate"
	"github.com/olehluchkiv/topicmap/internal/config"
	"github.com/olehluchkiv/topicmap/internal/dataservice"
	"github.com/olehluchkiv/topicmap/internal/layout"
	"github.com/olehluchkiv/topicmap/internal/logging"
	"github.com/olehluchkiv/topicmap/internal/metrics"
	"github.com/olehluchkiv/topicmap/internal/mindmap"
	"github.com/olehluchkiv/topicmap/internal/ui"
	"github.com/olehluchkiv/topicmap/internal/view"
)

var version = "0.3.0"

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	endpoint   string
	logFile    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "topicmap",
		Short: "topicmap · radial mind maps of topic content",
		Long: ui.Brand.Sprint("topicmap") + " · lay out the items of selected topics as a radial mind map\n" +
			ui.Subtle.Sprint("Serve an interactive map, or render it to SVG, JSON or YAML"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("topicmap {{ .Version }}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/topicmap/config.toml)")
	pf.StringVar(&g.endpoint, "endpoint", "", "data service base URL")
	pf.StringVar(&g.logFile, "log-file", "", "log file path (empty logs to stderr only)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		serveCmd(g),
		renderCmd(g),
		layoutCmd(g),
		topicsCmd(g),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	if err := newRootCmd().Execute(); err != nil {
		ui.Bad.Fprintf(os.Stderr, "topicmap: %v\n", err)
		return err
	}
	return nil
}

// loadConfig reads the config file, applies the global flags and then the
// command's own overrides, and validates the result.
func (g *globalFlags) loadConfig(cmd *cobra.Command, override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Service.Endpoint = g.endpoint
	}
	if flags.Changed("log-file") {
		cfg.Log.File = g.logFile
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = strings.ToLower(g.logLevel)
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// app is the wired pipeline: data service client, aggregation, layout and
// the view builder, sharing one logger and metrics registry.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *dataservice.Client
	metrics *metrics.Registry
	builder *view.Builder
	cleanup func()
}

func newApp(cfg *config.Config, imageRef func(id string) mindmap.ImageRef) (*app, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger, cleanup, err := logging.Setup(cfg.Log.File, level)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}

	svcCfg := dataservice.Config{
		Endpoint:   cfg.Service.Endpoint,
		Token:      cfg.Service.Token,
		Timeout:    cfg.Service.Timeout,
		RetryDelay: cfg.Service.RetryDelay,
	}
	logger.Debug("configuration loaded", "service", svcCfg, "layout", cfg.Layout)

	client := dataservice.NewClient(svcCfg, logger)
	reg := metrics.NewRegistry()
	agg := aggregate.New(client, aggregate.Options{
		Suffix:      cfg.Service.ItemSuffix,
		Concurrency: cfg.Aggregate.Concurrency,
		ImageRef:    imageRef,
		Recorder:    reg,
	}, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		metrics: reg,
		builder: view.NewBuilder(agg, layout.NewEngine(cfg.Layout), reg, logger),
		cleanup: cleanup,
	}, nil
}

func (a *app) close() {
	a.cleanup()
}

// serviceImageRef points item images straight at the data service, for
// output that is viewed without this process running.
func serviceImageRef(endpoint string) func(id string) mindmap.ImageRef {
	base := strings.TrimRight(endpoint, "/")
	return func(id string) mindmap.ImageRef {
		return mindmap.ImageRef(base + "/images/" + url.PathEscape(id))
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
