package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/olehluchkiv/topicmap/internal/mindmap"
	"github.com/olehluchkiv/topicmap/internal/render"
	"github.com/olehluchkiv/topicmap/internal/view"
)

func renderCmd(g *globalFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "render <topic>...",
		Short: "Render the map for topics to an SVG file",
		Long: `Build the map for the given topics and write it as a standalone SVG.
Item images link straight to the data service; nodes are not clickable.

  topicmap render Climate -o climate.svg
  topicmap render Climate Energy > map.svg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := buildOnce(cmd, g, args)
			if err != nil {
				return err
			}
			// No server resolves view links in a file.
			opts := render.DefaultSVGOptions()
			opts.LinkNodes = false
			var buf bytes.Buffer
			if err := render.WriteSVG(&buf, v, opts); err != nil {
				return fmt.Errorf("render map: %w", err)
			}
			return writeOutput(cmd, output, buf.Bytes(), fmt.Sprintf("map with %d items", v.Satellites()))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the SVG to this file instead of stdout")
	return cmd
}

func layoutCmd(g *globalFlags) *cobra.Command {
	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "layout <topic>...",
		Short: "Print the computed node positions",
		Long: `Build the map for the given topics and print every node with its
position, ring, tooltip and source item.

  topicmap layout Climate
  topicmap layout Climate Energy --format yaml -o layout.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			v, err := buildOnce(cmd, g, args)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := render.Export(&buf, v, f); err != nil {
				return err
			}
			return writeOutput(cmd, output, buf.Bytes(), fmt.Sprintf("layout of %d nodes", len(v.Nodes)))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().StringVar(&format, "format", "json", "output format (json, yaml)")
	return cmd
}

// buildOnce builds a single view for args without a server.
func buildOnce(cmd *cobra.Command, g *globalFlags, args []string) (*view.View, error) {
	topics := mindmap.Topics(args)
	if len(topics) == 0 {
		return nil, fmt.Errorf("no topics given")
	}

	cfg, err := g.loadConfig(cmd, nil)
	if err != nil {
		return nil, err
	}
	a, err := newApp(cfg, serviceImageRef(cfg.Service.Endpoint))
	if err != nil {
		return nil, err
	}
	defer a.close()

	ctx, cancel := signalContext(cmd.Context(), a.logger)
	defer cancel()

	v, err := a.builder.Build(ctx, topics)
	if err != nil {
		return nil, fmt.Errorf("build map: %w", err)
	}
	if v.Satellites() == 0 {
		a.logger.Warn("no items resolved for selection", "topics", topics)
	}
	return v, nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte, what string) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing to %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s to %s\n", what, path)
	return nil
}
