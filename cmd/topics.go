package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/olehluchkiv/topicmap/internal/ui"
)

func topicsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List the topics the data service offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, nil)
			if err != nil {
				return err
			}
			defer a.close()

			topics, err := a.client.Topics(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ui.Banner(out, "topics")
			if len(topics) == 0 {
				fmt.Fprintf(out, "  %s No topics available\n", ui.WarnIcon())
				return nil
			}
			rows := make([][]string, 0, len(topics))
			for i, t := range topics {
				rows = append(rows, []string{strconv.Itoa(i + 1), t})
			}
			ui.Table(out, []string{"#", "TOPIC"}, rows)
			fmt.Fprintf(out, "\n  %s\n", ui.Subtle.Sprintf("%d topics", len(topics)))
			return nil
		},
	}
}
