package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/annoview/pkg/errors"
	"github.com/matzehuels/annoview/pkg/pipeline"
)

func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		width   float64
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "layout [document]",
		Short: "Compute a layout and write it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := pipeline.ParseFile(args[0])
			if err != nil {
				return err
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			params := c.cfg.Layout
			opts := pipeline.Options{Width: width, Params: &params, Refresh: refresh, Logger: c.Logger}
			l, hit, err := runner.LayoutWithCacheInfo(ctx, doc, opts)
			if err != nil {
				if id := errors.OffendingID(err); id != "" {
					printError("%s (offending id %s)", errors.UserMessage(err), id)
				}
				return err
			}

			data, err := json.MarshalIndent(l, "", "  ")
			if err != nil {
				return err
			}
			if output == "" {
				fmt.Println(string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			printSuccess("Layout written")
			printFile(output)
			printStats(l.Stats, hit)
			printWarnings(l.Warnings)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().Float64Var(&width, "width", 0, "canvas width in pixels (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the layout cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")

	return cmd
}
