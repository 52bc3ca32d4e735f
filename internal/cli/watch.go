package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/annoview/pkg/client"
	"github.com/matzehuels/annoview/pkg/errors"
	"github.com/matzehuels/annoview/pkg/fonts"
	"github.com/matzehuels/annoview/pkg/layout"
	"github.com/matzehuels/annoview/pkg/pipeline"
	"github.com/matzehuels/annoview/pkg/render/sink"
	"github.com/matzehuels/annoview/pkg/watch"
)

func (c *CLI) watchCommand() *cobra.Command {
	var (
		output string
		width  float64
		remote bool
		poll   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch [document | collection/document]",
		Short: "Re-render a document to SVG whenever it changes",
		Long: `Watch keeps an SVG in sync with a document.

A local file is re-read after every save. With --remote the argument names a
document on the configured server, which is fetched again every --poll.
A document that fails to lay out leaves the last good SVG in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				src := args[0]
				if remote {
					src = strings.ReplaceAll(src, "/", "_")
				}
				output = outputPath(src, "", pipeline.FormatSVG, pipeline.VizText, false)
			}
			measure := defaultMeasurer()
			display := func(l *layout.Layout) {
				if err := writeArtifact(output, sink.RenderSVG(l, sink.WithMeasurer(measure))); err != nil {
					printError("write %s: %v", output, err)
					return
				}
				printSuccess("Updated %s", output)
				printStats(l.Stats, false)
				printWarnings(l.Warnings)
			}
			if remote {
				return c.watchRemote(cmd.Context(), args[0], poll, width, display)
			}
			return c.watchFile(cmd.Context(), args[0], width, display)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "SVG output file")
	cmd.Flags().Float64Var(&width, "width", 0, "canvas width in pixels (default from config)")
	cmd.Flags().BoolVar(&remote, "remote", false, "fetch the document from the server")
	cmd.Flags().DurationVar(&poll, "poll", 5*time.Second, "refetch interval with --remote")

	return cmd
}

func defaultMeasurer() fonts.Measurer {
	if m, err := fonts.GoRegular(); err == nil {
		return m
	}
	return fonts.Fixed{}
}

// newController wires a controller and a dispatcher bound to it.
func (c *CLI) newController(width float64, display func(*layout.Layout), opts ...pipeline.ControllerOption) (*pipeline.Controller, *pipeline.Dispatcher) {
	params := c.cfg.Layout
	if width > 0 {
		params.CanvasWidth = width
	}
	opts = append([]pipeline.ControllerOption{
		pipeline.WithDisplay(display),
		pipeline.WithErrorHandler(c.reportFault),
		pipeline.WithControllerLogger(c.Logger),
		pipeline.WithControllerMeasurer(defaultMeasurer()),
	}, opts...)
	ctrl := pipeline.NewController(params, opts...)
	d := pipeline.NewDispatcher()
	d.Bind(ctrl)
	return ctrl, d
}

func (c *CLI) reportFault(err error) {
	if id := errors.OffendingID(err); id != "" {
		printError("%s (offending id %s)", errors.UserMessage(err), id)
		return
	}
	printError("%s", errors.UserMessage(err))
}

func (c *CLI) watchFile(ctx context.Context, path string, width float64, display func(*layout.Layout)) error {
	w, err := watch.New(path, watch.WithDebounce(c.cfg.Watch.Debounce), watch.WithLogger(c.Logger))
	if err != nil {
		return err
	}
	defer w.Close()

	ctrl, d := c.newController(width, display)
	load := func() {
		doc, err := pipeline.ParseFile(path)
		if err != nil {
			c.reportFault(err)
			return
		}
		_ = d.Dispatch(ctx, pipeline.Message{Kind: pipeline.MsgSetDocument, Doc: doc})
	}

	printInfo("Watching %s (ctrl+c to stop)", path)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ctrl.Run(gctx) })
	g.Go(func() error {
		load()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-w.Changes():
				load()
			}
		}
	})
	return g.Wait()
}

func (c *CLI) watchRemote(ctx context.Context, target string, poll time.Duration, width float64, display func(*layout.Layout)) error {
	collection, document, ok := strings.Cut(target, "/")
	if !ok || collection == "" || document == "" {
		return errors.New(errors.ErrCodeInvalidInput, "remote document must be collection/document, got %q", target)
	}
	cl, err := client.New(c.cfg.Client.BaseURL, client.WithTimeout(c.cfg.Client.Timeout))
	if err != nil {
		return err
	}

	ctrl, d := c.newController(width, display, pipeline.WithSource(cl))
	open := pipeline.Message{Kind: pipeline.MsgOpen, Collection: collection, Document: document}

	printInfo("Watching %s on %s (ctrl+c to stop)", target, c.cfg.Client.BaseURL)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ctrl.Run(gctx) })
	g.Go(func() error {
		ticker := time.NewTicker(max(poll, time.Second))
		defer ticker.Stop()
		for {
			if err := d.Dispatch(gctx, open); err != nil {
				return fmt.Errorf("open %s: %w", target, err)
			}
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
			}
		}
	})
	return g.Wait()
}
