package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/annoview/pkg/errors"
	"github.com/matzehuels/annoview/pkg/pipeline"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output   string  // output file (one document, one format) or directory
	vizType  string  // text or nodelink
	formats  string  // comma-separated output formats
	width    float64 // canvas width override
	scale    float64 // PNG scale factor
	detailed bool    // nodelink labels carry ids and text
	noCache  bool
	refresh  bool
	jobs     int
}

func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{jobs: 4, scale: pipeline.DefaultScale}

	cmd := &cobra.Command{
		Use:   "render [documents...]",
		Short: "Render annotation documents to SVG, PNG, PDF or JSON",
		Long: `Render lays out each document and writes one file per requested format.

Output files sit next to their input unless --output names a directory.
With a single document and a single format, --output may name the file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file or directory")
	cmd.Flags().StringVarP(&opts.vizType, "type", "t", pipeline.DefaultVizType, "visualization type: text, nodelink")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output formats: svg (default), png, pdf, json (comma-separated)")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "canvas width in pixels (default from config)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show ids and text in nodelink labels")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the layout cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when cached")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", opts.jobs, "documents rendered in parallel")

	return cmd
}

func (c *CLI) pipelineOptions(o renderOpts) pipeline.Options {
	params := c.cfg.Layout
	return pipeline.Options{
		VizType:  o.vizType,
		Width:    o.width,
		Params:   &params,
		Formats:  parseFormats(o.formats),
		Scale:    o.scale,
		Detailed: o.detailed,
		Refresh:  o.refresh,
		Logger:   c.Logger,
	}
}

func (c *CLI) runRender(ctx context.Context, inputs []string, o renderOpts) error {
	popts := c.pipelineOptions(o)
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "render options")
	}
	single := len(inputs) == 1 && len(popts.Formats) == 1

	runner, err := c.newRunner(ctx, o.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	var mu sync.Mutex
	written := make(map[string][]string, len(inputs))

	sp := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %d document(s)", len(inputs)))
	sp.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(o.jobs, 1))
	for _, input := range inputs {
		g.Go(func() error {
			paths, err := c.renderOne(gctx, runner, input, popts, o.output, single)
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			mu.Lock()
			written[input] = paths
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()
	sp.Stop()
	if err != nil {
		return err
	}

	for _, input := range inputs {
		for _, p := range written[input] {
			printFile(p)
		}
	}
	prog.done(fmt.Sprintf("Rendered %d document(s)", len(inputs)))
	return nil
}

func (c *CLI) renderOne(ctx context.Context, runner *pipeline.Runner, input string, opts pipeline.Options, output string, single bool) ([]string, error) {
	doc, err := pipeline.ParseFile(input)
	if err != nil {
		return nil, err
	}
	res, err := runner.Execute(ctx, doc, opts)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, format := range opts.Formats {
		path := outputPath(input, output, format, opts.VizType, single)
		if err := writeArtifact(path, res.Artifacts[format]); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// outputPath derives where one artifact goes. A nodelink artifact gets a
// "_nodelink" suffix so both views of a document can sit side by side.
func outputPath(input, output, format, vizType string, single bool) string {
	if single && output != "" && !isDir(output) {
		return output
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if vizType == pipeline.VizNodelink {
		base += "_nodelink"
	}
	dir := filepath.Dir(input)
	if output != "" {
		dir = output
	}
	return filepath.Join(dir, base+"."+format)
}

func isDir(path string) bool {
	if strings.HasSuffix(path, string(filepath.Separator)) {
		return true
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
