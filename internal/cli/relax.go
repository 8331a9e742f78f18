package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/plushie/pkg/graph"
	"github.com/matzehuels/plushie/pkg/pipeline"
	"github.com/matzehuels/plushie/pkg/plushie"
)

// relaxOpts holds the command-line flags for the relax command.
type relaxOpts struct {
	output  string // result file; defaults to <input>.result.json
	steps   int    // fixed step count; 0 relaxes until settled
	watch   bool   // live TUI
	stl     string // STL output path
	points  string // point cloud output path (.json or .xyz)
	save    bool   // store the result in MongoDB
	noCache bool
	refresh bool
}

// relaxCommand creates the relax command: pattern text to relaxed shape.
func (c *CLI) relaxCommand() *cobra.Command {
	var opts relaxOpts

	cmd := &cobra.Command{
		Use:   "relax <pattern-file|->",
		Short: "Relax a pattern into a 3D shape",
		Long: `Relax a pattern into a 3D shape.

The pattern is compiled, every stitch gets a starting position and the force
simulation runs until the shape settles (or --steps steps). The relaxed result
is written as JSON and can be exported as an STL mesh or a point cloud.

With --watch the simulation runs in a live view: space pauses, q stops and
writes the outputs for the current shape.`,
		Example: `  plushie relax ball.pattern --stl ball.stl
  plushie relax ball.pattern --params soft.toml --watch
  plushie relax ball.pattern --steps 500 --points ball.xyz --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.steps < 0 {
				return fmt.Errorf("--steps must not be negative")
			}
			if opts.watch {
				return c.runRelaxWatch(cmd, args[0], opts)
			}
			return c.runRelax(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "result file (default <pattern>.result.json)")
	cmd.Flags().IntVar(&opts.steps, "steps", 0, "run exactly N steps instead of relaxing until settled")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "watch the simulation live")
	cmd.Flags().StringVar(&opts.stl, "stl", "", "also export an STL mesh")
	cmd.Flags().StringVar(&opts.points, "points", "", "also export the point cloud (.json or .xyz)")
	cmd.Flags().BoolVar(&opts.save, "save", false, "store the result (needs --mongo-uri)")
	cmd.Flags().String("leniency", "", "how to treat invalid actions: no-mercy, skip-incorrect, genetic-fixups")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached graphs and results")

	return cmd
}

// formats lists the pipeline formats the flags ask for.
func (o relaxOpts) formats() []string {
	formats := []string{pipeline.FormatResult}
	if o.stl != "" {
		formats = append(formats, pipeline.FormatSTL)
	}
	if o.points != "" {
		formats = append(formats, pointsFormat(o.points))
	}
	return formats
}

func pointsFormat(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".xyz") {
		return pipeline.FormatXYZ
	}
	return pipeline.FormatPoints
}

func (c *CLI) runRelax(cmd *cobra.Command, input string, opts relaxOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	if opts.save && c.mongoURI == "" {
		return fmt.Errorf("--save needs --mongo-uri or %s", envMongoURI)
	}
	params, err := c.loadParams(cmd)
	if err != nil {
		return err
	}
	source, err := readSource(input, cmd.InOrStdin())
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Relaxing...")
	spinner.Start()
	result, err := runner.Execute(ctx, pipeline.Options{
		Source:  source,
		Params:  &params,
		Refresh: opts.refresh,
		Steps:   opts.steps,
		Formats: opts.formats(),
		Logger:  logger,
	})
	if err != nil {
		spinner.StopWithError("Relaxation failed")
		return err
	}
	res := result.Relaxed
	spinner.StopWithSuccess(fmt.Sprintf("Relaxed in %d steps", res.Steps))
	if err := c.writeRelaxOutputs(cmd, input, opts, result.Artifacts, res); err != nil {
		return err
	}
	printSummary(summaryRows(result.Stats, res, result.CacheInfo))
	return nil
}

func (c *CLI) runRelaxWatch(cmd *cobra.Command, input string, opts relaxOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	if opts.save && c.mongoURI == "" {
		return fmt.Errorf("--save needs --mongo-uri or %s", envMongoURI)
	}
	params, err := c.loadParams(cmd)
	if err != nil {
		return err
	}
	source, err := readSource(input, cmd.InOrStdin())
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	sg, err := runner.Compile(ctx, pipeline.Options{Source: source, Params: &params, Refresh: opts.refresh, Logger: logger})
	if err != nil {
		return err
	}
	g, err := sg.InitialGraph()
	if err != nil {
		return err
	}
	p := plushie.FromGraph(g, params)
	// Warnings would tear the TUI; keep them for --verbose runs.
	p.SetLogger(discardLogger())

	model := newRelaxModel(p, opts.steps)
	final, err := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if m, ok := final.(relaxModel); ok && m.aborted {
		return context.Canceled
	}

	hash, err := pipeline.GraphHash(sg)
	if err != nil {
		return err
	}
	res := graph.NewResult(sg, p)
	res.GraphHash = hash
	res.Source = source
	ropts := pipeline.Options{Formats: opts.formats(), Logger: logger}
	artifacts, err := pipeline.Render(sg, res, ropts)
	if err != nil {
		return err
	}
	if err := c.writeRelaxOutputs(cmd, input, opts, artifacts, res); err != nil {
		return err
	}
	printSummary(summaryRows(pipeline.Stats{NodeCount: sg.NodeCount(), EdgeCount: len(sg.Edges), Steps: res.Steps}, res, pipeline.CacheInfo{}))
	return nil
}

// writeRelaxOutputs writes the result file and the optional exports, and
// saves the result when asked.
func (c *CLI) writeRelaxOutputs(cmd *cobra.Command, input string, opts relaxOpts, artifacts map[string][]byte, res *graph.Result) error {
	ctx := cmd.Context()
	resultPath := opts.output
	if resultPath == "" {
		resultPath = outputBase(input, "") + formatExt[pipeline.FormatResult]
	}

	outputs := []struct {
		path   string
		format string
	}{
		{resultPath, pipeline.FormatResult},
		{opts.stl, pipeline.FormatSTL},
		{opts.points, pointsFormat(opts.points)},
	}
	if res.Relaxed {
		printSuccess("Relaxed after %d steps", res.Steps)
	} else {
		printWarning("Not relaxed after %d steps (tension %.4f)", res.Steps, res.Tension)
	}
	for _, out := range outputs {
		if out.path == "" {
			continue
		}
		if err := os.WriteFile(out.path, artifacts[out.format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out.format, err)
		}
		printFile(out.path)
	}

	if !opts.save {
		return nil
	}
	store, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	id, err := store.Save(ctx, res)
	if err != nil {
		return err
	}
	printSuccess("Saved result %s", StyleHighlight.Render(id))
	return nil
}
