package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/plushie/pkg/pipeline"
)

// compileOpts holds the command-line flags for the compile command.
type compileOpts struct {
	output   string // output file (single format) or base path; "-" writes to stdout
	formats  []string
	detailed bool // peculiarities and parents in DOT labels
	rounds   bool // one DOT rank per round
	noCache  bool
	refresh  bool
}

// compileCommand creates the compile command: pattern text to stitch graph.
func (c *CLI) compileCommand() *cobra.Command {
	var formatsStr, leniency string
	var opts compileOpts

	cmd := &cobra.Command{
		Use:   "compile <pattern-file|->",
		Short: "Compile a pattern into a stitch graph",
		Long: `Compile a pattern into a stitch graph.

The graph is written as JSON by default. DOT and SVG render the graph with
Graphviz, which helps when debugging marks, gotos and chains.`,
		Example: `  plushie compile ball.pattern
  plushie compile ball.pattern -f svg --rounds
  echo "mr(6) 6*inc 12*sc fo" | plushie compile - -o - -f dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr, pipeline.FormatJSON)
			for _, f := range opts.formats {
				if !pipeline.GraphFormats[f] {
					return fmt.Errorf("invalid format: %s (must be json, dot or svg)", f)
				}
			}
			return c.runCompile(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, or - for stdout")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), dot, svg (comma-separated)")
	cmd.Flags().StringVar(&leniency, "leniency", "", "how to treat invalid actions: no-mercy, skip-incorrect, genetic-fixups")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show parents and peculiarities in node labels")
	cmd.Flags().BoolVar(&opts.rounds, "rounds", false, "draw each round on its own rank")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached graphs")

	return cmd
}

func (c *CLI) runCompile(cmd *cobra.Command, input string, opts compileOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

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

	prog := newProgress(logger)
	result, err := runner.Execute(ctx, pipeline.Options{
		Source:   source,
		Params:   &params,
		Refresh:  opts.refresh,
		Formats:  opts.formats,
		Detailed: opts.detailed,
		Rounds:   opts.rounds,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	prog.done("Compiled pattern")

	if opts.output == "-" {
		return writeStdout(cmd.OutOrStdout(), result.Artifacts)
	}
	paths, err := writeArtifacts(outputBase(input, opts.output), opts.output, result.Artifacts)
	if err != nil {
		return err
	}

	printSuccess("Stitch graph compiled")
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.CompileHit)
	for _, p := range paths {
		printFile(p)
	}
	if input != "-" {
		printNextStep("Relax it", "plushie relax "+input)
	}
	return nil
}

// formatExt maps output formats to file extensions.
var formatExt = map[string]string{
	pipeline.FormatJSON:   ".json",
	pipeline.FormatDOT:    ".dot",
	pipeline.FormatSVG:    ".svg",
	pipeline.FormatResult: ".result.json",
	pipeline.FormatSTL:    ".stl",
	pipeline.FormatPoints: ".points.json",
	pipeline.FormatXYZ:    ".xyz",
}

// writeArtifacts writes each artifact to base+ext. A single artifact goes to
// output verbatim when one was given.
func writeArtifacts(base, output string, artifacts map[string][]byte) ([]string, error) {
	formats := sortedKeys(artifacts)
	var paths []string
	for _, f := range formats {
		path := base + formatExt[f]
		if output != "" && len(formats) == 1 {
			path = output
		}
		if err := os.WriteFile(path, artifacts[f], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", f, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeStdout(w io.Writer, artifacts map[string][]byte) error {
	if len(artifacts) != 1 {
		return fmt.Errorf("stdout output needs exactly one format, got %d", len(artifacts))
	}
	for _, data := range artifacts {
		_, err := w.Write(data)
		return err
	}
	return nil
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
