package pipeline

import (
	"context"

	"github.com/matzehuels/plushie/pkg/graph"
	"github.com/matzehuels/plushie/pkg/plushie"
)

// Relax simulates a compiled graph. With opts.Steps set it takes exactly that
// many steps; otherwise it stops once the plushie is relaxed or the params'
// iteration limit is reached.
func Relax(ctx context.Context, sg graph.StitchGraph, opts Options) (*graph.Result, error) {
	if err := opts.ValidateForRelax(); err != nil {
		return nil, err
	}
	g, err := sg.InitialGraph()
	if err != nil {
		return nil, err
	}

	p := plushie.FromGraph(g, *opts.Params)
	p.SetLogger(opts.Logger)

	if opts.Steps > 0 {
		for range opts.Steps {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			p.Step(opts.Params.Timestep)
		}
	} else if _, err := p.Relax(ctx); err != nil {
		return nil, err
	}

	hash, err := GraphHash(sg)
	if err != nil {
		return nil, err
	}
	res := graph.NewResult(sg, p)
	res.Source = opts.Source
	res.GraphHash = hash
	if !res.Relaxed {
		opts.Logger.Warn("stopped before relaxing", "steps", res.Steps, "tension", res.Tension)
	}
	return res, nil
}
