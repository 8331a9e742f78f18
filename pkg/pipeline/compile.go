package pipeline

import (
	"encoding/json"

	"github.com/matzehuels/plushie/pkg/cache"
	"github.com/matzehuels/plushie/pkg/errors"
	"github.com/matzehuels/plushie/pkg/graph"
	"github.com/matzehuels/plushie/pkg/hook"
	"github.com/matzehuels/plushie/pkg/pattern"
)

// Compile parses the pattern source and runs the hook over it.
// Parse and hook failures are returned with code INVALID_PATTERN.
func Compile(opts Options) (graph.StitchGraph, error) {
	if err := opts.ValidateForCompile(); err != nil {
		return graph.StitchGraph{}, err
	}

	actions, err := pattern.Parse(opts.Source)
	if err != nil {
		return graph.StitchGraph{}, errors.Wrap(errors.ErrCodeInvalidPattern, err, "cannot parse pattern")
	}

	flow := pattern.NewFlow(actions)
	h, err := hook.FromFlow(flow, opts.Params.Hook())
	if err != nil {
		return graph.StitchGraph{}, errors.Wrap(errors.ErrCodeInvalidPattern, err, "cannot build pattern")
	}
	h.SetLogger(opts.Logger)
	for {
		a, ok := flow.Next()
		if !ok {
			break
		}
		if err := h.Perform(a); err != nil {
			return graph.StitchGraph{}, errors.Wrap(errors.ErrCodeInvalidPattern, err, "cannot build pattern")
		}
	}
	if n := h.Skipped(); n > 0 {
		opts.Logger.Warn("skipped actions", "count", n, "leniency", opts.Params.HookLeniency)
	}
	return graph.FromInitialGraph(h.Finish()), nil
}

// GraphHash returns the content hash of a stitch graph.
func GraphHash(sg graph.StitchGraph) (string, error) {
	data, err := json.Marshal(sg)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "cannot hash graph")
	}
	return cache.Hash(data), nil
}

func jsonBytes(v any) ([]byte, error) {
	return json.Marshal(v)
}
