package graph

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/matzehuels/plushie/pkg/errors"
	"github.com/matzehuels/plushie/pkg/hook"
	"github.com/matzehuels/plushie/pkg/plushie"
)

// =============================================================================
// Result - Relaxed Plushie Serialization
// =============================================================================

// Result is a relaxed plushie ready to be stored, cached or exported.
type Result struct {
	ID        string         `json:"id,omitempty" bson:"_id,omitempty"`
	GraphHash string         `json:"graph_hash" bson:"graph_hash"`
	Source    string         `json:"source,omitempty" bson:"source,omitempty"` // Pattern text, when known
	Graph     StitchGraph    `json:"graph" bson:"graph"`
	Params    plushie.Params `json:"params" bson:"params"`

	Points    [][3]float32 `json:"points" bson:"points"`
	Centroids [][3]float32 `json:"centroids" bson:"centroids"`

	Steps     int       `json:"steps" bson:"steps"`
	Relaxed   bool      `json:"relaxed" bson:"relaxed"`
	Tension   float32   `json:"tension" bson:"tension"`
	MeanStep  float32   `json:"mean_step" bson:"mean_step"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// NewResult snapshots a plushie. The plushie must have been built from g.
func NewResult(g StitchGraph, p *plushie.Plushie) *Result {
	return &Result{
		Graph:     g,
		Params:    p.Params(),
		Points:    toArrays(p.PointCloud()),
		Centroids: toArrays(p.Centroids()),
		Steps:     p.Steps(),
		Relaxed:   p.IsRelaxed(),
		Tension:   p.Tension(),
		MeanStep:  p.MeanStep(),
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks that the result has one position per stitch.
func (r *Result) Validate() error {
	if len(r.Points) != len(r.Graph.Nodes) {
		return errors.New(errors.ErrCodeInvalidInput, "result has %d points for %d nodes", len(r.Points), len(r.Graph.Nodes))
	}
	return nil
}

// Mesh triangulates the stored positions over the stitch graph, the same
// way [plushie.Plushie.Mesh] does for a live plushie.
func (r *Result) Mesh() plushie.Mesh {
	points := make([]mgl32.Vec3, len(r.Points))
	for i, p := range r.Points {
		points[i] = mgl32.Vec3(p)
	}
	edges := make(hook.Edges, len(r.Graph.Nodes))
	for _, e := range r.Graph.Edges {
		if e.From < len(edges) {
			edges[e.From] = append(edges[e.From], e.To)
		}
	}
	return plushie.BuildMesh(points, edges)
}

// Summary is the listing view of a stored result.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	Nodes     int       `json:"nodes" bson:"nodes"`
	Steps     int       `json:"steps" bson:"steps"`
	Relaxed   bool      `json:"relaxed" bson:"relaxed"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Summary returns the listing view of r.
func (r *Result) Summary() Summary {
	return Summary{
		ID:        r.ID,
		Nodes:     len(r.Graph.Nodes),
		Steps:     r.Steps,
		Relaxed:   r.Relaxed,
		CreatedAt: r.CreatedAt,
	}
}

func toArrays[V ~[3]float32](vs []V) [][3]float32 {
	out := make([][3]float32, len(vs))
	for i, v := range vs {
		out[i] = [3]float32(v)
	}
	return out
}
