// Package plushie simulates the 3D shape of a crocheted graph.
//
// A [Plushie] holds a position per node and relaxes them step by step under
// three forces:
//   - links pull connected stitches towards the desired stitch distance
//   - centroids push the skin outward, standing in for stuffing
//   - gravity pulls everything down, optionally onto a floor
//
// Stitches worked into a single loop are additionally pushed off the plane of
// the stitches they were worked into.
//
// # Usage
//
//	p, err := plushie.FromPattern(actions, plushie.DefaultParams())
//	if err != nil {
//	    return err
//	}
//	steps, err := p.Relax(ctx)
//	cloud := p.PointCloud()
//
// Step is synchronous and owns every buffer; a Plushie is not safe for
// concurrent use. The coordinator package drives one from a single goroutine.
package plushie

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/matzehuels/plushie/pkg/errors"
	"github.com/matzehuels/plushie/pkg/hook"
	"github.com/matzehuels/plushie/pkg/pattern"
)

// fullSingleLoopForceAfter is how many newer nodes a single-loop stitch needs
// before its push reaches full strength.
const fullSingleLoopForceAfter = 20

// Plushie is a stitch graph with positions, relaxed by [Plushie.Step].
type Plushie struct {
	points       []mgl32.Vec3
	displacement []mgl32.Vec3
	edges        hook.Edges
	colors       []pattern.RGB
	peculiar     map[int]hook.Peculiarity
	markToNode   map[string]int
	partLimits   []int
	centroids    Centroids
	grower       *grower
	root         int

	params   Params
	steps    int
	total    mgl32.Vec3
	tension  float32
	meanStep float32
	logger   *log.Logger
}

// FromPattern interprets actions and seeds positions with the configured initializer.
func FromPattern(actions []pattern.Action, params Params) (*Plushie, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	g, err := hook.Compile(actions, params.Hook())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPattern, err, "cannot build pattern")
	}
	return FromGraph(g, params), nil
}

// FromGraph seeds positions for an already built graph.
func FromGraph(g *hook.InitialGraph, params Params) *Plushie {
	p := &Plushie{
		colors:     g.Colors,
		peculiar:   g.Peculiarities,
		markToNode: g.MarkToNode,
		partLimits: g.PartLimits,
		root:       findRoot(g.Peculiarities),
		params:     params,
		logger:     log.NewWithOptions(io.Discard, log.Options{}),
	}

	switch params.Initializer.Kind {
	case OneByOne:
		p.grower = newGrower(g.Edges, params.Initializer)
		p.grower.add(p)
	default:
		p.points = cylinder(g, params.DesiredStitchDistance, params.Limbs)
		p.edges = g.Edges
		p.displacement = make([]mgl32.Vec3, len(p.points))
	}
	return p
}

// findRoot returns the lowest Locked node. Extra Locked nodes are the roots of
// separately started rings and do not anchor the shape.
func findRoot(peculiar map[int]hook.Peculiarity) int {
	root := -1
	for id, p := range peculiar {
		if p.Kind == hook.Locked && (root < 0 || id < root) {
			root = id
		}
	}
	return root
}

// SetLogger sets the logger used for simulation warnings.
func (p *Plushie) SetLogger(l *log.Logger) {
	if l != nil {
		p.logger = l
	}
}

// =============================================================================
// Simulation
// =============================================================================

// Step advances the simulation by dt and returns the sum of the displacements
// applied to the nodes.
func (p *Plushie) Step(dt float32) mgl32.Vec3 {
	for i := range p.displacement {
		p.displacement[i] = mgl32.Vec3{}
	}

	p.addLinkForces()
	p.centroids.stuff(p.params.Centroids, p.points, p.displacement, p.logger)
	mustFinite("stuffing", p.displacement)
	p.addGravity()
	p.applyPeculiarities()
	mustFinite("peculiarities", p.displacement)
	p.total = p.integrate(dt)

	if p.grower != nil {
		p.grower.grow(p, dt)
	}
	p.steps++
	return p.total
}

func (p *Plushie) addLinkForces() {
	dsd := p.params.DesiredStitchDistance
	for i, point := range p.points {
		for _, j := range p.edges[i] {
			if j >= len(p.points) {
				continue
			}
			d := attract(point, p.points[j], dsd)
			p.displacement[i] = p.displacement[i].Add(d)
			p.displacement[j] = p.displacement[j].Sub(d)
		}
	}
	mustFinite("link forces", p.displacement)
}

func (p *Plushie) addGravity() {
	for i := range p.displacement {
		p.displacement[i][1] -= p.params.Gravity
	}
}

// applyPeculiarities pushes single-loop stitches off the plane of the stitches
// they were worked into. The push ramps up over the newest nodes so a shape
// that is still growing does not fold onto itself.
func (p *Plushie) applyPeculiarities() {
	live := len(p.points)
	for id, pec := range p.peculiar {
		if pec.Kind != hook.FLO && pec.Kind != hook.BLO {
			continue
		}
		plane := pec.Plane
		if id >= live || plane.Father >= live || plane.Mother >= live || plane.Grandparent >= live {
			continue
		}

		a, b, c := p.points[plane.Father], p.points[plane.Mother], p.points[plane.Grandparent]
		normal := b.Sub(a).Cross(c.Sub(a))
		if normal.Len() == 0 {
			p.logger.Warn("single-loop stitch on collinear nodes", "node", id, "plane", plane)
			continue
		}

		ramp := min(float32(live-id)/fullSingleLoopForceAfter, 1)
		push := normalized(normal).Mul(p.params.SingleLoopForce * ramp)
		if pec.Kind == hook.FLO {
			push = push.Mul(-1)
		}
		p.displacement[id] = p.displacement[id].Add(push)
	}
}

// integrate moves every node by its displacement. With KeepRootAtOrigin the
// root's displacement is subtracted from all nodes, so the root stays put.
func (p *Plushie) integrate(dt float32) mgl32.Vec3 {
	var translation mgl32.Vec3
	if p.params.KeepRootAtOrigin && p.root >= 0 && p.root < len(p.points) {
		translation = p.displacement[p.root]
	}

	var total mgl32.Vec3
	var moved float32
	for i, d := range p.displacement {
		if d.Len() <= p.params.MinimumDisplacement {
			continue
		}
		total = total.Add(d)
		step := d.Sub(translation).Mul(dt)
		moved += step.Len()
		p.points[i] = p.points[i].Add(step)
		if p.params.Floor && p.points[i][1] < 0 {
			p.points[i][1] = 0
		}
	}
	p.tension = total.Len()
	p.meanStep = moved / float32(max(len(p.points), 1))
	return total
}

// Relax steps until the shape is relaxed, every node has grown in and
// MaxRelaxingIterations is reached, or ctx is done. It returns the number of
// steps taken.
func (p *Plushie) Relax(ctx context.Context) (int, error) {
	limit := p.params.AutoStop.MaxRelaxingIterations
	for i := 0; i < limit; i++ {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		p.Step(p.params.Timestep)
		if p.IsRelaxed() {
			return i + 1, nil
		}
	}
	return limit, nil
}

// IsRelaxed reports whether the length of the summed displacements of the last
// step is within the acceptable tension and no nodes are waiting to be grown.
func (p *Plushie) IsRelaxed() bool {
	if p.steps == 0 {
		return false
	}
	if p.grower != nil && !p.grower.done(len(p.points)) {
		return false
	}
	return p.tension <= p.params.AutoStop.AcceptableTension
}

// Tension is the length of the summed displacements of the last step.
func (p *Plushie) Tension() float32 { return p.tension }

// MeanStep is the mean distance a node moved in the last step.
func (p *Plushie) MeanStep() float32 { return p.meanStep }

// Steps returns how many steps have been simulated.
func (p *Plushie) Steps() int { return p.steps }

// =============================================================================
// Control
// =============================================================================

// NodeCount returns the number of live nodes.
func (p *Plushie) NodeCount() int { return len(p.points) }

// Position returns the position of node id.
func (p *Plushie) Position(id int) (mgl32.Vec3, bool) {
	if id < 0 || id >= len(p.points) {
		return mgl32.Vec3{}, false
	}
	return p.points[id], true
}

// SetPosition moves node id.
func (p *Plushie) SetPosition(id int, v mgl32.Vec3) error {
	if id < 0 || id >= len(p.points) {
		return errors.New(errors.ErrCodeInvalidCommand, "node %d out of bounds (%d nodes)", id, len(p.points))
	}
	if isNaN(v) {
		return errors.New(errors.ErrCodeInvalidCommand, "position must be finite")
	}
	p.points[id] = v
	return nil
}

// SetGravity changes the gravity force.
func (p *Plushie) SetGravity(g float32) { p.params.Gravity = g }

// SetCentroidNumber changes the target number of centroids.
func (p *Plushie) SetCentroidNumber(n int) { p.params.Centroids.Number = max(n, 0) }

// SetStuffingForce changes how hard centroids push.
func (p *Plushie) SetStuffingForce(f float32) { p.params.Centroids.Force = f }

// SetFloor toggles the floor constraint.
func (p *Plushie) SetFloor(on bool) { p.params.Floor = on }

// Params returns the current settings.
func (p *Plushie) Params() Params { return p.params }

// SetParams replaces the settings. Initializer and hook settings only affect
// plushies built afterwards.
func (p *Plushie) SetParams(params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	p.params = params
	return nil
}

// Centroids returns a copy of the current centroid positions.
func (p *Plushie) Centroids() []mgl32.Vec3 { return slices.Clone(p.centroids.Points) }

// PartLimits returns the node ids where separately started parts begin, plus the node count.
func (p *Plushie) PartLimits() []int { return slices.Clone(p.partLimits) }

// Peculiarities returns the node annotations.
func (p *Plushie) Peculiarities() map[int]hook.Peculiarity { return maps.Clone(p.peculiar) }

func (p *Plushie) String() string {
	return fmt.Sprintf("plushie(%d nodes, %d edges, %d centroids)", len(p.points), p.edges.Count(), len(p.centroids.Points))
}
