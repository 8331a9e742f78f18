package plushie

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/matzehuels/plushie/pkg/hook"
)

// roundHeight is the vertical distance between stacked rounds of a cylinder.
const roundHeight float32 = 0.7

// cylinder places every node of the graph on stacked horizontal rings, one per
// round span. Ring roots sit on the axis of their ring.
func cylinder(g *hook.InitialGraph, dsd float32, limbs map[string]LimbParams) []mgl32.Vec3 {
	points := make([]mgl32.Vec3, g.NodeCount())
	var y float32
	for _, span := range g.RoundSpans {
		first, last := span[0], min(span[1], len(points)-1)
		ring := make([]int, 0, last-first+1)
		for id := first; id <= last; id++ {
			if p, ok := g.Peculiarities[id]; ok && p.Kind == hook.Locked {
				points[id] = mgl32.Vec3{0, y, 0}
				continue
			}
			ring = append(ring, id)
		}

		radius := float32(len(ring)+1) * dsd / (2 * math.Pi) / 4
		for k, id := range ring {
			angle := 2 * math.Pi * float64(k) / float64(len(ring))
			points[id] = mgl32.Vec3{
				radius * float32(math.Cos(angle)),
				y,
				radius * float32(math.Sin(angle)),
			}
		}
		y += roundHeight
	}

	for name, node := range g.MarkToNode {
		if node < len(points) {
			points[node] = lockLimb(points[node], limbs[name])
		}
	}
	return points
}

// lockLimb overrides the coordinates a limb setting pins.
func lockLimb(v mgl32.Vec3, limb LimbParams) mgl32.Vec3 {
	if limb.LockX != nil {
		v[0] = *limb.LockX
	}
	if limb.LockY != nil {
		v[1] = *limb.LockY
	}
	if limb.LockZ != nil {
		v[2] = *limb.LockZ
	}
	return v
}

// grower promotes nodes from the goal graph into the live simulation, one at
// a time, whenever the newest node has settled or a fallback timer runs out.
type grower struct {
	goal  hook.Edges
	timer float32
}

func newGrower(goal hook.Edges, params InitializerParams) *grower {
	return &grower{goal: goal, timer: params.ForceExpansionAfterTime}
}

func (g *grower) done(live int) bool {
	return live >= len(g.goal)
}

// grow adds the next node to p once the newest one has settled or the
// fallback timer runs out. It reports whether nodes were added.
func (g *grower) grow(p *Plushie, dt float32) bool {
	live := len(p.points)
	if g.done(live) {
		return false
	}

	settled := live == 0 ||
		p.displacement[live-1].Len() < p.params.Initializer.AcceptableDisplacementForExpanding
	if !settled && g.timer > 0 {
		g.timer -= dt
		return false
	}
	g.timer = p.params.Initializer.ForceExpansionAfterTime
	g.add(p)
	return true
}

// add places the next goal node a stitch above its parents. A node without
// parents starts a ring: it is added together with the two nodes after it,
// spread out of line so the shape can leave the vertical axis.
func (g *grower) add(p *Plushie) {
	live := len(p.points)
	if parents := g.goal[live]; len(parents) > 0 {
		g.construct(p, live, g.position(p, parents))
		return
	}
	for k, at := range g.ringStart(p, live) {
		if live+k >= len(g.goal) {
			break
		}
		g.construct(p, live+k, at)
	}
}

func (g *grower) construct(p *Plushie, id int, at mgl32.Vec3) {
	p.edges = append(p.edges, g.goal[id])
	p.points = append(p.points, at)
	p.displacement = append(p.displacement, mgl32.Vec3{})
}

// ringStart returns the seed positions of a ring root and its first two
// stitches. The root honours any limb lock naming it.
func (g *grower) ringStart(p *Plushie, root int) [3]mgl32.Vec3 {
	var at mgl32.Vec3
	for name, node := range p.markToNode {
		if node == root {
			at = lockLimb(at, p.params.Limbs[name])
		}
	}
	dsd := p.params.DesiredStitchDistance
	return [3]mgl32.Vec3{
		at,
		at.Add(mgl32.Vec3{dsd, 0.1 * dsd, 0}),
		at.Add(mgl32.Vec3{0, 0.2 * dsd, dsd}),
	}
}

// position returns the mean of the parents raised by one stitch.
func (g *grower) position(p *Plushie, parents []int) mgl32.Vec3 {
	var sum mgl32.Vec3
	for _, parent := range parents {
		sum = sum.Add(p.points[parent])
	}
	up := mgl32.Vec3{0, p.params.DesiredStitchDistance, 0}
	return sum.Mul(1 / float32(len(parents))).Add(up)
}
