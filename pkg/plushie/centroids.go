package plushie

import (
	"math"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"
)

// minSkinForStuffing is the smallest shape the centroids act on.
const minSkinForStuffing = 5

// Centroids simulate stuffing: a few mobile points inside the shape that push
// the skin outward and drift towards the nodes they are closest to.
type Centroids struct {
	Points []mgl32.Vec3
}

// stuff runs one round of centroid stuffing over the skin nodes.
func (c *Centroids) stuff(params CentroidParams, skin, displacement []mgl32.Vec3, logger *log.Logger) {
	if len(skin) < minSkinForStuffing {
		return
	}
	c.adjust(params, skin)
	if len(c.Points) == 0 {
		return
	}

	assigned := make([][]int, len(c.Points))
	for i, p := range skin {
		closest, best := 0, float32(math.MaxFloat32)
		for ci, centroid := range c.Points {
			diff := p.Sub(centroid)
			dist := diff.Len()
			if dist < best {
				closest, best = ci, dist
			}
			if dist == 0 {
				continue
			}
			push := normalized(diff).Mul(min(1/(dist*dist), 1) * params.Force)
			displacement[i] = displacement[i].Add(push)
		}
		assigned[closest] = append(assigned[closest], i)
	}

	c.recenter(skin, assigned, logger)
}

// adjust moves the centroid count one step towards the target. At most one
// centroid is added per call; surplus ones are removed at once.
func (c *Centroids) adjust(params CentroidParams, skin []mgl32.Vec3) {
	n, count := len(skin), len(c.Points)
	switch {
	case count < params.Number && n >= params.MinNodesPerCentroid*count:
		var at mgl32.Vec3
		if count >= 2 {
			at = c.Points[0].Add(c.Points[1]).Mul(0.5)
		} else {
			at = skin[n-1]
		}
		c.Points = append(c.Points, at)
	case count > params.Number:
		c.Points = c.Points[:params.Number]
	}
}

// recenter moves each centroid to the weighted mean of its assigned nodes.
func (c *Centroids) recenter(skin []mgl32.Vec3, assigned [][]int, logger *log.Logger) {
	for ci, members := range assigned {
		if len(members) == 0 {
			logger.Warn("centroid has no nodes assigned", "centroid", ci)
			continue
		}
		centroid := c.Points[ci]
		var sum mgl32.Vec3
		var total float32
		for _, i := range members {
			w := weight(centroid.Sub(skin[i]).Len())
			sum = sum.Add(skin[i].Mul(w))
			total += w
		}
		if total == 0 {
			continue
		}
		c.Points[ci] = sum.Mul(1 / total)
	}
}

// weight favours nodes at a moderate distance from the centroid over very
// close or very far ones.
func weight(dist float32) float32 {
	if dist <= 0 {
		return 0
	}
	l := math.Log(float64(dist)) - 1
	return float32(math.Exp(-l * l / 1.96))
}
