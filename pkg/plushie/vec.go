package plushie

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// normalized returns v scaled to unit length, or the zero vector when v has no length.
func normalized(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}

func isNaN(v mgl32.Vec3) bool {
	return v[0] != v[0] || v[1] != v[1] || v[2] != v[2]
}

// mustFinite panics on NaN. A NaN means a force was computed from a broken
// state and the simulation cannot continue.
func mustFinite(stage string, vs []mgl32.Vec3) {
	for i, v := range vs {
		if isNaN(v) {
			panic(fmt.Sprintf("plushie: NaN displacement at node %d after %s", i, stage))
		}
	}
}

// attract is the link force on this towards other. It is zero at the desired
// distance, repulsive closer and attractive farther, bounded by 8 as x grows.
func attract(this, other mgl32.Vec3, desired float32) mgl32.Vec3 {
	diff := this.Sub(other)
	x := diff.Len()
	if x == 0 {
		return mgl32.Vec3{}
	}
	d := desired
	num := (x - d) * (x - d) * (x - d)
	den := (x/2 + d) * (x/2 + d) * (x/2 + d)
	return diff.Mul(-1 / x).Mul(num / den)
}
