// Package io exports relaxed plushies for use outside the simulator.
//
// # Overview
//
// Two kinds of output are supported:
//
//   - STL meshes for slicers and 3D viewers ([WriteSTL], [ExportSTL])
//   - Point clouds of the stitch positions ([WritePoints], [ExportPoints])
//
// # STL
//
// The mesh comes from [plushie.Plushie.Mesh]: each stitch is fanned over its
// older neighbours. Triangles are built as sdfx [sdf.Triangle3] values and
// written in binary STL with their face normal. Degenerate faces, where two
// stitches sit on top of each other, are dropped since they have no normal.
//
//	mesh := p.Mesh()
//	if err := io.ExportSTL(mesh, "ball.stl"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Point Clouds
//
// Point clouds are written as JSON by default:
//
//	{
//	  "points": [[0, 0, 0], [1, 0, 0.5]],
//	  "centroids": [[0, 0.8, 0]]
//	}
//
// Paths ending in .xyz get one "x y z" line per stitch instead, the format
// most point-cloud tools import. [ReadPoints] reads either format back.
//
// [sdf.Triangle3]: https://pkg.go.dev/github.com/deadsy/sdfx/sdf#Triangle3
package io
