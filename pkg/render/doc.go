// Package render draws compiled stitch graphs.
//
// The [nodelink] subpackage turns a [graph.StitchGraph] into Graphviz DOT,
// one circle per stitch filled with its yarn color, and renders it to SVG
// in-process:
//
//	dot := nodelink.ToDOT(sg, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// [nodelink]: github.com/matzehuels/plushie/pkg/render/nodelink
// [graph.StitchGraph]: github.com/matzehuels/plushie/pkg/graph.StitchGraph
package render
