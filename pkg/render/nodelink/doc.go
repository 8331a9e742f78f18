// Package nodelink renders stitch graphs as node-link diagrams.
//
// # Overview
//
// Every stitch becomes a circle filled with its yarn color, and every link
// of the stitch graph becomes an undirected edge. Stitches of one round are
// kept on the same rank, so a ball reads top to bottom like its pattern.
//
// # Usage
//
//	dot := nodelink.ToDOT(sg, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// # Peculiar stitches
//
//   - locked ring roots are drawn as double circles
//   - fastened-off tips are drawn as diamonds
//   - front and back loop stitches get a dashed outline
//
// # Options
//
//   - Detailed: labels also show the parent stitch and the peculiarity
//   - Rounds: keep each round on one rank (default layout otherwise)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is needed.
package nodelink
