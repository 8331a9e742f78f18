package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/plushie/pkg/graph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the parent stitch and the peculiarity to node labels.
	// When false, only the stitch id is shown.
	Detailed bool
	// Rounds puts the stitches of each round on the same rank.
	Rounds bool
}

// ToDOT converts a stitch graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
func ToDOT(g graph.StitchGraph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fontsize=10, width=0.3, fixedsize=false];\n")
	buf.WriteString("  edge [color=\"#888888\"];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&buf, "  %d [%s];\n", n.ID, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
	}

	if opts.Rounds && len(g.RoundSpans) > 0 {
		buf.WriteString("\n")
		for _, span := range g.RoundSpans {
			ids := make([]string, 0, span[1]-span[0]+1)
			for id := span[0]; id <= span[1]; id++ {
				ids = append(ids, strconv.Itoa(id))
			}
			fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(ids, "; "))
		}
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %d -- %d;\n", e.To, e.From)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, detailed bool) string {
	label := strconv.Itoa(n.ID)
	if !detailed {
		return label
	}
	if n.Parent != graph.NoParent {
		label += fmt.Sprintf("\nparent: %d", n.Parent)
	}
	if n.Peculiarity != "" {
		label += "\n" + n.Peculiarity
	}
	return label
}

func fmtAttrs(n graph.Node, detailed bool) []string {
	attrs := []string{
		fmt.Sprintf("label=%q", fmtLabel(n, detailed)),
		fmt.Sprintf("fillcolor=%q", n.Color),
		fmt.Sprintf("fontcolor=%q", fontColor(n.Color)),
	}
	switch n.Peculiarity {
	case graph.PeculiarityLocked:
		attrs = append(attrs, "shape=doublecircle")
	case graph.PeculiarityTip:
		attrs = append(attrs, "shape=diamond")
	case graph.PeculiarityFLO, graph.PeculiarityBLO:
		attrs = append(attrs, "style=\"filled,dashed\"")
	}
	return attrs
}

// fontColor picks black or white text, whichever reads better on the fill.
func fontColor(fill string) string {
	c, err := graph.ParseColor(fill)
	if err != nil {
		return "black"
	}
	// Rec. 601 luma
	luma := 299*int(c[0]) + 587*int(c[1]) + 114*int(c[2])
	if luma < 128*1000 {
		return "white"
	}
	return "black"
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
