package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/plushie/pkg/errors"
	"github.com/matzehuels/plushie/pkg/graph"
	plushieio "github.com/matzehuels/plushie/pkg/io"
	"github.com/matzehuels/plushie/pkg/render/nodelink"
)

// Render generates output artifacts in the requested formats. res may be nil
// when only graph formats are requested.
func Render(sg graph.StitchGraph, res *graph.Result, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var dot string
	for _, format := range opts.Formats {
		if !GraphFormats[format] && res == nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "format %s needs a relaxed result", format)
		}

		var data []byte
		var err error
		switch format {
		case FormatJSON:
			data, err = indentJSON(sg)
		case FormatDOT, FormatSVG:
			if dot == "" {
				dot = nodelink.ToDOT(sg, nodelink.Options{Detailed: opts.Detailed, Rounds: opts.Rounds})
			}
			if format == FormatDOT {
				data = []byte(dot)
			} else {
				data, err = nodelink.RenderSVG(dot)
			}
		case FormatResult:
			data, err = indentJSON(res)
		case FormatSTL:
			var buf bytes.Buffer
			err = plushieio.WriteSTL(res.Mesh(), &buf)
			data = buf.Bytes()
		case FormatPoints, FormatXYZ:
			var buf bytes.Buffer
			pc := plushieio.PointCloud{Points: res.Points, Centroids: res.Centroids}
			if format == FormatPoints {
				err = plushieio.WritePoints(pc, &buf)
			} else {
				err = plushieio.WriteXYZ(pc, &buf)
			}
			data = buf.Bytes()
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func indentJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
