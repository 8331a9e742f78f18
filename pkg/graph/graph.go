package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/plushie/pkg/hook"
)

// WriteGraphFile writes a compiled graph to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(g *hook.InitialGraph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeJSON(FromInitialGraph(g), f)
}

// WriteGraph writes a compiled graph as JSON to an io.Writer.
func WriteGraph(g *hook.InitialGraph, w io.Writer) error {
	return writeJSON(FromInitialGraph(g), w)
}

// ReadGraphFile reads a JSON file and returns the validated graph.
func ReadGraphFile(path string) (*hook.InitialGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraph(f)
}

// ReadGraph decodes a JSON graph from an io.Reader.
// Use ReadGraphFile for files or pass bytes.NewReader for in-memory data.
func ReadGraph(r io.Reader) (*hook.InitialGraph, error) {
	var sg StitchGraph
	if err := json.NewDecoder(r).Decode(&sg); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return sg.InitialGraph()
}

// =============================================================================
// Result Serialization API
// =============================================================================

// WriteResultFile writes a relaxed result to a JSON file.
func WriteResultFile(r *Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeJSON(r, f)
}

// ReadResultFile reads a relaxed result from a JSON file.
func ReadResultFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
