package io

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// PointCloud holds stitch and centroid positions.
type PointCloud struct {
	Points    [][3]float32 `json:"points"`
	Centroids [][3]float32 `json:"centroids,omitempty"`
}

// WritePoints encodes a point cloud as indented JSON.
func WritePoints(pc PointCloud, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteXYZ writes one "x y z" line per stitch. Centroids are not written.
func WriteXYZ(pc PointCloud, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, p := range pc.Points {
		fmt.Fprintf(bw, "%s %s %s\n", formatFloat(p[0]), formatFloat(p[1]), formatFloat(p[2]))
	}
	return bw.Flush()
}

// ExportPoints writes a point cloud to path, as XYZ for .xyz paths and JSON
// otherwise.
func ExportPoints(pc PointCloud, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	write := WritePoints
	if isXYZ(path) {
		write = WriteXYZ
	}
	if err := write(pc, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadPoints decodes a JSON point cloud from r.
func ReadPoints(r io.Reader) (PointCloud, error) {
	var pc PointCloud
	if err := json.NewDecoder(r).Decode(&pc); err != nil {
		return PointCloud{}, fmt.Errorf("decode: %w", err)
	}
	return pc, nil
}

// ReadXYZ parses "x y z" lines. Blank lines and lines starting with # are
// skipped.
func ReadXYZ(r io.Reader) (PointCloud, error) {
	var pc PointCloud
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 3 {
			return PointCloud{}, fmt.Errorf("line %d: want 3 coordinates, got %d", line, len(fields))
		}
		var p [3]float32
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return PointCloud{}, fmt.Errorf("line %d: %w", line, err)
			}
			p[i] = float32(v)
		}
		pc.Points = append(pc.Points, p)
	}
	if err := sc.Err(); err != nil {
		return PointCloud{}, fmt.Errorf("read: %w", err)
	}
	return pc, nil
}

// ImportPoints reads a point cloud file written by ExportPoints.
func ImportPoints(path string) (PointCloud, error) {
	f, err := os.Open(path)
	if err != nil {
		return PointCloud{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if isXYZ(path) {
		return ReadXYZ(f)
	}
	return ReadPoints(f)
}

func isXYZ(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xyz")
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
