package io

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/matzehuels/plushie/pkg/plushie"
)

// minFaceArea is twice the smallest triangle area kept in an export.
const minFaceArea = 1e-9

// stlHeader fills the 80 byte header of binary STL files.
var stlHeader = [80]byte{'p', 'l', 'u', 's', 'h', 'i', 'e'}

// Triangles converts a mesh to sdfx triangles, dropping degenerate faces.
func Triangles(m plushie.Mesh) []*sdf.Triangle3 {
	out := make([]*sdf.Triangle3, 0, len(m.Faces))
	for _, f := range m.Faces {
		t := &sdf.Triangle3{toVec(m.Vertices[f[0]]), toVec(m.Vertices[f[1]]), toVec(m.Vertices[f[2]])}
		if t[1].Sub(t[0]).Cross(t[2].Sub(t[0])).Length() < minFaceArea {
			continue
		}
		out = append(out, t)
	}
	return out
}

// WriteSTL encodes a mesh as binary STL and writes it to w.
func WriteSTL(m plushie.Mesh, w io.Writer) error {
	tris := Triangles(m)
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(stlHeader[:]); err != nil {
		return fmt.Errorf("write stl header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(tris))); err != nil {
		return fmt.Errorf("write stl header: %w", err)
	}

	var rec [12]float32
	for i, t := range tris {
		n := t.Normal()
		rec[0], rec[1], rec[2] = float32(n.X), float32(n.Y), float32(n.Z)
		for j, v := range t {
			rec[3+3*j], rec[4+3*j], rec[5+3*j] = float32(v.X), float32(v.Y), float32(v.Z)
		}
		if err := binary.Write(bw, binary.LittleEndian, rec); err != nil {
			return fmt.Errorf("write triangle %d: %w", i, err)
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(0)); err != nil {
			return fmt.Errorf("write triangle %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// ExportSTL writes a mesh to a binary STL file at path.
func ExportSTL(m plushie.Mesh, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteSTL(m, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadSTLCount returns the triangle count stored in a binary STL header.
func ReadSTLCount(r io.Reader) (int, error) {
	var header [80]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, fmt.Errorf("read stl header: %w", err)
	}
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, fmt.Errorf("read stl header: %w", err)
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("stl declares %d triangles", n)
	}
	return int(n), nil
}

func toVec(v mgl32.Vec3) v3.Vec {
	return v3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}
