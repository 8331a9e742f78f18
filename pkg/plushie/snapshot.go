package plushie

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/samber/lo"

	"github.com/matzehuels/plushie/pkg/hook"
	"github.com/matzehuels/plushie/pkg/pattern"
)

// NodesData is the static description of the nodes sent with InitData.
type NodesData struct {
	Points        []mgl32.Vec3             `json:"points" codec:"points"`
	Colors        []pattern.RGB            `json:"colors" codec:"colors"`
	Peculiarities map[int]hook.Peculiarity `json:"peculiarities" codec:"peculiarities"`
}

// CentroidsData lists centroid positions.
type CentroidsData struct {
	Points []mgl32.Vec3 `json:"points" codec:"points"`
}

// InitData is everything an observer needs to draw the plushie from scratch.
type InitData struct {
	Nodes     NodesData     `json:"nodes" codec:"nodes"`
	Edges     [][]int       `json:"edges" codec:"edges"`
	Centroids CentroidsData `json:"centroids" codec:"centroids"`
}

// UpdateData carries positions only; the graph is unchanged since InitData.
type UpdateData struct {
	Points    []mgl32.Vec3  `json:"points" codec:"points"`
	Centroids CentroidsData `json:"centroids" codec:"centroids"`
}

// InitData snapshots the whole plushie.
func (p *Plushie) InitData() InitData {
	return InitData{
		Nodes: NodesData{
			Points:        slices.Clone(p.points),
			Colors:        slices.Clone(p.colors[:len(p.points)]),
			Peculiarities: p.Peculiarities(),
		},
		Edges: lo.Map(p.edges, func(list []int, _ int) []int {
			if list == nil {
				return []int{}
			}
			return slices.Clone(list)
		}),
		Centroids: CentroidsData{Points: p.Centroids()},
	}
}

// UpdateData snapshots the positions.
func (p *Plushie) UpdateData() UpdateData {
	return UpdateData{
		Points:    slices.Clone(p.points),
		Centroids: CentroidsData{Points: p.Centroids()},
	}
}

// PointCloud returns the node positions.
func (p *Plushie) PointCloud() []mgl32.Vec3 {
	return slices.Clone(p.points)
}

// Mesh is a triangulated surface over the node positions.
type Mesh struct {
	Vertices []mgl32.Vec3
	Faces    [][3]int
}

// Mesh fans triangles from every node over its lower neighbours.
func (p *Plushie) Mesh() Mesh {
	return BuildMesh(p.PointCloud(), p.edges)
}

// BuildMesh triangulates points using the adjacency: consecutive lower
// neighbour pairs of a node form a face, and nodes with more than two lower
// neighbours also close the fan from the first to the last. Edges reaching
// past the points are ignored.
func BuildMesh(points []mgl32.Vec3, edges hook.Edges) Mesh {
	m := Mesh{Vertices: points}
	for i, lower := range edges {
		if len(lower) < 2 || i >= len(points) {
			continue
		}
		for j := 0; j+1 < len(lower); j++ {
			m.Faces = append(m.Faces, [3]int{i, lower[j], lower[j+1]})
		}
		if len(lower) > 2 {
			m.Faces = append(m.Faces, [3]int{i, lower[0], lower[len(lower)-1]})
		}
	}
	return m
}
