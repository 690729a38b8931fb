package domain

import (
	"context"
	"log/slog"
	"math"

	m "github.com/TGiles/STLRepairTool/internal/model"
)

// DefaultMergeEpsilon is the default vertex-merge tolerance for the local
// repair pipeline.
const DefaultMergeEpsilon = 1e-7

// LocalEngine is the in-process geometric repair pipeline. Steps run in a
// fixed order and every step is a no-op on input that does not need it, so
// repairing an already-watertight mesh does not change it structurally.
type LocalEngine struct {
	// MergeEpsilon is the vertex-merge tolerance; zero selects the default.
	MergeEpsilon float64
}

// NewLocalEngine constructs a LocalEngine with the given merge tolerance.
func NewLocalEngine(mergeEpsilon float64) *LocalEngine {
	return &LocalEngine{MergeEpsilon: mergeEpsilon}
}

// Name returns the engine identifier.
func (e *LocalEngine) Name() string {
	return m.EngineLocal
}

// Repair runs the pipeline: merge near-coincident vertices, drop
// degenerate and duplicate faces, drop unreferenced vertices, fill boundary
// holes, and reorient faces consistently outward. It reports whether the
// result passes the watertightness classifier; the best-effort mesh is
// returned either way. The pipeline is deterministic: fixed input gives a
// bit-identical output.
func (e *LocalEngine) Repair(_ context.Context, mesh *m.Mesh) (*m.Mesh, bool, error) {
	if mesh.IsEmpty() {
		return mesh.Clone(), false, ErrEmptyMesh
	}

	eps := e.MergeEpsilon
	if eps <= 0 {
		eps = DefaultMergeEpsilon
	}

	out := mesh.Clone()
	mergeVertices(out, eps)
	removeBrokenFaces(out)
	removeUnreferencedVertices(out)
	fillHoles(out)
	orientFaces(out)

	ok := IsWatertight(out)
	if !ok {
		slog.Debug("local repair left mesh non-watertight",
			"faces", out.FaceCount(), "vertices", out.VertexCount())
	}
	return out, ok, nil
}

// mergeVertices snaps vertices onto an epsilon grid and collapses cells.
// Grid quantization keeps the merge deterministic, unlike
// nearest-neighbour searches whose result depends on visit order.
func mergeVertices(mesh *m.Mesh, eps float64) {
	type cell [3]int64

	quantize := func(v m.Vec3) cell {
		return cell{
			int64(math.Round(v.X / eps)),
			int64(math.Round(v.Y / eps)),
			int64(math.Round(v.Z / eps)),
		}
	}

	remap := make([]int, len(mesh.Vertices))
	first := make(map[cell]int)
	var kept []m.Vec3

	for i, v := range mesh.Vertices {
		c := quantize(v)
		if j, ok := first[c]; ok {
			remap[i] = j
			continue
		}
		first[c] = len(kept)
		remap[i] = len(kept)
		kept = append(kept, v)
	}

	if len(kept) == len(mesh.Vertices) {
		return
	}

	mesh.Vertices = kept
	for i, f := range mesh.Faces {
		mesh.Faces[i] = [3]int{remap[f[0]], remap[f[1]], remap[f[2]]}
	}
}

// removeBrokenFaces drops faces with repeated indices and faces that
// duplicate an earlier face up to winding.
func removeBrokenFaces(mesh *m.Mesh) {
	seen := make(map[[3]int]struct{}, len(mesh.Faces))
	out := mesh.Faces[:0]

	for _, f := range mesh.Faces {
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			continue
		}
		key := sortedTriple(f)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}

	mesh.Faces = out
}

func sortedTriple(f [3]int) [3]int {
	a, b, c := f[0], f[1], f[2]
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return [3]int{a, b, c}
}

// removeUnreferencedVertices compacts the vertex slice to faces' support.
func removeUnreferencedVertices(mesh *m.Mesh) {
	remap := make([]int, len(mesh.Vertices))
	for i := range remap {
		remap[i] = -1
	}

	var kept []m.Vec3
	for _, f := range mesh.Faces {
		for _, v := range f {
			if remap[v] < 0 {
				remap[v] = len(kept)
				kept = append(kept, mesh.Vertices[v])
			}
		}
	}

	if len(kept) == len(mesh.Vertices) {
		return
	}

	mesh.Vertices = kept
	for i, f := range mesh.Faces {
		mesh.Faces[i] = [3]int{remap[f[0]], remap[f[1]], remap[f[2]]}
	}
}

// fillHoles triangulates every boundary loop and appends the new faces.
func fillHoles(mesh *m.Mesh) {
	for _, loop := range BoundaryLoops(mesh) {
		mesh.Faces = append(mesh.Faces, TriangulateLoop(mesh.Vertices, loop)...)
	}
}

// orientFaces makes winding consistent within each connected face region by
// growing from the lowest-numbered face, then flips whole regions whose
// signed volume is negative so normals point outward.
func orientFaces(mesh *m.Mesh) {
	// undirected edge -> faces sharing it
	edgeFaces := make(map[edge][]int)
	for i, f := range mesh.Faces {
		for j := 0; j < 3; j++ {
			edgeFaces[undirected(f[j], f[(j+1)%3])] = append(edgeFaces[undirected(f[j], f[(j+1)%3])], i)
		}
	}

	hasDirected := func(f [3]int, a, b int) bool {
		return (f[0] == a && f[1] == b) || (f[1] == a && f[2] == b) || (f[2] == a && f[0] == b)
	}

	visited := make([]bool, len(mesh.Faces))
	var region []int

	flip := func(i int) {
		mesh.Faces[i][1], mesh.Faces[i][2] = mesh.Faces[i][2], mesh.Faces[i][1]
	}

	for seed := 0; seed < len(mesh.Faces); seed++ {
		if visited[seed] {
			continue
		}

		region = region[:0]
		queue := []int{seed}
		visited[seed] = true

		for len(queue) > 0 {
			i := queue[0]
			queue = queue[1:]
			region = append(region, i)

			f := mesh.Faces[i]
			for j := 0; j < 3; j++ {
				a, b := f[j], f[(j+1)%3]
				for _, nb := range edgeFaces[undirected(a, b)] {
					if nb == i || visited[nb] {
						continue
					}
					// Consistent neighbours traverse the shared edge in
					// the opposite direction.
					if hasDirected(mesh.Faces[nb], a, b) {
						flip(nb)
					}
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}

		if regionSignedVolume(mesh, region) < 0 {
			for _, i := range region {
				flip(i)
			}
		}
	}
}

func regionSignedVolume(mesh *m.Mesh, faces []int) float64 {
	var vol float64
	for _, i := range faces {
		f := mesh.Faces[i]
		a, b, c := mesh.Vertices[f[0]], mesh.Vertices[f[1]], mesh.Vertices[f[2]]
		vol += a.Dot(b.Cross(c))
	}
	return vol / 6
}
