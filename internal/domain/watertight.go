// Package domain implements the repair engine: the watertightness
// classifier, the local and platform repair engines with fallback, the 3MF
// exchange codec and the batch scheduler.
package domain

import (
	m "github.com/TGiles/STLRepairTool/internal/model"
)

// edge is an undirected edge key; a <= b always.
type edge struct {
	a, b int
}

func undirected(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// IsWatertight reports whether the mesh is a closed, consistently oriented
// 2-manifold. The checks are purely topological:
//
//   - every undirected edge is shared by exactly two faces (no boundary,
//     no non-manifold fans),
//   - every directed edge appears exactly once (consistent winding),
//   - the Euler characteristic is consistent with a closed manifold of the
//     mesh's component count (even, and at most 2 per component).
//
// Degenerate input (empty mesh, out-of-range indices) is reported as not
// watertight rather than panicking.
func IsWatertight(mesh *m.Mesh) bool {
	if mesh == nil || mesh.IsEmpty() {
		return false
	}

	undirectedCount := make(map[edge]int)
	directedCount := make(map[[2]int]int)

	for _, f := range mesh.Faces {
		for j := 0; j < 3; j++ {
			a, b := f[j], f[(j+1)%3]
			if a < 0 || b < 0 || a >= len(mesh.Vertices) || b >= len(mesh.Vertices) {
				return false
			}
			if a == b {
				return false // degenerate face
			}
			undirectedCount[undirected(a, b)]++
			directedCount[[2]int{a, b}]++
		}
	}

	for _, c := range undirectedCount {
		if c != 2 {
			return false
		}
	}
	for _, c := range directedCount {
		if c != 1 {
			return false
		}
	}

	// χ = V − E + F must match a disjoint union of closed surfaces:
	// each component contributes 2 − 2g, so the total is even and no more
	// than twice the component count.
	used := referencedVertexCount(mesh)
	euler := used - len(undirectedCount) + len(mesh.Faces)
	components := componentCount(mesh)

	return euler%2 == 0 && euler <= 2*components
}

// EulerCharacteristic returns V − E + F counting only vertices referenced
// by at least one face.
func EulerCharacteristic(mesh *m.Mesh) int {
	edges := make(map[edge]struct{})
	for _, f := range mesh.Faces {
		for j := 0; j < 3; j++ {
			edges[undirected(f[j], f[(j+1)%3])] = struct{}{}
		}
	}
	return referencedVertexCount(mesh) - len(edges) + len(mesh.Faces)
}

func referencedVertexCount(mesh *m.Mesh) int {
	used := make(map[int]struct{})
	for _, f := range mesh.Faces {
		for _, v := range f {
			used[v] = struct{}{}
		}
	}
	return len(used)
}

// componentCount returns the number of connected components, joining
// vertices that share a face.
func componentCount(mesh *m.Mesh) int {
	parent := make([]int, len(mesh.Vertices))
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(x, y int) {
		rx, ry := find(x), find(y)
		if rx != ry {
			parent[rx] = ry
		}
	}

	for _, f := range mesh.Faces {
		union(f[0], f[1])
		union(f[1], f[2])
	}

	roots := make(map[int]struct{})
	for _, f := range mesh.Faces {
		roots[find(f[0])] = struct{}{}
	}
	return len(roots)
}
