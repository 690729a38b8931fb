package domain

import (
	"sort"

	m "github.com/TGiles/STLRepairTool/internal/model"
)

// BoundaryLoops returns the closed loops of boundary vertices, one per hole.
// A boundary edge is an edge used by exactly one face; loops are walked via
// the directed successor of each boundary edge and returned reversed, so
// triangulating a loop in order produces faces wound consistently with the
// surrounding surface. A vertex can sit on more than one hole (a pinch
// point), so successors are kept per outgoing boundary edge rather than per
// vertex; at a pinch the walk prefers the successor that closes the current
// loop.
func BoundaryLoops(mesh *m.Mesh) [][]int {
	undirectedCount := make(map[edge]int)
	for _, f := range mesh.Faces {
		for j := 0; j < 3; j++ {
			undirectedCount[undirected(f[j], f[(j+1)%3])]++
		}
	}

	// outgoing[a] lists every b with a boundary edge a→b in face winding
	// order. Sorted so the walk stays deterministic.
	outgoing := make(map[int][]int)
	for _, f := range mesh.Faces {
		for j := 0; j < 3; j++ {
			a, b := f[j], f[(j+1)%3]
			if undirectedCount[undirected(a, b)] == 1 {
				outgoing[a] = append(outgoing[a], b)
			}
		}
	}
	for _, succs := range outgoing {
		sort.Ints(succs)
	}

	takeSuccessor := func(v, start int) (int, bool) {
		succs, ok := outgoing[v]
		if !ok {
			return 0, false
		}

		pick := 0
		for i, s := range succs {
			if s == start {
				pick = i
				break
			}
		}

		next := succs[pick]
		if len(succs) == 1 {
			delete(outgoing, v)
		} else {
			outgoing[v] = append(succs[:pick], succs[pick+1:]...)
		}
		return next, true
	}

	var loops [][]int
	for len(outgoing) > 0 {
		start := lowestKey(outgoing)
		loop := []int{start}
		v := start

		for {
			next, ok := takeSuccessor(v, start)
			if !ok {
				// open chain: non-manifold boundary, drop it
				loop = nil
				break
			}
			if next == start {
				break
			}
			loop = append(loop, next)
			v = next
		}

		if len(loop) >= 3 {
			reverseInts(loop)
			loops = append(loops, loop)
		}
	}

	return loops
}

// lowestKey keeps loop extraction deterministic regardless of map order.
func lowestKey(s map[int][]int) int {
	first := true
	min := 0
	for k := range s {
		if first || k < min {
			min = k
			first = false
		}
	}
	return min
}

func reverseInts(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// TriangulateLoop fills one boundary loop with a minimum-area triangulation
// (dynamic programming over loop intervals, à la Barequet–Sharir). The
// result is deterministic for a fixed input: ties resolve to the lowest
// split vertex.
func TriangulateLoop(vertices []m.Vec3, loop []int) [][3]int {
	n := len(loop)
	if n < 3 {
		return nil
	}
	if n == 3 {
		return [][3]int{{loop[0], loop[1], loop[2]}}
	}

	area := func(i, j, k int) float64 {
		a, b, c := vertices[loop[i]], vertices[loop[j]], vertices[loop[k]]
		return b.Sub(a).Cross(c.Sub(a)).Length() * 0.5
	}

	// weight[i][j]: minimal area filling the interval i..j of the loop.
	weight := make([][]float64, n)
	lambda := make([][]int, n)
	for i := range weight {
		weight[i] = make([]float64, n)
		lambda[i] = make([]int, n)
	}

	for i := 0; i+2 < n; i++ {
		weight[i][i+2] = area(i, i+1, i+2)
		lambda[i][i+2] = i + 1
	}

	for gap := 3; gap < n; gap++ {
		for i := 0; i+gap < n; i++ {
			j := i + gap
			best := -1
			var bestArea float64
			for k := i + 1; k < j; k++ {
				a := weight[i][k] + weight[k][j] + area(i, k, j)
				if best < 0 || a < bestArea {
					best = k
					bestArea = a
				}
			}
			weight[i][j] = bestArea
			lambda[i][j] = best
		}
	}

	// Reconstruct the triangulation from the recorded splits.
	var tris [][3]int
	stack := [][2]int{{0, n - 1}}
	for len(stack) > 0 {
		iv := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		i, j := iv[0], iv[1]
		k := lambda[i][j]
		tris = append(tris, [3]int{loop[i], loop[k], loop[j]})
		if k-i > 1 {
			stack = append(stack, [2]int{i, k})
		}
		if j-k > 1 {
			stack = append(stack, [2]int{k, j})
		}
	}

	return tris
}
