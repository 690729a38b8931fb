// Package model contains the core value types shared across the repair tool.
package model

import "math"

// Path represents a file system path.
type Path string

// Vec3 is a point or direction in 3D space.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns a + b.
func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

// Sub returns a - b.
func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// Scale returns a scaled by s.
func (a Vec3) Scale(s float64) Vec3 {
	return Vec3{a.X * s, a.Y * s, a.Z * s}
}

// Dot returns the dot product a · b.
func (a Vec3) Dot(b Vec3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// Cross returns the cross product a × b.
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

// Length returns |a|.
func (a Vec3) Length() float64 {
	return math.Sqrt(a.Dot(a))
}

// Normalize returns a / |a|. The zero vector is returned unchanged.
func (a Vec3) Normalize() Vec3 {
	l := a.Length()
	if l == 0 {
		return a
	}
	return a.Scale(1 / l)
}

// Mesh is an indexed triangulated surface. Faces hold indices into Vertices;
// the loader guarantees every index is in bounds. A Mesh is owned by exactly
// one worker while a file is being processed and is never shared.
type Mesh struct {
	Vertices []Vec3
	Faces    [][3]int
}

// FaceCount returns the number of triangles.
func (m *Mesh) FaceCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// IsEmpty reports whether the mesh has no geometry at all.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0 || len(m.Faces) == 0
}

// Clone returns a deep copy so an engine can mutate freely while the caller
// keeps the original for fallback.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Vertices: make([]Vec3, len(m.Vertices)),
		Faces:    make([][3]int, len(m.Faces)),
	}
	copy(c.Vertices, m.Vertices)
	copy(c.Faces, m.Faces)
	return c
}

// FaceNormal returns the (unnormalized) normal of face i following the
// right-hand rule over the winding order.
func (m *Mesh) FaceNormal(i int) Vec3 {
	f := m.Faces[i]
	a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
	return b.Sub(a).Cross(c.Sub(a))
}

// FaceArea returns the area of face i.
func (m *Mesh) FaceArea(i int) float64 {
	return m.FaceNormal(i).Length() * 0.5
}

// SignedVolume returns the signed enclosed volume via the divergence
// theorem. Positive means faces wind outward; only meaningful on a closed
// mesh but safe to call on any.
func (m *Mesh) SignedVolume() float64 {
	var vol float64
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		vol += a.Dot(b.Cross(c))
	}
	return vol / 6
}
