// Package adapter contains the infrastructure adapters for the repair tool:
// STL encode/decode, filesystem access (discovery, backups, atomic writes)
// and report persistence. Adapters hide direct os access so the domain layer
// can be tested without touching the disk.
package adapter

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	m "github.com/TGiles/STLRepairTool/internal/model"
)

// MeshIOAdapter loads and serializes meshes. The concrete implementation
// speaks STL; the domain layer only sees model.Mesh.
type MeshIOAdapter interface {
	// Load reads the mesh at path, detecting ASCII vs binary STL.
	Load(path m.Path) (*m.Mesh, error)

	// Encode serializes the mesh as binary STL to w.
	Encode(mesh *m.Mesh, w io.Writer) error
}

const (
	binaryHeaderSize   = 80
	binaryTriangleSize = 50 // normal + 3 vertices (12 floats) + attribute count
)

// STLAdapter is the on-disk STL implementation of MeshIOAdapter.
type STLAdapter struct{}

// NewSTLAdapter constructs an STLAdapter.
func NewSTLAdapter() *STLAdapter {
	return &STLAdapter{}
}

// Load reads an STL file and returns an indexed mesh. Exactly coincident
// vertices are merged on load so the triangle soup stored by STL becomes a
// connected surface the classifier can reason about.
func (a *STLAdapter) Load(path m.Path) (*m.Mesh, error) {
	data, err := os.ReadFile(string(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	tris, err := decodeTriangles(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return indexTriangles(tris), nil
}

// decodeTriangles sniffs the format and returns the raw vertex triples.
func decodeTriangles(data []byte) ([][3]m.Vec3, error) {
	// ASCII files start with "solid". A binary file can carry the same
	// prefix in its free-form header, so confirm a facet keyword exists
	// before committing to the ASCII path.
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t"), []byte("solid")) && bytes.Contains(data, []byte("facet")) {
		return decodeASCII(data)
	}
	return decodeBinary(data)
}

func decodeASCII(data []byte) ([][3]m.Vec3, error) {
	var (
		tris    [][3]m.Vec3
		current []m.Vec3
	)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "vertex":
			if len(fields) < 4 {
				return nil, fmt.Errorf("malformed vertex line %q", scanner.Text())
			}
			var v m.Vec3
			var err error
			if v.X, err = strconv.ParseFloat(fields[1], 64); err != nil {
				return nil, fmt.Errorf("parse vertex: %w", err)
			}
			if v.Y, err = strconv.ParseFloat(fields[2], 64); err != nil {
				return nil, fmt.Errorf("parse vertex: %w", err)
			}
			if v.Z, err = strconv.ParseFloat(fields[3], 64); err != nil {
				return nil, fmt.Errorf("parse vertex: %w", err)
			}
			current = append(current, v)

		case "endfacet":
			if len(current) != 3 {
				return nil, fmt.Errorf("facet with %d vertices", len(current))
			}
			tris = append(tris, [3]m.Vec3{current[0], current[1], current[2]})
			current = current[:0]
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return tris, nil
}

func decodeBinary(data []byte) ([][3]m.Vec3, error) {
	if len(data) < binaryHeaderSize+4 {
		return nil, fmt.Errorf("binary STL truncated: %d bytes", len(data))
	}

	count := binary.LittleEndian.Uint32(data[binaryHeaderSize:])
	body := data[binaryHeaderSize+4:]

	if uint64(len(body)) < uint64(count)*binaryTriangleSize {
		return nil, fmt.Errorf("binary STL truncated: header declares %d triangles", count)
	}

	tris := make([][3]m.Vec3, 0, count)
	for i := uint32(0); i < count; i++ {
		rec := body[i*binaryTriangleSize:]
		var tri [3]m.Vec3
		for j := 0; j < 3; j++ {
			off := 12 + j*12 // skip the stored normal
			tri[j] = m.Vec3{
				X: float64(float32FromLE(rec[off:])),
				Y: float64(float32FromLE(rec[off+4:])),
				Z: float64(float32FromLE(rec[off+8:])),
			}
		}
		tris = append(tris, tri)
	}

	return tris, nil
}

func float32FromLE(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// indexTriangles merges exactly coincident vertices into an indexed mesh.
func indexTriangles(tris [][3]m.Vec3) *m.Mesh {
	mesh := &m.Mesh{}
	seen := make(map[m.Vec3]int)

	for _, tri := range tris {
		var face [3]int
		for j, v := range tri {
			idx, ok := seen[v]
			if !ok {
				idx = len(mesh.Vertices)
				seen[v] = idx
				mesh.Vertices = append(mesh.Vertices, v)
			}
			face[j] = idx
		}
		mesh.Faces = append(mesh.Faces, face)
	}

	return mesh
}

// Encode writes the mesh as binary STL: 80-byte header, uint32 triangle
// count, then one 50-byte record per triangle with a recomputed normal.
func (a *STLAdapter) Encode(mesh *m.Mesh, w io.Writer) error {
	bw := bufio.NewWriter(w)

	var header [binaryHeaderSize]byte
	copy(header[:], "Binary STL written by stlrepair")
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if err := binary.Write(bw, binary.LittleEndian, uint32(len(mesh.Faces))); err != nil {
		return fmt.Errorf("write triangle count: %w", err)
	}

	for i, f := range mesh.Faces {
		n := mesh.FaceNormal(i).Normalize()
		rec := [12]float32{
			float32(n.X), float32(n.Y), float32(n.Z),
		}
		for j := 0; j < 3; j++ {
			v := mesh.Vertices[f[j]]
			rec[3+j*3] = float32(v.X)
			rec[3+j*3+1] = float32(v.Y)
			rec[3+j*3+2] = float32(v.Z)
		}
		if err := binary.Write(bw, binary.LittleEndian, rec); err != nil {
			return fmt.Errorf("write triangle %d: %w", i, err)
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(0)); err != nil {
			return fmt.Errorf("write triangle %d attribute: %w", i, err)
		}
	}

	return bw.Flush()
}
