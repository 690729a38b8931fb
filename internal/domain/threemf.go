package domain

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	m "github.com/TGiles/STLRepairTool/internal/model"
)

// Minimal 3MF support: just enough of the package format to round-trip a
// triangle mesh through the platform repair service. A 3MF file is a ZIP
// archive holding one model XML document plus OPC boilerplate.

const (
	threeMFModelPath    = "3D/3dmodel.model"
	threeMFContentTypes = `<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
 <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
 <Default Extension="model" ContentType="application/vnd.ms-package.3dmanufacturing-3dmodel+xml"/>
</Types>`
	threeMFRels = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
 <Relationship Target="/3D/3dmodel.model" Id="rel-1" Type="http://schemas.microsoft.com/3dmanufacturing/2013/01/3dmodel"/>
</Relationships>`
)

type threeMFModel struct {
	XMLName   xml.Name         `xml:"model"`
	Namespace string           `xml:"xmlns,attr"`
	Unit      string           `xml:"unit,attr"`
	Resources threeMFResources `xml:"resources"`
	Build     threeMFBuild     `xml:"build"`
}

type threeMFResources struct {
	Objects []threeMFObject `xml:"object"`
}

type threeMFObject struct {
	ID   int         `xml:"id,attr"`
	Type string      `xml:"type,attr"`
	Mesh threeMFMesh `xml:"mesh"`
}

type threeMFMesh struct {
	Vertices  []threeMFVertex   `xml:"vertices>vertex"`
	Triangles []threeMFTriangle `xml:"triangles>triangle"`
}

type threeMFVertex struct {
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
	Z float64 `xml:"z,attr"`
}

type threeMFTriangle struct {
	V1 int `xml:"v1,attr"`
	V2 int `xml:"v2,attr"`
	V3 int `xml:"v3,attr"`
}

// WriteThreeMF writes mesh as a single-object 3MF package at path.
func WriteThreeMF(mesh *m.Mesh, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create 3mf: %w", err)
	}

	zw := zip.NewWriter(f)

	writeEntry := func(name, content string) error {
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, content)
		return err
	}

	if err := writeEntry("[Content_Types].xml", threeMFContentTypes); err != nil {
		return closeAndWrap(f, zw, err)
	}
	if err := writeEntry("_rels/.rels", threeMFRels); err != nil {
		return closeAndWrap(f, zw, err)
	}

	doc := threeMFModel{
		Namespace: "http://schemas.microsoft.com/3dmanufacturing/core/2015/02",
		Unit:      "millimeter",
		Resources: threeMFResources{Objects: []threeMFObject{{
			ID:   1,
			Type: "model",
			Mesh: meshToThreeMF(mesh),
		}}},
		Build: threeMFBuild{Items: []threeMFItem{{ObjectID: 1}}},
	}

	data, err := xml.MarshalIndent(doc, "", " ")
	if err != nil {
		return closeAndWrap(f, zw, fmt.Errorf("marshal model: %w", err))
	}
	if err := writeEntry(threeMFModelPath, xml.Header+string(data)); err != nil {
		return closeAndWrap(f, zw, err)
	}

	if err := zw.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finalize 3mf: %w", err)
	}
	return f.Close()
}

type threeMFBuild struct {
	Items []threeMFItem `xml:"item"`
}

type threeMFItem struct {
	ObjectID int `xml:"objectid,attr"`
}

func closeAndWrap(f *os.File, zw *zip.Writer, err error) error {
	_ = zw.Close()
	_ = f.Close()
	return fmt.Errorf("write 3mf entry: %w", err)
}

func meshToThreeMF(mesh *m.Mesh) threeMFMesh {
	out := threeMFMesh{
		Vertices:  make([]threeMFVertex, len(mesh.Vertices)),
		Triangles: make([]threeMFTriangle, len(mesh.Faces)),
	}
	for i, v := range mesh.Vertices {
		out.Vertices[i] = threeMFVertex{X: v.X, Y: v.Y, Z: v.Z}
	}
	for i, f := range mesh.Faces {
		out.Triangles[i] = threeMFTriangle{V1: f[0], V2: f[1], V3: f[2]}
	}
	return out
}

// ReadThreeMF loads the first mesh object from a 3MF package. Coincident
// vertices are merged: repair services commonly emit per-triangle vertices
// (triangle soup), which would never classify as watertight without the
// merge.
func ReadThreeMF(path string) (*m.Mesh, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open 3mf: %w", err)
	}
	defer func() { _ = zr.Close() }()

	var modelFile *zip.File
	for _, zf := range zr.File {
		if strings.HasSuffix(zf.Name, ".model") {
			modelFile = zf
			break
		}
	}
	if modelFile == nil {
		return nil, fmt.Errorf("3mf %s: no model document", path)
	}

	rc, err := modelFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open model document: %w", err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read model document: %w", err)
	}

	var doc threeMFModel
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse model document: %w", err)
	}
	if len(doc.Resources.Objects) == 0 {
		return nil, fmt.Errorf("3mf %s: no mesh objects", path)
	}

	raw := doc.Resources.Objects[0].Mesh
	mesh := &m.Mesh{}
	remap := make([]int, len(raw.Vertices))
	seen := make(map[m.Vec3]int)

	for i, v := range raw.Vertices {
		p := m.Vec3{X: v.X, Y: v.Y, Z: v.Z}
		if j, ok := seen[p]; ok {
			remap[i] = j
			continue
		}
		seen[p] = len(mesh.Vertices)
		remap[i] = len(mesh.Vertices)
		mesh.Vertices = append(mesh.Vertices, p)
	}

	for _, t := range raw.Triangles {
		if t.V1 < 0 || t.V2 < 0 || t.V3 < 0 ||
			t.V1 >= len(raw.Vertices) || t.V2 >= len(raw.Vertices) || t.V3 >= len(raw.Vertices) {
			return nil, fmt.Errorf("3mf %s: triangle index out of range", path)
		}
		mesh.Faces = append(mesh.Faces, [3]int{remap[t.V1], remap[t.V2], remap[t.V3]})
	}

	return mesh, nil
}
