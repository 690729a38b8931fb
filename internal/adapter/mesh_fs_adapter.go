package adapter

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	m "github.com/TGiles/STLRepairTool/internal/model"
)

// MeshFSAdapter abstracts the filesystem operations the scheduler relies on
// when scanning a working tree. It intentionally hides direct os access so
// the scheduling logic can be tested against a fake.
type MeshFSAdapter interface {
	// Discover returns every STL file under root, sorted, excluding
	// anything inside skipDir (the backup root). The extension match is
	// case-insensitive.
	Discover(root m.Path, skipDir string) ([]m.Path, error)

	// Backup copies src byte-for-byte under backupRoot, mirroring the
	// path of src relative to scanRoot. Parent directories are created as
	// needed. Returns the backup path.
	Backup(src, scanRoot, backupRoot m.Path) (m.Path, error)

	// FileSize returns the size of the file at path in bytes.
	FileSize(path m.Path) (int64, error)
}

// LocalMeshFSAdapter is the os-backed implementation of MeshFSAdapter.
type LocalMeshFSAdapter struct{}

// NewLocalMeshFSAdapter constructs a LocalMeshFSAdapter.
func NewLocalMeshFSAdapter() *LocalMeshFSAdapter {
	return &LocalMeshFSAdapter{}
}

// Discover walks root recursively collecting *.stl files. The backup
// directory is skipped entirely so repeated runs never re-repair backups.
func (a *LocalMeshFSAdapter) Discover(root m.Path, skipDir string) ([]m.Path, error) {
	var files []m.Path

	err := filepath.WalkDir(string(root), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDir != "" && d.Name() == skipDir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".stl") {
			files = append(files, m.Path(path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })
	return files, nil
}

// Backup duplicates src under backupRoot before the destination is touched.
func (a *LocalMeshFSAdapter) Backup(src, scanRoot, backupRoot m.Path) (m.Path, error) {
	rel, err := filepath.Rel(string(scanRoot), string(src))
	if err != nil || strings.HasPrefix(rel, "..") {
		// src outside the scan root: fall back to a flat namespace.
		rel = filepath.Base(string(src))
	}

	dst := filepath.Join(string(backupRoot), rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	if err := copyFile(string(src), dst); err != nil {
		return "", fmt.Errorf("backup %s: %w", src, err)
	}

	return m.Path(dst), nil
}

// FileSize returns the byte size of path.
func (a *LocalMeshFSAdapter) FileSize(path m.Path) (int64, error) {
	info, err := os.Stat(string(path))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}

// WriteMeshAtomic serializes mesh to a temporary file in the destination's
// directory, then renames it onto dest. The destination never observes a
// partially written file: any encode or close error removes the temp file
// and leaves dest untouched. Same-directory placement keeps the rename on
// one filesystem, which is what makes it atomic.
func WriteMeshAtomic(codec MeshIOAdapter, mesh *m.Mesh, dest m.Path) error {
	dir := filepath.Dir(string(dest))

	tmp, err := os.CreateTemp(dir, ".stlrepair-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := codec.Encode(mesh, tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("encode mesh: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, string(dest)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename onto %s: %w", dest, err)
	}

	return nil
}
