package cartridge

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

// ArchiveResult describes a written .imscc archive.
type ArchiveResult struct {
	Path  string   `json:"path"`
	Files []string `json:"files"`
}

// Archive zips the package directory into out. Tool state and paths
// matching any exclude pattern (path.Match against the package path or
// its base name) are left out. The archive itself is skipped when out
// lies inside the package.
func Archive(dir, out string, exclude []string) (ArchiveResult, error) {
	res := ArchiveResult{Path: out}
	for _, pattern := range exclude {
		if _, err := path.Match(pattern, ""); err != nil {
			return res, fmt.Errorf("bad exclude pattern %q: %w", pattern, err)
		}
	}

	absOut, err := filepath.Abs(out)
	if err != nil {
		return res, fmt.Errorf("archive: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absOut), 0o755); err != nil {
		return res, fmt.Errorf("archive: %w", err)
	}
	f, err := os.Create(absOut)
	if err != nil {
		return res, fmt.Errorf("archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	err = filepath.WalkDir(dir, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if isStatePath(rel) || excluded(rel, exclude) {
			if e.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if e.IsDir() {
			return nil
		}
		if abs, err := filepath.Abs(p); err == nil && abs == absOut {
			return nil
		}
		if err := addFile(zw, p, rel, e); err != nil {
			return err
		}
		res.Files = append(res.Files, rel)
		return nil
	})
	if err != nil {
		zw.Close()
		return res, fmt.Errorf("archive %s: %w", dir, err)
	}
	if err := zw.Close(); err != nil {
		return res, fmt.Errorf("archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return res, fmt.Errorf("archive: %w", err)
	}
	return res, nil
}

func excluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := path.Match(pattern, path.Base(rel)); ok {
			return true
		}
	}
	return false
}

func addFile(zw *zip.Writer, src, rel string, e fs.DirEntry) error {
	info, err := e.Info()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = rel
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	_, err = io.Copy(w, in)
	return err
}
