package cartridge

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/roach88/cartridge/internal/refsync"
)

// DriftStatus classifies a difference between disk and a plan.
type DriftStatus string

const (
	DriftMissing  DriftStatus = "missing"
	DriftModified DriftStatus = "modified"
	DriftExtra    DriftStatus = "extra"
)

// Drift is one file whose disk state differs from the regenerated plan.
type Drift struct {
	Path   string      `json:"path"`
	Status DriftStatus `json:"status"`
}

// Diff compares plan with the package directory. Files under the tool
// state directory are ignored.
func (p *Package) Diff(plan *refsync.Plan) ([]Drift, error) {
	var out []Drift
	for _, d := range plan.Documents {
		cur, err := os.ReadFile(filepath.Join(p.Dir, filepath.FromSlash(d.Path)))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			out = append(out, Drift{Path: d.Path, Status: DriftMissing})
		case err != nil:
			return nil, fmt.Errorf("read %s: %w", d.Path, err)
		case !bytes.Equal(cur, d.Data):
			out = append(out, Drift{Path: d.Path, Status: DriftModified})
		}
	}

	err := fs.WalkDir(os.DirFS(p.Dir), ".", func(rel string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if isStatePath(rel) {
			return fs.SkipDir
		}
		if e.IsDir() || plan.Has(rel) {
			return nil
		}
		out = append(out, Drift{Path: rel, Status: DriftExtra})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", p.Dir, err)
	}
	return out, nil
}
