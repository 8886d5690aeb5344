package cartridge

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Tool state locations, relative to the package root.
const (
	StateDir   = ".cartridge"
	LedgerPath = StateDir + "/ledger.yaml"
)

// LedgerVersion is the current ledger format.
const LedgerVersion = 1

// Ledger records identifiers of deleted entities so they are never handed
// out again.
type Ledger struct {
	Version int      `yaml:"version"`
	Retired []string `yaml:"retired,omitempty"`
}

// ReadLedger loads the ledger of dir. A missing ledger is empty.
func ReadLedger(dir string) (Ledger, error) {
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(LedgerPath)))
	if errors.Is(err, fs.ErrNotExist) {
		return Ledger{Version: LedgerVersion}, nil
	}
	if err != nil {
		return Ledger{}, fmt.Errorf("read ledger: %w", err)
	}

	var l Ledger
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Ledger{}, fmt.Errorf("parse ledger: %w", err)
	}
	if l.Version > LedgerVersion {
		return Ledger{}, fmt.Errorf("ledger version %d is newer than supported version %d", l.Version, LedgerVersion)
	}
	l.Version = LedgerVersion
	return l, nil
}

// WriteLedger persists l under dir. Retired ids are written sorted.
func WriteLedger(dir string, l Ledger) error {
	l.Version = LedgerVersion
	l.Retired = append([]string(nil), l.Retired...)
	sort.Strings(l.Retired)

	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, filepath.FromSlash(LedgerPath)), data)
}
