package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ScenarioDirError is returned when a scenario directory holds no
// scenarios.
type ScenarioDirError struct {
	Dir string
}

// Error implements the error interface.
func (e *ScenarioDirError) Error() string {
	return fmt.Sprintf("no scenario files (*.yaml) found in %s", e.Dir)
}

// LoadSuite loads every *.yaml scenario in dir, sorted by file name.
// Scenario names must be unique since they name golden files.
func LoadSuite(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("scenario directory: %w", err)
		}
		return nil, &ScenarioDirError{Dir: dir}
	}
	sort.Strings(paths)

	seen := make(map[string]string, len(paths))
	out := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("scenario name %q used by both %s and %s", s.Name, filepath.Base(prev), filepath.Base(path))
		}
		seen[s.Name] = path
		out = append(out, s)
	}
	return out, nil
}
