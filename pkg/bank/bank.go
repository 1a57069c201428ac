// Package bank loads test case definitions from per-suite YAML
// files (tests/<suite>.yaml).
package bank

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Bank manages test cases loaded from suite files.
type Bank struct {
	mu      sync.RWMutex
	cases   []*Case
	byID    map[string]*Case
	sources []string
}

// New creates a new empty Bank.
func New() *Bank {
	return &Bank{byID: make(map[string]*Case)}
}

// LoadFile loads the cases in path. The suite is taken from the
// file name, so tests/overlay.yaml yields suite "overlay".
func (b *Bank) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read suite file %s", path)
	}

	var file SuiteFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return errors.Wrapf(err, "parse suite file %s", path)
	}

	suite := Suite(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range file.Tests {
		c := &file.Tests[i]
		if c.Skill == "" && c.Name == "" {
			return errors.Errorf("test at index %d in %s has neither skill nor name", i, path)
		}
		c.Suite = suite
		id := c.ID(i)
		if _, dup := b.byID[id]; dup {
			return errors.Errorf("duplicate test %s in %s", id, path)
		}
		b.byID[id] = c
		b.cases = append(b.cases, c)
	}
	b.sources = append(b.sources, path)
	return nil
}

// LoadSuite loads tests/<suite>.yaml from dir. SuiteAll loads every
// known suite. Missing suite files are skipped.
func (b *Bank) LoadSuite(dir string, suite Suite) error {
	suites := []Suite{suite}
	if suite == SuiteAll {
		suites = KnownSuites()
	}
	for _, s := range suites {
		path := filepath.Join(dir, string(s)+".yaml")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := b.LoadFile(path); err != nil {
			return err
		}
	}
	return nil
}

// LoadDir loads every .yaml file in dir.
func (b *Bank) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, "read tests directory %s", dir)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := b.LoadFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a case by ID.
func (b *Bank) Get(id string) (*Case, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.byID[id]
	return c, ok
}

// All returns every case in load order.
func (b *Bank) All() []*Case {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make([]*Case, len(b.cases))
	copy(result, b.cases)
	return result
}

// BySuite returns the cases of one suite in load order.
func (b *Bank) BySuite(suite Suite) []*Case {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var result []*Case
	for _, c := range b.cases {
		if c.Suite == suite {
			result = append(result, c)
		}
	}
	return result
}

// Grouped returns the loaded cases keyed by suite.
func (b *Bank) Grouped() map[Suite][]*Case {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make(map[Suite][]*Case)
	for _, c := range b.cases {
		result[c.Suite] = append(result[c.Suite], c)
	}
	return result
}

// Suites returns the suites that have at least one case, sorted.
func (b *Bank) Suites() []Suite {
	grouped := b.Grouped()
	result := make([]Suite, 0, len(grouped))
	for s := range grouped {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Count returns the number of loaded cases.
func (b *Bank) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.cases)
}

// Sources returns the list of loaded file paths.
func (b *Bank) Sources() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make([]string, len(b.sources))
	copy(result, b.sources)
	return result
}

// Filter narrows cases to a skill and/or a case name. Empty
// arguments match everything.
func Filter(cases []*Case, skill, name string) []*Case {
	var result []*Case
	for _, c := range cases {
		if skill != "" && c.Skill != skill {
			continue
		}
		if name != "" && c.Name != name {
			continue
		}
		result = append(result, c)
	}
	return result
}
