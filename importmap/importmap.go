// Package importmap remaps module specifiers before resolution. Maps are
// small YAML or JSON documents with a single "imports" table:
//
//	imports:
//	  "jobs/": "file:///srv/jobs/"
//	  "echo": "file:///srv/modules/echo.wasm"
//
// A key ending in "/" remaps every specifier under that prefix; other keys
// must match exactly. The most specific (longest) prefix wins.
package importmap

import (
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/worker-host/errors"
)

// Map is a parsed import map.
type Map struct {
	// prefixes are "/"-terminated keys sorted longest-first.
	prefixes []string
	imports  map[string]string
}

type document struct {
	Imports map[string]string `yaml:"imports"`
}

// Load reads and parses an import map file. The caller's read permission
// must have been checked before calling.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseResolve, errors.KindNotFound, err, "read import map "+path)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseResolve, errors.KindInvalidInput, err, "parse import map "+path)
	}
	return m, nil
}

// Parse parses import map bytes. YAML is a superset of JSON, so both
// formats are accepted.
func Parse(data []byte) (*Map, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Imports == nil {
		return nil, errors.InvalidInput(errors.PhaseResolve, "import map has no imports table")
	}

	m := &Map{imports: doc.Imports}
	for key := range doc.Imports {
		if strings.HasSuffix(key, "/") {
			m.prefixes = append(m.prefixes, key)
		}
	}
	sort.Slice(m.prefixes, func(i, j int) bool {
		return len(m.prefixes[i]) > len(m.prefixes[j])
	})
	return m, nil
}

// Resolve applies the map to a specifier. Exact entries win over prefix
// entries; an unmapped specifier is returned unchanged.
func (m *Map) Resolve(specifier string) string {
	if target, ok := m.imports[specifier]; ok {
		return target
	}
	for _, prefix := range m.prefixes {
		if strings.HasPrefix(specifier, prefix) {
			return m.imports[prefix] + specifier[len(prefix):]
		}
	}
	return specifier
}
