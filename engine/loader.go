package engine

import (
	"os"
	"strings"

	"github.com/wippyai/worker-host/errors"
)

// Loader fetches module bytes for a resolved specifier.
type Loader interface {
	Load(specifier string) ([]byte, error)
}

// FileLoader loads modules from the local filesystem. Specifiers may be
// plain paths or file:// URLs.
type FileLoader struct{}

func (FileLoader) Load(specifier string) ([]byte, error) {
	path := strings.TrimPrefix(specifier, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseEvaluate, errors.KindNotFound, err, "load module "+specifier)
	}
	return data, nil
}
