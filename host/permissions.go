package host

import (
	"path/filepath"
	"strings"

	"github.com/wippyai/worker-host/errors"
)

// Permissions gates what the creating caller may do. Worker creation checks
// the caller's permissions, not the worker's: the import map path, for
// example, is read under the caller's filesystem permission.
type Permissions interface {
	// CheckRead reports whether the caller may read path.
	CheckRead(path string) error
	// CheckUnstable reports whether the caller has opted in to the named
	// unstable feature.
	CheckUnstable(feature string) error
}

// StaticPermissions is a fixed permission set. The zero value denies
// everything.
type StaticPermissions struct {
	// AllowRead lists path prefixes the caller may read. ReadAll overrides.
	AllowRead []string
	ReadAll   bool
	Unstable  bool
}

func (p StaticPermissions) CheckRead(path string) error {
	if p.ReadAll {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for _, prefix := range p.AllowRead {
		absPrefix, err := filepath.Abs(prefix)
		if err != nil {
			absPrefix = prefix
		}
		if abs == absPrefix || strings.HasPrefix(abs, absPrefix+string(filepath.Separator)) {
			return nil
		}
	}
	return errors.PermissionDenied(errors.PhaseCreate, "read access to "+path)
}

func (p StaticPermissions) CheckUnstable(feature string) error {
	if p.Unstable {
		return nil
	}
	return errors.UnstableRequired(feature)
}

// AllowAll returns permissions that grant everything. Intended for tests
// and trusted embedders.
func AllowAll() Permissions {
	return StaticPermissions{ReadAll: true, Unstable: true}
}
