package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/core-tools/hsu-service-go/pkg/errors"
	"github.com/core-tools/hsu-service-go/pkg/logging"
)

// SkippedEntry records a unit directory excluded from the registry and why
type SkippedEntry struct {
	Directory string
	Reason    error
}

// Registry maps service names to definitions discovered under the search paths.
// It is a read-only snapshot taken once per process invocation.
type Registry struct {
	definitions map[string]*ServiceDefinition
	order       []string
	skipped     []SkippedEntry
}

// LoadRegistry scans the immediate subdirectories of each search path.
// Loading never fails: unreadable paths and malformed entries are recorded as skipped.
// When two paths define the same name the first one wins.
func LoadRegistry(searchPaths []string, logger logging.Logger) *Registry {
	r := &Registry{
		definitions: make(map[string]*ServiceDefinition),
	}

	for _, searchPath := range searchPaths {
		entries, err := os.ReadDir(searchPath)
		if err != nil {
			if !os.IsNotExist(err) {
				r.skip(searchPath, errors.NewIOError("failed to list type path", err), logger)
			}
			continue
		}

		dirs := make([]string, 0, len(entries))
		for _, entry := range entries {
			if isUnitDir(searchPath, entry) {
				dirs = append(dirs, entry.Name())
			}
		}
		sort.Strings(dirs)

		for _, name := range dirs {
			dir := filepath.Join(searchPath, name)

			def, err := LoadDefinition(dir)
			if err != nil {
				r.skip(dir, err, logger)
				continue
			}
			if existing, ok := r.definitions[def.Name()]; ok {
				r.skip(dir, errors.NewValidationError(
					fmt.Sprintf("service %s already defined in %s", def.Name(), existing.Directory()), nil), logger)
				continue
			}

			r.definitions[def.Name()] = def
			r.order = append(r.order, def.Name())
			logger.Debugf("Service type loaded, name: %s, directory: %s, daemon: %t, reloadable: %t, configurable: %t",
				def.Name(), dir, def.IsDaemon(), def.IsReloadable(), def.IsConfigurable())
		}
	}

	logger.Debugf("Registry loaded, services: %d, skipped: %d", len(r.order), len(r.skipped))
	return r
}

// isUnitDir accepts directories and symlinks that resolve to one
func isUnitDir(searchPath string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(searchPath, entry.Name()))
	return err == nil && info.IsDir()
}

func (r *Registry) skip(dir string, reason error, logger logging.Logger) {
	r.skipped = append(r.skipped, SkippedEntry{Directory: dir, Reason: reason})
	logger.Debugf("Skipping service directory %s: %v", dir, reason)
}

// Lookup fails with an unknown service error if name is not registered
func (r *Registry) Lookup(name string) (*ServiceDefinition, error) {
	def, ok := r.definitions[name]
	if !ok {
		return nil, errors.NewUnknownServiceError(fmt.Sprintf("unknown service type: %s", name), nil).
			WithContext("service", name)
	}
	return def, nil
}

// All returns definitions in discovery order
func (r *Registry) All() []*ServiceDefinition {
	defs := make([]*ServiceDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.definitions[name])
	}
	return defs
}

func (r *Registry) Skipped() []SkippedEntry {
	return append([]SkippedEntry(nil), r.skipped...)
}

func (r *Registry) Len() int {
	return len(r.order)
}
