package enabledset

import (
	"os"
	"path/filepath"

	"github.com/core-tools/hsu-service-go/pkg/errors"
	"github.com/core-tools/hsu-service-go/pkg/logging"
	"github.com/core-tools/hsu-service-go/pkg/registry"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

const FileName = "enabled.yml"

// Resolver looks up service definitions by name
type Resolver interface {
	Lookup(name string) (*registry.ServiceDefinition, error)
}

// EnabledSet is the ordered list of services selected for batch control.
// Names that do not resolve are kept as missing and written back verbatim on every save.
// The file is not locked; concurrent mutation from several invocations is unsafe.
type EnabledSet struct {
	path     string
	resolver Resolver
	logger   logging.Logger

	enabled []*registry.ServiceDefinition
	missing []string
}

// Load reads <etcDir>/enabled.yml. A missing file is an empty set; a malformed one is an
// error, since saving over it would lose entries.
func Load(etcDir string, resolver Resolver, logger logging.Logger) (*EnabledSet, error) {
	s := &EnabledSet{
		path:     filepath.Join(etcDir, FileName),
		resolver: resolver,
		logger:   logger,
	}

	names, err := readNames(s.path)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		def, err := resolver.Lookup(name)
		if err != nil {
			logger.Warnf("Enabled service %s is not available, keeping it enabled", name)
			s.missing = append(s.missing, name)
			continue
		}
		s.enabled = append(s.enabled, def)
	}

	return s, nil
}

func readNames(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewIOError("failed to read enabled services", err).WithContext("path", path)
	}

	var names []string
	if err := yaml.Unmarshal(data, &names); err != nil {
		return nil, errors.NewValidationError("failed to parse enabled services", err).WithContext("path", path)
	}
	return names, nil
}

func (s *EnabledSet) Path() string {
	return s.path
}

// Services returns the resolvable enabled definitions in order
func (s *EnabledSet) Services() []*registry.ServiceDefinition {
	return append([]*registry.ServiceDefinition(nil), s.enabled...)
}

// Missing returns enabled names that the registry could not resolve
func (s *EnabledSet) Missing() []string {
	return append([]string(nil), s.missing...)
}

// Names returns everything persisted: resolvable names first, then missing ones
func (s *EnabledSet) Names() []string {
	names := make([]string, 0, len(s.enabled)+len(s.missing))
	for _, def := range s.enabled {
		names = append(names, def.Name())
	}
	return append(names, s.missing...)
}

func (s *EnabledSet) Len() int {
	return len(s.enabled) + len(s.missing)
}

func (s *EnabledSet) Contains(name string) bool {
	return s.indexOf(name) >= 0 || s.missingIndexOf(name) >= 0
}

// Add enables def; it returns false without touching storage if it is already enabled
func (s *EnabledSet) Add(def *registry.ServiceDefinition) (bool, error) {
	if s.Contains(def.Name()) {
		return false, nil
	}
	s.enabled = append(s.enabled, def)
	if err := s.Save(); err != nil {
		s.enabled = s.enabled[:len(s.enabled)-1]
		return false, err
	}
	s.logger.Infof("Service enabled, name: %s", def.Name())
	return true, nil
}

// Remove disables name; it returns false without touching storage if it is not enabled
func (s *EnabledSet) Remove(name string) (bool, error) {
	prevEnabled := s.enabled
	prevMissing := s.missing

	if i := s.indexOf(name); i >= 0 {
		s.enabled = append(append([]*registry.ServiceDefinition(nil), s.enabled[:i]...), s.enabled[i+1:]...)
	} else if i := s.missingIndexOf(name); i >= 0 {
		s.missing = append(append([]string(nil), s.missing[:i]...), s.missing[i+1:]...)
	} else {
		return false, nil
	}

	if err := s.Save(); err != nil {
		s.enabled = prevEnabled
		s.missing = prevMissing
		return false, err
	}
	s.logger.Infof("Service disabled, name: %s", name)
	return true, nil
}

// Save atomically rewrites the enabled file
func (s *EnabledSet) Save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewIOError("failed to create etc directory", err).WithContext("directory", dir)
	}

	data, err := yaml.Marshal(s.Names())
	if err != nil {
		return errors.NewInternalError("failed to encode enabled services", err)
	}
	if err := renameio.WriteFile(s.path, data, 0644); err != nil {
		return errors.NewIOError("failed to write enabled services", err).WithContext("path", s.path)
	}
	return nil
}

func (s *EnabledSet) indexOf(name string) int {
	for i, def := range s.enabled {
		if def.Name() == name {
			return i
		}
	}
	return -1
}

func (s *EnabledSet) missingIndexOf(name string) int {
	for i, m := range s.missing {
		if m == name {
			return i
		}
	}
	return -1
}
