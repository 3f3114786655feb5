package registry

import (
	"os"
	"path/filepath"

	"github.com/core-tools/hsu-service-go/pkg/errors"

	"gopkg.in/yaml.v3"
)

const (
	MetadataFileName      = "metadata.yml"
	ConfigurationFileName = "configuration.yml"
	HookExtension         = ".sh"
)

// Hook operations a unit directory may provide
const (
	OperationStart     = "start"
	OperationStop      = "stop"
	OperationRestart   = "restart"
	OperationReload    = "reload"
	OperationConfigure = "configure"
)

// Metadata is the content of metadata.yml
type Metadata struct {
	Name    string `yaml:"name"`
	Summary string `yaml:"summary"`
}

// ServiceDefinition is an immutable snapshot of one unit directory
type ServiceDefinition struct {
	name         string
	summary      string
	directory    string
	daemon       bool
	configurable bool
	reloadable   bool
}

func (d *ServiceDefinition) Name() string      { return d.name }
func (d *ServiceDefinition) Summary() string   { return d.summary }
func (d *ServiceDefinition) Directory() string { return d.directory }

// IsDaemon reports whether the unit has a start hook; units without one are static
func (d *ServiceDefinition) IsDaemon() bool { return d.daemon }

func (d *ServiceDefinition) IsConfigurable() bool { return d.configurable }
func (d *ServiceDefinition) IsReloadable() bool   { return d.reloadable }

// HookPath returns <unitDir>/<operation>.sh whether or not it exists
func (d *ServiceDefinition) HookPath(operation string) string {
	return filepath.Join(d.directory, operation+HookExtension)
}

// LoadConfiguration parses the unit's configuration.yml
func (d *ServiceDefinition) LoadConfiguration() (*ConfigurationDescriptor, error) {
	if !d.configurable {
		return nil, errors.NewNotFoundError("service does not provide configurable parameters", nil).
			WithContext("service", d.name)
	}
	return LoadConfigurationDescriptor(filepath.Join(d.directory, ConfigurationFileName))
}

// LoadDefinition reads metadata.yml from dir and derives capability flags from the hooks present
func LoadDefinition(dir string) (*ServiceDefinition, error) {
	metadataPath := filepath.Join(dir, MetadataFileName)

	data, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, errors.NewIOError("failed to read metadata", err).WithContext("path", metadataPath)
	}

	var md Metadata
	if err := yaml.Unmarshal(data, &md); err != nil {
		return nil, errors.NewValidationError("failed to parse metadata", err).WithContext("path", metadataPath)
	}
	if md.Name == "" {
		return nil, errors.NewValidationError("metadata has no name", nil).WithContext("path", metadataPath)
	}

	def := &ServiceDefinition{
		name:      md.Name,
		summary:   md.Summary,
		directory: dir,
	}
	def.daemon = fileExists(def.HookPath(OperationStart))
	def.reloadable = fileExists(def.HookPath(OperationReload))
	def.configurable = fileExists(filepath.Join(dir, ConfigurationFileName))

	return def, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
