package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/core-tools/hsu-service-go/pkg/errors"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFileName = "config.yml"
	DefaultTimeoutSeconds = 5
	DefaultShell          = "/bin/bash"
	DefaultLogLevel       = "info"
)

// ServiceConfig represents the tool configuration file structure.
// Relative paths are resolved against the root directory.
type ServiceConfig struct {
	TypePaths       []string `yaml:"type_paths,omitempty"`
	EnvDir          string   `yaml:"env_dir,omitempty"`
	ServiceEtcDir   string   `yaml:"service_etc_dir,omitempty"`
	ServiceStateDir string   `yaml:"service_state_dir,omitempty"`
	ServiceLogDir   string   `yaml:"service_log_dir,omitempty"`

	// Stop convergence bound in seconds
	Timeout int `yaml:"timeout,omitempty"`

	// Interpreter for hook scripts; Trace adds -x
	Shell string `yaml:"shell,omitempty"`
	Trace *bool  `yaml:"trace,omitempty"`

	LogLevel string `yaml:"log_level,omitempty"`

	// Root is not read from the file
	Root string `yaml:"-"`
}

// TimeoutDuration returns the stop convergence bound
func (c *ServiceConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// TraceEnabled reports whether hooks run with shell tracing
func (c *ServiceConfig) TraceEnabled() bool {
	return c.Trace == nil || *c.Trace
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig(root string) *ServiceConfig {
	config := &ServiceConfig{Root: root}
	setConfigDefaults(config)
	return config
}

// ConfigFilePath returns <root>/etc/config.yml
func ConfigFilePath(root string) string {
	return filepath.Join(root, "etc", DefaultConfigFileName)
}

// LoadConfigFromFile loads configuration from a YAML file; a missing file yields defaults
func LoadConfigFromFile(filename string, root string) (*ServiceConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(root), nil
		}
		return nil, errors.NewIOError("failed to read configuration file", err).WithContext("filename", filename)
	}

	config := &ServiceConfig{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.NewValidationError("failed to parse YAML configuration", err).WithContext("filename", filename)
	}
	config.Root = root

	setConfigDefaults(config)

	return config, nil
}

// ValidateConfig validates the configuration structure
func ValidateConfig(config *ServiceConfig) error {
	if config == nil {
		return errors.NewValidationError("configuration cannot be nil", nil)
	}
	if len(config.TypePaths) == 0 {
		return errors.NewValidationError("at least one type path is required", nil)
	}
	if config.Timeout <= 0 {
		return errors.NewValidationError(fmt.Sprintf("timeout must be positive, got %d", config.Timeout), nil)
	}
	if config.Shell == "" {
		return errors.NewValidationError("shell cannot be empty", nil)
	}

	dirs := map[string]string{
		"env_dir":           config.EnvDir,
		"service_etc_dir":   config.ServiceEtcDir,
		"service_state_dir": config.ServiceStateDir,
		"service_log_dir":   config.ServiceLogDir,
	}
	for key, dir := range dirs {
		if dir == "" {
			return errors.NewValidationError("directory cannot be empty", nil).WithContext("key", key)
		}
	}
	return nil
}

func setConfigDefaults(config *ServiceConfig) {
	if len(config.TypePaths) == 0 {
		config.TypePaths = []string{"etc/types"}
	}
	if config.EnvDir == "" {
		config.EnvDir = "etc/env"
	}
	if config.ServiceEtcDir == "" {
		config.ServiceEtcDir = "var/lib"
	}
	if config.ServiceStateDir == "" {
		config.ServiceStateDir = "var/run"
	}
	if config.ServiceLogDir == "" {
		config.ServiceLogDir = "var/log"
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeoutSeconds
	}
	if config.Shell == "" {
		config.Shell = DefaultShell
	}
	if config.LogLevel == "" {
		config.LogLevel = DefaultLogLevel
	}

	for i, p := range config.TypePaths {
		config.TypePaths[i] = resolvePath(config.Root, p)
	}
	config.EnvDir = resolvePath(config.Root, config.EnvDir)
	config.ServiceEtcDir = resolvePath(config.Root, config.ServiceEtcDir)
	config.ServiceStateDir = resolvePath(config.Root, config.ServiceStateDir)
	config.ServiceLogDir = resolvePath(config.Root, config.ServiceLogDir)
}

func resolvePath(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
