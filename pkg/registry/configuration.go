package registry

import (
	"os"

	"github.com/core-tools/hsu-service-go/pkg/errors"

	"gopkg.in/yaml.v3"
)

// FieldDescriptor describes one configurable parameter
type FieldDescriptor struct {
	Label  string `yaml:"label"`
	Key    string `yaml:"key"`
	Value  string `yaml:"value,omitempty"` // default
	Length int    `yaml:"length,omitempty"`
}

// ConfigurationDescriptor is the content of configuration.yml
type ConfigurationDescriptor struct {
	Title  string            `yaml:"title"`
	Text   string            `yaml:"text"`
	Values []FieldDescriptor `yaml:"values"`
}

func LoadConfigurationDescriptor(path string) (*ConfigurationDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError("failed to read configuration descriptor", err).WithContext("path", path)
	}

	var cd ConfigurationDescriptor
	if err := yaml.Unmarshal(data, &cd); err != nil {
		return nil, errors.NewValidationError("failed to parse configuration descriptor", err).WithContext("path", path)
	}

	seen := make(map[string]bool, len(cd.Values))
	for i, field := range cd.Values {
		if field.Key == "" {
			return nil, errors.NewValidationError("configuration field has no key", nil).
				WithContext("path", path).WithContext("index", i)
		}
		if seen[field.Key] {
			return nil, errors.NewValidationError("duplicate configuration key", nil).
				WithContext("path", path).WithContext("key", field.Key)
		}
		seen[field.Key] = true
	}

	return &cd, nil
}

// Keys returns field keys in descriptor order
func (cd *ConfigurationDescriptor) Keys() []string {
	keys := make([]string, 0, len(cd.Values))
	for _, field := range cd.Values {
		keys = append(keys, field.Key)
	}
	return keys
}

// Field looks up a descriptor by key
func (cd *ConfigurationDescriptor) Field(key string) (FieldDescriptor, bool) {
	for _, field := range cd.Values {
		if field.Key == key {
			return field, true
		}
	}
	return FieldDescriptor{}, false
}

// Resolve overlays stored values on descriptor defaults; keys unknown to the descriptor are dropped
func (cd *ConfigurationDescriptor) Resolve(stored map[string]string) map[string]string {
	values := make(map[string]string, len(cd.Values))
	for _, field := range cd.Values {
		if v, ok := stored[field.Key]; ok && v != "" {
			values[field.Key] = v
		} else {
			values[field.Key] = field.Value
		}
	}
	return values
}
