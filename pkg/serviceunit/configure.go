package serviceunit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/core-tools/hsu-service-go/pkg/errors"
	"github.com/core-tools/hsu-service-go/pkg/registry"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// Configuration is a unit's descriptor paired with its effective values
type Configuration struct {
	Descriptor *registry.ConfigurationDescriptor
	Values     map[string]string
}

// ValuesFilePath is where configured values persist: <etcDir>/<name>.yml
func (u *Unit) ValuesFilePath() string {
	return filepath.Join(u.config.EtcDir, u.def.Name()+".yml")
}

// Configuration returns stored values overlaid on descriptor defaults
func (u *Unit) Configuration() (*Configuration, error) {
	descriptor, err := u.def.LoadConfiguration()
	if err != nil {
		return nil, err
	}
	stored, err := u.loadValues()
	if err != nil {
		return nil, err
	}
	return &Configuration{
		Descriptor: descriptor,
		Values:     descriptor.Resolve(stored),
	}, nil
}

// Configure merges values into the current configuration, persists the result and runs the
// configure hook with key=value arguments in descriptor order. Keys the descriptor does not
// declare are rejected.
func (u *Unit) Configure(ctx context.Context, values map[string]string) (bool, error) {
	current, err := u.Configuration()
	if err != nil {
		return false, err
	}

	for key, value := range values {
		if _, ok := current.Descriptor.Field(key); !ok {
			return false, errors.NewValidationError(fmt.Sprintf("unknown configuration key: %s", key), nil).
				WithContext("service", u.def.Name())
		}
		current.Values[key] = value
	}

	if err := u.saveValues(current.Values); err != nil {
		return false, err
	}

	args := make([]string, 0, len(current.Values))
	for _, key := range current.Descriptor.Keys() {
		args = append(args, key+"="+current.Values[key])
	}

	success, _, err := u.run(ctx, registry.OperationConfigure, args)
	if err != nil {
		return false, err
	}
	u.logger.Infof("Service configured, name: %s, success: %t", u.def.Name(), success)
	return success, nil
}

func (u *Unit) loadValues() (map[string]string, error) {
	path := u.ValuesFilePath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, errors.NewIOError("failed to read configured values", err).WithContext("path", path)
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		u.logger.Warnf("Ignoring unreadable configured values, path: %s, error: %v", path, err)
		return map[string]string{}, nil
	}
	return values, nil
}

func (u *Unit) saveValues(values map[string]string) error {
	if err := os.MkdirAll(u.config.EtcDir, 0755); err != nil {
		return errors.NewIOError("failed to create etc directory", err).WithContext("directory", u.config.EtcDir)
	}
	data, err := yaml.Marshal(values)
	if err != nil {
		return errors.NewInternalError("failed to encode configured values", err)
	}
	path := u.ValuesFilePath()
	if err := renameio.WriteFile(path, data, 0644); err != nil {
		return errors.NewIOError("failed to write configured values", err).WithContext("path", path)
	}
	return nil
}
