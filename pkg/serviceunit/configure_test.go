package serviceunit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/core-tools/hsu-service-go/pkg/errors"
	"github.com/core-tools/hsu-service-go/pkg/logging"
	"github.com/core-tools/hsu-service-go/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const webConfiguration = `title: Web server
text: Settings for the web server
values:
  - label: Port
    key: port
    value: 8080
    length: 5
  - label: Hostname
    key: host
    value: localhost
`

func TestUnit_ConfigurationDefaults(t *testing.T) {
	u := NewUnit(newDefinition(t, []string{"configure"}, webConfiguration), newTestConfig(t, time.Second),
		Dependencies{Runner: &fakeRunner{}}, logging.NewNopLogger())

	cfg, err := u.Configuration()

	require.NoError(t, err)
	assert.Equal(t, "Web server", cfg.Descriptor.Title)
	assert.Equal(t, map[string]string{"port": "8080", "host": "localhost"}, cfg.Values)
}

func TestUnit_Configure(t *testing.T) {
	runner := &fakeRunner{}
	u := NewUnit(newDefinition(t, []string{"configure"}, webConfiguration), newTestConfig(t, time.Second),
		Dependencies{Runner: runner}, logging.NewNopLogger())

	ok, err := u.Configure(context.Background(), map[string]string{"host": "example.org"})

	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, runner.requests, 1)
	assert.Equal(t, registry.OperationConfigure, runner.requests[0].Operation)
	assert.Equal(t, []string{"port=8080", "host=example.org"}, runner.requests[0].Args)

	data, err := os.ReadFile(u.ValuesFilePath())
	require.NoError(t, err)
	var stored map[string]string
	require.NoError(t, yaml.Unmarshal(data, &stored))
	assert.Equal(t, map[string]string{"port": "8080", "host": "example.org"}, stored)

	// stored values survive into the next configuration
	cfg, err := u.Configuration()
	require.NoError(t, err)
	assert.Equal(t, "example.org", cfg.Values["host"])

	_, err = u.Configure(context.Background(), map[string]string{"port": "9090"})
	require.NoError(t, err)
	assert.Equal(t, []string{"port=9090", "host=example.org"}, runner.requests[1].Args)
}

func TestUnit_ConfigureUnknownKey(t *testing.T) {
	runner := &fakeRunner{}
	u := NewUnit(newDefinition(t, []string{"configure"}, webConfiguration), newTestConfig(t, time.Second),
		Dependencies{Runner: runner}, logging.NewNopLogger())

	ok, err := u.Configure(context.Background(), map[string]string{"colour": "blue"})

	assert.False(t, ok)
	assert.True(t, errors.IsValidationError(err))
	assert.Empty(t, runner.requests)
	assert.NoFileExists(t, u.ValuesFilePath())
}

func TestUnit_ConfigureNotConfigurable(t *testing.T) {
	runner := &fakeRunner{}
	u := NewUnit(newDefinition(t, []string{"start"}, ""), newTestConfig(t, time.Second),
		Dependencies{Runner: runner}, logging.NewNopLogger())

	_, err := u.Configure(context.Background(), nil)

	assert.True(t, errors.IsNotFoundError(err))
	assert.Empty(t, runner.requests)
}
