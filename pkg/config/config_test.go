package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/core-tools/hsu-service-go/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	root := "/opt/service"

	tests := []struct {
		name        string
		configYAML  string
		expectError bool
		validate    func(*testing.T, *ServiceConfig)
	}{
		{
			name: "full config",
			configYAML: `
type_paths:
  - etc/types
  - /usr/share/service/types
env_dir: /etc/service/env
service_etc_dir: var/lib
service_state_dir: /run/service
service_log_dir: var/log
timeout: 10
shell: /usr/bin/bash
trace: false
log_level: debug
`,
			validate: func(t *testing.T, config *ServiceConfig) {
				assert.Equal(t, []string{"/opt/service/etc/types", "/usr/share/service/types"}, config.TypePaths)
				assert.Equal(t, "/etc/service/env", config.EnvDir)
				assert.Equal(t, "/opt/service/var/lib", config.ServiceEtcDir)
				assert.Equal(t, "/run/service", config.ServiceStateDir)
				assert.Equal(t, "/opt/service/var/log", config.ServiceLogDir)
				assert.Equal(t, 10*time.Second, config.TimeoutDuration())
				assert.Equal(t, "/usr/bin/bash", config.Shell)
				assert.False(t, config.TraceEnabled())
				assert.Equal(t, "debug", config.LogLevel)
			},
		},
		{
			name:       "empty config gets defaults",
			configYAML: "{}\n",
			validate: func(t *testing.T, config *ServiceConfig) {
				assert.Equal(t, []string{"/opt/service/etc/types"}, config.TypePaths)
				assert.Equal(t, "/opt/service/etc/env", config.EnvDir)
				assert.Equal(t, "/opt/service/var/run", config.ServiceStateDir)
				assert.Equal(t, DefaultTimeoutSeconds, config.Timeout)
				assert.Equal(t, DefaultShell, config.Shell)
				assert.True(t, config.TraceEnabled())
			},
		},
		{
			name:        "invalid yaml",
			configYAML:  "type_paths: [unterminated\n",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.configYAML)

			config, err := LoadConfigFromFile(path, root)
			if tt.expectError {
				assert.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			require.NoError(t, ValidateConfig(config))
			tt.validate(t, config)
		})
	}
}

func TestLoadConfigFromFile_MissingFile(t *testing.T) {
	root := t.TempDir()

	config, err := LoadConfigFromFile(filepath.Join(root, "etc", "absent.yml"), root)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "var", "lib"), config.ServiceEtcDir)
	assert.NoError(t, ValidateConfig(config))
}

func TestValidateConfig(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Error(t, ValidateConfig(nil))
	})

	t.Run("negative timeout", func(t *testing.T) {
		config := DefaultConfig("/tmp")
		config.Timeout = -1
		err := ValidateConfig(config)
		assert.Error(t, err)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("empty shell", func(t *testing.T) {
		config := DefaultConfig("/tmp")
		config.Shell = ""
		assert.Error(t, ValidateConfig(config))
	})

	t.Run("empty state dir", func(t *testing.T) {
		config := DefaultConfig("/tmp")
		config.ServiceStateDir = ""
		assert.Error(t, ValidateConfig(config))
	})
}

func TestConfigFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("/opt/service", "etc", "config.yml"), ConfigFilePath("/opt/service"))
}
