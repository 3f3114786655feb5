package servicemanager

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/core-tools/hsu-service-go/pkg/config"
	"github.com/core-tools/hsu-service-go/pkg/enabledset"
	"github.com/core-tools/hsu-service-go/pkg/errors"
	"github.com/core-tools/hsu-service-go/pkg/logging"
	"github.com/core-tools/hsu-service-go/pkg/registry"
	"github.com/core-tools/hsu-service-go/pkg/stack"
	"github.com/core-tools/hsu-service-go/pkg/supervisor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	operations []string
}

func (r *countingRunner) Run(ctx context.Context, req supervisor.Request) (bool, supervisor.ExecutionContext, error) {
	r.operations = append(r.operations, req.UnitName+":"+req.Operation)
	return true, supervisor.ExecutionContext{"pid": "99"}, nil
}

type allAlive struct{}

func (allAlive) Exists(pid int) bool { return pid > 0 }

func newTestRoot(t *testing.T, services []string, enabled string) *config.ServiceConfig {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfig(root)

	for _, name := range services {
		dir := filepath.Join(cfg.TypePaths[0], name)
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, registry.MetadataFileName), []byte("name: "+name+"\n"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "start.sh"), []byte("#!/bin/bash\n"), 0755))
	}
	if enabled != "" {
		require.NoError(t, os.MkdirAll(cfg.ServiceEtcDir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(cfg.ServiceEtcDir, enabledset.FileName), []byte(enabled), 0644))
	}
	return cfg
}

func TestServiceManager_Units(t *testing.T) {
	cfg := newTestRoot(t, []string{"alpha", "beta"}, "")
	m := NewServiceManager(cfg, ServiceManagerOptions{Runner: &countingRunner{}}, logging.NewNopLogger())

	units, err := m.Units()
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "alpha", units[0].Name())
	assert.Equal(t, "beta", units[1].Name())

	again, err := m.Unit("alpha")
	require.NoError(t, err)
	assert.Same(t, units[0], again)
	assert.Equal(t, filepath.Join(cfg.ServiceStateDir, "alpha.pid"), again.PIDFilePath())

	_, err = m.Unit("ghost")
	assert.True(t, errors.IsUnknownServiceError(err))
}

func TestServiceManager_EnabledUnits(t *testing.T) {
	cfg := newTestRoot(t, []string{"alpha", "beta", "gamma"}, "- gamma\n- ghost\n- alpha\n")
	m := NewServiceManager(cfg, ServiceManagerOptions{Runner: &countingRunner{}}, logging.NewNopLogger())

	units, err := m.EnabledUnits()
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "gamma", units[0].Name())
	assert.Equal(t, "alpha", units[1].Name())

	enabled, err := m.Enabled()
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost"}, enabled.Missing())
	assert.True(t, units[0].IsEnabled())
}

func TestServiceManager_EnableSharesSet(t *testing.T) {
	cfg := newTestRoot(t, []string{"alpha", "beta"}, "")
	m := NewServiceManager(cfg, ServiceManagerOptions{Runner: &countingRunner{}}, logging.NewNopLogger())

	beta, err := m.Unit("beta")
	require.NoError(t, err)
	added, err := beta.Enable()
	require.NoError(t, err)
	assert.True(t, added)

	units, err := m.EnabledUnits()
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Same(t, beta, units[0])
}

func TestServiceManager_Stack(t *testing.T) {
	cfg := newTestRoot(t, []string{"alpha", "beta"}, "- beta\n- alpha\n")
	runner := &countingRunner{}
	m := NewServiceManager(cfg, ServiceManagerOptions{Runner: runner, Processes: allAlive{}}, logging.NewNopLogger())

	controller, err := m.Stack(nil)
	require.NoError(t, err)

	result, err := controller.Run(context.Background(), string(stack.ActionStart))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded())
	assert.Equal(t, []string{"beta:start", "alpha:start"}, runner.operations)
	assert.FileExists(t, filepath.Join(cfg.ServiceStateDir, "beta.pid"))
}

func TestServiceManager_MalformedEnabledSet(t *testing.T) {
	cfg := newTestRoot(t, []string{"alpha"}, "not: [a list\n")
	m := NewServiceManager(cfg, ServiceManagerOptions{Runner: &countingRunner{}}, logging.NewNopLogger())

	_, err := m.Stack(nil)
	assert.Error(t, err)
	assert.Equal(t, 1, m.Registry().Len())
}

func TestNewServiceManager_LogsRegistrySummaryOnce(t *testing.T) {
	cfg := newTestRoot(t, []string{"alpha"}, "")
	var summaries int
	logger := logging.NewLogger("", logging.LogFuncs{
		Debugf: func(format string, args ...interface{}) {
			if strings.HasPrefix(format, "Registry loaded") {
				summaries++
			}
		},
	})

	NewServiceManager(cfg, ServiceManagerOptions{Runner: &countingRunner{}}, logger)

	assert.Equal(t, 1, summaries)
}
