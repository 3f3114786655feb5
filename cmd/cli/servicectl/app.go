package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/core-tools/hsu-service-go/pkg/config"
	"github.com/core-tools/hsu-service-go/pkg/errors"
	"github.com/core-tools/hsu-service-go/pkg/logging"
	zaplogging "github.com/core-tools/hsu-service-go/pkg/logging/zap"
	"github.com/core-tools/hsu-service-go/pkg/servicemanager"
)

// app is the per-invocation context shared by all commands
type app struct {
	ctx     context.Context
	logger  logging.Logger
	sync    func() error
	console *console
	manager *servicemanager.ServiceManager
}

func newApp() (*app, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, errors.NewValidationError("invalid root directory", err).WithContext("root", opts.Root)
	}

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = config.ConfigFilePath(root)
	}
	cfg, err := config.LoadConfigFromFile(configFile, root)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	zapLogger, err := zaplogging.NewZapSprintfLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger("module: servicectl, ", zapLogger.LogFuncs())
	logger.Debugf("Using configuration, file: %s, root: %s", configFile, root)

	out := newConsole(os.Stdout)
	manager := servicemanager.NewServiceManager(cfg, servicemanager.ServiceManagerOptions{
		Reporter: out,
	}, logger)
	for _, skipped := range manager.Registry().Skipped() {
		logger.Debugf("Skipped service directory, directory: %s, reason: %v", skipped.Directory, skipped.Reason)
	}

	return &app{
		ctx:     context.Background(),
		logger:  logger,
		sync:    zapLogger.Sync,
		console: out,
		manager: manager,
	}, nil
}

func (a *app) close() {
	_ = a.sync()
}

// withApp builds the app, runs fn and flushes logs
func withApp(fn func(a *app) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}
