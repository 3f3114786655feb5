package servicemanager

import (
	"github.com/core-tools/hsu-service-go/pkg/config"
	"github.com/core-tools/hsu-service-go/pkg/enabledset"
	"github.com/core-tools/hsu-service-go/pkg/logging"
	"github.com/core-tools/hsu-service-go/pkg/process"
	"github.com/core-tools/hsu-service-go/pkg/registry"
	"github.com/core-tools/hsu-service-go/pkg/serviceunit"
	"github.com/core-tools/hsu-service-go/pkg/stack"
	"github.com/core-tools/hsu-service-go/pkg/supervisor"
)

var _ stack.Unit = (*serviceunit.Unit)(nil)

type ServiceManagerOptions struct {
	Reporter supervisor.Reporter

	// Process members default to the OS implementations
	Processes process.ProcessTable
	Signaler  process.Signaler
	Runner    supervisor.Runner
}

// ServiceManager owns the object graph of one invocation. The registry is loaded on
// construction and the enabled set on first use; neither is reloaded afterwards.
type ServiceManager struct {
	config   *config.ServiceConfig
	registry *registry.Registry
	runner   supervisor.Runner
	options  ServiceManagerOptions
	logger   logging.Logger

	enabled *enabledset.EnabledSet
	units   map[string]*serviceunit.Unit
}

func NewServiceManager(cfg *config.ServiceConfig, options ServiceManagerOptions, logger logging.Logger) *ServiceManager {
	runner := options.Runner
	if runner == nil {
		runner = supervisor.NewSupervisor(supervisor.SupervisorConfig{
			Shell:    cfg.Shell,
			Trace:    cfg.TraceEnabled(),
			EtcDir:   cfg.ServiceEtcDir,
			Reporter: options.Reporter,
		}, logger)
	}

	reg := registry.LoadRegistry(cfg.TypePaths, logger)

	return &ServiceManager{
		config:   cfg,
		registry: reg,
		runner:   runner,
		options:  options,
		logger:   logger,
		units:    make(map[string]*serviceunit.Unit),
	}
}

func (m *ServiceManager) Registry() *registry.Registry {
	return m.registry
}

// Enabled loads the enabled set once
func (m *ServiceManager) Enabled() (*enabledset.EnabledSet, error) {
	if m.enabled != nil {
		return m.enabled, nil
	}
	set, err := enabledset.Load(m.config.ServiceEtcDir, m.registry, m.logger)
	if err != nil {
		return nil, err
	}
	m.enabled = set
	return set, nil
}

// Unit returns the runtime handle for a registered service
func (m *ServiceManager) Unit(name string) (*serviceunit.Unit, error) {
	if u, ok := m.units[name]; ok {
		return u, nil
	}

	def, err := m.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	enabled, err := m.Enabled()
	if err != nil {
		return nil, err
	}

	u := serviceunit.NewUnit(def, serviceunit.UnitConfig{
		StateDir: m.config.ServiceStateDir,
		LogDir:   m.config.ServiceLogDir,
		EtcDir:   m.config.ServiceEtcDir,
		EnvDir:   m.config.EnvDir,
		Timeout:  m.config.TimeoutDuration(),
	}, serviceunit.Dependencies{
		Runner:    m.runner,
		Processes: m.options.Processes,
		Signaler:  m.options.Signaler,
		Enabled:   enabled,
	}, m.logger)
	m.units[name] = u
	return u, nil
}

// Units returns a handle for every registered service in registry order
func (m *ServiceManager) Units() ([]*serviceunit.Unit, error) {
	defs := m.registry.All()
	units := make([]*serviceunit.Unit, 0, len(defs))
	for _, def := range defs {
		u, err := m.Unit(def.Name())
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

// EnabledUnits returns handles for the resolvable enabled services in enabled order
func (m *ServiceManager) EnabledUnits() ([]*serviceunit.Unit, error) {
	enabled, err := m.Enabled()
	if err != nil {
		return nil, err
	}
	defs := enabled.Services()
	units := make([]*serviceunit.Unit, 0, len(defs))
	for _, def := range defs {
		u, err := m.Unit(def.Name())
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

// Stack builds a controller over the enabled services
func (m *ServiceManager) Stack(observer stack.Observer) (*stack.Controller, error) {
	units, err := m.EnabledUnits()
	if err != nil {
		return nil, err
	}
	stackUnits := make([]stack.Unit, 0, len(units))
	for _, u := range units {
		stackUnits = append(stackUnits, u)
	}
	return stack.NewController(stackUnits, observer, m.logger), nil
}
