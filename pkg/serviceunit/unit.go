package serviceunit

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/core-tools/hsu-service-go/pkg/envfile"
	"github.com/core-tools/hsu-service-go/pkg/errors"
	"github.com/core-tools/hsu-service-go/pkg/logging"
	"github.com/core-tools/hsu-service-go/pkg/process"
	"github.com/core-tools/hsu-service-go/pkg/processfile"
	"github.com/core-tools/hsu-service-go/pkg/registry"
	"github.com/core-tools/hsu-service-go/pkg/supervisor"
)

// PIDNotApplicable is returned by PID for a unit that is not running
const PIDNotApplicable = "n/a"

const pidFact = "pid"

// Status values
const (
	StatusStatic  = "static"
	StatusActive  = "active"
	StatusStopped = "stopped"
)

const DefaultTimeout = 5 * time.Second

type UnitConfig struct {
	StateDir string
	LogDir   string
	EtcDir   string
	EnvDir   string
	Timeout  time.Duration
}

// EnabledStore is the shared enabled set a unit toggles itself in
type EnabledStore interface {
	Add(def *registry.ServiceDefinition) (bool, error)
	Remove(name string) (bool, error)
	Contains(name string) bool
}

// Dependencies are the collaborators a unit drives; nil process members default to the OS
type Dependencies struct {
	Runner    supervisor.Runner
	Processes process.ProcessTable
	Signaler  process.Signaler
	Enabled   EnabledStore
}

// Unit is the runtime handle of one service. It keeps no state beyond its pidfile, so every
// liveness query rereads it.
type Unit struct {
	def       *registry.ServiceDefinition
	config    UnitConfig
	pidfiles  *processfile.ProcessFileManager
	runner    supervisor.Runner
	processes process.ProcessTable
	signaler  process.Signaler
	enabled   EnabledStore
	logger    logging.Logger
}

func NewUnit(def *registry.ServiceDefinition, config UnitConfig, deps Dependencies, logger logging.Logger) *Unit {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if deps.Processes == nil {
		deps.Processes = process.NewOSProcessTable()
	}
	if deps.Signaler == nil {
		deps.Signaler = process.NewGroupSignaler()
	}

	return &Unit{
		def:       def,
		config:    config,
		pidfiles:  processfile.NewProcessFileManager(processfile.ProcessFileConfig{StateDirectory: config.StateDir}, logger),
		runner:    deps.Runner,
		processes: deps.Processes,
		signaler:  deps.Signaler,
		enabled:   deps.Enabled,
		logger:    logger,
	}
}

func (u *Unit) Name() string {
	return u.def.Name()
}

func (u *Unit) Definition() *registry.ServiceDefinition {
	return u.def
}

func (u *Unit) Reloadable() bool {
	return u.def.IsReloadable()
}

func (u *Unit) PIDFilePath() string {
	return u.pidfiles.GeneratePIDFilePath(u.def.Name())
}

// Start runs the start hook, which must report the daemon pid
func (u *Unit) Start(ctx context.Context) (bool, error) {
	return u.launch(ctx, registry.OperationStart, nil)
}

// Restart runs the restart hook with the current pidfile path and records the new pid
func (u *Unit) Restart(ctx context.Context) (bool, error) {
	return u.launch(ctx, registry.OperationRestart, []string{u.PIDFilePath()})
}

func (u *Unit) launch(ctx context.Context, operation string, args []string) (bool, error) {
	success, facts, err := u.run(ctx, operation, args)
	if err != nil || !success {
		return false, err
	}

	value := strings.TrimSpace(facts[pidFact])
	if value == "" {
		return false, errors.NewOperationError("PID of service was not reported", nil).
			WithContext("service", u.def.Name()).
			WithContext("operation", operation)
	}
	pid, err := strconv.Atoi(value)
	if err != nil || pid <= 0 {
		return false, errors.NewOperationError("service reported an invalid PID", err).
			WithContext("service", u.def.Name()).
			WithContext("pid", value)
	}

	if err := u.pidfiles.WritePIDFile(u.def.Name(), pid); err != nil {
		return false, err
	}
	u.logger.Infof("Service started, name: %s, operation: %s, pid: %d", u.def.Name(), operation, pid)
	return true, nil
}

// Reload runs the reload hook with the pidfile path; no pid bookkeeping is done
func (u *Unit) Reload(ctx context.Context) (bool, error) {
	if !u.def.IsReloadable() {
		return false, errors.NewOperationError("Service is not reloadable", nil).WithContext("service", u.def.Name())
	}
	success, _, err := u.run(ctx, registry.OperationReload, []string{u.PIDFilePath()})
	return success, err
}

// Enable returns false without side effects if the unit is already enabled
func (u *Unit) Enable() (bool, error) {
	if u.enabled == nil {
		return false, errors.NewInternalError("no enabled set configured", nil)
	}
	return u.enabled.Add(u.def)
}

func (u *Unit) Disable() (bool, error) {
	if u.enabled == nil {
		return false, errors.NewInternalError("no enabled set configured", nil)
	}
	return u.enabled.Remove(u.def.Name())
}

func (u *Unit) IsEnabled() bool {
	return u.enabled != nil && u.enabled.Contains(u.def.Name())
}

// Running reports whether the pidfile exists and names a live process
func (u *Unit) Running() bool {
	pid, err := u.pidfiles.ReadPIDFile(u.def.Name())
	if err != nil {
		return false
	}
	return u.processes.Exists(pid)
}

// PID returns the recorded pid of a running unit, else PIDNotApplicable
func (u *Unit) PID() string {
	pid, err := u.pidfiles.ReadPIDFile(u.def.Name())
	if err != nil || !u.processes.Exists(pid) {
		return PIDNotApplicable
	}
	return strconv.Itoa(pid)
}

func (u *Unit) Status() string {
	switch {
	case !u.def.IsDaemon():
		return StatusStatic
	case u.Running():
		return StatusActive
	default:
		return StatusStopped
	}
}

func (u *Unit) run(ctx context.Context, operation string, args []string) (bool, supervisor.ExecutionContext, error) {
	env, err := envfile.LoadUnitEnv(u.config.EnvDir, u.def.Name())
	if err != nil {
		return false, nil, err
	}

	return u.runner.Run(ctx, supervisor.Request{
		UnitName:  u.def.Name(),
		HookPath:  u.def.HookPath(operation),
		LogDir:    u.config.LogDir,
		Operation: operation,
		Args:      args,
		Env:       env,
	})
}
