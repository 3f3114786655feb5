package supervisor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/core-tools/hsu-service-go/pkg/envfile"
	"github.com/core-tools/hsu-service-go/pkg/errors"
	"github.com/core-tools/hsu-service-go/pkg/logging"

	"github.com/google/uuid"
)

const (
	DefaultShell = "/bin/bash"

	logDirMode  = 0755
	logFileMode = 0644
)

// Request describes one hook invocation
type Request struct {
	UnitName  string
	HookPath  string
	LogDir    string
	Operation string
	Args      []string
	Env       map[string]string
}

// LogFilePath is where the hook's stdout and stderr are captured
func (r Request) LogFilePath() string {
	return filepath.Join(r.LogDir, fmt.Sprintf("%s.%s.log", r.UnitName, r.Operation))
}

type SupervisorConfig struct {
	Shell    string
	Trace    bool
	EtcDir   string
	Reporter Reporter
}

// Runner runs a hook to completion
type Runner interface {
	Run(ctx context.Context, req Request) (bool, ExecutionContext, error)
}

type Supervisor struct {
	config SupervisorConfig
	logger logging.Logger
}

func NewSupervisor(config SupervisorConfig, logger logging.Logger) *Supervisor {
	if config.Shell == "" {
		config.Shell = DefaultShell
	}
	if config.Reporter == nil {
		config.Reporter = NopReporter{}
	}
	return &Supervisor{
		config: config,
		logger: logger,
	}
}

// Run executes the hook and blocks until it exits and its control channel reaches EOF.
// It returns true when the hook exits with status 0. Until Run returns, interrupts are
// consumed by the calling process; a hook killed by SIGINT yields an interrupted error.
func (s *Supervisor) Run(ctx context.Context, req Request) (bool, ExecutionContext, error) {
	runID := uuid.NewString()

	if _, err := os.Stat(req.HookPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil, errors.NewHookNotFoundError(fmt.Sprintf("%s script not found", req.Operation), err).
				WithContext("unit", req.UnitName).
				WithContext("path", req.HookPath)
		}
		return false, nil, errors.NewIOError("failed to stat hook", err).WithContext("path", req.HookPath)
	}

	if err := os.MkdirAll(req.LogDir, logDirMode); err != nil {
		return false, nil, errors.NewIOError("failed to create log directory", err).WithContext("directory", req.LogDir)
	}
	logPath := req.LogFilePath()
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, logFileMode)
	if err != nil {
		return false, nil, errors.NewIOError("failed to open hook log", err).WithContext("path", logPath)
	}
	defer logFile.Close()

	channelR, channelW, err := os.Pipe()
	if err != nil {
		return false, nil, errors.NewIOError("failed to create control channel", err)
	}
	defer channelR.Close()

	args := make([]string, 0, len(req.Args)+2)
	if s.config.Trace {
		args = append(args, "-x")
	}
	args = append(args, req.HookPath)
	args = append(args, req.Args...)

	cmd := exec.CommandContext(ctx, s.config.Shell, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.ExtraFiles = []*os.File{channelW}
	cmd.Env = s.environ(req.Env)

	// Caught signals revert to default in the child, ignored ones would be inherited
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	s.logger.Debugf("Running hook, unit: %s, operation: %s, run_id: %s, command: %s %v",
		req.UnitName, req.Operation, runID, s.config.Shell, args)

	if err := cmd.Start(); err != nil {
		channelW.Close()
		return false, nil, errors.NewProcessError("failed to start hook", err).
			WithContext("unit", req.UnitName).
			WithContext("operation", req.Operation)
	}
	// Only the child keeps a write end, so EOF means every holder has exited or closed it
	channelW.Close()

	// Descendants may still hold the write end after a cancelled hook is killed
	stopClose := context.AfterFunc(ctx, func() { channelR.Close() })
	defer stopClose()

	channel := newChannelReader(s.config.Reporter)
	if err := channel.consume(channelR); err != nil {
		s.logger.Warnf("Control channel read failed, unit: %s, run_id: %s, error: %v", req.UnitName, runID, err)
		_, _ = io.Copy(io.Discard, channelR)
	}

	waitErr := cmd.Wait()
	success, interrupted := exitOutcome(cmd.ProcessState)
	facts := channel.finish(success)

	if interrupted {
		s.logger.Warnf("Hook interrupted, unit: %s, operation: %s, run_id: %s", req.UnitName, req.Operation, runID)
		return false, facts, errors.NewInterruptedError("operation interrupted", nil).
			WithContext("unit", req.UnitName).
			WithContext("operation", req.Operation)
	}
	if ctx.Err() != nil {
		return false, facts, errors.NewCancelledError("hook cancelled", ctx.Err()).
			WithContext("unit", req.UnitName).
			WithContext("operation", req.Operation)
	}
	if waitErr != nil && cmd.ProcessState == nil {
		return false, facts, errors.NewProcessError("failed to wait for hook", waitErr).
			WithContext("unit", req.UnitName)
	}

	s.logger.Infof("Hook finished, unit: %s, operation: %s, run_id: %s, success: %t, facts: %d",
		req.UnitName, req.Operation, runID, success, len(facts))
	return success, facts, nil
}

func (s *Supervisor) environ(unitEnv map[string]string) []string {
	env := make([]string, 0, len(os.Environ())+len(unitEnv)+8)
	for _, entry := range os.Environ() {
		if !isHelperEnv(entry) {
			env = append(env, entry)
		}
	}
	env = append(env, helperEnviron(ChannelFD)...)
	if s.config.EtcDir != "" {
		env = append(env, EtcDirEnvVar+"="+s.config.EtcDir)
	}
	return append(env, envfile.Environ(unitEnv)...)
}

func exitOutcome(state *os.ProcessState) (success bool, interrupted bool) {
	if state == nil {
		return false, false
	}
	if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() && status.Signal() == syscall.SIGINT {
		return false, true
	}
	return state.Success(), false
}
