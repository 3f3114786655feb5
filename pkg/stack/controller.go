package stack

import (
	"context"
	"fmt"

	"github.com/core-tools/hsu-service-go/pkg/errors"
	"github.com/core-tools/hsu-service-go/pkg/logging"
)

type Action string

const (
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
	ActionReload  Action = "reload"
	ActionStatus  Action = "status"
)

var actions = []Action{ActionStart, ActionStop, ActionRestart, ActionReload, ActionStatus}

func Actions() []Action {
	return append([]Action(nil), actions...)
}

// ParseAction validates a stack action name
func ParseAction(name string) (Action, error) {
	for _, a := range actions {
		if string(a) == name {
			return a, nil
		}
	}
	return "", errors.NewUnknownActionError(fmt.Sprintf("unknown stack action: %s", name), nil)
}

// Unit is the per-service surface the controller drives
type Unit interface {
	Name() string
	Running() bool
	PID() string
	Reloadable() bool
	Start(ctx context.Context) (bool, error)
	Stop(ctx context.Context, force bool) (bool, error)
	Restart(ctx context.Context) (bool, error)
	Reload(ctx context.Context) (bool, error)
}

// Observer is told about each unit as the batch reaches it
type Observer interface {
	UnitStarted(action Action, name string)
	UnitFinished(action Action, result UnitResult)
}

type nopObserver struct{}

func (nopObserver) UnitStarted(action Action, name string)        {}
func (nopObserver) UnitFinished(action Action, result UnitResult) {}

// Controller drives the enabled units in order, one at a time
type Controller struct {
	units    []Unit
	observer Observer
	logger   logging.Logger
}

func NewController(units []Unit, observer Observer, logger logging.Logger) *Controller {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Controller{
		units:    units,
		observer: observer,
		logger:   logger,
	}
}

// Run performs action on every unit. Per-unit failures are recorded in the result and the
// batch continues; only an interrupt stops it early.
func (c *Controller) Run(ctx context.Context, name string) (*Result, error) {
	action, err := ParseAction(name)
	if err != nil {
		return nil, err
	}

	result := &Result{Action: action}
	if len(c.units) == 0 {
		result.NoEnabledServices = true
		c.logger.Infof("No services are enabled, action: %s", action)
		return result, nil
	}

	c.logger.Infof("Running stack action, action: %s, units: %d", action, len(c.units))
	for _, unit := range c.units {
		c.observer.UnitStarted(action, unit.Name())
		unitResult := c.runUnit(ctx, action, unit)
		result.Units = append(result.Units, unitResult)
		c.observer.UnitFinished(action, unitResult)

		if errors.IsInterruptedError(unitResult.Err) || errors.IsCancelledError(unitResult.Err) {
			c.logger.Warnf("Stack action aborted, action: %s, unit: %s", action, unit.Name())
			return result, unitResult.Err
		}
	}

	c.logger.Infof("Stack action finished, action: %s, succeeded: %d, failed: %d",
		action, result.Succeeded(), result.Failed())
	return result, nil
}

// Launch starts every enabled unit that is not already running
func (c *Controller) Launch(ctx context.Context) (*Result, error) {
	return c.Run(ctx, string(ActionStart))
}

func (c *Controller) runUnit(ctx context.Context, action Action, unit Unit) (result UnitResult) {
	result = UnitResult{Name: unit.Name()}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorf("Unit operation panicked, unit: %s, action: %s, panic: %v", unit.Name(), action, r)
			result.Outcome = OutcomeFailed
			result.Err = errors.NewInternalError(fmt.Sprintf("unit operation panicked: %v", r), nil)
		}
	}()

	var (
		success bool
		err     error
	)

	switch action {
	case ActionStatus:
		result.Outcome = OutcomeSucceeded
		result.Running = unit.Running()
		result.PID = unit.PID()
		return result

	case ActionStart:
		if unit.Running() {
			result.Outcome = OutcomeSkipped
			result.Reason = "already running"
			return result
		}
		success, err = unit.Start(ctx)

	case ActionStop:
		if !unit.Running() {
			result.Outcome = OutcomeSkipped
			result.Reason = "already stopped"
			return result
		}
		success, err = unit.Stop(ctx, false)

	case ActionRestart:
		success, err = unit.Restart(ctx)

	case ActionReload:
		if !unit.Running() {
			result.Outcome = OutcomeFailed
			result.Reason = "not running"
			return result
		}
		if !unit.Reloadable() {
			result.Outcome = OutcomeFailed
			result.Reason = "not reloadable"
			return result
		}
		success, err = unit.Reload(ctx)
	}

	switch {
	case err != nil:
		c.logger.Warnf("Unit operation failed, unit: %s, action: %s, error: %v", unit.Name(), action, err)
		result.Outcome = OutcomeFailed
		result.Err = err
	case success:
		result.Outcome = OutcomeSucceeded
	default:
		result.Outcome = OutcomeFailed
	}
	result.Running = unit.Running()
	result.PID = unit.PID()
	return result
}
