package serviceunit

import (
	"context"
	"time"

	"github.com/core-tools/hsu-service-go/pkg/process"
	"github.com/core-tools/hsu-service-go/pkg/registry"
)

const (
	stopForceFlag = "--force"

	pollDivisor = 100
	minPoll     = time.Millisecond
)

// Stop runs the stop hook with the pidfile path and waits for the process to go.
// Without force a process that outlives the timeout leaves the pidfile in place and Stop
// returns false. With force the process group is sent SIGTERM and then SIGKILL, each
// followed by another bounded wait.
func (u *Unit) Stop(ctx context.Context, force bool) (bool, error) {
	name := u.def.Name()

	args := []string{u.PIDFilePath()}
	if force {
		args = append(args, stopForceFlag)
	}

	success, _, err := u.run(ctx, registry.OperationStop, args)
	if err != nil {
		return false, err
	}
	if !success {
		if !force {
			u.logger.Warnf("Stop hook failed, name: %s", name)
			return false, nil
		}
		u.logger.Warnf("Stop hook failed, escalating, name: %s", name)
	}

	if u.converge(ctx) {
		return u.stopped()
	}
	if !force {
		u.logger.Warnf("Service did not stop within %v, name: %s", u.config.Timeout, name)
		return false, nil
	}

	var pid int
	for _, sig := range []process.GroupSignal{process.SignalTerminate, process.SignalKill} {
		recorded, err := u.pidfiles.ReadPIDFile(name)
		if err != nil {
			return u.stopped()
		}
		pid = recorded

		u.logger.Infof("Signalling process group, name: %s, pid: %d, signal: %s", name, pid, sig)
		delivered, err := u.signaler.SignalGroup(pid, sig)
		if err != nil {
			return false, err
		}
		if !delivered {
			u.logger.Warnf("Signal not delivered, name: %s, pid: %d, signal: %s", name, pid, sig)
		}
		// converge re-checks liveness, so an undelivered signal to a live pid keeps escalating
		if u.converge(ctx) {
			return u.stopped()
		}
	}

	u.logger.Errorf("Service survived SIGKILL, name: %s, pid: %d", name, pid)
	return false, nil
}

func (u *Unit) stopped() (bool, error) {
	if err := u.pidfiles.RemovePIDFile(u.def.Name()); err != nil {
		return false, err
	}
	u.logger.Infof("Service stopped, name: %s", u.def.Name())
	return true, nil
}

// converge polls liveness every timeout/100 for up to timeout, waking early when the pidfile
// is removed. Polling stays authoritative; the watch only shortens the wait.
func (u *Unit) converge(ctx context.Context) bool {
	if !u.Running() {
		return true
	}

	var removed <-chan struct{}
	if watcher, err := u.pidfiles.WatchPIDFileRemoval(u.def.Name()); err == nil {
		defer watcher.Close()
		removed = watcher.Removed()
	} else {
		u.logger.Debugf("Pidfile watch unavailable, polling only, name: %s, error: %v", u.def.Name(), err)
	}

	interval := u.config.Timeout / pollDivisor
	if interval < minPoll {
		interval = minPoll
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.Now().Add(u.config.Timeout)

	for {
		select {
		case <-ctx.Done():
			return !u.Running()
		case <-removed:
			removed = nil
			if !u.pidfiles.PIDFileExists(u.def.Name()) {
				return true
			}
		case <-ticker.C:
		}

		if !u.Running() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
	}
}
