//go:build unix

package process

import (
	"syscall"

	"github.com/core-tools/hsu-service-go/pkg/errors"
)

type groupSignaler struct{}

// NewGroupSignaler sends SIGTERM/SIGKILL to the process group led by pid, or to pid
// itself when it leads no group
func NewGroupSignaler() Signaler {
	return groupSignaler{}
}

func (groupSignaler) SignalGroup(pid int, sig GroupSignal) (bool, error) {
	if pid <= 0 {
		return false, errors.NewValidationError("invalid PID", nil).WithContext("pid", pid)
	}

	var s syscall.Signal
	switch sig {
	case SignalTerminate:
		s = syscall.SIGTERM
	case SignalKill:
		s = syscall.SIGKILL
	default:
		return false, errors.NewValidationError("unsupported signal", nil).WithContext("signal", string(sig))
	}

	err := syscall.Kill(-pid, s)
	if err == syscall.ESRCH {
		// pid leads no group, e.g. a plain background job of the hook
		err = syscall.Kill(pid, s)
	}
	if err != nil {
		if err == syscall.ESRCH {
			return false, nil
		}
		return false, errors.NewProcessError("failed to signal process group", err).
			WithContext("pgid", pid).WithContext("signal", s.String())
	}
	return true, nil
}
