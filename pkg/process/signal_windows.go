//go:build windows

package process

import "github.com/core-tools/hsu-service-go/pkg/errors"

type groupSignaler struct{}

func NewGroupSignaler() Signaler {
	return groupSignaler{}
}

func (groupSignaler) SignalGroup(pid int, sig GroupSignal) (bool, error) {
	return false, errors.NewProcessError("process group signals are not supported on windows", nil).
		WithContext("pid", pid)
}
