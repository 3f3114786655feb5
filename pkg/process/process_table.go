package process

import (
	"context"

	gopsprocess "github.com/shirou/gopsutil/v3/process"
)

// ProcessTable answers liveness queries against the OS process table.
// A pid that was reused by an unrelated program still reports as live.
type ProcessTable interface {
	Exists(pid int) bool
}

type osProcessTable struct{}

// NewOSProcessTable returns the process table of the running host
func NewOSProcessTable() ProcessTable {
	return osProcessTable{}
}

func (osProcessTable) Exists(pid int) bool {
	if pid <= 0 {
		return false
	}
	exists, err := gopsprocess.PidExistsWithContext(context.Background(), int32(pid))
	if err != nil {
		return false
	}
	return exists
}
