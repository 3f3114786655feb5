package process

// GroupSignal identifies the two stop escalation steps
type GroupSignal string

const (
	SignalTerminate GroupSignal = "terminate"
	SignalKill      GroupSignal = "kill"
)

// Signaler delivers escalation signals to a process group, falling back to the single
// process when pid leads no group. delivered=false with a nil error means neither exists.
type Signaler interface {
	SignalGroup(pid int, sig GroupSignal) (delivered bool, err error)
}
