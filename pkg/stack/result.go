package stack

type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	// OutcomeSkipped means the unit was already in the target state
	OutcomeSkipped Outcome = "skipped"
)

type UnitResult struct {
	Name    string
	Outcome Outcome
	Reason  string
	Err     error
	Running bool
	PID     string
}

// OK reports whether the unit ended in the requested state
func (r UnitResult) OK() bool {
	return r.Outcome != OutcomeFailed
}

type Result struct {
	Action            Action
	Units             []UnitResult
	NoEnabledServices bool
}

// Succeeded counts units that ended in the requested state, skipped ones included
func (r *Result) Succeeded() int {
	n := 0
	for _, u := range r.Units {
		if u.OK() {
			n++
		}
	}
	return n
}

func (r *Result) Failed() int {
	return len(r.Units) - r.Succeeded()
}
