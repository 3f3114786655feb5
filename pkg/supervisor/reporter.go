package supervisor

// Reporter receives progress from a running hook
type Reporter interface {
	StageStarted(stage string)
	StageFinished(stage string, success bool)
	Error(message string)
	Log(line string)
}

type NopReporter struct{}

func (NopReporter) StageStarted(stage string)                {}
func (NopReporter) StageFinished(stage string, success bool) {}
func (NopReporter) Error(message string)                     {}
func (NopReporter) Log(line string)                          {}
