package supervisor

import (
	"bufio"
	"io"
	"strings"
)

const (
	stagePrefix = "STAGE:"
	setPrefix   = "SET:"
	errPrefix   = "ERR:"

	maxLineSize = 1024 * 1024
)

// ExecutionContext collects facts reported by one hook run
type ExecutionContext map[string]string

// EventKind is the closed set of control channel line classes
type EventKind int

const (
	EventLog EventKind = iota
	EventStage
	EventFact
	EventError
)


// Event is one classified control channel line
type Event struct {
	Kind  EventKind
	Text  string // stage name, error message or log line
	Key   string // facts only
	Value string // facts only
}

// ParseLine classifies a single line without its trailing newline
func ParseLine(line string) Event {
	switch {
	case strings.HasPrefix(line, stagePrefix):
		return Event{Kind: EventStage, Text: line[len(stagePrefix):]}
	case strings.HasPrefix(line, setPrefix):
		key, value, _ := strings.Cut(line[len(setPrefix):], "=")
		return Event{Kind: EventFact, Key: key, Value: value}
	case strings.HasPrefix(line, errPrefix):
		return Event{Kind: EventError, Text: line[len(errPrefix):]}
	default:
		return Event{Kind: EventLog, Text: line}
	}
}

// channelReader applies control channel events to an ExecutionContext and a Reporter.
// A stage stays open until the next STAGE line or until finish is called.
type channelReader struct {
	reporter Reporter
	context  ExecutionContext
	stage    string
	inStage  bool
}

func newChannelReader(reporter Reporter) *channelReader {
	return &channelReader{
		reporter: reporter,
		context:  make(ExecutionContext),
	}
}

// consume reads r line by line until EOF
func (c *channelReader) consume(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		c.apply(ParseLine(strings.TrimSuffix(scanner.Text(), "\r")))
	}
	return scanner.Err()
}

func (c *channelReader) apply(event Event) {
	switch event.Kind {
	case EventStage:
		c.closeStage(true)
		c.stage = event.Text
		c.inStage = true
		c.reporter.StageStarted(event.Text)
	case EventFact:
		c.context[event.Key] = event.Value
	case EventError:
		c.reporter.Error(event.Text)
	default:
		c.reporter.Log(event.Text)
	}
}

func (c *channelReader) closeStage(success bool) {
	if !c.inStage {
		return
	}
	c.reporter.StageFinished(c.stage, success)
	c.stage = ""
	c.inStage = false
}

// finish closes any open stage with the overall outcome
func (c *channelReader) finish(success bool) ExecutionContext {
	c.closeStage(success)
	return c.context
}
