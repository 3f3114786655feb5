package main

import (
	"fmt"
	"io"

	"github.com/core-tools/hsu-service-go/pkg/stack"
)

const (
	markOK   = "[ OK ]"
	markFail = "[FAIL]"
)

// console prints hook progress and batch results as plain lines
type console struct {
	out io.Writer
}

func newConsole(out io.Writer) *console {
	return &console{out: out}
}

func (c *console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *console) StageStarted(stage string) {
	c.printf("     ... %s\n", stage)
}

func (c *console) StageFinished(stage string, success bool) {
	c.printf("     %s %s\n", mark(success), stage)
}

func (c *console) Error(message string) {
	c.printf("     == ERROR: %s\n", message)
}

func (c *console) Log(line string) {
	c.printf("       %s\n", line)
}

func (c *console) UnitStarted(action stack.Action, name string) {
	if action == stack.ActionStatus {
		return
	}
	c.printf("   > %s: %s\n", actionVerb(action), name)
}

func (c *console) UnitFinished(action stack.Action, result stack.UnitResult) {
	if action == stack.ActionStatus {
		c.printf("%s\t%s\t%s\n", result.Name, runningState(result.Running), result.PID)
		return
	}

	text := fmt.Sprintf("%s: %s", actionVerb(action), result.Name)
	switch {
	case result.Reason != "":
		text = fmt.Sprintf("Service %s: %s", result.Reason, result.Name)
	case result.Err != nil:
		text = fmt.Sprintf("%s (%v)", text, result.Err)
	}
	c.printf("   %s %s\n", mark(result.OK()), text)
}

func mark(ok bool) string {
	if ok {
		return markOK
	}
	return markFail
}

func runningState(running bool) string {
	if running {
		return "active"
	}
	return "stopped"
}

func actionVerb(action stack.Action) string {
	switch action {
	case stack.ActionStart:
		return "Starting service"
	case stack.ActionStop:
		return "Stopping service"
	case stack.ActionRestart:
		return "Restarting service"
	case stack.ActionReload:
		return "Reloading service"
	default:
		return "Checking service"
	}
}
