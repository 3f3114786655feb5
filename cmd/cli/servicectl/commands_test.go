package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/core-tools/hsu-service-go/pkg/errors"
	"github.com/core-tools/hsu-service-go/pkg/stack"

	flags "github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigInput(t *testing.T) {
	file := filepath.Join(t.TempDir(), "values.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"host":"file.example"}`), 0644))

	tests := []struct {
		name    string
		input   string
		stdin   string
		want    map[string]string
		wantErr bool
	}{
		{name: "inline", input: `{"host":"example.org","port":8080,"tls":true}`,
			want: map[string]string{"host": "example.org", "port": "8080", "tls": "true"}},
		{name: "stdin", input: "@-", stdin: `{"host":"stdin.example"}`,
			want: map[string]string{"host": "stdin.example"}},
		{name: "file", input: "@" + file, want: map[string]string{"host": "file.example"}},
		{name: "null value", input: `{"host":null}`, want: map[string]string{"host": ""}},
		{name: "missing file", input: "@/does/not/exist", wantErr: true},
		{name: "invalid json", input: `{"host":`, wantErr: true},
		{name: "not an object", input: `["a"]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseConfigInput(tt.input, strings.NewReader(tt.stdin))
			if tt.wantErr {
				assert.True(t, errors.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChanges(t *testing.T) {
	current := map[string]string{"host": "a", "port": "1"}

	assert.False(t, changes(current, map[string]string{"host": "a"}))
	assert.False(t, changes(current, nil))
	assert.True(t, changes(current, map[string]string{"port": "2"}))
	assert.True(t, changes(current, map[string]string{"extra": "x"}))
}

func TestConsole_Stages(t *testing.T) {
	var buf bytes.Buffer
	c := newConsole(&buf)

	c.StageStarted("Installing")
	c.Log("some output")
	c.Error("soft failure")
	c.StageFinished("Installing", false)

	assert.Equal(t,
		"     ... Installing\n"+
			"       some output\n"+
			"     == ERROR: soft failure\n"+
			"     [FAIL] Installing\n",
		buf.String())
}

func TestConsole_UnitResults(t *testing.T) {
	var buf bytes.Buffer
	c := newConsole(&buf)

	c.UnitFinished(stack.ActionStart, stack.UnitResult{Name: "web", Outcome: stack.OutcomeSucceeded})
	c.UnitFinished(stack.ActionStart, stack.UnitResult{Name: "db", Outcome: stack.OutcomeSkipped, Reason: "already running"})
	c.UnitFinished(stack.ActionReload, stack.UnitResult{Name: "mq", Outcome: stack.OutcomeFailed, Reason: "not reloadable"})
	c.UnitFinished(stack.ActionStatus, stack.UnitResult{Name: "web", Outcome: stack.OutcomeSucceeded, Running: true, PID: "42"})

	assert.Equal(t,
		"   [ OK ] Starting service: web\n"+
			"   [ OK ] Service already running: db\n"+
			"   [FAIL] Service not reloadable: mq\n"+
			"web\tactive\t42\n",
		buf.String())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitInterrupted, exitCode(errors.NewInterruptedError("operation interrupted", nil)))
	assert.Equal(t, 1, exitCode(errors.NewUnknownServiceError("unknown service type: x", nil)))
}

func TestRegisterCommands_StackHelpListsActions(t *testing.T) {
	parser := flags.NewParser(&globalOptions{}, flags.HelpFlag)
	registerCommands(parser)

	cmd := parser.Find("stack")
	require.NotNil(t, cmd)
	assert.Contains(t, cmd.LongDescription, "start, stop, restart, reload, status")
}
