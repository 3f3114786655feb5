//go:build unix

package process

import (
	"os"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startSleeper(t *testing.T) *exec.Cmd {
	t.Helper()
	cmd := exec.Command("sleep", "30")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		_, _ = cmd.Process.Wait()
	})
	return cmd
}

func TestOSProcessTable_Exists(t *testing.T) {
	table := NewOSProcessTable()

	assert.True(t, table.Exists(os.Getpid()))
	assert.False(t, table.Exists(0))
	assert.False(t, table.Exists(-5))
}

func TestOSProcessTable_ExitedProcess(t *testing.T) {
	table := NewOSProcessTable()
	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())

	// reaped by Run, so the pid is gone unless the kernel reused it already
	assert.False(t, table.Exists(cmd.Process.Pid))
}

func TestGroupSignaler_Terminate(t *testing.T) {
	cmd := startSleeper(t)
	signaler := NewGroupSignaler()

	delivered, err := signaler.SignalGroup(cmd.Process.Pid, SignalTerminate)
	require.NoError(t, err)
	assert.True(t, delivered)

	state, err := cmd.Process.Wait()
	require.NoError(t, err)
	ws := state.Sys().(syscall.WaitStatus)
	assert.True(t, ws.Signaled())
	assert.Equal(t, syscall.SIGTERM, ws.Signal())
}

func TestGroupSignaler_MissingGroup(t *testing.T) {
	cmd := startSleeper(t)
	pid := cmd.Process.Pid
	require.NoError(t, syscall.Kill(-pid, syscall.SIGKILL))
	_, _ = cmd.Process.Wait()

	// give the kernel a moment to drop the group
	time.Sleep(10 * time.Millisecond)

	delivered, err := NewGroupSignaler().SignalGroup(pid, SignalKill)
	assert.NoError(t, err)
	assert.False(t, delivered)
}

func TestGroupSignaler_InvalidInput(t *testing.T) {
	signaler := NewGroupSignaler()

	_, err := signaler.SignalGroup(0, SignalKill)
	assert.Error(t, err)

	_, err = signaler.SignalGroup(os.Getpid(), GroupSignal("hup"))
	assert.Error(t, err)
}

func TestGroupSignaler_ProcessWithoutGroup(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})

	delivered, err := NewGroupSignaler().SignalGroup(cmd.Process.Pid, SignalTerminate)
	require.NoError(t, err)
	assert.True(t, delivered)

	state, err := cmd.Process.Wait()
	require.NoError(t, err)
	ws := state.Sys().(syscall.WaitStatus)
	assert.True(t, ws.Signaled())
	assert.Equal(t, syscall.SIGTERM, ws.Signal())
}
