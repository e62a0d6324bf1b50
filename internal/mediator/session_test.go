package mediator

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExitCodeNormalExit(t *testing.T) {
	status := syscall.WaitStatus(42 << 8)
	code, msg := exitCode(status)
	require.Equal(t, 42, code)
	require.Empty(t, msg)
}

func TestExitCodeSignaled(t *testing.T) {
	status := syscall.WaitStatus(syscall.SIGKILL)
	code, msg := exitCode(status)
	require.Equal(t, 128+int(syscall.SIGKILL), code)
	require.Contains(t, msg, "killed")
}

func TestExitCodeSignaledWithCoreDump(t *testing.T) {
	status := syscall.WaitStatus(syscall.SIGSEGV | 0x80)
	code, msg := exitCode(status)
	require.Equal(t, 128+int(syscall.SIGSEGV), code)
	require.Contains(t, msg, "core dumped")
}
