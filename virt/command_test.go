//go:build linux || darwin

package virt

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkit/sysinfo/errdefs"
)

func TestExecRunner(t *testing.T) {
	out, err := ExecRunner("echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", strings.TrimRight(out, "\r\n"))
}

func TestExecRunnerNonZeroExitKeepsOutput(t *testing.T) {
	out, err := ExecRunner("sh", "-c", "echo degraded; exit 1")
	require.NoError(t, err)
	assert.Equal(t, "degraded", strings.TrimSpace(out))
}

func TestExecRunnerUnknown(t *testing.T) {
	_, err := ExecRunner("echolo", "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errdefs.ErrIO))
	assert.Contains(t, err.Error(), "executable file not found")
}
