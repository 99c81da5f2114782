//go:build windows

package signals

import (
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTermination(t *testing.T) {
	assert.True(t, IsTermination(os.Interrupt))
	assert.True(t, IsTermination(syscall.SIGTERM), "console close, logoff and shutdown")
	assert.False(t, IsTermination(syscall.SIGHUP))
}

func TestName(t *testing.T) {
	assert.Equal(t, "SIGINT", Name(os.Interrupt))
	assert.Equal(t, "SIGTERM", Name(syscall.SIGTERM))
	assert.Equal(t, syscall.SIGHUP.String(), Name(syscall.SIGHUP))
}
