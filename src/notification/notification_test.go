//go:build !windows

package notification

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShowBlockingErrorFallsBackToStderr(t *testing.T) {
	var buf bytes.Buffer
	old := stderr
	stderr = &buf
	t.Cleanup(func() { stderr = old })

	ShowBlockingError("Click Overlay", "overlay window not found")
	assert.Equal(t, "Click Overlay: overlay window not found\n", buf.String())
}
