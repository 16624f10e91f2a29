package clipboard

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.design/x/clipboard"
)

func TestWriteText(t *testing.T) {
	if os.Getenv("CLICK_OVERLAY_CLIPBOARD_TESTS") != "1" {
		t.Skip("set CLICK_OVERLAY_CLIPBOARD_TESTS=1 to run against the system clipboard")
	}
	require.NoError(t, WriteText([]byte(`[{"x":1,"y":2,"width":3,"height":4}]`)))
	assert.Equal(t, `[{"x":1,"y":2,"width":3,"height":4}]`, string(clipboard.Read(clipboard.FmtText)))
}

func TestInitIsStable(t *testing.T) {
	first := Init()
	assert.Equal(t, first, Init())
}
