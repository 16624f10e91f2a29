package mode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"smart", Smart},
		{" Smart ", Smart},
		{"click-through", Smart},
		{"full-capture", FullCapture},
		{"FULL", FullCapture},
		{"capture", FullCapture},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejectsUnknown(t *testing.T) {
	for _, in := range []string{"", "half", "2"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrUnknownMode, in)
	}
}

func TestToggleAndString(t *testing.T) {
	assert.Equal(t, FullCapture, Smart.Toggle())
	assert.Equal(t, Smart, FullCapture.Toggle())
	assert.Equal(t, "smart", Smart.String())
	assert.Equal(t, "full-capture", FullCapture.String())
	assert.False(t, Mode(7).Valid())
	assert.NotEmpty(t, FullCapture.Description())
}

func TestTextRoundTripRejectsInvalid(t *testing.T) {
	_, err := Mode(9).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownMode)

	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("full-capture")))
	assert.Equal(t, FullCapture, m)
	assert.ErrorIs(t, m.UnmarshalText([]byte("bogus")), ErrUnknownMode)
	assert.Equal(t, FullCapture, m, "failed unmarshal leaves the value untouched")
}
