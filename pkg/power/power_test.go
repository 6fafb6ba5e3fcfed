package power

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	for _, s := range []string{"halt", "exit", "none"} {
		m, err := ParseMode(s)
		require.NoError(t, err)
		require.Equal(t, Mode(s), m)
	}
	_, err := ParseMode("reboot")
	require.ErrorIs(t, err, ErrMode)
}

func TestNone(t *testing.T) {
	require.NoError(t, New(ModeNone).PowerOff())
}
