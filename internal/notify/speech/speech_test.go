package speech

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSpeaker_Speak runs a harmless command as the speech tool.
func TestSpeaker_Speak(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("relies on a POSIX `true` binary")
	}

	s := New("true")

	require.NoError(t, s.Speak(context.Background(), "Alert canceled."))
	require.NoError(t, s.Speak(context.Background(), "Calling emergency contact now."))
}

// TestSpeaker_MissingCommand surfaces start failures to the caller.
func TestSpeaker_MissingCommand(t *testing.T) {
	t.Parallel()

	s := New("fall-alarm-no-such-speech-tool")

	require.Error(t, s.Speak(context.Background(), "hello"))
}

// TestDefault returns a speaker on supported systems.
func TestDefault(t *testing.T) {
	t.Parallel()

	s, err := Default()

	switch runtime.GOOS {
	case "linux", "darwin", "windows":
		require.NoError(t, err)
		require.NotNil(t, s)
	default:
		require.ErrorIs(t, err, ErrUnsupportedOS)
	}
}
