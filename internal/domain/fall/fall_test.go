package fall

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestSampleMagnitude verifies the Euclidean norm of a sample.
func TestSampleMagnitude(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 5.0, Sample{AX: 3, AY: 4}.Magnitude(), 1e-9)
	require.InDelta(t, 13.0, Sample{AX: -3, AY: 4, AZ: 12}.Magnitude(), 1e-9)
	require.Zero(t, Sample{}.Magnitude())
}

// TestElapsed checks that backwards clocks never produce a negative gap.
func TestElapsed(t *testing.T) {
	t.Parallel()

	base := time.Unix(1000, 0)

	require.Equal(t, 300*time.Millisecond, Elapsed(base, base.Add(300*time.Millisecond)))
	require.Zero(t, Elapsed(base, base))
	require.Zero(t, Elapsed(base, base.Add(-time.Second)))
}

// TestThresholdsValidate covers defaults and invalid combinations.
func TestThresholdsValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultThresholds().Validate())
	require.Equal(t, DefaultThresholds(), Thresholds{}.WithDefaults())

	bad := DefaultThresholds()
	bad.Impact = 3

	require.ErrorIs(t, bad.Validate(), errImpactBelowFreeFall)

	bad = DefaultThresholds()
	bad.Shake = -1

	require.ErrorIs(t, bad.Validate(), errNonPositiveThreshold)

	bad = DefaultThresholds()
	bad.FallWindow = -time.Second

	require.ErrorIs(t, bad.Validate(), errNonPositiveWindow)
}

// TestTransitionChanged checks phase change reporting and enum names.
func TestTransitionChanged(t *testing.T) {
	t.Parallel()

	require.False(t, Transition{From: PhaseIdle, To: PhaseIdle}.Changed())
	require.True(t, Transition{From: PhaseIdle, To: PhaseFreeFalling}.Changed())
	require.Equal(t, "alert_pending", PhaseAlertPending.String())
	require.Equal(t, "shake", MotionShake.String())
}

// TestLocationClone verifies that Clone returns a copy and handles nil safely.
func TestLocationClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Location)(nil).Clone())

	l := &Location{Latitude: 55.75, Longitude: 37.61}
	c := l.Clone()

	require.Equal(t, l, c)
	require.NotSame(t, l, c)
}

// TestParsePhase verifies that every phase survives a String round trip.
func TestParsePhase(t *testing.T) {
	t.Parallel()

	for _, phase := range []Phase{PhaseIdle, PhaseFreeFalling, PhaseAlertPending} {
		parsed, ok := ParsePhase(phase.String())
		require.True(t, ok)
		require.Equal(t, phase, parsed)
	}

	_, ok := ParsePhase("falling")
	require.False(t, ok)
}

// TestActorString renders partial and complete actors.
func TestActorString(t *testing.T) {
	t.Parallel()

	require.Empty(t, (*Actor)(nil).String())
	require.Empty(t, new(Actor).String())
	require.Equal(t, "o.shokin", (&Actor{Username: "o.shokin"}).String())
	require.Equal(t, "desk-01", (&Actor{Hostname: "desk-01"}).String())
	require.Equal(t, "o.shokin@desk-01", (&Actor{Hostname: "desk-01", Username: "o.shokin"}).String())
}
