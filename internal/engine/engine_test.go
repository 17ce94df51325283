package engine

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/fall-alarm/internal/domain/fall"
	"github.com/oshokin/fall-alarm/internal/notify"
)

const contact = "5159169595"

// sampleOf builds a sample with the given magnitude along Z at base+offset.
func sampleOf(base time.Time, offset time.Duration, magnitude float64) fall.Sample {
	return fall.Sample{Timestamp: base.Add(offset), AZ: magnitude}
}

// newTestEngine creates an engine with default settings and a recording sink.
func newTestEngine(t *testing.T, opts ...Option) (*Engine, *recordingSink) {
	t.Helper()

	sink := new(recordingSink)
	e, err := New(Settings{EmergencyContact: contact}, sink, opts...)
	require.NoError(t, err)

	return e, sink
}

// TestNew_Validates rejects missing collaborators and bad thresholds.
func TestNew_Validates(t *testing.T) {
	t.Parallel()

	_, err := New(Settings{EmergencyContact: contact}, nil)
	require.ErrorIs(t, err, errSinkRequired)

	_, err = New(Settings{}, new(recordingSink))
	require.ErrorIs(t, err, errContactRequired)

	_, err = New(Settings{
		EmergencyContact: contact,
		Thresholds:       fall.Thresholds{FreeFall: 20, Impact: 10},
	}, new(recordingSink))
	require.Error(t, err)
}

// TestIdle_IgnoresNonFreeFall keeps the engine idle for every magnitude at or above the free-fall threshold.
func TestIdle_IgnoresNonFreeFall(t *testing.T) {
	t.Parallel()

	e, sink := newTestEngine(t)
	base := time.Unix(0, 0)

	for i, magnitude := range []float64{4.2, 5, 9.81, 15, 15.1, 20, 25.1, 40} {
		tr := e.OnSample(context.Background(), sampleOf(base, time.Duration(i)*100*time.Millisecond, magnitude))
		require.False(t, tr.Changed(), "magnitude %v", magnitude)
		require.Equal(t, fall.PhaseIdle, tr.To)
	}

	require.Empty(t, sink.all())
	require.Equal(t, uint64(8), e.Snapshot().Samples)
}

// TestScenario_FreeFallThenImpact raises exactly one alert.
func TestScenario_FreeFallThenImpact(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		journal := new(memoryJournal)
		e, sink := newTestEngine(t, WithJournal(journal), WithIDGenerator(func() string { return "incident-1" }))
		base := time.Now()
		ctx := context.Background()

		tr := e.OnSample(ctx, sampleOf(base, 0, 2.0))
		require.Equal(t, fall.PhaseIdle, tr.From)
		require.Equal(t, fall.PhaseFreeFalling, tr.To)
		require.Equal(t, fall.MotionFreeFall, tr.Event)
		require.Equal(t, base, e.Snapshot().FallStart)

		tr = e.OnSample(ctx, sampleOf(base, 300*time.Millisecond, 20.0))
		require.Equal(t, fall.PhaseFreeFalling, tr.From)
		require.Equal(t, fall.PhaseAlertPending, tr.To)
		require.Equal(t, fall.MotionImpact, tr.Event)

		snapshot := e.Snapshot()
		require.Equal(t, base.Add(300*time.Millisecond), snapshot.AlertStart)
		require.True(t, snapshot.FallStart.IsZero())
		require.Equal(t, "incident-1", snapshot.IncidentID)

		// Further impacts while pending do not raise again.
		tr = e.OnSample(ctx, sampleOf(base, 400*time.Millisecond, 20.0))
		require.False(t, tr.Changed())

		speech := sink.of("speak")
		require.Len(t, speech, 1)
		require.Equal(t, notify.AlertMessage, speech[0].value)
		require.Equal(t, []string{"red"}, values(sink.of("indicator")))
		require.Equal(t, []fall.IncidentKind{fall.IncidentRaised}, journal.kinds())

		e.Reset(ctx)
	})
}

// TestScenario_WindowExpires returns to idle silently.
func TestScenario_WindowExpires(t *testing.T) {
	t.Parallel()

	e, sink := newTestEngine(t)
	base := time.Unix(100, 0)
	ctx := context.Background()

	e.OnSample(ctx, sampleOf(base, 0, 2.0))

	tr := e.OnSample(ctx, sampleOf(base, 1500*time.Millisecond, 3.0))
	require.Equal(t, fall.PhaseFreeFalling, tr.From)
	require.Equal(t, fall.PhaseIdle, tr.To)
	require.Empty(t, sink.all())

	// An impact after expiry is not a fall.
	tr = e.OnSample(ctx, sampleOf(base, 1600*time.Millisecond, 20.0))
	require.Equal(t, fall.PhaseIdle, tr.To)
	require.Empty(t, sink.all())
}

// TestFreeFall_FirstStartWins does not restart the window on later dips.
func TestFreeFall_FirstStartWins(t *testing.T) {
	t.Parallel()

	e, sink := newTestEngine(t)
	base := time.Unix(100, 0)
	ctx := context.Background()

	e.OnSample(ctx, sampleOf(base, 0, 2.0))
	e.OnSample(ctx, sampleOf(base, 800*time.Millisecond, 1.0))
	require.Equal(t, base, e.Snapshot().FallStart)

	// 1100 ms after the first dip: the window is gone even though the second dip was recent.
	tr := e.OnSample(ctx, sampleOf(base, 1100*time.Millisecond, 20.0))
	require.Equal(t, fall.PhaseIdle, tr.To)
	require.Empty(t, sink.all())
}

// TestFreeFall_WindowBoundary accepts an impact just inside the window and rejects one at it.
func TestFreeFall_WindowBoundary(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := time.Unix(100, 0)

	e, _ := newTestEngine(t)
	e.OnSample(ctx, sampleOf(base, 0, 2.0))
	tr := e.OnSample(ctx, sampleOf(base, 999*time.Millisecond, 16.0))
	require.Equal(t, fall.PhaseAlertPending, tr.To)
	e.Reset(ctx)

	e, _ = newTestEngine(t)
	e.OnSample(ctx, sampleOf(base, 0, 2.0))
	tr = e.OnSample(ctx, sampleOf(base, time.Second, 16.0))
	require.Equal(t, fall.PhaseIdle, tr.To)
}

// TestScenario_ShakeDebounce ignores an early shake and accepts a later one.
func TestScenario_ShakeDebounce(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		journal := new(memoryJournal)
		e, sink := newTestEngine(t, WithJournal(journal))
		ctx := context.Background()
		base := time.Now()

		e.OnSample(ctx, sampleOf(base, -300*time.Millisecond, 2.0))
		tr := e.OnSample(ctx, sampleOf(base, 0, 20.0))
		require.Equal(t, fall.PhaseAlertPending, tr.To)

		tr = e.OnSample(ctx, sampleOf(base, 500*time.Millisecond, 30.0))
		require.False(t, tr.Changed())
		require.Equal(t, fall.PhaseAlertPending, tr.To)

		tr = e.OnSample(ctx, sampleOf(base, 1200*time.Millisecond, 30.0))
		require.Equal(t, fall.PhaseAlertPending, tr.From)
		require.Equal(t, fall.PhaseIdle, tr.To)
		require.Equal(t, fall.MotionShake, tr.Event)

		time.Sleep(time.Minute)
		synctest.Wait()

		speech := sink.of("speak")
		require.Len(t, speech, 2)
		require.Equal(t, notify.AlertMessage, speech[0].value)
		require.Equal(t, notify.CancelMessage, speech[1].value)

		indicators := sink.of("indicator")
		require.Len(t, indicators, 2)
		require.Equal(t, "red", indicators[0].value)
		require.Equal(t, "green", indicators[1].value)

		require.Empty(t, sink.of("call"))
		require.Empty(t, sink.of("sms"))
		require.Equal(t, []fall.IncidentKind{fall.IncidentRaised, fall.IncidentCancelled}, journal.kinds())
	})
}

// TestShake_AtDebounceBoundary cancels once exactly the debounce has passed.
func TestShake_AtDebounceBoundary(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		e, _ := newTestEngine(t)
		ctx := context.Background()
		base := time.Now()

		e.OnSample(ctx, sampleOf(base, 0, 2.0))
		e.OnSample(ctx, sampleOf(base, 100*time.Millisecond, 20.0))

		// Impact-level but not shake-level readings never cancel.
		tr := e.OnSample(ctx, sampleOf(base, 3*time.Second, 20.0))
		require.Equal(t, fall.PhaseAlertPending, tr.To)

		tr = e.OnSample(ctx, sampleOf(base, 1100*time.Millisecond, 30.0))
		require.Equal(t, fall.PhaseIdle, tr.To)
	})
}

// TestEscalation_CallThenSMS fires the call at 10 s and the SMS at 20 s after the alert.
func TestEscalation_CallThenSMS(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		journal := new(memoryJournal)
		e, sink := newTestEngine(t, WithJournal(journal))
		ctx := context.Background()
		base := time.Now()

		e.OnSample(ctx, sampleOf(base, 0, 2.0))
		e.OnSample(ctx, sampleOf(base, 0, 20.0))
		require.Equal(t, fall.PhaseAlertPending, e.Snapshot().Phase)

		time.Sleep(25 * time.Second)
		synctest.Wait()

		calls := sink.of("call")
		require.Len(t, calls, 1)
		require.Equal(t, contact, calls[0].value)
		require.Equal(t, 10*time.Second, calls[0].at.Sub(base))

		sms := sink.of("sms")
		require.Len(t, sms, 1)
		require.Equal(t, contact+"|"+notify.SMSBody(nil), sms[0].value)
		require.Equal(t, 20*time.Second, sms[0].at.Sub(base))

		speech := sink.of("speak")
		require.Len(t, speech, 2)
		require.Equal(t, notify.CallMessage, speech[1].value)

		require.Equal(t, fall.PhaseIdle, e.Snapshot().Phase)
		require.Empty(t, sink.of("dialer"))
		require.Empty(t, sink.of("compose"))
		require.Equal(t, []fall.IncidentKind{
			fall.IncidentRaised,
			fall.IncidentCallPlaced,
			fall.IncidentSMSSent,
			fall.IncidentResolved,
		}, journal.kinds())

		// Cancelling after completion is a no-op.
		require.False(t, e.Cancel(ctx, SourceRemote))
	})
}

// TestEscalation_Fallbacks opens the dialer and composer when direct dispatch fails.
func TestEscalation_Fallbacks(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		sink := &recordingSink{callErr: errPermissionDenied, smsErr: errPermissionDenied}
		e, err := New(Settings{
			EmergencyContact: contact,
			Location:         &fall.Location{Latitude: 1.5, Longitude: -2.25},
		}, sink)
		require.NoError(t, err)

		ctx := context.Background()
		base := time.Now()

		e.OnSample(ctx, sampleOf(base, 0, 2.0))
		e.OnSample(ctx, sampleOf(base, 0, 20.0))

		time.Sleep(25 * time.Second)
		synctest.Wait()

		require.Len(t, sink.of("call"), 1)
		require.Equal(t, []string{contact}, values(sink.of("dialer")))
		require.Equal(t, []string{contact + "|" + notify.SMSBody(&fall.Location{Latitude: 1.5, Longitude: -2.25})},
			values(sink.of("compose")))
		require.Equal(t, fall.PhaseIdle, e.Snapshot().Phase)
	})
}

// TestEscalation_ShakeBetweenCallAndSMS lets the call through and stops the SMS.
func TestEscalation_ShakeBetweenCallAndSMS(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		e, sink := newTestEngine(t)
		ctx := context.Background()
		base := time.Now()

		e.OnSample(ctx, sampleOf(base, 0, 2.0))
		e.OnSample(ctx, sampleOf(base, 0, 20.0))

		time.Sleep(15 * time.Second)
		synctest.Wait()
		require.Len(t, sink.of("call"), 1)

		tr := e.OnSample(ctx, sampleOf(base, 15*time.Second, 30.0))
		require.Equal(t, fall.PhaseIdle, tr.To)

		time.Sleep(time.Minute)
		synctest.Wait()

		require.Empty(t, sink.of("sms"))
		require.Empty(t, sink.of("compose"))
	})
}

// TestCancel_Remote skips the debounce and is idempotent.
func TestCancel_Remote(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		journal := new(memoryJournal)
		e, sink := newTestEngine(t, WithJournal(journal))
		ctx := context.Background()
		base := time.Now()

		require.False(t, e.Cancel(ctx, SourceRemote))

		e.OnSample(ctx, sampleOf(base, 0, 2.0))
		e.OnSample(ctx, sampleOf(base, 0, 20.0))

		require.True(t, e.Cancel(ctx, SourceRemote))
		require.False(t, e.Cancel(ctx, SourceRemote))
		require.Equal(t, fall.PhaseIdle, e.Snapshot().Phase)

		time.Sleep(time.Minute)
		synctest.Wait()

		require.Empty(t, sink.of("call"))
		require.Equal(t, []fall.IncidentKind{fall.IncidentRaised, fall.IncidentCancelled}, journal.kinds())
	})
}

// TestOutOfOrderTimestamps treat negative gaps as "window not yet elapsed".
func TestOutOfOrderTimestamps(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		e, _ := newTestEngine(t)
		ctx := context.Background()
		base := time.Now()

		e.OnSample(ctx, sampleOf(base, time.Second, 2.0))

		// Earlier than the free-fall start: the window has not elapsed yet.
		tr := e.OnSample(ctx, sampleOf(base, 0, 5.0))
		require.Equal(t, fall.PhaseFreeFalling, tr.To)

		tr = e.OnSample(ctx, sampleOf(base, 500*time.Millisecond, 20.0))
		require.Equal(t, fall.PhaseAlertPending, tr.To)

		// A shake stamped before the alert is inside the debounce.
		tr = e.OnSample(ctx, sampleOf(base, -5*time.Second, 30.0))
		require.Equal(t, fall.PhaseAlertPending, tr.To)

		e.Reset(ctx)
		require.Equal(t, fall.Snapshot{}, e.Snapshot())
	})
}

// TestConcurrentSamplesAndCancels never places more than one call per alert.
func TestConcurrentSamplesAndCancels(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		e, sink := newTestEngine(t)
		ctx := context.Background()
		base := time.Now()

		e.OnSample(ctx, sampleOf(base, 0, 2.0))
		e.OnSample(ctx, sampleOf(base, 0, 20.0))

		var wg sync.WaitGroup

		for i := range 8 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				time.Sleep(time.Duration(i) * 2 * time.Second)
				e.Cancel(ctx, SourceRemote)
			}()
		}

		wg.Wait()
		time.Sleep(time.Minute)
		synctest.Wait()

		require.Empty(t, sink.of("call"))
		require.Len(t, sink.of("speak"), 2)
		require.Equal(t, fall.PhaseIdle, e.Snapshot().Phase)
	})
}

func values(effects []effect) []string {
	out := make([]string, 0, len(effects))
	for _, e := range effects {
		out = append(out, e.value)
	}

	return out
}

// TestCancel_EffectsFollowAlertEffects keeps the cancel announcement behind a slow alert announcement.
func TestCancel_EffectsFollowAlertEffects(t *testing.T) {
	t.Parallel()

	sink := &blockingSink{
		recordingSink: new(recordingSink),
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	journal := new(memoryJournal)

	e, err := New(Settings{EmergencyContact: contact}, sink, WithJournal(journal))
	require.NoError(t, err)

	ctx := context.Background()
	base := time.Now()

	e.OnSample(ctx, sampleOf(base, 0, 2.0))

	raised := make(chan struct{})

	go func() {
		defer close(raised)

		e.OnSample(ctx, sampleOf(base, 300*time.Millisecond, 20.0))
	}()

	// The alert is raised and its indicator is in flight.
	<-sink.entered

	require.True(t, e.Cancel(ctx, SourceRemote))
	require.Equal(t, fall.PhaseIdle, e.Snapshot().Phase)

	close(sink.release)
	<-raised

	require.Equal(t,
		[]string{"red", notify.AlertMessage, notify.CancelMessage, "green"},
		values(sink.all()))
	require.Equal(t, []fall.IncidentKind{fall.IncidentRaised, fall.IncidentCancelled}, journal.kinds())
	require.Empty(t, sink.of("call"))
}

// TestDeadlineEffectsQueueBehindCancel runs a cancel announced during a call after the call.
func TestDeadlineEffectsQueueBehindCancel(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		journal := new(memoryJournal)
		e, sink := newTestEngine(t, WithJournal(journal))
		ctx := context.Background()
		base := time.Now()

		e.OnSample(ctx, sampleOf(base, 0, 2.0))
		e.OnSample(ctx, sampleOf(base, 300*time.Millisecond, 20.0))

		time.Sleep(10 * time.Second)
		synctest.Wait()
		require.Len(t, sink.of("call"), 1)

		require.True(t, e.Cancel(ctx, SourceRemote))

		time.Sleep(time.Minute)
		synctest.Wait()

		require.Empty(t, sink.of("sms"))
		require.Equal(t, []fall.IncidentKind{
			fall.IncidentRaised,
			fall.IncidentCallPlaced,
			fall.IncidentCancelled,
		}, journal.kinds())
	})
}
