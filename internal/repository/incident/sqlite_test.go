package incident

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/fall-alarm/internal/domain/fall"
)

// openTemp opens a journal in a temporary directory.
func openTemp(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = repo.Close()
	})

	return repo
}

// TestRepository_AppendList returns events newest first with fields intact.
func TestRepository_AppendList(t *testing.T) {
	t.Parallel()

	repo := openTemp(t)
	ctx := context.Background()
	ts := time.Now().UTC().Truncate(time.Millisecond)

	kinds := []fall.IncidentKind{fall.IncidentRaised, fall.IncidentCallFallback, fall.IncidentResolved}
	for i, kind := range kinds {
		require.NoError(t, repo.Append(ctx, fall.IncidentEvent{
			IncidentID: "incident-1",
			Kind:       kind,
			Timestamp:  ts.Add(time.Duration(i) * time.Second),
			Detail:     string(kind) + "-detail",
		}))
	}

	events, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, fall.IncidentResolved, events[0].Kind)
	require.Equal(t, fall.IncidentRaised, events[2].Kind)
	require.Equal(t, "incident-1", events[1].IncidentID)
	require.Equal(t, "call_fallback-detail", events[1].Detail)
	require.True(t, ts.Equal(events[2].Timestamp))

	events, err = repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

// TestRepository_Validation rejects events without an incident ID.
func TestRepository_Validation(t *testing.T) {
	t.Parallel()

	repo := openTemp(t)

	err := repo.Append(context.Background(), fall.IncidentEvent{Kind: fall.IncidentRaised})
	require.ErrorIs(t, err, errIncidentIDRequired)
}

// TestRepository_Reopen keeps events across restarts.
func TestRepository_Reopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	repo, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, fall.IncidentEvent{IncidentID: "a", Kind: fall.IncidentRaised, Timestamp: time.Now()}))
	require.NoError(t, repo.Close())

	repo, err = Open(ctx, path)
	require.NoError(t, err)

	defer func() {
		_ = repo.Close()
	}()

	events, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

// TestRepository_Memory works without a file.
func TestRepository_Memory(t *testing.T) {
	t.Parallel()

	repo, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)

	defer func() {
		_ = repo.Close()
	}()

	events, err := repo.List(context.Background(), 5)
	require.NoError(t, err)
	require.Empty(t, events)
}
