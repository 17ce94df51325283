package incident

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/oshokin/fall-alarm/internal/domain/fall"
)

// DefaultListLimit caps List when no positive limit is given.
const DefaultListLimit = 50

// schemaSQL creates the journal tables.
//
//go:embed schema.sql
var schemaSQL string

// Repository defines journal operations.
type Repository interface {
	Append(ctx context.Context, event fall.IncidentEvent) error
	List(ctx context.Context, limit int) ([]fall.IncidentEvent, error)
}

// errIncidentIDRequired is returned for events without an incident ID.
var errIncidentIDRequired = errors.New("incident ID must be provided")

// SQLiteRepository stores incident events in SQLite.
type SQLiteRepository struct {
	// db is the open database handle.
	db *sql.DB
}

// Open opens (or creates) the journal database at path.
// Use ":memory:" for a throwaway journal.
func Open(ctx context.Context, path string) (*SQLiteRepository, error) {
	if path != ":memory:" {
		path = filepath.Clean(path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	// SQLite allows a single writer; one connection also keeps ":memory:" consistent.
	db.SetMaxOpenConns(1)

	if _, err = db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Append stores one event.
func (r *SQLiteRepository) Append(ctx context.Context, event fall.IncidentEvent) error {
	if event.IncidentID == "" {
		return errIncidentIDRequired
	}

	const query = `
		INSERT INTO incident_events (incident_id, kind, occurred_at_ns, detail)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		event.IncidentID,
		string(event.Kind),
		event.Timestamp.UnixNano(),
		event.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert incident event: %w", err)
	}

	return nil
}

// List returns up to limit events, newest first.
func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]fall.IncidentEvent, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	const query = `
		SELECT incident_id, kind, occurred_at_ns, detail
		FROM incident_events
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query incident events: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var events []fall.IncidentEvent

	for rows.Next() {
		var (
			event      fall.IncidentEvent
			kind       string
			occurredAt int64
		)

		if err = rows.Scan(&event.IncidentID, &kind, &occurredAt, &event.Detail); err != nil {
			return nil, fmt.Errorf("scan incident event: %w", err)
		}

		event.Kind = fall.IncidentKind(kind)
		event.Timestamp = time.Unix(0, occurredAt)
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incident events: %w", err)
	}

	return events, nil
}

// Close releases the database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
