package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/modi-core/internal/module"
	"github.com/nerrad567/modi-core/internal/property"
)

const timeFormat = time.RFC3339Nano

// Logger defines the logging interface used by this package.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// SQLiteRepository stores module records in the modules table.
type SQLiteRepository struct {
	db     *sql.DB
	logger Logger
}

// NewSQLiteRepository creates a repository over an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, logger: noopLogger{}}
}

// SetLogger sets the logger used for reconnect notices.
func (r *SQLiteRepository) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// Record upserts the announced module and marks it connected.
//
// A known UUID announced under a new bus ID counts as a reconnect. A module
// whose kind changed keeps its UUID row with the new kind.
func (r *SQLiteRepository) Record(ctx context.Context, ev module.Event) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	stamp := at.UTC().Format(timeFormat)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	var prevID int64
	err = tx.QueryRowContext(ctx, `SELECT bus_id FROM modules WHERE uuid = ?`, ev.Identity.UUID.String()).Scan(&prevID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO modules (uuid, bus_id, kind, first_seen, last_seen, connected, reconnects)
			VALUES (?, ?, ?, ?, ?, 1, 0)`,
			ev.Identity.UUID.String(), int64(ev.Identity.ID), string(ev.Kind), stamp, stamp,
		)
		if err != nil {
			return fmt.Errorf("inserting module: %w", err)
		}
	case err != nil:
		return fmt.Errorf("querying module: %w", err)
	default:
		moved := uint16(prevID) != ev.Identity.ID
		if moved {
			r.logger.Warn("module reconnected under a new id",
				"uuid", ev.Identity.UUID,
				"previous_id", prevID,
				"id", ev.Identity.ID,
			)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE modules
			SET bus_id = ?, kind = ?, last_seen = ?, connected = 1,
				reconnects = reconnects + ?
			WHERE uuid = ?`,
			int64(ev.Identity.ID), string(ev.Kind), stamp, boolToInt(moved), ev.Identity.UUID.String(),
		)
		if err != nil {
			return fmt.Errorf("updating module: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing module record: %w", err)
	}
	return nil
}

// MarkDetached flags the module as disconnected at the given time.
func (r *SQLiteRepository) MarkDetached(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE modules SET connected = 0, last_seen = ? WHERE uuid = ?`,
		at.UTC().Format(timeFormat), id.String(),
	)
	if err != nil {
		return fmt.Errorf("marking module detached: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Get returns the record for a module UUID.
func (r *SQLiteRepository) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := r.db.QueryRowContext(ctx, selectRecords+` WHERE uuid = ?`, id.String())
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying module by uuid: %w", err)
	}
	return rec, nil
}

// List returns every known module ordered by bus ID.
func (r *SQLiteRepository) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, selectRecords+` ORDER BY bus_id, uuid`)
	if err != nil {
		return nil, fmt.Errorf("querying modules: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning module: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating modules: %w", err)
	}
	return records, nil
}

// ResetConnected marks every module disconnected. The core calls it at
// startup since connectivity from a previous run is unknown.
func (r *SQLiteRepository) ResetConnected(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE modules SET connected = 0`); err != nil {
		return fmt.Errorf("resetting connected flags: %w", err)
	}
	return nil
}

const selectRecords = `
	SELECT uuid, bus_id, kind, first_seen, last_seen, connected, reconnects
	FROM modules`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(s rowScanner) (*Record, error) {
	var (
		rawUUID, kind, first, last string
		busID                      int64
		connected                  int
		rec                        Record
	)
	if err := s.Scan(&rawUUID, &busID, &kind, &first, &last, &connected, &rec.Reconnects); err != nil {
		return nil, err
	}

	var err error
	if rec.UUID, err = uuid.Parse(rawUUID); err != nil {
		return nil, fmt.Errorf("parsing uuid %q: %w", rawUUID, err)
	}
	if rec.FirstSeen, err = time.Parse(timeFormat, first); err != nil {
		return nil, fmt.Errorf("parsing first_seen: %w", err)
	}
	if rec.LastSeen, err = time.Parse(timeFormat, last); err != nil {
		return nil, fmt.Errorf("parsing last_seen: %w", err)
	}
	rec.BusID = uint16(busID) //nolint:gosec // Schema constrains bus_id to uint16
	rec.Kind = property.ModuleKind(kind)
	rec.Connected = connected == 1
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ module.Inventory = (*SQLiteRepository)(nil)
