// Package ledger is the durable, append-style log of every metadata change
// proposed and applied. It is the only state that outlives a run.
package ledger

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/brettwatson77/autoPLEX/internal/models"
)

//go:embed schema.sql
var schema string

// Ledger wraps the SQLite change log. Single writer, single process; WAL
// plus SQLite's transactional append is all the locking this needs.
type Ledger struct {
	db *sql.DB
}

// Open creates or opens the ledger file and applies the schema.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

// Record appends a change with status pending, durably, before the
// corresponding server call runs (write-ahead). Fills in ID, Status and
// Timestamp on the passed change.
func (l *Ledger) Record(ch *models.FieldChange) error {
	ch.Status = models.StatusPending
	ch.Timestamp = time.Now().UTC()

	res, err := l.db.Exec(`
		INSERT INTO changes (rating_key, field, old_value, new_value, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ch.ServerID, ch.Field, ch.OldValue, ch.NewValue, string(ch.Status),
		ch.Timestamp.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("recording change for track %s field %s: %w", ch.ServerID, ch.Field, err)
	}
	ch.ID, err = res.LastInsertId()
	return err
}

// transition moves one row out of pending. The status guard makes applied
// and failed rows immutable no matter what later runs do.
func (l *Ledger) transition(id int64, status models.ChangeStatus, errMsg string) error {
	res, err := l.db.Exec(
		`UPDATE changes SET status = ?, error = ? WHERE id = ? AND status = 'pending'`,
		string(status), errMsg, id)
	if err != nil {
		return fmt.Errorf("marking change %d %s: %w", id, status, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("change %d is not pending, refusing to overwrite its outcome", id)
	}
	return nil
}

// MarkApplied records a successful server update.
func (l *Ledger) MarkApplied(id int64) error {
	return l.transition(id, models.StatusApplied, "")
}

// MarkFailed records a rejected or timed-out server update with the error
// detail. The run continues; nothing is swallowed.
func (l *Ledger) MarkFailed(id int64, errMsg string) error {
	return l.transition(id, models.StatusFailed, errMsg)
}

// MarkSkipped records an operator-declined proposal. The row stays as a
// record of what was proposed.
func (l *Ledger) MarkSkipped(id int64) error {
	return l.transition(id, models.StatusSkipped, "")
}

// Query returns the full change history for one server record, newest last.
func (l *Ledger) Query(ratingKey string) ([]models.FieldChange, error) {
	rows, err := l.db.Query(`
		SELECT id, rating_key, field, old_value, new_value, status, COALESCE(error, ''), created_at
		FROM changes WHERE rating_key = ? ORDER BY id`, ratingKey)
	if err != nil {
		return nil, fmt.Errorf("querying ledger for %s: %w", ratingKey, err)
	}
	defer rows.Close()
	return scanChanges(rows)
}

// ResumeState returns, per (server record, field), the most recently
// applied new value. The engine skips a proposed change only when the
// applied value still equals the current reference value.
func (l *Ledger) ResumeState() (map[models.AppliedKey]string, error) {
	rows, err := l.db.Query(`
		SELECT rating_key, field, new_value FROM changes
		WHERE status = 'applied' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("loading resume state: %w", err)
	}
	defer rows.Close()

	state := make(map[models.AppliedKey]string)
	for rows.Next() {
		var key models.AppliedKey
		var value string
		if err := rows.Scan(&key.ServerID, &key.Field, &value); err != nil {
			return nil, err
		}
		state[key] = value // later rows win
	}
	return state, rows.Err()
}

// Stats summarizes the ledger for the interactive stats view.
type Stats struct {
	TotalChanges  int
	TracksChanged int
	ByField       map[string]int
	ByStatus      map[string]int
}

func (l *Ledger) Stats() (Stats, error) {
	s := Stats{ByField: make(map[string]int), ByStatus: make(map[string]int)}

	if err := l.db.QueryRow(`SELECT COUNT(*), COUNT(DISTINCT rating_key) FROM changes`).
		Scan(&s.TotalChanges, &s.TracksChanged); err != nil {
		return s, fmt.Errorf("reading ledger stats: %w", err)
	}

	rows, err := l.db.Query(`SELECT field, COUNT(*) FROM changes GROUP BY field`)
	if err != nil {
		return s, err
	}
	defer rows.Close()
	for rows.Next() {
		var field string
		var n int
		if err := rows.Scan(&field, &n); err != nil {
			return s, err
		}
		s.ByField[field] = n
	}
	if err := rows.Err(); err != nil {
		return s, err
	}

	statusRows, err := l.db.Query(`SELECT status, COUNT(*) FROM changes GROUP BY status`)
	if err != nil {
		return s, err
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var status string
		var n int
		if err := statusRows.Scan(&status, &n); err != nil {
			return s, err
		}
		s.ByStatus[status] = n
	}
	return s, statusRows.Err()
}

func scanChanges(rows *sql.Rows) ([]models.FieldChange, error) {
	var changes []models.FieldChange
	for rows.Next() {
		var ch models.FieldChange
		var status, created string
		if err := rows.Scan(&ch.ID, &ch.ServerID, &ch.Field, &ch.OldValue,
			&ch.NewValue, &status, &ch.Error, &created); err != nil {
			return nil, err
		}
		ch.Status = models.ChangeStatus(status)
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			ch.Timestamp = ts
		}
		changes = append(changes, ch)
	}
	return changes, rows.Err()
}
