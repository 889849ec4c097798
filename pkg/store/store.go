//Package store persists classified repetitions through sqlx, on postgres (lib/pq) or sqlite (modernc)
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chenBenjamin97/squat-checker/pkg/segment"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"
)

//ErrUnknownDriver is returned by Open for drivers other than postgres and sqlite
var ErrUnknownDriver = errors.New("store: unknown driver")

//Record is one stored repetition
type Record struct {
	ID         string  `db:"id" json:"id"`
	SessionID  string  `db:"session_id" json:"session_id"`
	Index      int     `db:"rep_index" json:"index"`
	Class      int     `db:"class" json:"prediction"`
	Label      string  `db:"label" json:"label"`
	Confidence float64 `db:"confidence" json:"confidence"`
	Frames     int     `db:"frames" json:"frames"`
	//Sequence is the JSON encoded feature sequence
	Sequence  string `db:"sequence" json:"-"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
}

//FeatureSequence decodes the stored sequence
func (r Record) FeatureSequence() (segment.FeatureSequence, error) {
	var seq segment.FeatureSequence
	if err := json.Unmarshal([]byte(r.Sequence), &seq); err != nil {
		return nil, fmt.Errorf("store: Could not decode sequence of '%s', got '%w'", r.ID, err)
	}
	return seq, nil
}

const schema = `
	CREATE TABLE IF NOT EXISTS repetitions (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		rep_index INTEGER NOT NULL,
		class INTEGER NOT NULL,
		label TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		frames INTEGER NOT NULL,
		sequence TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`

const sessionIndex = `CREATE INDEX IF NOT EXISTS repetitions_session_idx ON repetitions (session_id, rep_index)`

//Repository reads and writes the repetitions table
type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

//Open connects to the database and returns a repository over it; call Migrate before first use
func Open(ctx context.Context, driver, dsn string) (*Repository, error) {
	if driver != DriverPostgres && driver != DriverSqlite {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownDriver, driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: Could not open %s, got '%w'", driver, err)
	}

	if driver == DriverSqlite {
		//a single connection keeps ":memory:" databases alive and serializes writers
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: Could not connect to %s, got '%w'", driver, err)
	}

	return NewRepository(db), nil
}

//NewRepository wraps an existing connection
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

//Migrate creates the repetitions table and its index when missing
func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range []string{schema, sessionIndex} {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: Migrate failed, got '%w'", err)
		}
	}
	return nil
}

//SaveRepetition inserts rec, filling its id and creation time when empty, and returns the stored record
func (r *Repository) SaveRepetition(ctx context.Context, rec Record, seq segment.FeatureSequence) (Record, error) {
	data, err := json.Marshal(seq)
	if err != nil {
		return rec, fmt.Errorf("store: failed to marshal sequence: %w", err)
	}
	rec.Sequence = string(data)

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = r.now().UnixMilli()
	}

	query := r.db.Rebind(`
		INSERT INTO repetitions (
			id, session_id, rep_index, class, label, confidence, frames, sequence, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.SessionID, rec.Index, rec.Class, rec.Label, rec.Confidence, rec.Frames, rec.Sequence, rec.CreatedAt,
	)
	if err != nil {
		return rec, fmt.Errorf("store: failed to save repetition %d of session '%s': %w", rec.Index, rec.SessionID, err)
	}
	return rec, nil
}

//ListRepetitions returns the repetitions of a session in order, all sessions (newest first) when session is
//empty. limit <= 0 means no limit.
func (r *Repository) ListRepetitions(ctx context.Context, session string, limit int) ([]Record, error) {
	query := `SELECT id, session_id, rep_index, class, label, confidence, frames, sequence, created_at FROM repetitions`
	args := make([]interface{}, 0, 2)

	if session != "" {
		query += ` WHERE session_id = ? ORDER BY rep_index`
		args = append(args, session)
	} else {
		query += ` ORDER BY created_at DESC, rep_index DESC`
	}

	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	records := make([]Record, 0)
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("store: failed to list repetitions: %w", err)
	}
	return records, nil
}

//CountGood returns how many repetitions of a session were classified with goodClass
func (r *Repository) CountGood(ctx context.Context, session string, goodClass int) (int, error) {
	var n int
	query := r.db.Rebind(`SELECT COUNT(*) FROM repetitions WHERE session_id = ? AND class = ?`)
	if err := r.db.GetContext(ctx, &n, query, session, goodClass); err != nil {
		return 0, fmt.Errorf("store: failed to count repetitions: %w", err)
	}
	return n, nil
}

//Close closes the underlying connection
func (r *Repository) Close() error {
	return r.db.Close()
}
