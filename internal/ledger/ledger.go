// Package ledger records finished repositories in SQLite so an interrupted
// batch can resume where it stopped.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver.

	"github.com/Sumatoshi-tech/typocorpus/internal/batch"
)

const schema = `
CREATE TABLE IF NOT EXISTS repositories (
    url          TEXT PRIMARY KEY,
    status       TEXT NOT NULL,
    records      INTEGER NOT NULL,
    commits      INTEGER NOT NULL,
    error        TEXT,
    finished_at  INTEGER NOT NULL
);
`

// Entry is one stored repository result.
type Entry struct {
	URL        string
	Status     batch.Status
	Records    int
	Commits    int
	Error      string
	FinishedAt time.Time
}

// Ledger is a SQLite-backed batch.Ledger.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

var _ batch.Ledger = (*Ledger)(nil)

// Open opens or creates the ledger database at path.
func Open(path string) (*Ledger, error) {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	// Workers share one connection so writes never race for the lock.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(schema)
	if err != nil {
		closeErr := db.Close()

		return nil, errors.Join(fmt.Errorf("apply ledger schema: %w", err), closeErr)
	}

	return &Ledger{db: db, now: time.Now}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Done reports whether url finished with a final status in an earlier run.
func (l *Ledger) Done(ctx context.Context, url string) (bool, error) {
	var status string

	err := l.db.QueryRowContext(ctx, `SELECT status FROM repositories WHERE url = ?`, url).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("query %s: %w", url, err)
	}

	return batch.Status(status).Final(), nil
}

// Record stores the result, replacing an earlier one for the same url.
func (l *Ledger) Record(ctx context.Context, res batch.Result) error {
	var errText sql.NullString
	if res.Err != nil {
		errText = sql.NullString{String: res.Err.Error(), Valid: true}
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO repositories (url, status, records, commits, error, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			status = excluded.status,
			records = excluded.records,
			commits = excluded.commits,
			error = excluded.error,
			finished_at = excluded.finished_at`,
		res.URL, string(res.Status), res.Records, res.Commits, errText, l.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", res.URL, err)
	}

	return nil
}

// Entries returns all stored results ordered by url.
func (l *Ledger) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT url, status, records, commits, error, finished_at FROM repositories ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		var (
			e        Entry
			status   string
			errText  sql.NullString
			finished int64
		)

		err = rows.Scan(&e.URL, &status, &e.Records, &e.Commits, &errText, &finished)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		e.Status = batch.Status(status)
		e.Error = errText.String
		e.FinishedAt = time.Unix(finished, 0)
		entries = append(entries, e)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}
