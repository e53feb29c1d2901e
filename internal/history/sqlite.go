package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ppiankov/verifica/internal/model"
)

const createTable = `
CREATE TABLE IF NOT EXISTS claim_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	query TEXT NOT NULL,
	result TEXT NOT NULL,
	summary TEXT NOT NULL,
	explanation TEXT NOT NULL DEFAULT '',
	citations TEXT NOT NULL DEFAULT '[]',
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_claim_history_timestamp ON claim_history(timestamp);
`

// SQLiteBackend persists history in a SQLite database file
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the history database at path and migrates
// older layouts in place
func OpenSQLite(ctx context.Context, path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	b := &SQLiteBackend{db: db, path: path}
	if err := b.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history database: %w", err)
	}

	return b, nil
}

// Path returns the database file path
func (b *SQLiteBackend) Path() string {
	return b.path
}

func (b *SQLiteBackend) migrate(ctx context.Context) error {
	columns, err := b.columns(ctx)
	if err != nil {
		return err
	}

	if len(columns) > 0 {
		// Early releases stored the verdict summary in a "status" column
		// and had no explanation.
		if columns["status"] && !columns["summary"] {
			if _, err := b.db.ExecContext(ctx, `ALTER TABLE claim_history RENAME COLUMN status TO summary`); err != nil {
				return fmt.Errorf("rename status column: %w", err)
			}
		}
		if !columns["explanation"] {
			if _, err := b.db.ExecContext(ctx, `ALTER TABLE claim_history ADD COLUMN explanation TEXT NOT NULL DEFAULT ''`); err != nil {
				return fmt.Errorf("add explanation column: %w", err)
			}
		}
	}

	if _, err := b.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) columns(ctx context.Context) (map[string]bool, error) {
	rows, err := b.db.QueryContext(ctx, `PRAGMA table_info(claim_history)`)
	if err != nil {
		return nil, fmt.Errorf("inspect schema: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan schema: %w", err)
		}
		columns[name] = true
	}
	return columns, rows.Err()
}

// Insert writes a record and returns its id
func (b *SQLiteBackend) Insert(ctx context.Context, result model.VerificationResult) (int64, error) {
	res, err := b.db.ExecContext(ctx,
		`INSERT INTO claim_history (query, result, summary, explanation, citations, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		result.Claim,
		string(result.Rating),
		result.Summary,
		result.Explanation,
		EncodeCitations(result.Citations),
		result.Timestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("insert history record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}
	return id, nil
}

// Get returns the record with the given id
func (b *SQLiteBackend) Get(ctx context.Context, id int64) (model.VerificationResult, error) {
	row := b.db.QueryRowContext(ctx,
		`SELECT id, query, result, summary, explanation, citations, timestamp FROM claim_history WHERE id = ?`, id)

	result, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.VerificationResult{}, ErrNotFound
	}
	if err != nil {
		return model.VerificationResult{}, fmt.Errorf("get history record: %w", err)
	}
	return result, nil
}

// List returns all records, newest first
func (b *SQLiteBackend) List(ctx context.Context) ([]model.VerificationResult, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT id, query, result, summary, explanation, citations, timestamp FROM claim_history ORDER BY timestamp DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	results := []model.VerificationResult{}
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return results, nil
}

// Delete removes a record; unknown ids are ignored
func (b *SQLiteBackend) Delete(ctx context.Context, id int64) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM claim_history WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete history record: %w", err)
	}
	return nil
}

// Clear removes all records
func (b *SQLiteBackend) Clear(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM claim_history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Close closes the database
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(s scanner) (model.VerificationResult, error) {
	var (
		r                               model.VerificationResult
		rating                          string
		summary, explanation, citations sql.NullString
	)
	if err := s.Scan(&r.ID, &r.Claim, &rating, &summary, &explanation, &citations, &r.Timestamp); err != nil {
		return model.VerificationResult{}, err
	}
	r.Rating = model.ParseRating(rating)
	r.Summary = summary.String
	r.Explanation = explanation.String
	r.Citations = DecodeCitations(citations.String)
	return r, nil
}
