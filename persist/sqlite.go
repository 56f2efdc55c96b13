package persist

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS subtrees (
	candidates TEXT PRIMARY KEY,
	best_guess TEXT NOT NULL,
	total_guesses INTEGER NOT NULL,
	histogram TEXT NOT NULL
);`

type sqliteStore struct {
	db *sql.DB
}

func openSQLite(path string) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	s := &sqliteStore{db: db}
	if err := s.withRetry(func() error {
		_, err := db.Exec(schema)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func isBusy(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	code := serr.Code() & 0xff
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}

// withRetry retries while another process holds the database lock.
func (s *sqliteStore) withRetry(f func() error) error {
	return retry.Do(f,
		retry.Attempts(5),
		retry.Delay(50*time.Millisecond),
		retry.RetryIf(isBusy),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("n", n).Msg("sqlite-busy-try-again")
		}),
	)
}

func formatHistogram(h []int) string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}

func parseHistogram(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	h := make([]int, len(parts))
	for i, p := range parts {
		c, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		h[i] = c
	}
	return h, nil
}

func (s *sqliteStore) Load() ([]Record, error) {
	rows, err := s.db.Query(`SELECT candidates, best_guess, total_guesses, histogram FROM subtrees`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []Record
	for rows.Next() {
		var key, hist string
		var r Record
		if err := rows.Scan(&key, &r.BestGuess, &r.TotalGuesses, &hist); err != nil {
			return nil, err
		}
		r.Candidates = strings.Split(key, ",")
		if r.Histogram, err = parseHistogram(hist); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *sqliteStore) Save(records []Record) error {
	return s.withRetry(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()
		if _, err := tx.Exec(`DELETE FROM subtrees`); err != nil {
			return err
		}
		stmt, err := tx.Prepare(`INSERT OR REPLACE INTO subtrees
			(candidates, best_guess, total_guesses, histogram) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range records {
			if _, err := stmt.Exec(r.Key(), r.BestGuess, r.TotalGuesses, formatHistogram(r.Histogram)); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
