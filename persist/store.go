package persist

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sethoscope/wordle-brute/lexicon"
	"github.com/sethoscope/wordle-brute/subtree"
)

// Store is a cache file.
type Store interface {
	Load() ([]Record, error)
	// Save replaces the stored records.
	Save(records []Record) error
	Close() error
}

// Open picks a store by extension: SQLite for .db and .sqlite, gob for
// anything else.
func Open(path string) (Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return openSQLite(path)
	default:
		return &gobStore{path: path}, nil
	}
}

// LoadFiles reads and merges cache files. A missing file is only worth a
// warning; anything else unreadable is an error.
func LoadFiles(lex *lexicon.Lexicon, paths []string) ([]subtree.Record, error) {
	var all []subtree.Record
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("path", path).Msg("cache-file-not-found")
			continue
		}
		tstart := time.Now()
		st, err := Open(path)
		if err != nil {
			return nil, err
		}
		records, err := st.Load()
		st.Close()
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		converted, skipped := FromRecords(lex, records)
		all = append(all, converted...)
		log.Info().Str("path", path).Int("num-records", len(converted)).
			Int("skipped", skipped).
			Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
			Msg("cache-file-loaded")
	}
	return all, nil
}

// LoadTable reads cache files into a new table meant to serve as a
// read-only base layer.
func LoadTable(lex *lexicon.Lexicon, paths []string, hash func([]uint16) uint64, policy subtree.Policy) (*subtree.Table, error) {
	records, err := LoadFiles(lex, paths)
	if err != nil {
		return nil, err
	}
	t := subtree.NewTable(policy, nil)
	t.Load(records, hash)
	return t, nil
}

// SaveFile writes table records to path, replacing its contents.
func SaveFile(lex *lexicon.Lexicon, path string, records []subtree.Record) error {
	st, err := Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Save(ToRecords(lex, records)); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("num-records", len(records)).Msg("cache-file-saved")
	return nil
}
