package persist

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
)

const gobVersion = 1

var (
	ErrCacheVersion = errors.New("unsupported cache file version")
)

type gobFile struct {
	Version int
	Records []Record
}

type gobStore struct {
	path string
}

func (g *gobStore) Load() ([]Record, error) {
	f, err := os.Open(g.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var contents gobFile
	if err := gob.NewDecoder(bufio.NewReader(f)).Decode(&contents); err != nil {
		return nil, err
	}
	if contents.Version != gobVersion {
		return nil, fmt.Errorf("%w: %d", ErrCacheVersion, contents.Version)
	}
	return contents.Records, nil
}

// Save writes to a temporary file and renames it into place.
func (g *gobStore) Save(records []Record) error {
	tmpPath := g.path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	err = gob.NewEncoder(w).Encode(gobFile{Version: gobVersion, Records: records})
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, g.path)
}

func (g *gobStore) Close() error {
	return nil
}
