package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/imgajeed76/pgrid/internal/util"
)

// FileStore keeps each snapshot in its own TOML file.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir, or the default data
// directory when dir is empty.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = filepath.Join(util.DataDir(), util.StateDir)
	}
	return &FileStore{dir: dir}
}

// Dir returns the directory holding the snapshot files.
func (st *FileStore) Dir() string {
	return st.dir
}

func (st *FileStore) path(key string) string {
	return filepath.Join(st.dir, key+".toml")
}

// Save writes s, replacing any snapshot with the same key.
func (st *FileStore) Save(_ context.Context, s Snapshot) error {
	if s.Key == "" {
		return errors.New("snapshot has no key")
	}
	if err := os.MkdirAll(st.dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(st.dir, s.Key+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(s); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), st.path(s.Key))
}

// Load reads the snapshot saved under key.
func (st *FileStore) Load(_ context.Context, key string) (Snapshot, error) {
	return readSnapshot(st.path(key))
}

func readSnapshot(path string) (Snapshot, error) {
	var s Snapshot
	if _, err := toml.DecodeFile(path, &s); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, util.ErrStateNotFound
		}
		return Snapshot{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := s.validate(); err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if s.Key == "" {
		s.Key = strings.TrimSuffix(filepath.Base(path), ".toml")
	}
	return s, nil
}

// List returns every readable snapshot, newest first. Unreadable files
// are skipped.
func (st *FileStore) List(_ context.Context) ([]Snapshot, error) {
	entries, err := os.ReadDir(st.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []Snapshot
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".toml" {
			continue
		}
		s, err := readSnapshot(filepath.Join(st.dir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out, nil
}

// Delete removes the snapshot saved under key.
func (st *FileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(st.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return util.ErrStateNotFound
	}
	return err
}

// Close is a no-op.
func (st *FileStore) Close() error { return nil }
