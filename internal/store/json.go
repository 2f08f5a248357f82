package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/dgallion1/tutorkb/internal/knowledge"
)

const (
	MaterialsFile = "materials.json"
	FragmentsFile = "knowledge_base.json"
	// MetaFile holds the highest fragment ID ever issued.
	MetaFile = "meta.json"
)

type storeMeta struct {
	LastFragmentID int64 `json:"lastFragmentId"`
}

// JSONStore keeps both collections in memory and rewrites the matching
// human-readable JSON array file on every mutation. Writes are atomic
// renames, but there is no cross-process locking: concurrent writers in
// separate processes can lose data. The ID high-water mark lives in
// meta.json so IDs stay unique after records vanish from the fragments file.
type JSONStore struct {
	mu        sync.Mutex
	dir       string
	log       *slog.Logger
	materials []knowledge.Material
	fragments []knowledge.Fragment
	lastID    int64
}

// OpenJSON loads the store from dir, creating the directory and empty
// files if missing. Unreadable or corrupt files load as empty collections.
func OpenJSON(dir string, log *slog.Logger) (*JSONStore, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &knowledge.PersistenceError{Op: "create data dir", Err: err}
	}

	s := &JSONStore{dir: dir, log: log}
	for _, name := range []string{MaterialsFile, FragmentsFile} {
		if err := ensureFile(filepath.Join(dir, name)); err != nil {
			return nil, &knowledge.PersistenceError{Op: "init " + name, Err: err}
		}
	}

	s.materials = readJSON[knowledge.Material](s.path(MaterialsFile), log)
	s.fragments = readJSON[knowledge.Fragment](s.path(FragmentsFile), log)
	s.lastID = readMeta(s.path(MetaFile), log).LastFragmentID
	for _, f := range s.fragments {
		s.lastID = max(s.lastID, f.ID)
	}
	return s, nil
}

func (s *JSONStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *JSONStore) AddMaterial(ctx context.Context, m knowledge.Material) (knowledge.Material, error) {
	m = prepareMaterial(m)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(slices.Clip(s.materials), m)
	if err := writeJSON(s.path(MaterialsFile), next); err != nil {
		return knowledge.Material{}, &knowledge.PersistenceError{Op: "write materials", Err: err}
	}
	s.materials = next
	return m, nil
}

func (s *JSONStore) AddFragments(ctx context.Context, frags []knowledge.Fragment) ([]knowledge.Fragment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := make([]knowledge.Fragment, len(frags))
	id := s.lastID
	for i, f := range frags {
		id++
		f.ID = id
		added[i] = f
	}

	// The mark goes first. A crash between the two writes burns IDs but
	// never reissues one.
	if id > s.lastID {
		if err := writeMeta(s.path(MetaFile), storeMeta{LastFragmentID: id}); err != nil {
			return nil, &knowledge.PersistenceError{Op: "write meta", Err: err}
		}
		s.lastID = id
	}

	next := append(slices.Clip(s.fragments), added...)
	if err := writeJSON(s.path(FragmentsFile), next); err != nil {
		return nil, &knowledge.PersistenceError{Op: "write fragments", Err: err}
	}
	s.fragments = next
	return added, nil
}

func (s *JSONStore) Fragments(ctx context.Context) ([]knowledge.Fragment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.fragments), nil
}

func (s *JSONStore) ListAll(ctx context.Context) (knowledge.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return knowledge.Snapshot{
		Materials:     nonNil(slices.Clone(s.materials)),
		KnowledgeBase: nonNil(slices.Clone(s.fragments)),
	}, nil
}

// Close is a no-op; every mutation is already on disk.
func (s *JSONStore) Close() error {
	return nil
}

func ensureFile(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader([]byte("[]")))
}

func readJSON[T any](path string, log *slog.Logger) []T {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("read store file failed, starting empty", "path", path, "error", err)
		return nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		log.Warn("store file is corrupt, starting empty", "path", path, "error", err)
		return nil
	}
	return out
}

// readMeta returns the stored mark. A missing file is a fresh store; a
// corrupt one falls back to the IDs on disk.
func readMeta(path string, log *slog.Logger) storeMeta {
	var meta storeMeta
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn("read store meta failed", "path", path, "error", err)
		}
		return meta
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		log.Warn("store meta is corrupt, using ids on disk", "path", path, "error", err)
		return storeMeta{}
	}
	return meta
}

func writeMeta(path string, meta storeMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}

func writeJSON[T any](path string, records []T) error {
	data, err := json.MarshalIndent(nonNil(records), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
