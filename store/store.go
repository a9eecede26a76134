// Package store persists exported records under the
// export-root/branch/module directory convention: one aggregate file per
// module, plus one file per record for schema-bearing modules, so that a
// later import can consume records independently.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/contentstack/cli-query-export/types"
)

// lockRetryInterval paces lock acquisition attempts on the export root.
const lockRetryInterval = 250 * time.Millisecond

// Store writes and reads exported records for one run.
type Store struct {
	root string
	log  *slog.Logger
	lock *flock.Flock
}

// New returns a Store rooted at cfg.ExportDir/cfg.Branch.
func New(cfg types.Config, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	root := filepath.Join(cfg.ExportDir, cfg.Branch)
	return &Store{
		root: root,
		log:  log,
		lock: flock.New(filepath.Join(cfg.ExportDir, ".export.lock")),
	}
}

// Root returns the branch-scoped destination directory.
func (s *Store) Root() string { return s.root }

// Acquire takes the export-root lock, retrying until ctx is done. Two
// concurrent runs into the same directory would corrupt batch merges.
func (s *Store) Acquire(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.lock.Path()), 0755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	locked, err := s.lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("locking export directory: %w", err)
	}
	if !locked {
		return fmt.Errorf("export directory %s is locked by another run", filepath.Dir(s.lock.Path()))
	}
	return nil
}

// Release drops the export-root lock.
func (s *Store) Release() error { return s.lock.Unlock() }

// ModuleDir returns the directory for m, creating it if needed.
func (s *Store) ModuleDir(m types.Module) (string, error) {
	dir := filepath.Join(s.root, types.Modules[m].DirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating module directory %s: %w", dir, err)
	}
	return dir, nil
}

// WriteModuleFile writes the aggregate file for m.
func (s *Store) WriteModuleFile(m types.Module, v interface{}) error {
	dir, err := s.ModuleDir(m)
	if err != nil {
		return err
	}
	return writeJSONAtomic(filepath.Join(dir, types.Modules[m].FileName), v)
}

// ReadModuleFile reads the aggregate file for m into v. A missing file
// yields os.ErrNotExist.
func (s *Store) ReadModuleFile(m types.Module, v interface{}) error {
	path := filepath.Join(s.root, types.Modules[m].DirName, types.Modules[m].FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// WriteRecordFile writes one record file for a module that keeps
// per-record files.
func (s *Store) WriteRecordFile(m types.Module, uid string, v interface{}) error {
	dir, err := s.ModuleDir(m)
	if err != nil {
		return err
	}
	return writeJSONAtomic(filepath.Join(dir, uid+".json"), v)
}

// SaveContentTypes persists a fetched batch: one file per content type
// plus an updated aggregate keyed by UID. The resolver relies on this
// running before the next extraction pass reads the batch back, so a
// crash mid-loop loses no already-fetched data.
func (s *Store) SaveContentTypes(cts []types.ContentType) error {
	aggregate := make(map[string]json.RawMessage)
	if err := s.ReadModuleFile(types.ModuleContentTypes, &aggregate); err != nil && !os.IsNotExist(err) {
		return err
	}

	for _, ct := range cts {
		raw := ct.Raw
		if raw == nil {
			data, err := json.Marshal(ct)
			if err != nil {
				return fmt.Errorf("marshaling content type %s: %w", ct.UID, err)
			}
			raw = data
		}
		if err := s.WriteRecordFile(types.ModuleContentTypes, ct.UID, json.RawMessage(raw)); err != nil {
			return err
		}
		aggregate[ct.UID] = raw
	}
	return s.WriteModuleFile(types.ModuleContentTypes, aggregate)
}

// LoadContentTypes reads previously saved content types back from their
// per-record files.
func (s *Store) LoadContentTypes(uids []string) ([]types.ContentType, error) {
	dir := filepath.Join(s.root, types.Modules[types.ModuleContentTypes].DirName)
	out := make([]types.ContentType, 0, len(uids))
	for _, uid := range uids {
		path := filepath.Join(dir, uid+".json")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading content type %s: %w", uid, err)
		}
		var ct types.ContentType
		if err := json.Unmarshal(data, &ct); err != nil {
			return nil, fmt.Errorf("parsing content type %s: %w", uid, err)
		}
		ct.Raw = data
		out = append(out, ct)
	}
	return out, nil
}

// WriteEntries writes the entries exported for one content type.
func (s *Store) WriteEntries(contentTypeUID string, entries map[string]json.RawMessage) error {
	dir, err := s.ModuleDir(types.ModuleEntries)
	if err != nil {
		return err
	}
	return writeJSONAtomic(filepath.Join(dir, contentTypeUID+".json"), entries)
}

// EntriesDir returns the directory holding exported entries.
func (s *Store) EntriesDir() string {
	return filepath.Join(s.root, types.Modules[types.ModuleEntries].DirName)
}

// writeJSONAtomic writes v as indented JSON through a temporary staging
// file swapped in by rename, so readers never observe a torn file.
func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}
