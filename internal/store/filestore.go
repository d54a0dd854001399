package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dyluth/drey/pkg/batch"
)

const indexFileName = "index.json"

// FileStore persists batches as one JSON file per batch under a directory,
// plus an index.json for the issue-to-batch index. Writes go through a
// temp-file-and-rename sequence so a crash mid-write never leaves a
// half-written record behind.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir, creating the directory
// if it does not exist.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory cannot be empty")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	return &FileStore{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) batchPath(id string) string {
	return filepath.Join(s.dir, "batch_"+id+".json")
}

// SaveBatch validates the batch, refreshes its UpdatedAt, and writes it to
// disk. Create-or-overwrite keyed by batch ID.
func (s *FileStore) SaveBatch(_ context.Context, b *batch.Batch) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("invalid batch: %w", err)
	}

	// Stamp before serializing so the record carries the write time
	b.Touch()

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize batch: %w", err)
	}

	if err := atomicWrite(s.batchPath(b.ID), data); err != nil {
		return fmt.Errorf("failed to write batch %s: %w", b.ID, err)
	}

	return nil
}

// GetBatch loads a batch by ID. Returns ErrNotFound if no record exists.
func (s *FileStore) GetBatch(_ context.Context, id string) (*batch.Batch, error) {
	data, err := os.ReadFile(s.batchPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("batch %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read batch %s: %w", id, err)
	}

	var b batch.Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to deserialize batch %s: %w", id, err)
	}

	return &b, nil
}

// ListBatches loads all batch records, most recently created first.
// Malformed records are skipped with a warning to stderr so one bad file
// cannot hide the rest of the store.
func (s *FileStore) ListBatches(_ context.Context) ([]*batch.Batch, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}

	var batches []*batch.Batch
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "batch_") || !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Skipping unreadable batch record %s: %v\n", name, err)
			continue
		}

		var b batch.Batch
		if err := json.Unmarshal(data, &b); err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Skipping malformed batch record %s: %v\n", name, err)
			continue
		}

		batches = append(batches, &b)
	}

	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].CreatedAt.After(batches[j].CreatedAt)
	})

	return batches, nil
}

// RemoveBatch deletes a batch record. Returns ErrNotFound if no record exists.
// Releasing the batch's issues from the index is the caller's responsibility;
// the engine releases first so a crash between the two steps can only leave
// an unclaimed record, never a claim without a record.
func (s *FileStore) RemoveBatch(_ context.Context, id string) error {
	err := os.Remove(s.batchPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("batch %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to remove batch %s: %w", id, err)
	}
	return nil
}

// LoadIndex reads the issue index from disk. A missing index file yields an
// empty index, so a fresh store starts cleanly.
func (s *FileStore) LoadIndex(_ context.Context) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return NewIndex(), nil
		}
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to deserialize index: %w", err)
	}
	if idx.IssueToBatch == nil {
		idx.IssueToBatch = make(map[int]string)
	}

	return &idx, nil
}

// SaveIndex stamps and writes the issue index to disk.
func (s *FileStore) SaveIndex(_ context.Context, idx *Index) error {
	idx.UpdatedAt = nowUTC()

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize index: %w", err)
	}

	if err := atomicWrite(filepath.Join(s.dir, indexFileName), data); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}

	return nil
}

// atomicWrite writes data to path via a temp file in the same directory
// followed by a rename, so readers never observe a partial file.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}

	return nil
}
