package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const recordExt = ".json"

// FSStore implements Store with one JSON file per runtime:
// <baseDir>/<runtimeID>.json
type FSStore struct {
	baseDir string
}

// NewFSStore creates a filesystem store, creating baseDir if needed.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &FSStore{baseDir: baseDir}, nil
}

func (fs *FSStore) recordPath(runtimeID string) string {
	return filepath.Join(fs.baseDir, runtimeID+recordExt)
}

// Save writes to a temp file and renames it into place.
func (fs *FSStore) Save(record *Record) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if record.RuntimeID == "" {
		return fmt.Errorf("runtimeID cannot be empty")
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	finalPath := fs.recordPath(record.RuntimeID)
	tempPath := finalPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp report file: %w", err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename report file: %w", err)
	}

	slog.Debug("Report saved", "runtime", record.RuntimeID, "path", finalPath)
	return nil
}

// Load retrieves the record for the given runtime ID.
func (fs *FSStore) Load(runtimeID string) (*Record, error) {
	if runtimeID == "" {
		return nil, fmt.Errorf("runtimeID cannot be empty")
	}

	data, err := os.ReadFile(fs.recordPath(runtimeID))
	if os.IsNotExist(err) {
		return nil, &NotFoundError{RuntimeID: runtimeID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to deserialize report: %w", err)
	}
	return &record, nil
}

// List returns summaries of all stored records, oldest first. Unreadable
// records are skipped.
func (fs *FSStore) List() ([]Info, error) {
	entries, err := os.ReadDir(fs.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read report directory: %w", err)
	}

	infos := []Info{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, recordExt) {
			continue
		}

		record, err := fs.Load(strings.TrimSuffix(name, recordExt))
		if err != nil {
			slog.Warn("Failed to load report for listing", "file", name, "error", err)
			continue
		}
		infos = append(infos, record.ToInfo())
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Timestamp.Before(infos[j].Timestamp)
	})
	return infos, nil
}

// Delete removes the record for the given runtime ID.
func (fs *FSStore) Delete(runtimeID string) error {
	if runtimeID == "" {
		return fmt.Errorf("runtimeID cannot be empty")
	}

	err := os.Remove(fs.recordPath(runtimeID))
	if os.IsNotExist(err) {
		return &NotFoundError{RuntimeID: runtimeID}
	} else if err != nil {
		return fmt.Errorf("failed to remove report file: %w", err)
	}

	slog.Debug("Report deleted", "runtime", runtimeID)
	return nil
}
