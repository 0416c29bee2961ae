// Package agent implements the reader-side delivery pipeline: scans are
// journaled to a durable on-disk queue before any network attempt, sent
// synchronously when possible, and swept for retry in the background. Because
// every item carries its idempotency key, redelivery is always safe.
package agent

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tapband-wallet/internal/domain/shared"
)

const queueFileSuffix = ".json"

// FileQueue persists pending scans as one JSON file per item, named by the
// scan's idempotency key. Items are removed only after the server has
// acknowledged them or permanently rejected them, so a crash at any point
// leaves the scan on disk for the next sweep.
type FileQueue struct {
	dir    string
	logger *slog.Logger
}

// NewFileQueue creates a durable queue backed by the given directory,
// creating it if necessary.
func NewFileQueue(logger *slog.Logger, dir string) (*FileQueue, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create queue directory %s: %w", dir, err)
	}
	return &FileQueue{
		dir:    dir,
		logger: logger,
	}, nil
}

// Put journals a scan to disk. The write goes through a temp file and a
// rename so a crash mid-write never leaves a truncated item behind.
func (q *FileQueue) Put(req *shared.ScanRequest) error {
	if req.IdempotencyKey == "" {
		return fmt.Errorf("cannot enqueue scan without idempotency key: %w", shared.ErrValidation)
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal scan %s: %w", req.IdempotencyKey, err)
	}

	final := q.path(req.IdempotencyKey)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write queue item %s: %w", req.IdempotencyKey, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("failed to commit queue item %s: %w", req.IdempotencyKey, err)
	}

	q.logger.Debug("Scan journaled to delivery queue",
		"idempotency_key", req.IdempotencyKey,
		"uid", req.TokenUID,
	)
	return nil
}

// Remove deletes an acknowledged item. A missing file is not an error; a
// concurrent sweep may have already removed it.
func (q *FileQueue) Remove(idempotencyKey string) error {
	err := os.Remove(q.path(idempotencyKey))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove queue item %s: %w", idempotencyKey, err)
	}
	return nil
}

// Pending returns all journaled scans, oldest first. Items that fail to
// decode are skipped and logged rather than blocking the rest of the queue.
func (q *FileQueue) Pending() ([]*shared.ScanRequest, error) {
	entries, err := os.ReadDir(q.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read queue directory %s: %w", q.dir, err)
	}

	names := make([]string, 0, len(entries))
	modTimes := make(map[string]int64, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), queueFileSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		names = append(names, entry.Name())
		modTimes[entry.Name()] = info.ModTime().UnixNano()
	}
	sort.Slice(names, func(i, j int) bool {
		return modTimes[names[i]] < modTimes[names[j]]
	})

	items := make([]*shared.ScanRequest, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(q.dir, name))
		if err != nil {
			q.logger.Warn("Failed to read queue item", "file", name, "error", err)
			continue
		}
		var req shared.ScanRequest
		if err := json.Unmarshal(data, &req); err != nil {
			q.logger.Warn("Skipping undecodable queue item", "file", name, "error", err)
			continue
		}
		items = append(items, &req)
	}
	return items, nil
}

// Len reports the number of journaled items
func (q *FileQueue) Len() (int, error) {
	entries, err := os.ReadDir(q.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read queue directory %s: %w", q.dir, err)
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), queueFileSuffix) {
			count++
		}
	}
	return count, nil
}

func (q *FileQueue) path(idempotencyKey string) string {
	return filepath.Join(q.dir, idempotencyKey+queueFileSuffix)
}
