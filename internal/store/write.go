package store

import (
	"context"
	"fmt"
)

// WriteTask inserts a task record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate ids are
// silently ignored. The key is the content-addressed memoization key of
// (name, canonical args); an empty key marks an unmemoized root task.
func (s *Store) WriteTask(ctx context.Context, id uint32, key, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, key, name)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`, id, key, name)
	if err != nil {
		return fmt.Errorf("write task: %w", err)
	}
	return nil
}

// WriteCell inserts a global cell snapshot.
// Uses ON CONFLICT(task_id, type_id, cell_index) DO NOTHING: a cell slot
// is written at most once, and replays of the same graph hit the
// conflict path.
//
// The payload is the canonical JSON serialization of the cell value and
// contentHash its domain-separated digest.
func (s *Store) WriteCell(ctx context.Context, taskID, typeID, index uint32, contentHash string, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cells (task_id, type_id, cell_index, content_hash, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(task_id, type_id, cell_index) DO NOTHING
	`, taskID, typeID, index, contentHash, payload)
	if err != nil {
		return fmt.Errorf("write cell: %w", err)
	}
	return nil
}

// WriteDep inserts a dependency edge from src to dst.
// Uses ON CONFLICT(src, dst) DO NOTHING for idempotency.
//
// Note: both endpoints must exist as task records (foreign key
// constraint), so callers write tasks before edges.
func (s *Store) WriteDep(ctx context.Context, src, dst uint32) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deps (src, dst)
		VALUES (?, ?)
		ON CONFLICT(src, dst) DO NOTHING
	`, src, dst)
	if err != nil {
		return fmt.Errorf("write dep: %w", err)
	}
	return nil
}
