package store

import (
	"context"
	"fmt"
)

// TaskRecord is a persisted task row.
type TaskRecord struct {
	ID   uint32 `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// CellRecord is a persisted global cell snapshot.
type CellRecord struct {
	TaskID      uint32 `json:"task_id"`
	TypeID      uint32 `json:"type_id"`
	Index       uint32 `json:"cell_index"`
	ContentHash string `json:"content_hash"`
	Payload     []byte `json:"payload"`
}

// DepRecord is a persisted dependency edge.
type DepRecord struct {
	Src uint32 `json:"src"`
	Dst uint32 `json:"dst"`
}

// ReadTasks returns all persisted task records ordered by id.
// Returns an empty slice (not nil) when the store holds no tasks.
func (s *Store) ReadTasks(ctx context.Context) ([]TaskRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, key, name
		FROM tasks
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []TaskRecord{}
	for rows.Next() {
		var t TaskRecord
		if err := rows.Scan(&t.ID, &t.Key, &t.Name); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// ReadCells returns all cell snapshots for a task, ordered
// deterministically by (type_id, cell_index).
// Returns an empty slice (not nil) when the task has no cells.
func (s *Store) ReadCells(ctx context.Context, taskID uint32) ([]CellRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, type_id, cell_index, content_hash, payload
		FROM cells
		WHERE task_id = ?
		ORDER BY type_id ASC, cell_index ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query cells: %w", err)
	}
	defer rows.Close()

	cells := []CellRecord{}
	for rows.Next() {
		var c CellRecord
		if err := rows.Scan(&c.TaskID, &c.TypeID, &c.Index, &c.ContentHash, &c.Payload); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cells: %w", err)
	}
	return cells, nil
}

// ReadDeps returns all dependency edges ordered by (src, dst).
// Returns an empty slice (not nil) when no edges exist.
func (s *Store) ReadDeps(ctx context.Context) ([]DepRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT src, dst
		FROM deps
		ORDER BY src ASC, dst ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query deps: %w", err)
	}
	defer rows.Close()

	deps := []DepRecord{}
	for rows.Next() {
		var d DepRecord
		if err := rows.Scan(&d.Src, &d.Dst); err != nil {
			return nil, fmt.Errorf("scan dep: %w", err)
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deps: %w", err)
	}
	return deps, nil
}

// FindCellByHash returns the cells whose content hash matches, across
// all tasks. Used by inspect tooling to locate deduplicated values.
func (s *Store) FindCellByHash(ctx context.Context, hash string) ([]CellRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, type_id, cell_index, content_hash, payload
		FROM cells
		WHERE content_hash = ?
		ORDER BY task_id ASC, type_id ASC, cell_index ASC
	`, hash)
	if err != nil {
		return nil, fmt.Errorf("query cells by hash: %w", err)
	}
	defer rows.Close()

	cells := []CellRecord{}
	for rows.Next() {
		var c CellRecord
		if err := rows.Scan(&c.TaskID, &c.TypeID, &c.Index, &c.ContentHash, &c.Payload); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cells: %w", err)
	}
	return cells, nil
}
