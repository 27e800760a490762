package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rcliao/agent-pipeline/internal/model"
)

// ExportAll returns every stored memory in insertion order.
func (s *SQLiteStore) ExportAll(ctx context.Context) ([]model.Memory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, context, created_at, last_accessed, importance_score
		 FROM memories ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []model.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// Import stores memories from an export, keeping their ids and scores.
// Ids that already exist are skipped. Returns the number inserted.
func (s *SQLiteStore) Import(ctx context.Context, memories []model.Memory) (int, error) {
	if err := s.lock(ctx); err != nil {
		return 0, err
	}
	defer s.unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	imported := 0
	for _, m := range memories {
		if m.ID == "" {
			return 0, fmt.Errorf("import: memory without id")
		}
		if m.ImportanceScore < 0 || m.ImportanceScore > 1 {
			return 0, fmt.Errorf("import %s: importance %v out of range", m.ID, m.ImportanceScore)
		}
		ctxJSON, err := json.Marshal(m.Context)
		if err != nil {
			return 0, fmt.Errorf("encode context for %s: %w", m.ID, err)
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}
		if m.LastAccessed.IsZero() {
			m.LastAccessed = m.CreatedAt
		}
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO memories (id, content, context, created_at, last_accessed, importance_score)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, m.Content, string(ctxJSON),
			m.CreatedAt.UTC().Format(timeLayout), m.LastAccessed.UTC().Format(timeLayout), m.ImportanceScore)
		if err != nil {
			return 0, fmt.Errorf("import %s: %w", m.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			imported++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return imported, nil
}
