package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/agent-pipeline/internal/model"
)

// Search finds memories whose content contains the query (case-sensitive),
// ordered by importance descending with insertion order breaking ties, and
// stamps last_accessed on every hit. The read and the stamp happen in one
// transaction.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]model.Memory, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultRetrieveLimit
	}

	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, content, context, created_at, last_accessed, importance_score
		 FROM memories
		 WHERE instr(content, ?) > 0
		 ORDER BY importance_score DESC, rowid ASC
		 LIMIT ?`, p.Query, limit)
	if err != nil {
		return nil, err
	}

	var memories []model.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		memories = append(memories, m)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i := range memories {
		if _, err := tx.ExecContext(ctx,
			`UPDATE memories SET last_accessed = ? WHERE id = ?`,
			now.Format(timeLayout), memories[i].ID); err != nil {
			return nil, fmt.Errorf("update last_accessed: %w", err)
		}
		memories[i].LastAccessed = now
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return memories, nil
}

// Retrieve is Search with failures degraded to an empty result, so callers
// can always proceed without memories.
func (s *SQLiteStore) Retrieve(ctx context.Context, query string, limit int) []model.Memory {
	memories, err := s.Search(ctx, SearchParams{Query: query, Limit: limit})
	if err != nil {
		s.logger.Warn("memory retrieval failed, continuing without memories", zap.Error(err))
		return []model.Memory{}
	}
	if memories == nil {
		memories = []model.Memory{}
	}
	return memories
}
