package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"
)

// Stats holds database statistics.
type Stats struct {
	DBPath            string     `json:"db_path"`
	DBSizeBytes       int64      `json:"db_size_bytes"`
	TotalMemories     int        `json:"total_memories"`
	AverageImportance *float64   `json:"average_importance"`
	OldestMemory      *time.Time `json:"oldest_memory"`
	NewestMemory      *time.Time `json:"newest_memory"`
	ActionRecords     int        `json:"action_records"`
}

// Stats returns aggregate counts over the stored memories. Aggregates are nil
// for an empty store.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{DBPath: s.path}

	// DB file size
	if info, err := os.Stat(s.path); err == nil {
		st.DBSizeBytes = info.Size()
	}

	var avg sql.NullFloat64
	var oldest, newest sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), AVG(importance_score), MIN(created_at), MAX(created_at)
		FROM memories`).Scan(&st.TotalMemories, &avg, &oldest, &newest)
	if err != nil {
		return st, err
	}

	if avg.Valid {
		st.AverageImportance = &avg.Float64
	}
	if oldest.Valid {
		t, _ := time.Parse(timeLayout, oldest.String)
		st.OldestMemory = &t
	}
	if newest.Valid {
		t, _ := time.Parse(timeLayout, newest.String)
		st.NewestMemory = &t
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM action_data`).Scan(&st.ActionRecords); err != nil {
		return st, fmt.Errorf("count action records: %w", err)
	}

	return st, nil
}
