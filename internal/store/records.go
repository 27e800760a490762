package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rcliao/agent-pipeline/internal/model"
)

// Record is a payload persisted by an action handler.
type Record struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

// PutRecord persists an action-data record.
func (s *SQLiteStore) PutRecord(ctx context.Context, kind string, payload map[string]any) (*Record, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	rec := &Record{
		ID:        model.NewID(),
		Kind:      kind,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.lock(ctx); err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	defer s.unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO action_data (id, kind, payload, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.Kind, string(b), rec.CreatedAt.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	return rec, nil
}

// Records returns the newest records of a kind. An empty kind matches all.
func (s *SQLiteStore) Records(ctx context.Context, kind string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, payload, created_at FROM action_data
		 WHERE (? = '' OR kind = ?)
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, kind, kind, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		var payload, createdAt string
		if err := rows.Scan(&r.ID, &r.Kind, &payload, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		if err := json.Unmarshal([]byte(payload), &r.Payload); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", r.ID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
