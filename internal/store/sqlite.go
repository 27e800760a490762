package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	_ "modernc.org/sqlite"

	"github.com/rcliao/agent-pipeline/internal/model"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *zap.Logger

	// sem is a one-slot write lock. Retrieval writes last_accessed, so it
	// takes sem too. Waiters give up when their context ends.
	sem *semaphore.Weighted
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db, path: dbPath, logger: logger, sem: semaphore.NewWeighted(1)}
	if err := s.Init(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// Init creates the schema. It is idempotent and already run by NewSQLiteStore.
func (s *SQLiteStore) Init(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id               TEXT PRIMARY KEY,
		content          TEXT NOT NULL,
		context          TEXT NOT NULL,
		created_at       TEXT NOT NULL,
		last_accessed    TEXT NOT NULL,
		importance_score REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_memories_importance ON memories(importance_score DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at);

	CREATE TABLE IF NOT EXISTS action_data (
		id         TEXT PRIMARY KEY,
		kind       TEXT NOT NULL,
		payload    TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_action_data_kind ON action_data(kind, created_at DESC);
	`
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Put creates and stores a new memory from a perception.
func (s *SQLiteStore) Put(ctx context.Context, p model.Perception) (*model.Memory, error) {
	now := time.Now().UTC()
	mem := &model.Memory{
		ID:      model.NewID(),
		Content: p.Content,
		Context: map[string]any{
			model.ContextPerceptionType:   string(p.InputType),
			model.ContextOriginalMetadata: model.CloneMap(p.Metadata),
		},
		CreatedAt:       now,
		LastAccessed:    now,
		ImportanceScore: ImportanceScore(p),
	}

	contextJSON, err := json.Marshal(mem.Context)
	if err != nil {
		return nil, fmt.Errorf("encode context: %w", err)
	}

	if err := s.lock(ctx); err != nil {
		return nil, fmt.Errorf("insert memory: %w", err)
	}
	defer s.unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO memories (id, content, context, created_at, last_accessed, importance_score)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		mem.ID, mem.Content, string(contextJSON),
		now.Format(timeLayout), now.Format(timeLayout), mem.ImportanceScore)
	if err != nil {
		return nil, fmt.Errorf("insert memory: %w", err)
	}

	s.logger.Debug("stored memory",
		zap.String("id", mem.ID),
		zap.Float64("importance", mem.ImportanceScore))
	return mem, nil
}

// Get returns a memory by id without touching last_accessed.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Memory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, content, context, created_at, last_accessed, importance_score
		 FROM memories WHERE id = ?`, id)
	m, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns the newest memories first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]model.Memory, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, context, created_at, last_accessed, importance_score
		 FROM memories ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
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

// Cleanup deletes memories created more than days ago and returns how many
// were removed.
func (s *SQLiteStore) Cleanup(ctx context.Context, days int) (int64, error) {
	if days < 0 {
		return 0, fmt.Errorf("invalid retention: %d days", days)
	}
	cutoff := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour).Format(timeLayout)

	if err := s.lock(ctx); err != nil {
		return 0, fmt.Errorf("cleanup: %w", err)
	}
	defer s.unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup: %w", err)
	}
	n, _ := res.RowsAffected()
	s.logger.Info("retention sweep", zap.Int("days", days), zap.Int64("deleted", n))
	return n, nil
}

// lock acquires the write lock or fails with ctx's error.
func (s *SQLiteStore) lock(ctx context.Context) error {
	return s.sem.Acquire(ctx, 1)
}

func (s *SQLiteStore) unlock() { s.sem.Release(1) }

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMemory(row scanner) (model.Memory, error) {
	var m model.Memory
	var contextJSON, createdAt, lastAccessed string

	err := row.Scan(&m.ID, &m.Content, &contextJSON, &createdAt, &lastAccessed, &m.ImportanceScore)
	if err != nil {
		return m, err
	}

	m.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	m.LastAccessed, _ = time.Parse(timeLayout, lastAccessed)
	if err := json.Unmarshal([]byte(contextJSON), &m.Context); err != nil {
		return m, fmt.Errorf("decode context for %s: %w", m.ID, err)
	}

	return m, nil
}
