package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rcliao/agent-pipeline/internal/model"
)

func TestImportanceScore(t *testing.T) {
	long := strings.Repeat("x", 120)
	tests := []struct {
		name string
		p    model.Perception
		want float64
	}{
		{"text long enhanced", model.Perception{InputType: model.InputText, Content: long,
			Metadata: map[string]any{model.MetaEnhancedAnalysis: map[string]any{}}}, 1.0},
		{"image short", model.Perception{InputType: model.InputImage, Content: "0123456789"}, 0.7},
		{"text short", model.Perception{InputType: model.InputText, Content: "hi"}, 0.6},
		{"audio medium", model.Perception{InputType: model.InputAudio, Content: strings.Repeat("a", 60)}, 0.6},
		{"sensor long", model.Perception{InputType: model.InputSensor, Content: long}, 0.7},
		{"image long enhanced", model.Perception{InputType: model.InputImage, Content: long,
			Metadata: map[string]any{model.MetaEnhancedAnalysis: "x"}}, 1.0},
		{"exactly 100 chars", model.Perception{InputType: model.InputSensor, Content: strings.Repeat("a", 100)}, 0.6},
		{"multibyte counted as characters", model.Perception{InputType: model.InputSensor, Content: strings.Repeat("é", 60)}, 0.6},
	}
	for _, tt := range tests {
		got := ImportanceScore(tt.p)
		if got < 0 || got > 1 {
			t.Errorf("%s: score %v out of range", tt.name, got)
		}
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestRetrieve_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	mem, _ := s.Put(ctx, textPerception("alpha beta"))

	got := s.Retrieve(ctx, "beta", 5)
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if got[0].ID != mem.ID {
		t.Errorf("expected %s, got %s", mem.ID, got[0].ID)
	}
}

func TestRetrieve_CaseSensitive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Put(ctx, textPerception("Golang is fun"))

	if got := s.Retrieve(ctx, "golang", 5); len(got) != 0 {
		t.Fatalf("expected case-sensitive miss, got %d", len(got))
	}
	if got := s.Retrieve(ctx, "Golang", 5); len(got) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(got))
	}
}

func TestRetrieve_RankedAndLimited(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	long := " " + strings.Repeat("padding ", 20)
	s.Put(ctx, model.Perception{InputType: model.InputSensor, Content: "needle low"})                // 0.5
	s.Put(ctx, model.Perception{InputType: model.InputImage, Content: "needle image"})              // 0.7
	s.Put(ctx, model.Perception{InputType: model.InputText, Content: "needle text" + long,
		Metadata: map[string]any{model.MetaEnhancedAnalysis: map[string]any{}}})               // 1.0
	s.Put(ctx, model.Perception{InputType: model.InputText, Content: "needle plain"})               // 0.6
	s.Put(ctx, model.Perception{InputType: model.InputText, Content: "no match here"})

	got := s.Retrieve(ctx, "needle", 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	for i, m := range got {
		if !strings.Contains(m.Content, "needle") {
			t.Errorf("result %d does not contain query: %q", i, m.Content)
		}
		if i > 0 && got[i-1].ImportanceScore < m.ImportanceScore {
			t.Errorf("results not sorted by importance: %v then %v", got[i-1].ImportanceScore, m.ImportanceScore)
		}
	}
	if got[0].ImportanceScore != 1.0 {
		t.Errorf("expected top score 1.0, got %v", got[0].ImportanceScore)
	}
}

func TestRetrieve_TieBreakIsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, _ := s.Put(ctx, textPerception("tie one"))
	second, _ := s.Put(ctx, textPerception("tie two"))

	for i := 0; i < 3; i++ {
		got := s.Retrieve(ctx, "tie", 5)
		if len(got) != 2 || got[0].ID != first.ID || got[1].ID != second.ID {
			t.Fatalf("unstable order on attempt %d", i)
		}
	}
}

func TestRetrieve_DefaultLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < 8; i++ {
		s.Put(ctx, textPerception("repeated"))
	}
	if got := s.Retrieve(ctx, "repeated", 0); len(got) != DefaultRetrieveLimit {
		t.Fatalf("expected %d, got %d", DefaultRetrieveLimit, len(got))
	}
}

func TestRetrieve_UpdatesLastAccessed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	mem, _ := s.Put(ctx, textPerception("touch me"))
	time.Sleep(5 * time.Millisecond)

	before := time.Now()
	got := s.Retrieve(ctx, "touch", 5)
	if len(got) != 1 {
		t.Fatalf("expected 1, got %d", len(got))
	}
	if got[0].LastAccessed.Before(before) {
		t.Errorf("last_accessed %v before call time %v", got[0].LastAccessed, before)
	}

	stored, _ := s.Get(ctx, mem.ID)
	if !stored.LastAccessed.Equal(got[0].LastAccessed) {
		t.Errorf("last_accessed not persisted: %v != %v", stored.LastAccessed, got[0].LastAccessed)
	}
	if !stored.CreatedAt.Equal(mem.CreatedAt) {
		t.Error("created_at must not change on retrieval")
	}
}

func TestRetrieve_FailureYieldsEmpty(t *testing.T) {
	s := newTestStore(t)
	s.Close()

	got := s.Retrieve(context.Background(), "anything", 5)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", got)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	empty, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if empty.TotalMemories != 0 || empty.AverageImportance != nil || empty.OldestMemory != nil {
		t.Fatalf("expected empty aggregates, got %+v", empty)
	}

	s.Put(ctx, model.Perception{InputType: model.InputImage, Content: "a"}) // 0.7
	s.Put(ctx, model.Perception{InputType: model.InputText, Content: "b"})  // 0.6

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalMemories != 2 {
		t.Fatalf("expected 2, got %d", stats.TotalMemories)
	}
	if stats.AverageImportance == nil || *stats.AverageImportance < 0.649 || *stats.AverageImportance > 0.651 {
		t.Fatalf("expected average 0.65, got %v", stats.AverageImportance)
	}
	if stats.OldestMemory == nil || stats.NewestMemory == nil || stats.NewestMemory.Before(*stats.OldestMemory) {
		t.Fatalf("bad bounds: %v %v", stats.OldestMemory, stats.NewestMemory)
	}
	if stats.DBSizeBytes == 0 {
		t.Fatal("expected non-zero db size")
	}
}

func TestExportImport(t *testing.T) {
	dir := t.TempDir()
	s1, _ := NewSQLiteStore(filepath.Join(dir, "src.db"), nil)
	defer s1.Close()
	ctx := context.Background()

	s1.Put(ctx, textPerception("alpha"))
	s1.Put(ctx, textPerception("beta"))

	exported, err := s1.ExportAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(exported) != 2 {
		t.Fatalf("expected 2 exported, got %d", len(exported))
	}

	s2, _ := NewSQLiteStore(filepath.Join(dir, "dst.db"), nil)
	defer s2.Close()

	n, err := s2.Import(ctx, exported)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 imported, got %d", n)
	}

	// Same ids again are skipped
	n, err = s2.Import(ctx, exported)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("expected duplicates skipped, got %d", n)
	}

	got, err := s2.Get(ctx, exported[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "alpha" || got.ImportanceScore != exported[0].ImportanceScore {
		t.Errorf("import changed record: %+v", got)
	}
}

func TestStats_ActionRecordsErrorSurfaces(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.db.ExecContext(ctx, `DROP TABLE action_data`); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	if _, err := s.Stats(ctx); err == nil {
		t.Fatal("expected error when action_data cannot be counted")
	}
}
