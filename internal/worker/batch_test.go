package worker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/neurolocus/internal/model"
)

type mockAnalyzer struct {
	calls int32
	delay time.Duration
}

func (m *mockAnalyzer) Analyze(ctx context.Context, subject, text string) *model.Report {
	atomic.AddInt32(&m.calls, 1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	res := model.NewParsedResult()
	if strings.Contains(text, "ptosis") {
		res.CranialNerves = append(res.CranialNerves, model.NerveFinding{CN: "CN III", Finding: model.Finding{Name: "Oculomotor"}})
	}
	return &model.Report{Subject: subject, Input: text, Result: res}
}

func writeNotes(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_ProcessNotes_Order(t *testing.T) {
	analyzer := &mockAnalyzer{delay: time.Millisecond}
	processor := NewBatchProcessor(analyzer, 3, 0, 0)

	notes := []string{"left ptosis", "right hemiparesis", "vertigo", "ptosis and diplopia", "dysarthria"}
	results := processor.ProcessNotes(context.Background(), notes)

	if len(results) != len(notes) {
		t.Fatalf("expected %d results, got %d", len(notes), len(results))
	}
	for i, res := range results {
		if res.Index != i || res.Note != notes[i] {
			t.Errorf("result %d out of order: index %d note %q", i, res.Index, res.Note)
		}
		if res.Error != nil {
			t.Errorf("unexpected error for note %d: %v", i, res.Error)
		}
		if res.Report == nil || res.Report.Subject != res.Subject {
			t.Errorf("expected report with subject %s", res.Subject)
		}
	}
	if results[0].Subject != "note-1" {
		t.Errorf("expected subject note-1, got %s", results[0].Subject)
	}
	if got := len(results[3].Report.Result.CranialNerves); got != 1 {
		t.Errorf("expected 1 nerve finding for note 4, got %d", got)
	}
	if atomic.LoadInt32(&analyzer.calls) != int32(len(notes)) {
		t.Errorf("expected %d analyzer calls, got %d", len(notes), analyzer.calls)
	}
}

func TestBatchProcessor_ProcessNotes_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{}, 2, 0, 0)

	results := processor.ProcessNotes(context.Background(), nil)
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil results, got %v", results)
	}
}

func TestBatchProcessor_ProcessNotes_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&mockAnalyzer{}, 2, 0, 0)
	notes := []string{"a", "b", "c"}
	results := processor.ProcessNotes(ctx, notes)

	if len(results) != len(notes) {
		t.Fatalf("expected a result per note, got %d", len(results))
	}
	for i, res := range results {
		if res.Index != i {
			t.Errorf("expected index %d, got %d", i, res.Index)
		}
		if res.Error == nil {
			t.Errorf("expected error for note %d in cancelled batch", i)
		}
		if res.GetError() != res.Error {
			t.Error("GetError must return Error")
		}
	}
}

func TestBatchProcessor_RateLimited(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{}, 2, 1000, 10)
	if processor.limiter == nil {
		t.Fatal("expected limiter for positive rate")
	}

	results := processor.ProcessNotes(context.Background(), []string{"a", "b"})
	for _, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error: %v", res.Error)
		}
	}
}

func TestReadNotes(t *testing.T) {
	content := "left ptosis\n# comment\n\n   \nright hemiparesis   \nleft ptosis\n"

	notes, err := ReadNotes(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ReadNotes failed: %v", err)
	}

	expected := []string{"left ptosis", "right hemiparesis"}
	if len(notes) != len(expected) {
		t.Fatalf("expected %d notes, got %d: %v", len(expected), len(notes), notes)
	}
	for i, n := range notes {
		if n != expected[i] {
			t.Errorf("expected %q at %d, got %q", expected[i], i, n)
		}
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeNotes(t, "left ptosis\nright facial weakness\n# comment\n\nvertigo\n")

	processor := NewBatchProcessor(&mockAnalyzer{}, 2, 0, 0)
	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{}, 2, 0, 0)

	if _, err := processor.ProcessFile(context.Background(), "no_such_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}
