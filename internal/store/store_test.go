package store

import (
	"context"
	"testing"

	"github.com/dreamclass/examengine/internal/quiz"
	"github.com/dreamclass/examengine/internal/sync"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here. It is tested with file-based DBs.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.Snapshots()
	ctx := context.Background()

	// No snapshot yet.
	snap, err := repo.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snap != nil {
		t.Fatalf("LoadSnapshot on empty store = %+v, want nil", snap)
	}

	want := &sync.Snapshot{Subjects: []sync.SubjectSnapshot{
		{
			ID: "s1", Name: "Physics", Grade: "10",
			Chapters: []sync.ChapterSnapshot{
				{ID: "c1", Name: "Motion", QuestionCount: 5},
				{ID: "c2", Name: "Energy", QuestionCount: 3},
			},
		},
		{
			ID: "s2", Name: "Math", Grade: "11",
			Chapters: []sync.ChapterSnapshot{
				{ID: "c3", Name: "Algebra", QuestionCount: 4},
			},
		},
	}}

	if err := repo.SaveSnapshot(ctx, want); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, err := repo.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if got == nil {
		t.Fatal("LoadSnapshot after save = nil")
	}
	if len(got.Subjects) != 2 {
		t.Fatalf("subjects = %d, want 2", len(got.Subjects))
	}
	if got.Subjects[0].ID != "s1" || got.Subjects[1].ID != "s2" {
		t.Errorf("subject order = %s, %s; want s1, s2", got.Subjects[0].ID, got.Subjects[1].ID)
	}
	if len(got.Subjects[0].Chapters) != 2 {
		t.Fatalf("s1 chapters = %d, want 2", len(got.Subjects[0].Chapters))
	}
	if ch := got.Subjects[0].Chapters[1]; ch.ID != "c2" || ch.QuestionCount != 3 {
		t.Errorf("s1 chapter[1] = %+v, want c2 with 3 questions", ch)
	}
}

func TestSnapshotSaveReplacesWholesale(t *testing.T) {
	s := openTestStore(t)
	repo := s.Snapshots()
	ctx := context.Background()

	first := &sync.Snapshot{Subjects: []sync.SubjectSnapshot{
		{ID: "s1", Name: "Physics", Chapters: []sync.ChapterSnapshot{{ID: "c1", Name: "Motion", QuestionCount: 5}}},
	}}
	if err := repo.SaveSnapshot(ctx, first); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	second := &sync.Snapshot{Subjects: []sync.SubjectSnapshot{
		{ID: "s2", Name: "Math", Chapters: []sync.ChapterSnapshot{{ID: "c2", Name: "Algebra", QuestionCount: 4}}},
	}}
	if err := repo.SaveSnapshot(ctx, second); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, err := repo.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if len(got.Subjects) != 1 || got.Subjects[0].ID != "s2" {
		t.Errorf("snapshot after replace = %+v, want only s2", got.Subjects)
	}
}

func TestBankImportAndServe(t *testing.T) {
	s := openTestStore(t)
	bank := s.Bank()
	ctx := context.Background()

	questions := []quiz.Question{
		{LocalID: 1, Text: "What is velocity?", Options: []string{"Speed with direction", "Distance"}, Correct: "A"},
		{LocalID: 2, Text: "Unit of force?", Options: []string{"Newton", "Joule", "Watt"}, Correct: "Newton"},
		{LocalID: 3, Text: "", Options: []string{"a", "b"}, Correct: "A"},        // no text
		{LocalID: 4, Text: "One option?", Options: []string{"only"}, Correct: "A"}, // too few options
	}

	imported, err := bank.Import(ctx, 0, 0, questions)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if imported != 2 {
		t.Errorf("imported = %d, want 2 (malformed records skipped)", imported)
	}

	total, err := bank.TotalQuestions(0, 0)
	if err != nil {
		t.Fatalf("TotalQuestions: %v", err)
	}
	if total != 2 {
		t.Errorf("TotalQuestions = %d, want 2", total)
	}

	q, err := bank.Question(0, 0, 2)
	if err != nil {
		t.Fatalf("Question: %v", err)
	}
	if q.Text != "Unit of force?" || len(q.Options) != 3 || q.Correct != "Newton" {
		t.Errorf("Question(0,0,2) = %+v", q)
	}

	if _, err := bank.Question(0, 0, 99); err == nil {
		t.Error("Question with unknown local id succeeded, want error")
	}
}

func TestBankImportReplacesSameLocalID(t *testing.T) {
	s := openTestStore(t)
	bank := s.Bank()
	ctx := context.Background()

	if _, err := bank.Import(ctx, 0, 0, []quiz.Question{
		{LocalID: 1, Text: "old", Options: []string{"a", "b"}, Correct: "A"},
	}); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if _, err := bank.Import(ctx, 0, 0, []quiz.Question{
		{LocalID: 1, Text: "new", Options: []string{"a", "b"}, Correct: "B"},
	}); err != nil {
		t.Fatalf("Import: %v", err)
	}

	total, err := bank.TotalQuestions(0, 0)
	if err != nil {
		t.Fatalf("TotalQuestions: %v", err)
	}
	if total != 1 {
		t.Errorf("TotalQuestions = %d, want 1", total)
	}

	q, err := bank.Question(0, 0, 1)
	if err != nil {
		t.Fatalf("Question: %v", err)
	}
	if q.Text != "new" {
		t.Errorf("Text = %q, want %q", q.Text, "new")
	}
}

func TestBankImportDropsRemovedQuestions(t *testing.T) {
	s := openTestStore(t)
	bank := s.Bank()
	ctx := context.Background()

	if _, err := bank.Import(ctx, 0, 0, []quiz.Question{
		{LocalID: 1, Text: "q1", Options: []string{"a", "b"}, Correct: "A"},
		{LocalID: 2, Text: "q2", Options: []string{"a", "b"}, Correct: "A"},
		{LocalID: 3, Text: "q3", Options: []string{"a", "b"}, Correct: "A"},
	}); err != nil {
		t.Fatalf("Import: %v", err)
	}

	// The chapter shrank upstream; re-importing must drop local id 3.
	if _, err := bank.Import(ctx, 0, 0, []quiz.Question{
		{LocalID: 1, Text: "q1", Options: []string{"a", "b"}, Correct: "A"},
		{LocalID: 2, Text: "q2", Options: []string{"a", "b"}, Correct: "A"},
	}); err != nil {
		t.Fatalf("Import: %v", err)
	}

	total, err := bank.TotalQuestions(0, 0)
	if err != nil {
		t.Fatalf("TotalQuestions: %v", err)
	}
	if total != 2 {
		t.Errorf("TotalQuestions = %d, want 2", total)
	}
	if _, err := bank.Question(0, 0, 3); err == nil {
		t.Error("Question(0,0,3) succeeded after the chapter shrank, want error")
	}
}

func TestBankMatchesSnapshot(t *testing.T) {
	s := openTestStore(t)
	bank := s.Bank()
	ctx := context.Background()

	if _, err := bank.Import(ctx, 0, 0, []quiz.Question{
		{LocalID: 1, Text: "q1", Options: []string{"a", "b"}, Correct: "A"},
		{LocalID: 2, Text: "q2", Options: []string{"a", "b"}, Correct: "A"},
	}); err != nil {
		t.Fatalf("Import: %v", err)
	}

	snapshot := func(count int, extra ...sync.ChapterSnapshot) *sync.Snapshot {
		chapters := append([]sync.ChapterSnapshot{
			{ID: "c1", Name: "Motion", QuestionCount: count},
		}, extra...)
		return &sync.Snapshot{Subjects: []sync.SubjectSnapshot{
			{ID: "s1", Name: "Physics", Chapters: chapters},
		}}
	}

	tests := []struct {
		name string
		snap *sync.Snapshot
		want bool
	}{
		{"counts agree", snapshot(2), true},
		{"bank behind snapshot", snapshot(3), false},
		{"bank ahead of snapshot", snapshot(1), false},
		{"chapter missing from bank", snapshot(2, sync.ChapterSnapshot{ID: "c2", Name: "Energy", QuestionCount: 4}), false},
		{"no snapshot adopted", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bank.MatchesSnapshot(ctx, tt.snap)
			if err != nil {
				t.Fatalf("MatchesSnapshot: %v", err)
			}
			if got != tt.want {
				t.Errorf("MatchesSnapshot = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBankRunsQuizSession(t *testing.T) {
	s := openTestStore(t)
	bank := s.Bank()

	if _, err := bank.Import(context.Background(), 0, 0, []quiz.Question{
		{LocalID: 1, Text: "q1", Options: []string{"a", "b"}, Correct: "A"},
		{LocalID: 2, Text: "q2", Options: []string{"a", "b"}, Correct: "B"},
	}); err != nil {
		t.Fatalf("Import: %v", err)
	}

	session := quiz.NewSession(nil)
	if err := session.Start(bank, 0, 0, 0, false); err != nil {
		t.Fatalf("Start against bank: %v", err)
	}

	correct, err := session.Answer("a")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !correct {
		t.Error("Answer(\"a\") = false, want true")
	}
}
