package exam

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dreamclass/examengine/internal/api"
	"github.com/dreamclass/examengine/internal/quiz"
)

func submitterCatalog() *quiz.Catalog {
	return &quiz.Catalog{Subjects: []quiz.Subject{{
		ID:   "quiz-server-id",
		Name: "Physics",
		Chapters: []quiz.Chapter{{
			ID:   "c1",
			Name: "Motion",
			Questions: []quiz.Question{
				{ID: "srv-q1", LocalID: 1, Options: []string{"opt1", "opt2"}, Correct: "A"},
				{ID: "srv-q2", LocalID: 2, Options: []string{"opt1", "opt2"}, Correct: "B"},
			},
		}},
	}}}
}

type capturedSubmit struct {
	QuizID  string
	Answers []api.Answer
}

func TestSubmitResult(t *testing.T) {
	var (
		mu       sync.Mutex
		submits  []capturedSubmit
		currency map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.Method == http.MethodPost:
			var body struct {
				Answers []api.Answer `json:"answers"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode submit body: %v", err)
			}
			submits = append(submits, capturedSubmit{
				QuizID:  r.URL.Path,
				Answers: body.Answers,
			})
			w.Write([]byte(`{"message":"ok","data":{"score":5,"correctCount":1,"totalQuestions":2}}`))
		case r.Method == http.MethodPut:
			currency = map[string]any{"path": r.URL.Path}
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode currency body: %v", err)
			}
			for k, v := range body {
				currency[k] = v
			}
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, "tok", nil)
	sub := NewSubmitter(client, submitterCatalog(), "player9", "secret")

	result := &Result{
		GoldEarned:   70,
		PointsEarned: 35,
		Sections: []SectionResult{{
			Type: SectionQuiz, Name: "Theory",
			SubjectIndex: 0, ChapterIndex: 0,
			Questions: []quiz.Result{
				{LocalID: 1, Selected: "opt2", IsCorrect: false},
				{LocalID: 2, Selected: "opt2", IsCorrect: true},
			},
		}},
	}

	if err := sub.SubmitResult(context.Background(), result); err != nil {
		t.Fatalf("SubmitResult: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if len(submits) != 1 {
		t.Fatalf("submit calls = %d, want 1", len(submits))
	}
	if submits[0].QuizID != "/api/quizzes/quiz-server-id/submit" {
		t.Errorf("submit path = %q", submits[0].QuizID)
	}
	answers := submits[0].Answers
	if len(answers) != 2 {
		t.Fatalf("answers = %d, want 2", len(answers))
	}
	if answers[0].QuestionID != "srv-q1" || answers[0].SelectedOption != "B" {
		t.Errorf("answers[0] = %+v, want server id srv-q1 with letter key B", answers[0])
	}
	if answers[1].QuestionID != "srv-q2" || answers[1].SelectedOption != "B" {
		t.Errorf("answers[1] = %+v, want server id srv-q2 with letter key B", answers[1])
	}

	if currency == nil {
		t.Fatal("currency was not pushed")
	}
	if currency["path"] != "/api/players/test/currency/player9" {
		t.Errorf("currency path = %v", currency["path"])
	}
	if currency["key"] != "secret" || currency["gold"] != float64(70) || currency["points"] != float64(35) {
		t.Errorf("currency body = %v", currency)
	}
}

func TestSubmitResultLocalRun(t *testing.T) {
	var posts, puts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			posts++
		case http.MethodPut:
			puts++
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, "tok", nil)

	// No catalog: the exam ran against the local bank, so there is
	// nothing to grade remotely, but rewards still go out.
	sub := NewSubmitter(client, nil, "player9", "secret")
	result := &Result{
		GoldEarned: 10,
		Sections: []SectionResult{{
			Type:      SectionQuiz,
			Questions: []quiz.Result{{LocalID: 1, Selected: "opt1"}},
		}},
	}

	if err := sub.SubmitResult(context.Background(), result); err != nil {
		t.Fatalf("SubmitResult: %v", err)
	}
	if posts != 0 {
		t.Errorf("answer submissions = %d, want 0 for a local run", posts)
	}
	if puts != 1 {
		t.Errorf("currency pushes = %d, want 1", puts)
	}
}

func TestSubmitResultFailureDoesNotMutateResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, "tok", nil)
	sub := NewSubmitter(client, submitterCatalog(), "player9", "secret")

	result := &Result{
		TotalScore: 7,
		Passed:     true,
		Sections: []SectionResult{{
			Type: SectionQuiz,
			Questions: []quiz.Result{
				{LocalID: 1, Selected: "opt1", IsCorrect: true},
			},
		}},
	}

	if err := sub.SubmitResult(context.Background(), result); err == nil {
		t.Fatal("SubmitResult against failing server succeeded")
	}
	if result.TotalScore != 7 || !result.Passed {
		t.Errorf("result mutated by failed submission: %+v", result)
	}
}
