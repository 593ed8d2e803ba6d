package quiz

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Mode selects the session's boundary and notification behavior.
// Practice mode is free-roam: navigation wraps circularly and completion
// reports a final score. Exam mode is forward-biased: per-answer events
// fire, forward motion past the end emits a completion notification, and
// backward motion clamps at the first question.
type Mode int

const (
	ModePractice Mode = iota
	ModeExam
)

var (
	// ErrNotConfigured indicates no question source is bound.
	ErrNotConfigured = errors.New("no question source configured")

	// ErrNotReady indicates the source is still loading its data.
	ErrNotReady = errors.New("question source not ready")

	// ErrEmptySource indicates the chapter has zero questions.
	ErrEmptySource = errors.New("question source has no questions")

	// ErrNoActiveRun indicates an operation requiring a started session.
	ErrNoActiveRun = errors.New("no active quiz run")
)

// Result records the outcome for one answered question. Re-answering the
// same question replaces the record rather than duplicating it.
type Result struct {
	LocalID   int
	Text      string
	Selected  string
	Correct   string
	TimeSpent time.Duration
	IsCorrect bool
}

// AnswerEvent is the immutable payload emitted per answer in exam mode.
type AnswerEvent struct {
	LocalID   int
	Text      string
	Selected  string
	Correct   string
	TimeSpent time.Duration
	IsCorrect bool
}

// Events holds the session's optional notification callbacks. Payloads
// are value copies; listeners must not call back into the session.
type Events struct {
	// QuestionChanged fires whenever the cursor lands on a question.
	QuestionChanged func(index, total int)

	// AnswerSubmitted fires per answer in exam mode only.
	AnswerSubmitted func(AnswerEvent)

	// Completed fires once per run in exam mode, when every question has
	// been answered or forward motion passes the last question.
	Completed func()

	// ScoreReady fires once per run in practice mode, when every
	// question has been answered. Score is the fraction correct.
	ScoreReady func(score float64)
}

// Session manages one run of sequential question delivery and answer
// tracking, agnostic to whether questions come from the local bank or
// the remote catalog. It is owned by a single caller (the orchestrator)
// and is not safe for concurrent use.
type Session struct {
	Events Events

	src      Source
	subject  int
	chapter  int
	mode     Mode
	arena    []int
	cursor   int
	current  *Question
	results  map[int]Result
	finished bool
	shownAt  time.Time
	now      func() time.Time
	shuffle  func(n int, swap func(i, j int))
}

// NewSession creates an idle session. now may be nil for the wall clock.
func NewSession(now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{
		now:     now,
		shuffle: rand.Shuffle,
		results: make(map[int]Result),
	}
}

// SetMode switches between exam and practice behavior. The enclosing
// orchestrator toggles this before and after a section runs.
func (s *Session) SetMode(m Mode) { s.mode = m }

// Mode returns the current mode.
func (s *Session) Mode() Mode { return s.mode }

// Start resets all run state and begins a new run over the given
// subject/chapter. The question arena is [1..N] in source order,
// shuffled when requested, then truncated to count when 0 < count < N.
func (s *Session) Start(src Source, subject, chapter, count int, shuffle bool) error {
	if src == nil {
		return ErrNotConfigured
	}
	if !src.Ready() {
		return ErrNotReady
	}

	total, err := src.TotalQuestions(subject, chapter)
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	if total == 0 {
		return ErrEmptySource
	}

	s.src = src
	s.subject = subject
	s.chapter = chapter
	s.results = make(map[int]Result)
	s.finished = false
	s.cursor = 0

	s.arena = make([]int, total)
	for i := range s.arena {
		s.arena[i] = i + 1
	}
	if shuffle {
		s.shuffle(len(s.arena), func(i, j int) {
			s.arena[i], s.arena[j] = s.arena[j], s.arena[i]
		})
	}
	if count > 0 && count < total {
		s.arena = s.arena[:count]
	}

	return s.loadCurrent()
}

// End clears all run state. A session is never reused across runs
// without an intervening Start.
func (s *Session) End() {
	s.src = nil
	s.arena = nil
	s.current = nil
	s.results = make(map[int]Result)
	s.finished = false
	s.cursor = 0
}

// Active reports whether a run is in progress.
func (s *Session) Active() bool { return len(s.arena) > 0 }

// Current returns the question under the cursor, or nil.
func (s *Session) Current() *Question { return s.current }

// Length returns the number of questions in this run.
func (s *Session) Length() int { return len(s.arena) }

// Index returns the 0-based cursor position.
func (s *Session) Index() int { return s.cursor }

// Answer compares the submitted answer against the current question's
// correct answer, case-insensitively and after key→text normalization,
// and records the result keyed by question identity. Returns whether the
// answer was correct.
func (s *Session) Answer(text string) (bool, error) {
	if !s.Active() || s.current == nil {
		return false, ErrNoActiveRun
	}

	q := s.current
	selected := ResolveKey(text, q.Options)
	correct := ResolveCorrect(q)
	isCorrect := strings.EqualFold(selected, correct)
	spent := s.now().Sub(s.shownAt)

	s.results[q.LocalID] = Result{
		LocalID:   q.LocalID,
		Text:      q.Text,
		Selected:  selected,
		Correct:   correct,
		TimeSpent: spent,
		IsCorrect: isCorrect,
	}

	if s.mode == ModeExam && s.Events.AnswerSubmitted != nil {
		s.Events.AnswerSubmitted(AnswerEvent{
			LocalID:   q.LocalID,
			Text:      q.Text,
			Selected:  selected,
			Correct:   correct,
			TimeSpent: spent,
			IsCorrect: isCorrect,
		})
	}

	if len(s.results) == len(s.arena) && !s.finished {
		s.finished = true
		if s.mode == ModeExam {
			if s.Events.Completed != nil {
				s.Events.Completed()
			}
		} else if s.Events.ScoreReady != nil {
			s.Events.ScoreReady(s.Score())
		}
	}

	return isCorrect, nil
}

// Next advances the cursor. Practice mode wraps past the last question
// back to the first. Exam mode instead emits a single completion
// notification and holds the cursor at the last index.
func (s *Session) Next() error {
	if !s.Active() {
		return ErrNoActiveRun
	}

	if s.mode == ModeExam && s.cursor >= len(s.arena)-1 {
		if !s.finished {
			s.finished = true
			if s.Events.Completed != nil {
				s.Events.Completed()
			}
		}
		return nil
	}

	s.cursor = (s.cursor + 1) % len(s.arena)
	return s.loadCurrent()
}

// Prev retreats the cursor. Practice mode wraps before the first
// question to the last; exam mode clamps at zero.
func (s *Session) Prev() error {
	if !s.Active() {
		return ErrNoActiveRun
	}

	if s.cursor == 0 {
		if s.mode == ModeExam {
			return nil
		}
		s.cursor = len(s.arena) - 1
	} else {
		s.cursor--
	}
	return s.loadCurrent()
}

// ProgressLabel formats the cursor position, e.g. "Question 3/10".
func (s *Session) ProgressLabel() string {
	return fmt.Sprintf("Question %d/%d", s.cursor+1, len(s.arena))
}

// ScoreLabel formats the running score, e.g. "Correct: 7/10".
func (s *Session) ScoreLabel() string {
	return fmt.Sprintf("Correct: %d/%d", s.CorrectCount(), len(s.arena))
}

// CorrectCount returns the number of correctly answered questions.
func (s *Session) CorrectCount() int {
	n := 0
	for _, r := range s.results {
		if r.IsCorrect {
			n++
		}
	}
	return n
}

// Score returns the fraction of questions answered correctly.
func (s *Session) Score() float64 {
	if len(s.arena) == 0 {
		return 0
	}
	return float64(s.CorrectCount()) / float64(len(s.arena))
}

// Results returns a copy of the recorded results in arena order.
// Ownership of the copy transfers to the caller; later session mutation
// does not bleed through.
func (s *Session) Results() []Result {
	out := make([]Result, 0, len(s.results))
	for _, id := range s.arena {
		if r, ok := s.results[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (s *Session) loadCurrent() error {
	q, err := s.src.Question(s.subject, s.chapter, s.arena[s.cursor])
	if err != nil {
		return fmt.Errorf("load question %d: %w", s.arena[s.cursor], err)
	}
	s.current = q
	s.shownAt = s.now()
	if s.Events.QuestionChanged != nil {
		s.Events.QuestionChanged(s.cursor, len(s.arena))
	}
	return nil
}
