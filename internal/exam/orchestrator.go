package exam

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dreamclass/examengine/internal/quiz"
)

// State is the orchestrator's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateFinishing
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinishing:
		return "finishing"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrAlreadyRunning indicates Start on a non-idle orchestrator.
	ErrAlreadyRunning = errors.New("exam already running")

	// ErrNotRunning indicates an operation outside a running exam.
	ErrNotRunning = errors.New("no exam running")

	// ErrNotQuizSection indicates a question operation during an
	// experiment section.
	ErrNotQuizSection = errors.New("current section is not a quiz")

	// ErrGoBackDisabled indicates backward navigation on an exam
	// configured without it.
	ErrGoBackDisabled = errors.New("going back is disabled for this exam")

	// ErrNoStepTracker indicates an experiment section with no
	// tracker bound.
	ErrNoStepTracker = errors.New("no step tracker bound for experiment section")
)

// Events holds the orchestrator's optional notification callbacks.
// Payloads are immutable values. Callbacks run outside the
// orchestrator lock, in the order the state changes occurred, and may
// safely call back into the orchestrator.
type Events struct {
	Started         func()
	SectionChanged  func(index, total int)
	TimeUpdated     func(remaining time.Duration)
	QuestionChanged func(index, total int)
	AnswerSubmitted func(correct bool)

	// FinishRequested fires the moment a finish begins, before the
	// result is computed, so a UI can show an interim state.
	FinishRequested func()

	Finished    func()
	ResultReady func(result *Result)
}

// ResultSubmitter consumes a finalized exam result. Submission is
// best-effort: a returned error is logged and never undoes the result.
type ResultSubmitter interface {
	SubmitResult(ctx context.Context, result *Result) error
}

// Orchestrator runs one exam end to end: section sequencing, the
// countdown timer, single-flight finish and weighted scoring. All
// state is guarded by one mutex; events queue under the lock and emit
// after it is released.
type Orchestrator struct {
	Events Events

	session      *quiz.Session
	source       quiz.Source
	tracker      StepTracker
	submitter    ResultSubmitter
	now          func() time.Time
	tickInterval time.Duration

	mu           sync.Mutex
	state        State
	cfg          *Config
	result       *Result
	sectionIdx   int
	sectionOpen  bool
	sectionDone  bool
	sectionSteps []StepResult
	remaining    time.Duration
	finishing    bool
	timerStop    chan struct{}
	pending      []func()
}

// New creates an idle orchestrator. source serves quiz sections,
// tracker runs experiment sections (nil when the exam has none),
// submitter receives the finalized result (nil to skip submission).
// now may be nil for the wall clock.
func New(source quiz.Source, tracker StepTracker, submitter ResultSubmitter, now func() time.Time) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	o := &Orchestrator{
		source:       source,
		tracker:      tracker,
		submitter:    submitter,
		now:          now,
		tickInterval: time.Second,
	}

	s := quiz.NewSession(now)
	s.SetMode(quiz.ModeExam)
	// Session callbacks run while the orchestrator lock is held, so
	// they only queue; the public methods flush after unlocking.
	s.Events.QuestionChanged = func(i, n int) {
		if fn := o.Events.QuestionChanged; fn != nil {
			o.pending = append(o.pending, func() { fn(i, n) })
		}
	}
	s.Events.AnswerSubmitted = func(ev quiz.AnswerEvent) {
		if fn := o.Events.AnswerSubmitted; fn != nil {
			correct := ev.IsCorrect
			o.pending = append(o.pending, func() { fn(correct) })
		}
	}
	s.Events.Completed = func() { o.sectionDone = true }
	o.session = s

	return o
}

// CurrentQuestion returns a copy of the question under the quiz cursor
// together with the cursor position and run length, or nil when no
// quiz section is active. The session itself stays behind the lock;
// handing it out would race with a timer-expiry finish tearing the
// section down on another goroutine.
func (o *Orchestrator) CurrentQuestion() (*quiz.Question, int, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	q := o.session.Current()
	if q == nil {
		return nil, 0, 0
	}
	cp := *q
	cp.Options = append([]string(nil), q.Options...)
	return &cp, o.session.Index(), o.session.Length()
}

// ScoreLabel returns the running score label for the active quiz
// section.
func (o *Orchestrator) ScoreLabel() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.ScoreLabel()
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Remaining returns the countdown time left.
func (o *Orchestrator) Remaining() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.remaining
}

// Result returns the exam result. It is fully populated only once the
// state reaches Finished.
func (o *Orchestrator) Result() *Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// SectionIndex returns the active section index.
func (o *Orchestrator) SectionIndex() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sectionIdx
}

// CurrentSection returns a copy of the active section's config, or nil
// when no exam is running.
func (o *Orchestrator) CurrentSection() *Section {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateRunning {
		return nil
	}
	sec := o.cfg.Sections[o.sectionIdx]
	return &sec
}

// Start validates the config and begins the exam: builds the result
// record, starts the countdown and enters the first section. A config
// or section failure leaves the orchestrator idle.
func (o *Orchestrator) Start(cfg *Config) error {
	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return ErrAlreadyRunning
	}
	if err := cfg.Validate(); err != nil {
		o.mu.Unlock()
		return err
	}

	o.cfg = cfg
	o.result = &Result{
		RunID:     uuid.NewString(),
		ExamID:    cfg.ExamID,
		ExamName:  cfg.ExamName,
		StartedAt: o.now(),
	}
	o.remaining = cfg.Duration()
	o.sectionIdx = 0
	o.finishing = false
	o.state = StateRunning

	o.queue(o.Events.Started)
	if err := o.startSectionLocked(0); err != nil {
		o.state = StateIdle
		o.result = nil
		o.pending = nil
		o.mu.Unlock()
		return err
	}

	o.timerStop = make(chan struct{})
	go o.runTimer(o.timerStop)
	o.mu.Unlock()

	o.flush()
	return nil
}

// SubmitAnswer answers the current quiz question. Answering the last
// unanswered question completes the section and advances the exam.
func (o *Orchestrator) SubmitAnswer(text string) (bool, error) {
	o.mu.Lock()
	if o.state != StateRunning || o.finishing {
		o.mu.Unlock()
		return false, ErrNotRunning
	}
	if o.cfg.Sections[o.sectionIdx].Type != SectionQuiz {
		o.mu.Unlock()
		return false, ErrNotQuizSection
	}

	correct, err := o.session.Answer(text)
	if err != nil {
		o.mu.Unlock()
		return false, err
	}
	if o.sectionDone {
		o.sectionDone = false
		o.advanceLocked()
	}
	o.mu.Unlock()

	o.flush()
	return correct, nil
}

// NextQuestion advances the quiz cursor. Moving past the last question
// completes the section and advances the exam.
func (o *Orchestrator) NextQuestion() error {
	o.mu.Lock()
	if o.state != StateRunning || o.finishing {
		o.mu.Unlock()
		return ErrNotRunning
	}
	if o.cfg.Sections[o.sectionIdx].Type != SectionQuiz {
		o.mu.Unlock()
		return ErrNotQuizSection
	}

	err := o.session.Next()
	if o.sectionDone {
		o.sectionDone = false
		o.advanceLocked()
	}
	o.mu.Unlock()

	o.flush()
	return err
}

// PrevQuestion retreats the quiz cursor when the exam allows it.
func (o *Orchestrator) PrevQuestion() error {
	o.mu.Lock()
	if o.state != StateRunning || o.finishing {
		o.mu.Unlock()
		return ErrNotRunning
	}
	if !o.cfg.AllowGoBack {
		o.mu.Unlock()
		return ErrGoBackDisabled
	}
	if o.cfg.Sections[o.sectionIdx].Type != SectionQuiz {
		o.mu.Unlock()
		return ErrNotQuizSection
	}

	err := o.session.Prev()
	o.mu.Unlock()

	o.flush()
	return err
}

// NextSection finalizes the active section and either starts the next
// one or, after the last section, finishes the exam.
func (o *Orchestrator) NextSection() error {
	o.mu.Lock()
	if o.state != StateRunning || o.finishing {
		o.mu.Unlock()
		return ErrNotRunning
	}
	o.advanceLocked()
	o.mu.Unlock()

	o.flush()
	return nil
}

// PrevSection abandons the active section and re-enters the previous
// one, discarding its recorded result so it gets finalized again.
// Honors AllowGoBack; clamps at the first section.
func (o *Orchestrator) PrevSection() error {
	o.mu.Lock()
	if o.state != StateRunning || o.finishing {
		o.mu.Unlock()
		return ErrNotRunning
	}
	if !o.cfg.AllowGoBack {
		o.mu.Unlock()
		return ErrGoBackDisabled
	}
	if o.sectionIdx == 0 {
		o.mu.Unlock()
		return nil
	}

	o.abortSectionLocked()
	o.sectionIdx--
	o.result.Sections = o.result.Sections[:len(o.result.Sections)-1]
	if err := o.startSectionLocked(o.sectionIdx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot re-enter section %d: %v, finishing exam\n", o.sectionIdx, err)
		o.finishLocked()
	}
	o.mu.Unlock()

	o.flush()
	return nil
}

// Finish runs the single-flight finish sequence: the first caller
// stops the timer, finalizes the active section, computes the weighted
// total and hands the result to the submitter; every later caller
// no-ops.
func (o *Orchestrator) Finish() {
	o.mu.Lock()
	o.finishLocked()
	o.mu.Unlock()
	o.flush()
}

func (o *Orchestrator) queue(fn func()) {
	if fn != nil {
		o.pending = append(o.pending, fn)
	}
}

func (o *Orchestrator) flush() {
	o.mu.Lock()
	pending := o.pending
	o.pending = nil
	o.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

func (o *Orchestrator) startSectionLocked(idx int) error {
	sec := &o.cfg.Sections[idx]
	o.sectionDone = false
	o.sectionSteps = nil

	if fn := o.Events.SectionChanged; fn != nil {
		i, n := idx, len(o.cfg.Sections)
		o.queue(func() { fn(i, n) })
	}

	switch sec.Type {
	case SectionQuiz:
		if err := o.session.Start(o.source, sec.SubjectIndex, sec.ChapterIndex, sec.QuestionCount, sec.Shuffle); err != nil {
			return fmt.Errorf("start section %d: %w", idx, err)
		}
	case SectionExperiment:
		if o.tracker == nil {
			return ErrNoStepTracker
		}
		o.sectionSteps = make([]StepResult, len(sec.RequiredStepIDs))
		for i, id := range sec.RequiredStepIDs {
			o.sectionSteps[i] = StepResult{StepID: id}
		}
		if err := o.tracker.Start(sec.RequiredStepIDs, o.onStep); err != nil {
			return fmt.Errorf("start experiment %q: %w", sec.ExperimentName, err)
		}
	}

	o.sectionOpen = true
	return nil
}

// finishSectionLocked finalizes the active section exactly once,
// scoring it and moving its per-question or per-step records into the
// exam result.
func (o *Orchestrator) finishSectionLocked() {
	sec := &o.cfg.Sections[o.sectionIdx]
	sr := SectionResult{
		Name:         sec.Name,
		Type:         sec.Type,
		MaxScore:     sec.MaxScore,
		Weight:       sec.Weight,
		SubjectIndex: sec.SubjectIndex,
		ChapterIndex: sec.ChapterIndex,
	}

	switch sec.Type {
	case SectionQuiz:
		results := o.session.Results()
		total := o.session.Length()
		sr.Questions = results
		sr.Score, sr.Completed = scoreQuiz(sec, o.cfg, results, total)
		sr.TimeSpent, sr.SkippedCount = quizStats(results, total)
		o.session.End()
	case SectionExperiment:
		if o.tracker != nil {
			o.tracker.Stop()
		}
		sr.Steps = append([]StepResult(nil), o.sectionSteps...)
		sr.Score, sr.Completed = scoreExperiment(sec, sr.Steps)
		o.sectionSteps = nil
	}
	if sec.MaxScore > 0 {
		sr.Percentage = sr.Score / sec.MaxScore
	}

	o.result.Sections = append(o.result.Sections, sr)
	o.sectionOpen = false
}

// abortSectionLocked tears the active section down without recording
// a result, for backward section navigation.
func (o *Orchestrator) abortSectionLocked() {
	sec := &o.cfg.Sections[o.sectionIdx]
	switch sec.Type {
	case SectionQuiz:
		o.session.End()
	case SectionExperiment:
		if o.tracker != nil {
			o.tracker.Stop()
		}
		o.sectionSteps = nil
	}
	o.sectionOpen = false
}

// advanceLocked is the single section-transition path: finalize the
// active section, then start the next one or finish the exam. Every
// trigger (NextSection, quiz completion, timer expiry) routes through
// here so a section is finalized exactly once.
func (o *Orchestrator) advanceLocked() {
	o.finishSectionLocked()
	o.sectionIdx++
	if o.sectionIdx >= len(o.cfg.Sections) {
		o.finishLocked()
		return
	}
	if err := o.startSectionLocked(o.sectionIdx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot start section %d: %v, finishing exam\n", o.sectionIdx, err)
		o.finishLocked()
	}
}

func (o *Orchestrator) finishLocked() {
	if o.state != StateRunning || o.finishing {
		return
	}
	o.finishing = true
	o.state = StateFinishing

	if o.timerStop != nil {
		close(o.timerStop)
		o.timerStop = nil
	}

	o.queue(o.Events.FinishRequested)

	if o.sectionOpen {
		o.finishSectionLocked()
	}
	o.result.finalize(o.cfg, o.now())
	o.state = StateFinished

	o.queue(o.Events.Finished)
	if fn := o.Events.ResultReady; fn != nil {
		res := o.result
		o.queue(func() { fn(res) })
	}

	if o.submitter != nil {
		sub, res := o.submitter, o.result
		o.queue(func() {
			go func() {
				if err := sub.SubmitResult(context.Background(), res); err != nil {
					fmt.Fprintf(os.Stderr, "warning: result submission failed: %v\n", err)
				}
			}()
		})
	}
}

// tick advances the countdown by one second and reports expiry. It
// no-ops once a finish is in flight.
func (o *Orchestrator) tick() bool {
	o.mu.Lock()
	if o.state != StateRunning || o.finishing {
		o.mu.Unlock()
		return false
	}
	o.remaining -= time.Second
	if o.remaining < 0 {
		o.remaining = 0
	}
	if fn := o.Events.TimeUpdated; fn != nil {
		remaining := o.remaining
		o.queue(func() { fn(remaining) })
	}
	expired := o.remaining == 0
	o.mu.Unlock()

	o.flush()
	return expired
}

func (o *Orchestrator) runTimer(stop <-chan struct{}) {
	ticker := time.NewTicker(o.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if o.tick() {
				o.Finish()
				return
			}
		}
	}
}

// onStep is handed to the step tracker; it records completion changes
// for the active experiment section.
func (o *Orchestrator) onStep(stepID string, completed bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateRunning || o.finishing {
		return
	}
	if o.cfg.Sections[o.sectionIdx].Type != SectionExperiment {
		return
	}
	for i := range o.sectionSteps {
		if o.sectionSteps[i].StepID == stepID {
			o.sectionSteps[i].Completed = completed
			return
		}
	}
	fmt.Fprintf(os.Stderr, "warning: step %q is not required by the active section\n", stepID)
}
