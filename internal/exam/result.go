package exam

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dreamclass/examengine/internal/quiz"
)

// StepResult records one experiment step's completion state.
type StepResult struct {
	StepID    string
	Completed bool
}

// SectionResult is the finalized outcome of one section. It is written
// exactly once, when the section finishes, and never mutated after.
type SectionResult struct {
	Name     string
	Type     SectionType
	MaxScore float64
	Weight   float64
	Score    float64

	// Percentage is Score over MaxScore as a fraction.
	Percentage float64

	// Completed means every question was answered (quiz) or every
	// required step reported completed (experiment).
	Completed bool

	// Quiz sections. Questions is a copy owned by the result;
	// SubjectIndex/ChapterIndex locate the section in the catalog for
	// submission. TimeSpent sums the per-question answer times and
	// SkippedCount is the questions left unanswered.
	SubjectIndex int
	ChapterIndex int
	Questions    []quiz.Result
	TimeSpent    time.Duration
	SkippedCount int

	// Experiment sections.
	Steps []StepResult
}

// Result is the finalized outcome of one exam run.
type Result struct {
	RunID    string
	ExamID   string
	ExamName string

	StartedAt  time.Time
	FinishedAt time.Time

	Sections   []SectionResult
	TotalScore float64
	Percentage float64
	Passed     bool

	GoldEarned   int
	PointsEarned int
}

// scoreQuiz computes a quiz section's score: each question is worth an
// equal share of the section max, wrong answers optionally subtract a
// penalty fraction of that share, and the result never goes negative.
// Unanswered questions score nothing and incur no penalty.
func scoreQuiz(sec *Section, cfg *Config, results []quiz.Result, total int) (score float64, completed bool) {
	if total == 0 {
		return 0, false
	}

	correct, wrong := 0, 0
	for _, r := range results {
		if r.IsCorrect {
			correct++
		} else {
			wrong++
		}
	}

	perQuestion := sec.MaxScore / float64(total)
	score = float64(correct) * perQuestion
	if cfg.PenaltyForWrong {
		score -= float64(wrong) * perQuestion * cfg.PenaltyPercent
	}
	if score < 0 {
		score = 0
	}
	return score, len(results) == total
}

// quizStats sums the time spent across answered questions and counts
// the questions left without an answer.
func quizStats(results []quiz.Result, total int) (spent time.Duration, skipped int) {
	for _, r := range results {
		spent += r.TimeSpent
	}
	return spent, total - len(results)
}

// scoreExperiment computes an experiment section's score from its step
// completion, clamped to [0, sectionMax]. The section is complete only
// when every required step reported completed.
func scoreExperiment(sec *Section, steps []StepResult) (score float64, completed bool) {
	done := 0
	for _, s := range steps {
		if s.Completed {
			done++
		}
	}
	score = float64(done) * sec.PointPerStep
	if score > sec.MaxScore {
		score = sec.MaxScore
	}
	if score < 0 {
		score = 0
	}
	return score, done == len(steps) && len(steps) > 0
}

// finalize computes the weighted exam total. Section scores multiply
// by their weights and the sum is rescaled so the weighted maximum
// equals the configured exam max. Pass requires reaching the pass
// score. Reward currency is the total score scaled by the configured
// ratios, rounded to the nearest whole unit.
func (r *Result) finalize(cfg *Config, finishedAt time.Time) {
	var weightedRaw, weightedMax float64
	for _, sec := range r.Sections {
		weightedRaw += sec.Score * sec.Weight
		weightedMax += sec.MaxScore * sec.Weight
	}

	if weightedMax > 0 {
		r.TotalScore = weightedRaw * (cfg.MaxScore / weightedMax)
	}
	if cfg.MaxScore > 0 {
		r.Percentage = r.TotalScore / cfg.MaxScore
	}
	r.Passed = r.TotalScore >= cfg.PassScore
	r.FinishedAt = finishedAt

	r.GoldEarned = int(math.Round(r.TotalScore * cfg.GoldScaleRatio))
	r.PointsEarned = int(math.Round(r.TotalScore * cfg.PointsScaleRatio))
}

// Summary renders a human-readable result for the CLI.
func (r *Result) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Exam: %s\n", r.ExamName)
	for _, sec := range r.Sections {
		name := sec.Name
		if name == "" {
			name = sec.Type.String()
		}
		fmt.Fprintf(&sb, "  %s: %.2f/%.2f (%.0f%%)\n", name, sec.Score, sec.MaxScore, sec.Percentage*100)
	}
	verdict := "FAILED"
	if r.Passed {
		verdict = "PASSED"
	}
	fmt.Fprintf(&sb, "Total: %.2f (%.0f%%) - %s", r.TotalScore, r.Percentage*100, verdict)
	if r.GoldEarned > 0 || r.PointsEarned > 0 {
		fmt.Fprintf(&sb, "\nRewards: +%d gold, +%d points", r.GoldEarned, r.PointsEarned)
	}
	return sb.String()
}
