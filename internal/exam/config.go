package exam

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// SectionType distinguishes the two scored section kinds.
type SectionType int

const (
	SectionQuiz SectionType = iota
	SectionExperiment
)

func (t SectionType) String() string {
	switch t {
	case SectionQuiz:
		return "quiz"
	case SectionExperiment:
		return "experiment"
	default:
		return fmt.Sprintf("SectionType(%d)", int(t))
	}
}

func (t SectionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *SectionType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "quiz":
		*t = SectionQuiz
	case "experiment":
		*t = SectionExperiment
	default:
		return fmt.Errorf("unknown section type %q", s)
	}
	return nil
}

// Section is one scored component of an exam. Quiz sections address a
// subject/chapter in the question source; experiment sections name a
// step tracker and its required steps.
type Section struct {
	Type     SectionType `json:"type"`
	Name     string      `json:"name"`
	MaxScore float64     `json:"maxScore"`
	Weight   float64     `json:"weight"`

	// Quiz sections.
	SubjectIndex  int  `json:"subjectIndex"`
	ChapterIndex  int  `json:"chapterIndex"`
	QuestionCount int  `json:"questionCount"`
	Shuffle       bool `json:"shuffle"`

	// Experiment sections.
	ExperimentName  string   `json:"experimentName,omitempty"`
	RequiredStepIDs []string `json:"requiredStepIds,omitempty"`
	PointPerStep    float64  `json:"pointPerStep,omitempty"`
}

// Config is the static description of one exam.
type Config struct {
	ExamID          string    `json:"examId"`
	ExamName        string    `json:"examName"`
	DurationMinutes int       `json:"durationMinutes"`
	AllowGoBack     bool      `json:"allowGoBack"`
	MaxScore        float64   `json:"maxScore"`
	PassScore       float64   `json:"passScore"`
	PenaltyForWrong bool      `json:"penaltyForWrong"`
	PenaltyPercent  float64   `json:"penaltyPercent"`
	Sections        []Section `json:"sections"`

	// Reward conversion, applied to the final score after finish.
	GoldScaleRatio   float64 `json:"goldScaleRatio,omitempty"`
	PointsScaleRatio float64 `json:"pointsScaleRatio,omitempty"`
}

// ErrNoSections indicates a config without a single section.
var ErrNoSections = errors.New("exam config has no sections")

// Duration returns the exam's countdown duration.
func (c *Config) Duration() time.Duration {
	return time.Duration(c.DurationMinutes) * time.Minute
}

// Validate checks the semantic constraints the JSON schema cannot
// express.
func (c *Config) Validate() error {
	if len(c.Sections) == 0 {
		return ErrNoSections
	}
	if c.DurationMinutes <= 0 {
		return fmt.Errorf("exam duration must be positive, got %d", c.DurationMinutes)
	}
	for i, sec := range c.Sections {
		if sec.MaxScore <= 0 {
			return fmt.Errorf("section %d: maxScore must be positive", i)
		}
		if sec.Weight <= 0 {
			return fmt.Errorf("section %d: weight must be positive", i)
		}
		if sec.Type == SectionExperiment {
			if len(sec.RequiredStepIDs) == 0 {
				return fmt.Errorf("section %d: experiment requires at least one step", i)
			}
			if sec.PointPerStep <= 0 {
				return fmt.Errorf("section %d: pointPerStep must be positive", i)
			}
		}
	}
	return nil
}

// LoadConfig reads and validates an exam config file. The raw JSON is
// checked against the config schema before decoding, so shape errors
// surface with schema paths instead of zero-valued fields.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read exam config: %w", err)
	}

	if err := validateConfigJSON(raw); err != nil {
		return nil, fmt.Errorf("exam config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode exam config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
