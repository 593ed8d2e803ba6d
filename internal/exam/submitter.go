package exam

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dreamclass/examengine/internal/api"
	"github.com/dreamclass/examengine/internal/quiz"
)

// Submitter pushes a finalized exam result to the server: quiz answer
// sets for server-side grading when the exam ran against the remote
// catalog, and the scaled gold/points reward. Everything here is
// best-effort; a failure is reported but the local result stands.
type Submitter struct {
	client   *api.Client
	catalog  *quiz.Catalog
	playerID string
	apiKey   string
}

// NewSubmitter creates a submitter. catalog resolves local question
// ids back to server ids; pass nil when the exam ran against the local
// bank, which skips answer submission. An empty playerID skips the
// reward push.
func NewSubmitter(client *api.Client, catalog *quiz.Catalog, playerID, apiKey string) *Submitter {
	return &Submitter{
		client:   client,
		catalog:  catalog,
		playerID: playerID,
		apiKey:   apiKey,
	}
}

// SubmitResult implements ResultSubmitter. Each failed step is logged
// and the rest still run; the joined error reports what failed.
func (s *Submitter) SubmitResult(ctx context.Context, result *Result) error {
	var errs []error

	if s.catalog != nil {
		for i := range result.Sections {
			sec := &result.Sections[i]
			if sec.Type != SectionQuiz || len(sec.Questions) == 0 {
				continue
			}
			if err := s.submitSection(ctx, sec); err != nil {
				fmt.Fprintf(os.Stderr, "warning: submit section %q: %v\n", sec.Name, err)
				errs = append(errs, err)
			}
		}
	}

	if s.playerID != "" {
		err := s.client.PushCurrency(ctx, s.playerID, s.apiKey, result.GoldEarned, result.PointsEarned)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: push rewards: %v\n", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// submitSection maps a section's recorded answers back to server
// identities and letter keys, then posts them for grading.
func (s *Submitter) submitSection(ctx context.Context, sec *SectionResult) error {
	subject := s.catalog.Subject(sec.SubjectIndex)
	if subject == nil {
		return fmt.Errorf("subject %d not in catalog", sec.SubjectIndex)
	}

	answers := make([]api.Answer, 0, len(sec.Questions))
	for _, r := range sec.Questions {
		q := s.catalog.Question(sec.SubjectIndex, sec.ChapterIndex, r.LocalID)
		if q == nil {
			fmt.Fprintf(os.Stderr, "warning: question %d/%d/%d missing from catalog, skipping\n",
				sec.SubjectIndex, sec.ChapterIndex, r.LocalID)
			continue
		}
		answers = append(answers, api.Answer{
			QuestionID:     q.ID,
			SelectedOption: quiz.OptionKey(r.Selected, q.Options),
		})
	}
	if len(answers) == 0 {
		return nil
	}

	_, err := s.client.SubmitQuiz(ctx, subject.ID, answers)
	return err
}
