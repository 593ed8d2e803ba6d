package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/dreamclass/examengine/internal/quiz"
	"github.com/dreamclass/examengine/internal/sync"
)

// LocalBank is the offline question bank. It serves questions by the
// (subject, chapter, local id) addressing scheme and implements
// quiz.Source, so sessions run against it exactly as they run against
// the remote catalog.
type LocalBank struct {
	db *sql.DB
}

func (b *LocalBank) TotalQuestions(subject, chapter int) (int, error) {
	var n int
	err := b.db.QueryRow(
		`SELECT COUNT(*) FROM bank_questions WHERE subject = ? AND chapter = ?`,
		subject, chapter).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count bank questions: %w", err)
	}
	return n, nil
}

func (b *LocalBank) Question(subject, chapter, localID int) (*quiz.Question, error) {
	var (
		text    string
		rawOpts string
		correct string
	)
	err := b.db.QueryRow(
		`SELECT text, options, correct FROM bank_questions
		 WHERE subject = ? AND chapter = ? AND local_id = ?`,
		subject, chapter, localID).Scan(&text, &rawOpts, &correct)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bank question not found: subject=%d chapter=%d local=%d",
			subject, chapter, localID)
	}
	if err != nil {
		return nil, fmt.Errorf("load bank question: %w", err)
	}

	var options []string
	if err := json.Unmarshal([]byte(rawOpts), &options); err != nil {
		return nil, fmt.Errorf("decode options for question %d/%d/%d: %w",
			subject, chapter, localID, err)
	}

	return &quiz.Question{
		ID:      strconv.Itoa(localID),
		LocalID: localID,
		Text:    text,
		Options: options,
		Correct: correct,
	}, nil
}

func (b *LocalBank) Ready() bool { return b.db != nil }

// Import replaces one chapter of the bank wholesale with the given
// questions, so local ids dropped upstream do not linger. Records
// without text or with fewer than two options are skipped with a
// warning rather than failing the whole import.
func (b *LocalBank) Import(ctx context.Context, subject, chapter int, questions []quiz.Question) (int, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin bank import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM bank_questions WHERE subject = ? AND chapter = ?`,
		subject, chapter); err != nil {
		return 0, fmt.Errorf("clear bank chapter %d/%d: %w", subject, chapter, err)
	}

	imported := 0
	for _, q := range questions {
		if q.Text == "" || len(q.Options) < 2 {
			fmt.Fprintf(os.Stderr, "warning: skipping malformed bank question %d/%d/%d\n",
				subject, chapter, q.LocalID)
			continue
		}
		rawOpts, err := json.Marshal(q.Options)
		if err != nil {
			return 0, fmt.Errorf("encode options for question %d: %w", q.LocalID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO bank_questions (subject, chapter, local_id, text, options, correct)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			subject, chapter, q.LocalID, q.Text, string(rawOpts), q.Correct); err != nil {
			return 0, fmt.Errorf("insert bank question %d: %w", q.LocalID, err)
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bank import: %w", err)
	}
	return imported, nil
}

// MatchesSnapshot reports whether the bank's question counts agree
// with the snapshot, chapter by chapter. A mismatch means the bank is
// stale (an earlier import failed partway or never ran) and its
// contents need a re-import before they can be trusted. A nil snapshot
// trivially matches: there is nothing to be stale against.
func (b *LocalBank) MatchesSnapshot(ctx context.Context, snap *sync.Snapshot) (bool, error) {
	if snap == nil {
		return true, nil
	}
	for si := range snap.Subjects {
		for ci := range snap.Subjects[si].Chapters {
			ch := &snap.Subjects[si].Chapters[ci]
			got, err := b.TotalQuestions(si, ci)
			if err != nil {
				return false, err
			}
			if got != ch.QuestionCount {
				return false, nil
			}
		}
	}
	return true, nil
}
