package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dreamclass/examengine/internal/sync"
)

// SnapshotRepo persists catalog snapshots. It stores only the catalog
// skeleton: identity, names and question counts. It implements
// sync.SnapshotStore.
type SnapshotRepo struct {
	db *sql.DB
}

// LoadSnapshot returns the persisted snapshot, or nil when nothing has
// been adopted yet. Subjects and chapters come back in adoption order.
func (r *SnapshotRepo) LoadSnapshot(ctx context.Context) (*sync.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, grade FROM snapshot_subjects ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query snapshot subjects: %w", err)
	}
	defer rows.Close()

	var snap sync.Snapshot
	for rows.Next() {
		var sub sync.SubjectSnapshot
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Grade); err != nil {
			return nil, fmt.Errorf("scan snapshot subject: %w", err)
		}
		snap.Subjects = append(snap.Subjects, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot subjects: %w", err)
	}
	if len(snap.Subjects) == 0 {
		return nil, nil
	}

	for i := range snap.Subjects {
		chapters, err := r.loadChapters(ctx, snap.Subjects[i].ID)
		if err != nil {
			return nil, err
		}
		snap.Subjects[i].Chapters = chapters
	}
	return &snap, nil
}

func (r *SnapshotRepo) loadChapters(ctx context.Context, subjectID string) ([]sync.ChapterSnapshot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, question_count FROM snapshot_chapters
		 WHERE subject_id = ? ORDER BY position`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("query snapshot chapters: %w", err)
	}
	defer rows.Close()

	var chapters []sync.ChapterSnapshot
	for rows.Next() {
		var ch sync.ChapterSnapshot
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.QuestionCount); err != nil {
			return nil, fmt.Errorf("scan snapshot chapter: %w", err)
		}
		chapters = append(chapters, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot chapters: %w", err)
	}
	return chapters, nil
}

// SaveSnapshot replaces the persisted snapshot wholesale in one
// transaction.
func (r *SnapshotRepo) SaveSnapshot(ctx context.Context, snap *sync.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_chapters`); err != nil {
		return fmt.Errorf("clear snapshot chapters: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_subjects`); err != nil {
		return fmt.Errorf("clear snapshot subjects: %w", err)
	}

	for i, sub := range snap.Subjects {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_subjects (id, name, grade, position) VALUES (?, ?, ?, ?)`,
			sub.ID, sub.Name, sub.Grade, i); err != nil {
			return fmt.Errorf("insert snapshot subject %s: %w", sub.ID, err)
		}
		for j, ch := range sub.Chapters {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO snapshot_chapters (id, subject_id, name, question_count, position)
				 VALUES (?, ?, ?, ?, ?)`,
				ch.ID, sub.ID, ch.Name, ch.QuestionCount, j); err != nil {
				return fmt.Errorf("insert snapshot chapter %s: %w", ch.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot save: %w", err)
	}
	return nil
}
