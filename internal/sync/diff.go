package sync

import (
	"fmt"
	"strings"
)

// SubjectChanges details what changed inside a subject present in both
// the old and new snapshots.
type SubjectChanges struct {
	SubjectID   string
	SubjectName string

	NewChapters     []string
	RemovedChapters []string

	NewQuestions     int
	RemovedQuestions int

	// ModifiedQuestions is reserved for content-level diffing and is
	// always zero under the count-only comparison.
	ModifiedQuestions int
}

func (c *SubjectChanges) hasChanges() bool {
	return len(c.NewChapters) > 0 || len(c.RemovedChapters) > 0 ||
		c.NewQuestions > 0 || c.RemovedQuestions > 0 || c.ModifiedQuestions > 0
}

// DiffReport summarizes the differences between two catalog snapshots.
type DiffReport struct {
	NewSubjects     []string
	RemovedSubjects []string
	UpdatedSubjects []SubjectChanges

	TotalNewChapters       int
	TotalRemovedChapters   int
	TotalNewQuestions      int
	TotalRemovedQuestions  int
	TotalModifiedQuestions int
}

// HasChanges reports whether anything differed.
func (r *DiffReport) HasChanges() bool {
	return len(r.NewSubjects) > 0 || len(r.RemovedSubjects) > 0 || len(r.UpdatedSubjects) > 0
}

// String renders the report for logs and the sync command output.
func (r *DiffReport) String() string {
	if !r.HasChanges() {
		return "No changes detected"
	}

	var sb strings.Builder
	sb.WriteString("=== Quiz Data Changes ===\n")

	if len(r.NewSubjects) > 0 {
		fmt.Fprintf(&sb, "+ New Subjects: %s\n", strings.Join(r.NewSubjects, ", "))
	}
	if len(r.RemovedSubjects) > 0 {
		fmt.Fprintf(&sb, "- Removed Subjects: %s\n", strings.Join(r.RemovedSubjects, ", "))
	}

	for _, u := range r.UpdatedSubjects {
		fmt.Fprintf(&sb, "~ %s:\n", u.SubjectName)
		if len(u.NewChapters) > 0 {
			fmt.Fprintf(&sb, "    + New Chapters: %s\n", strings.Join(u.NewChapters, ", "))
		}
		if len(u.RemovedChapters) > 0 {
			fmt.Fprintf(&sb, "    - Removed Chapters: %s\n", strings.Join(u.RemovedChapters, ", "))
		}
		if u.NewQuestions > 0 {
			fmt.Fprintf(&sb, "    + New Questions: %d\n", u.NewQuestions)
		}
		if u.RemovedQuestions > 0 {
			fmt.Fprintf(&sb, "    - Removed Questions: %d\n", u.RemovedQuestions)
		}
		if u.ModifiedQuestions > 0 {
			fmt.Fprintf(&sb, "    ~ Modified Questions: %d\n", u.ModifiedQuestions)
		}
	}

	fmt.Fprintf(&sb, "Summary: +%d chapters, -%d chapters, +%d questions, -%d questions, ~%d modified",
		r.TotalNewChapters, r.TotalRemovedChapters,
		r.TotalNewQuestions, r.TotalRemovedQuestions, r.TotalModifiedQuestions)

	return sb.String()
}

// Compare diffs two snapshots by stable identity, recursing one level
// into chapters. Question comparison is count-only: a chapter present
// on both sides contributes the count delta as added or removed
// questions, never both. oldSnap may be nil for a first adoption.
func Compare(oldSnap, newSnap *Snapshot) *DiffReport {
	report := &DiffReport{}
	if oldSnap == nil {
		oldSnap = &Snapshot{}
	}
	if newSnap == nil {
		newSnap = &Snapshot{}
	}

	oldByID := make(map[string]*SubjectSnapshot, len(oldSnap.Subjects))
	for i := range oldSnap.Subjects {
		oldByID[oldSnap.Subjects[i].ID] = &oldSnap.Subjects[i]
	}
	newByID := make(map[string]*SubjectSnapshot, len(newSnap.Subjects))
	for i := range newSnap.Subjects {
		newByID[newSnap.Subjects[i].ID] = &newSnap.Subjects[i]
	}

	for i := range newSnap.Subjects {
		sub := &newSnap.Subjects[i]
		old, ok := oldByID[sub.ID]
		if !ok {
			report.NewSubjects = append(report.NewSubjects, sub.Name)
			report.TotalNewChapters += len(sub.Chapters)
			report.TotalNewQuestions += sub.questionCount()
			continue
		}

		changes := compareSubject(old, sub)
		if changes.hasChanges() {
			report.UpdatedSubjects = append(report.UpdatedSubjects, changes)
			report.TotalNewChapters += len(changes.NewChapters)
			report.TotalRemovedChapters += len(changes.RemovedChapters)
			report.TotalNewQuestions += changes.NewQuestions
			report.TotalRemovedQuestions += changes.RemovedQuestions
			report.TotalModifiedQuestions += changes.ModifiedQuestions
		}
	}

	for i := range oldSnap.Subjects {
		sub := &oldSnap.Subjects[i]
		if _, ok := newByID[sub.ID]; !ok {
			report.RemovedSubjects = append(report.RemovedSubjects, sub.Name)
			report.TotalRemovedChapters += len(sub.Chapters)
			report.TotalRemovedQuestions += sub.questionCount()
		}
	}

	return report
}

func compareSubject(oldSub, newSub *SubjectSnapshot) SubjectChanges {
	changes := SubjectChanges{SubjectID: newSub.ID, SubjectName: newSub.Name}

	oldByID := make(map[string]*ChapterSnapshot, len(oldSub.Chapters))
	for i := range oldSub.Chapters {
		oldByID[oldSub.Chapters[i].ID] = &oldSub.Chapters[i]
	}
	newByID := make(map[string]*ChapterSnapshot, len(newSub.Chapters))
	for i := range newSub.Chapters {
		newByID[newSub.Chapters[i].ID] = &newSub.Chapters[i]
	}

	for i := range newSub.Chapters {
		ch := &newSub.Chapters[i]
		old, ok := oldByID[ch.ID]
		if !ok {
			changes.NewChapters = append(changes.NewChapters, ch.Name)
			changes.NewQuestions += ch.QuestionCount
			continue
		}
		switch {
		case ch.QuestionCount > old.QuestionCount:
			changes.NewQuestions += ch.QuestionCount - old.QuestionCount
		case ch.QuestionCount < old.QuestionCount:
			changes.RemovedQuestions += old.QuestionCount - ch.QuestionCount
		}
	}

	for i := range oldSub.Chapters {
		ch := &oldSub.Chapters[i]
		if _, ok := newByID[ch.ID]; !ok {
			changes.RemovedChapters = append(changes.RemovedChapters, ch.Name)
			changes.RemovedQuestions += ch.QuestionCount
		}
	}

	return changes
}
