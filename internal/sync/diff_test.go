package sync

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func snap(subjects ...SubjectSnapshot) *Snapshot {
	return &Snapshot{Subjects: subjects}
}

func subject(id, name string, chapters ...ChapterSnapshot) SubjectSnapshot {
	return SubjectSnapshot{ID: id, Name: name, Grade: "10", Chapters: chapters}
}

func chapter(id, name string, questions int) ChapterSnapshot {
	return ChapterSnapshot{ID: id, Name: name, QuestionCount: questions}
}

func TestCompareFirstAdoption(t *testing.T) {
	report := Compare(nil, snap(
		subject("s1", "Physics", chapter("c1", "Motion", 5), chapter("c2", "Energy", 3)),
		subject("s2", "Math", chapter("c3", "Algebra", 4)),
	))

	assert.True(t, report.HasChanges())
	assert.Equal(t, []string{"Physics", "Math"}, report.NewSubjects)
	assert.Empty(t, report.RemovedSubjects)
	assert.Empty(t, report.UpdatedSubjects)
	assert.Equal(t, 3, report.TotalNewChapters)
	assert.Equal(t, 12, report.TotalNewQuestions)
}

func TestCompareIdentical(t *testing.T) {
	a := snap(subject("s1", "Physics", chapter("c1", "Motion", 5)))
	b := snap(subject("s1", "Physics", chapter("c1", "Motion", 5)))

	report := Compare(a, b)

	assert.False(t, report.HasChanges())
	assert.Equal(t, "No changes detected", report.String())
}

func TestCompareRemovedSubject(t *testing.T) {
	old := snap(
		subject("s1", "Physics", chapter("c1", "Motion", 5)),
		subject("s2", "Math", chapter("c2", "Algebra", 4)),
	)
	report := Compare(old, snap(subject("s1", "Physics", chapter("c1", "Motion", 5))))

	assert.True(t, report.HasChanges())
	assert.Equal(t, []string{"Math"}, report.RemovedSubjects)
	assert.Equal(t, 1, report.TotalRemovedChapters)
	assert.Equal(t, 4, report.TotalRemovedQuestions)
}

func TestCompareChapterChanges(t *testing.T) {
	old := snap(subject("s1", "Physics",
		chapter("c1", "Motion", 5),
		chapter("c2", "Energy", 3),
	))
	updated := snap(subject("s1", "Physics",
		chapter("c1", "Motion", 5),
		chapter("c3", "Waves", 6),
	))

	report := Compare(old, updated)

	assert.True(t, report.HasChanges())
	assert.Len(t, report.UpdatedSubjects, 1)

	changes := report.UpdatedSubjects[0]
	assert.Equal(t, "s1", changes.SubjectID)
	assert.Equal(t, []string{"Waves"}, changes.NewChapters)
	assert.Equal(t, []string{"Energy"}, changes.RemovedChapters)
	assert.Equal(t, 6, changes.NewQuestions)
	assert.Equal(t, 3, changes.RemovedQuestions)
	assert.Equal(t, 1, report.TotalNewChapters)
	assert.Equal(t, 1, report.TotalRemovedChapters)
}

func TestCompareQuestionCountDelta(t *testing.T) {
	tests := []struct {
		name        string
		oldCount    int
		newCount    int
		wantNew     int
		wantRemoved int
	}{
		{"questions added", 5, 8, 3, 0},
		{"questions removed", 8, 5, 0, 3},
		{"count unchanged", 5, 5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := snap(subject("s1", "Physics", chapter("c1", "Motion", tt.oldCount)))
			report := Compare(old, snap(subject("s1", "Physics", chapter("c1", "Motion", tt.newCount))))

			if tt.wantNew == 0 && tt.wantRemoved == 0 {
				assert.False(t, report.HasChanges())
				return
			}
			assert.Len(t, report.UpdatedSubjects, 1)
			assert.Equal(t, tt.wantNew, report.UpdatedSubjects[0].NewQuestions)
			assert.Equal(t, tt.wantRemoved, report.UpdatedSubjects[0].RemovedQuestions)
			assert.Zero(t, report.UpdatedSubjects[0].ModifiedQuestions)
			assert.Zero(t, report.TotalModifiedQuestions)
		})
	}
}

func TestCompareRenamedSubjectKeepsIdentity(t *testing.T) {
	old := snap(subject("s1", "Physics", chapter("c1", "Motion", 5)))
	report := Compare(old, snap(subject("s1", "Physics I", chapter("c1", "Motion", 5))))

	// Identity is the id, not the name. A rename alone is not a
	// structural change under the count-only comparison.
	assert.False(t, report.HasChanges())
}

func TestDiffReportString(t *testing.T) {
	old := snap(
		subject("s1", "Physics", chapter("c1", "Motion", 5)),
		subject("s2", "Math", chapter("c2", "Algebra", 4)),
	)
	updated := snap(
		subject("s1", "Physics", chapter("c1", "Motion", 7), chapter("c3", "Waves", 2)),
		subject("s3", "Biology", chapter("c4", "Cells", 3)),
	)

	got := Compare(old, updated).String()

	assert.Contains(t, got, "=== Quiz Data Changes ===")
	assert.Contains(t, got, "+ New Subjects: Biology")
	assert.Contains(t, got, "- Removed Subjects: Math")
	assert.Contains(t, got, "~ Physics:")
	assert.Contains(t, got, "+ New Chapters: Waves")
	assert.Contains(t, got, "+ New Questions: 4")
	assert.True(t, strings.HasSuffix(got,
		"Summary: +2 chapters, -1 chapters, +7 questions, -4 questions, ~0 modified"), got)
}
