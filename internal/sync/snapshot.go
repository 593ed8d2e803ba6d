package sync

import "github.com/dreamclass/examengine/internal/quiz"

// Snapshot is the persisted skeleton of a catalog: identity, names and
// question counts, never question content. It is what the diff runs
// against between fetches.
type Snapshot struct {
	Subjects []SubjectSnapshot
}

// SubjectSnapshot mirrors one catalog subject.
type SubjectSnapshot struct {
	ID       string
	Name     string
	Grade    string
	Chapters []ChapterSnapshot
}

// ChapterSnapshot records a chapter's identity and its question count.
type ChapterSnapshot struct {
	ID            string
	Name          string
	QuestionCount int
}

// SnapshotOf reduces a catalog to its snapshot skeleton.
func SnapshotOf(c *quiz.Catalog) *Snapshot {
	snap := &Snapshot{}
	if c == nil {
		return snap
	}
	for _, s := range c.Subjects {
		sub := SubjectSnapshot{ID: s.ID, Name: s.Name, Grade: s.Grade}
		for _, ch := range s.Chapters {
			sub.Chapters = append(sub.Chapters, ChapterSnapshot{
				ID:            ch.ID,
				Name:          ch.Name,
				QuestionCount: len(ch.Questions),
			})
		}
		snap.Subjects = append(snap.Subjects, sub)
	}
	return snap
}

// questionCount sums the subject's questions across chapters.
func (s *SubjectSnapshot) questionCount() int {
	n := 0
	for _, ch := range s.Chapters {
		n += ch.QuestionCount
	}
	return n
}
