package quiz

import "fmt"

// Subject is a named content grouping with a stable identity and an
// ordered collection of chapters. Identity is stable across fetches;
// name and metadata may change.
type Subject struct {
	ID       string
	Name     string
	Grade    string
	Chapters []Chapter
}

// Chapter belongs to exactly one subject and holds its questions in
// server order.
type Chapter struct {
	ID        string
	Name      string
	Questions []Question
}

// Question is a single multiple-choice item. ID is the server-assigned
// identity in remote mode or a decimal sequence number in local mode.
// LocalID is assigned 1..N per chapter at fetch time so remote questions
// share the local addressing scheme; it must never be used when
// submitting answers.
type Question struct {
	ID      string
	LocalID int
	Text    string
	Options []string
	Correct string
}

// Source abstracts question delivery for one subject/chapter pair,
// backed by either the local bank or the remote catalog.
type Source interface {
	// TotalQuestions returns the number of questions in the chapter.
	TotalQuestions(subject, chapter int) (int, error)

	// Question returns the question with the given 1-based local id.
	Question(subject, chapter, localID int) (*Question, error)

	// Ready reports whether the source can serve questions (false while
	// a background fetch or cache load is still pending).
	Ready() bool
}

// Catalog is an immutable set of subjects adopted from a fetch.
// Callers receive it as a snapshot and must not mutate it; the sync
// engine replaces the whole catalog on adoption rather than editing
// it in place.
type Catalog struct {
	Subjects []Subject
}

// Subject returns the subject at index i, or nil if out of range.
func (c *Catalog) Subject(i int) *Subject {
	if c == nil || i < 0 || i >= len(c.Subjects) {
		return nil
	}
	return &c.Subjects[i]
}

// Chapter returns the chapter at (subject, chapter) indices, or nil.
func (c *Catalog) Chapter(subject, chapter int) *Chapter {
	s := c.Subject(subject)
	if s == nil || chapter < 0 || chapter >= len(s.Chapters) {
		return nil
	}
	return &s.Chapters[chapter]
}

// Question finds a question by its per-chapter local id, or nil.
func (c *Catalog) Question(subject, chapter, localID int) *Question {
	ch := c.Chapter(subject, chapter)
	if ch == nil {
		return nil
	}
	for i := range ch.Questions {
		if ch.Questions[i].LocalID == localID {
			return &ch.Questions[i]
		}
	}
	return nil
}

// CatalogSource adapts a Catalog to the Source interface.
type CatalogSource struct {
	catalog *Catalog
}

// NewCatalogSource wraps a catalog snapshot as a question source.
func NewCatalogSource(c *Catalog) *CatalogSource {
	return &CatalogSource{catalog: c}
}

func (s *CatalogSource) TotalQuestions(subject, chapter int) (int, error) {
	ch := s.catalog.Chapter(subject, chapter)
	if ch == nil {
		return 0, fmt.Errorf("chapter not found: subject=%d chapter=%d", subject, chapter)
	}
	return len(ch.Questions), nil
}

func (s *CatalogSource) Question(subject, chapter, localID int) (*Question, error) {
	q := s.catalog.Question(subject, chapter, localID)
	if q == nil {
		return nil, fmt.Errorf("question not found: subject=%d chapter=%d local=%d", subject, chapter, localID)
	}
	return q, nil
}

func (s *CatalogSource) Ready() bool {
	return s.catalog != nil && len(s.catalog.Subjects) > 0
}
