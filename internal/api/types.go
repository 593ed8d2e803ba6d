package api

// Wire shapes for the quiz server. Identifiers come back as MongoDB
// object ids under the "_id" key.

type quizListResponse struct {
	Message string       `json:"message"`
	Count   int          `json:"count"`
	Data    []quizRecord `json:"data"`
}

type quizRecord struct {
	ID       string          `json:"_id"`
	Name     string          `json:"name"`
	Subject  string          `json:"subject"`
	Grade    string          `json:"grade"`
	Chapters []chapterRecord `json:"chapters"`
}

type chapterRecord struct {
	ID        string           `json:"_id"`
	Name      string           `json:"name"`
	Questions []questionRecord `json:"questions"`
}

type questionRecord struct {
	ID           string    `json:"_id"`
	QuestionText string    `json:"questionText"`
	Options      optionSet `json:"options"`
	Answer       string    `json:"answer"`
}

// optionSet is the server's fixed four-slot answer layout. Unused slots
// come back empty.
type optionSet struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

// list returns the populated options in A..D order.
func (o optionSet) list() []string {
	var out []string
	for _, v := range [...]string{o.A, o.B, o.C, o.D} {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Answer is one submitted answer. SelectedOption is the letter key the
// server expects, not the option text.
type Answer struct {
	QuestionID     string `json:"questionId"`
	SelectedOption string `json:"selectedOption"`
}

type submitRequest struct {
	Answers []Answer `json:"answers"`
}

type submitResponse struct {
	Message string        `json:"message"`
	Data    *SubmitResult `json:"data"`
}

// SubmitResult is the server's grading of a submitted answer set.
type SubmitResult struct {
	Score          float64        `json:"score"`
	CorrectCount   int            `json:"correctCount"`
	TotalQuestions int            `json:"totalQuestions"`
	Details        []AnswerDetail `json:"details"`
}

// Percentage returns the fraction of answers graded correct.
func (r *SubmitResult) Percentage() float64 {
	if r.TotalQuestions == 0 {
		return 0
	}
	return float64(r.CorrectCount) / float64(r.TotalQuestions)
}

// AnswerDetail is the server's per-question grading detail.
type AnswerDetail struct {
	QuestionID    string `json:"questionId"`
	IsCorrect     bool   `json:"isCorrect"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
}

type currencyRequest struct {
	Key    string `json:"key"`
	Gold   int    `json:"gold"`
	Points int    `json:"points"`
}
