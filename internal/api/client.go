package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dreamclass/examengine/internal/quiz"
)

const (
	quizzesPath    = "/api/quizzes"
	defaultTimeout = 15 * time.Second

	// Responses are small; cap error-body reads so a misbehaving
	// server cannot balloon an error message.
	maxErrorBody = 2 << 10
)

// Client talks to the quiz server with bearer-token authentication.
// A zero token means unauthenticated; every call fails fast with
// ErrUnauthenticated so callers can fall back to local data without
// a network round trip.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// NewClient creates a client for the given server. httpc may be nil
// for a default client with a request timeout.
func NewClient(baseURL, token string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   httpc,
	}
}

// Authenticated reports whether the client holds a token.
func (c *Client) Authenticated() bool { return c.token != "" }

// FetchQuizzes retrieves the full question catalog. Quizzes sharing a
// subject name and grade merge into one catalog subject; questions get
// 1-based local ids per chapter so remote and local banks share an
// addressing scheme.
func (c *Client) FetchQuizzes(ctx context.Context) (*quiz.Catalog, error) {
	var resp quizListResponse
	if err := c.do(ctx, http.MethodGet, quizzesPath, nil, &resp); err != nil {
		return nil, err
	}
	return buildCatalog(resp.Data), nil
}

// SubmitQuiz posts an answer set for server-side grading. quizID is the
// server identity of the subject the answers belong to.
func (c *Client) SubmitQuiz(ctx context.Context, quizID string, answers []Answer) (*SubmitResult, error) {
	if quizID == "" {
		return nil, fmt.Errorf("submit quiz: empty quiz id")
	}
	path := fmt.Sprintf("%s/%s/submit", quizzesPath, quizID)
	var resp submitResponse
	if err := c.do(ctx, http.MethodPost, path, submitRequest{Answers: answers}, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, &DecodeError{Op: "submit quiz", Err: fmt.Errorf("response has no data field")}
	}
	return resp.Data, nil
}

// PushCurrency credits the player's earned gold and points after a
// finished exam. key is the reward endpoint's API key, distinct from
// the bearer token.
func (c *Client) PushCurrency(ctx context.Context, playerID, key string, gold, points int) error {
	if playerID == "" {
		return fmt.Errorf("push currency: empty player id")
	}
	path := fmt.Sprintf("/api/players/test/currency/%s", playerID)
	return c.do(ctx, http.MethodPut, path, currencyRequest{Key: key, Gold: gold, Points: points}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := fmt.Sprintf("%s %s", method, path)

	if !c.Authenticated() {
		return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}

// buildCatalog converts the wire records into the internal catalog
// shape. The server may repeat a subject/grade pair across quiz
// documents; their chapters merge under one subject keyed by the first
// document's id. Questions missing an answer default to the first
// option's key.
func buildCatalog(records []quizRecord) *quiz.Catalog {
	catalog := &quiz.Catalog{}
	index := make(map[string]int)

	for _, rec := range records {
		key := rec.Subject + "\x00" + rec.Grade
		i, ok := index[key]
		if !ok {
			i = len(catalog.Subjects)
			index[key] = i
			catalog.Subjects = append(catalog.Subjects, quiz.Subject{
				ID:    rec.ID,
				Name:  rec.Subject,
				Grade: rec.Grade,
			})
		}
		subject := &catalog.Subjects[i]

		for _, ch := range rec.Chapters {
			chapter := quiz.Chapter{ID: ch.ID, Name: ch.Name}
			for n, q := range ch.Questions {
				correct := q.Answer
				if correct == "" {
					correct = "A"
				}
				chapter.Questions = append(chapter.Questions, quiz.Question{
					ID:      q.ID,
					LocalID: n + 1,
					Text:    q.QuestionText,
					Options: q.Options.list(),
					Correct: correct,
				})
			}
			subject.Chapters = append(subject.Chapters, chapter)
		}
	}

	return catalog
}
