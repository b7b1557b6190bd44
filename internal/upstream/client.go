// Package upstream is the HTTP client for the external quiz API, which owns
// all persistence, authentication, scoring, and analytics. The gateway never
// interprets those responses beyond decoding them; business meaning stays
// upstream.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/quizgate/quizgate/internal/model"
)

// Error is a non-success response from the upstream API. The Detail field
// carries the upstream's own message so it can be surfaced to the user.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream rejected request (%d): %s", e.StatusCode, e.Detail)
}

// Client talks to the external quiz API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the given base URL. The http.Client's
// timeout bounds every upstream call in addition to request contexts.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// Authenticate validates credentials for a role and returns the upstream
// identity and API token.
func (c *Client) Authenticate(ctx context.Context, userID, password, role string) (*LoginResult, error) {
	body := loginRequest{UserID: userID, Password: password, Role: role}

	var result LoginResult
	if err := c.postJSON(ctx, "/auth/login", "", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates a new account upstream.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.postJSON(ctx, "/auth/register", "", req, nil)
}

// ListTrainerQuizzes returns the quizzes owned by a trainer.
func (c *Client) ListTrainerQuizzes(ctx context.Context, token, trainerID string) ([]model.QuizSummary, error) {
	var quizzes []model.QuizSummary
	if err := c.getJSON(ctx, "/quiz/trainer/"+trainerID, token, &quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}

// ListOpenQuizzes returns the quizzes visible to participants.
func (c *Client) ListOpenQuizzes(ctx context.Context, token string) ([]model.QuizSummary, error) {
	var quizzes []model.QuizSummary
	if err := c.getJSON(ctx, "/quiz/", token, &quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}

// CreateQuiz persists a new quiz. The question source file is streamed as
// the "file" part of a multipart form, alongside the schedule fields.
func (c *Client) CreateQuiz(ctx context.Context, token string, req CreateQuizForm, filename string, file io.Reader) (*CreateQuizResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"title":            req.Title,
		"start_time":       req.StartTime,
		"end_time":         req.EndTime,
		"num_questions":    fmt.Sprintf("%d", req.NumQuestions),
		"duration_minutes": fmt.Sprintf("%d", req.DurationMinutes),
		"trainer_id":       req.TrainerID,
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", name, err)
		}
	}

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy quiz file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/quiz/create", &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	setAuth(httpReq, token)

	var result CreateQuizResult
	if err := c.do(httpReq, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StartQuiz transitions a quiz to the started status.
func (c *Client) StartQuiz(ctx context.Context, token string, quizID int) error {
	return c.postJSON(ctx, fmt.Sprintf("/quiz/%d/start", quizID), token, nil, nil)
}

// EndQuiz transitions a quiz to the completed status.
func (c *Client) EndQuiz(ctx context.Context, token string, quizID int) error {
	return c.postJSON(ctx, fmt.Sprintf("/quiz/%d/end", quizID), token, nil, nil)
}

// FetchQuestions returns the ordered question list for an attempt.
func (c *Client) FetchQuestions(ctx context.Context, token string, quizID int) ([]model.Question, error) {
	var questions []model.Question
	if err := c.getJSON(ctx, fmt.Sprintf("/quiz/%d/questions/", quizID), token, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// SubmitAttempt posts a finished attempt for scoring and returns the score.
func (c *Client) SubmitAttempt(ctx context.Context, token string, payload interface{}) (*SubmitResult, error) {
	var result SubmitResult
	if err := c.postJSON(ctx, "/results/submit", token, payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchAnalysis returns the precomputed aggregated statistics for a quiz.
func (c *Client) FetchAnalysis(ctx context.Context, token string, quizID int) (*model.QuizAnalysis, error) {
	var analysis model.QuizAnalysis
	if err := c.getJSON(ctx, fmt.Sprintf("/analytics/quiz/%d/analysis", quizID), token, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// ────────────────────────────────────────────────────────────────────────────
// Transport helpers
// ────────────────────────────────────────────────────────────────────────────

func (c *Client) getJSON(ctx context.Context, path, token string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	setAuth(req, token)
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	setAuth(req, token)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call upstream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode upstream response: %w", err)
	}
	return nil
}

// decodeError extracts the upstream's {"detail": ...} message if present.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Detail string `json:"detail"`
	}
	detail := ""
	if err := json.Unmarshal(raw, &body); err == nil {
		detail = body.Detail
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}

	return &Error{StatusCode: resp.StatusCode, Detail: detail}
}

func setAuth(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
