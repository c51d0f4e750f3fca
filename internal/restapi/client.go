// Package restapi is the typed client for the forum REST service.
//
// Every operation is an awaitable call returning a result or a typed
// failure; the pull synchronizer and mutation dispatcher compose these
// directly. Requests carry a bounded timeout so a dead service surfaces as
// a recoverable error instead of a hang.
package restapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openfloor/openfloor/pkg/forum"
)

// DefaultTimeout bounds each individual request.
const DefaultTimeout = 10 * time.Second

// Client provides typed operations over the forum REST surface.
// The client is safe for concurrent use. Admin operations require a
// bearer token set via SetToken.
type Client struct {
	baseURL string
	httpc   *http.Client
	token   string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpc.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client (used in tests).
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// NewClient creates a client for the service at baseURL
// (e.g. "http://localhost:8090").
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// SetToken sets the bearer token sent with admin operations.
func (c *Client) SetToken(token string) {
	c.token = token
}

// BaseURL returns the service base URL this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListQuestions fetches the full question list.
func (c *Client) ListQuestions(ctx context.Context) ([]forum.Question, error) {
	var questions []forum.Question
	if err := c.doJSON(ctx, "list questions", http.MethodGet, "/questions", nil, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// ListAnswers fetches the answer list for one question.
func (c *Client) ListAnswers(ctx context.Context, questionID string) ([]forum.Answer, error) {
	var answers []forum.Answer
	path := "/answers/" + url.PathEscape(questionID)
	if err := c.doJSON(ctx, "list answers", http.MethodGet, path, nil, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

// CreateQuestion posts a new question and returns the created entity.
func (c *Client) CreateQuestion(ctx context.Context, message string) (*forum.Question, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("question message cannot be empty")
	}

	query := url.Values{"message": {message}}
	var question forum.Question
	if err := c.doJSON(ctx, "create question", http.MethodPost, "/question?"+query.Encode(), nil, &question); err != nil {
		return nil, err
	}
	return &question, nil
}

// CreateAnswer posts a new answer and returns the created entity.
func (c *Client) CreateAnswer(ctx context.Context, questionID, message string) (*forum.Answer, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("answer message cannot be empty")
	}

	query := url.Values{"questionid": {questionID}, "answer": {message}}
	var answer forum.Answer
	if err := c.doJSON(ctx, "create answer", http.MethodPost, "/answer?"+query.Encode(), nil, &answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

// ChangeStatus moves a question to a new triage status. Admin only.
func (c *Client) ChangeStatus(ctx context.Context, questionID string, status forum.Status) error {
	if err := status.Validate(); err != nil {
		return err
	}

	query := url.Values{"questionid": {questionID}, "new_status": {string(status)}}
	return c.doJSON(ctx, "change status", http.MethodPost, "/auth/change-status?"+query.Encode(), nil, nil)
}

// DeleteAnswer removes an answer. Admin only.
func (c *Client) DeleteAnswer(ctx context.Context, answerID string) error {
	query := url.Values{"answerid": {answerID}}
	return c.doJSON(ctx, "delete answer", http.MethodDelete, "/auth/answer?"+query.Encode(), nil, nil)
}

// tokenResponse mirrors the auth endpoint's response body.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a bearer token and installs it on the
// client for subsequent admin operations.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{"username": {username}, "password": {password}}
	body := strings.NewReader(form.Encode())

	var token tokenResponse
	err := c.doForm(ctx, "login", "/auth/token", body, &token)
	if err != nil {
		return "", err
	}

	c.token = token.AccessToken
	return token.AccessToken, nil
}

// Register creates a new admin user account.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal register request: %w", err)
	}

	return c.doJSON(ctx, "register", http.MethodPost, "/auth/register", strings.NewReader(string(payload)), nil)
}

// doJSON issues a request and decodes a JSON response into out (when out
// is non-nil). Network failures become TransportError, non-2xx responses
// become StatusError.
func (c *Client) doJSON(ctx context.Context, op, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.send(req, op, out)
}

// doForm issues a form-encoded POST (the auth token endpoint is the one
// place the service expects a form body rather than query parameters).
func (c *Client) doForm(ctx context.Context, op, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	return c.send(req, op, out)
}

func (c *Client) send(req *http.Request, op string, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Body is best-effort context for the error message; cap it so a
		// misbehaving service cannot balloon the error.
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}

	return nil
}
