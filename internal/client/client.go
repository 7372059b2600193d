// Package client is a typed HTTP client for the Tense Trainer API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/tensetrainer/internal/apperr"
	"github.com/abhisek/tensetrainer/internal/auth"
	"github.com/abhisek/tensetrainer/internal/grammar"
	"github.com/abhisek/tensetrainer/internal/training"
)

// DefaultTimeout covers a round completion, which waits on AI feedback.
const DefaultTimeout = 2 * time.Minute

// Client talks to one API base URL with an optional bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a Client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Token returns the current bearer token.
func (c *Client) Token() string { return c.token }

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) { c.token = token }

// Register creates an account and keeps the returned token.
func (c *Client) Register(ctx context.Context, email, password string) (*auth.Result, error) {
	var res auth.Result
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", auth.Credentials{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	c.token = res.Token
	return &res, nil
}

// Login signs in and keeps the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*auth.Result, error) {
	var res auth.Result
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", auth.Credentials{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	c.token = res.Token
	return &res, nil
}

// Logout revokes the current token and forgets it.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/password-reset", auth.ResetRequest{Email: email}, nil)
}

func (c *Client) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/password-reset/confirm",
		auth.ResetConfirm{Token: token, NewPassword: newPassword}, nil)
}

func (c *Client) CreateSession(ctx context.Context, tense grammar.Tense, difficulty grammar.Difficulty) (*training.SessionDTO, error) {
	var s training.SessionDTO
	in := training.CreateSessionInput{Tense: tense, Difficulty: difficulty}
	if err := c.do(ctx, http.MethodPost, "/api/v1/training-sessions", in, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessions fetches one page. Zero fields are left to server defaults.
func (c *Client) ListSessions(ctx context.Context, in training.ListInput) (*training.SessionList, error) {
	q := url.Values{}
	if in.Status != "" {
		q.Set("status", in.Status)
	}
	if in.Page > 0 {
		q.Set("page", strconv.Itoa(in.Page))
	}
	if in.Limit > 0 {
		q.Set("limit", strconv.Itoa(in.Limit))
	}
	if in.Sort != "" {
		q.Set("sort", in.Sort)
	}
	path := "/api/v1/training-sessions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out training.SessionList
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSession(ctx context.Context, sessionID string) (*training.SessionDetailDTO, error) {
	var out training.SessionDetailDTO
	if err := c.do(ctx, http.MethodGet, "/api/v1/training-sessions/"+url.PathEscape(sessionID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/training-sessions/"+url.PathEscape(sessionID), nil, nil)
}

// StartRound creates the next round of a session.
func (c *Client) StartRound(ctx context.Context, sessionID string) (*training.CreateRoundResult, error) {
	var out training.CreateRoundResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/training-sessions/"+url.PathEscape(sessionID)+"/rounds", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitRound completes a round with one answer per question.
func (c *Client) SubmitRound(ctx context.Context, roundID string, answers []training.AnswerInput) (*training.CompleteRoundResult, error) {
	var out training.CompleteRoundResult
	in := training.CompleteRoundInput{Answers: answers}
	if err := c.do(ctx, http.MethodPost, "/api/v1/rounds/"+url.PathEscape(roundID)+"/complete", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CompleteSession(ctx context.Context, sessionID string) (*training.CompleteSessionResult, error) {
	var out training.CompleteSessionResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/training-sessions/"+url.PathEscape(sessionID)+"/complete", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ReportQuestion(ctx context.Context, questionID, comment string) (*training.ReportDTO, error) {
	var out training.ReportDTO
	in := training.ReportInput{QuestionID: questionID, Comment: comment}
	if err := c.do(ctx, http.MethodPost, "/api/v1/question-reports", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health returns nil when the server and its database are up.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// errorEnvelope mirrors the server's JSON error body.
type errorEnvelope struct {
	Error      string            `json:"error"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details"`
	RetryAfter int               `json:"retry_after"`
}

// do sends in as JSON and decodes a 2xx body into out. Non-2xx responses
// come back as *apperr.Error.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Error == "" {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &apperr.Error{Kind: kindForStatus(status), Message: msg}
	}
	return &apperr.Error{
		Kind:       apperr.Kind(env.Error),
		Message:    env.Message,
		Details:    env.Details,
		RetryAfter: env.RetryAfter,
	}
}

func kindForStatus(status int) apperr.Kind {
	switch status {
	case http.StatusBadRequest:
		return apperr.KindBadRequest
	case http.StatusUnauthorized:
		return apperr.KindUnauthorized
	case http.StatusNotFound:
		return apperr.KindNotFound
	case http.StatusConflict:
		return apperr.KindConflict
	case http.StatusUnprocessableEntity:
		return apperr.KindValidation
	case http.StatusTooManyRequests:
		return apperr.KindRateLimitExceeded
	default:
		return apperr.KindInternal
	}
}
