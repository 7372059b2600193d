package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/tensetrainer/internal/auth"
	"github.com/abhisek/tensetrainer/internal/feedback"
	"github.com/abhisek/tensetrainer/internal/questiongen"
	"github.com/abhisek/tensetrainer/internal/store"
	"github.com/abhisek/tensetrainer/internal/training"
)

type testServer struct {
	app   *fiber.App
	store *store.Store
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	st, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	trainingSvc := training.NewService(st.Sessions(), st.Reports(), questiongen.NewStatic(3), feedback.Static{}, logger)
	authSvc := auth.NewService(st.Users(), auth.Config{
		Secret:     []byte("api-test-secret"),
		BcryptCost: bcrypt.MinCost,
	}, nil, logger)

	opts.Ping = func(ctx context.Context) error { return st.DB().PingContext(ctx) }
	return &testServer{app: New(trainingSvc, authSvc, logger, opts), store: st}
}

// do sends a JSON request and decodes the JSON response into out when
// out is non-nil.
func (ts *testServer) do(t *testing.T, method, path, token string, body, out any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (ts *testServer) register(t *testing.T, email string) string {
	t.Helper()
	var res auth.Result
	resp := ts.do(t, http.MethodPost, "/api/v1/auth/register", "",
		auth.Credentials{Email: email, Password: "password123"}, &res)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return res.Token
}

func (ts *testServer) createSession(t *testing.T, token string) training.SessionDTO {
	t.Helper()
	var sess training.SessionDTO
	resp := ts.do(t, http.MethodPost, "/api/v1/training-sessions", token,
		map[string]string{"tense": "Past Simple", "difficulty": "Basic"}, &sess)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return sess
}

func (ts *testServer) correctAnswers(t *testing.T, roundID string) []training.AnswerInput {
	t.Helper()
	qs, err := ts.store.Sessions().GetQuestionsWithAnswers(context.Background(), roundID)
	require.NoError(t, err)
	out := make([]training.AnswerInput, len(qs))
	for i, q := range qs {
		out[i] = training.AnswerInput{QuestionID: q.ID, SelectedAnswer: q.CorrectAnswer}
	}
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Options{})
	var body map[string]string
	resp := ts.do(t, http.MethodGet, "/health", "", nil, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	ts := newTestServer(t, Options{})

	for _, tok := range []string{"", "garbage"} {
		var body errorBody
		resp := ts.do(t, http.MethodGet, "/api/v1/training-sessions", tok, nil, &body)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Unauthorized", body.Error)
		assert.NotEmpty(t, body.Message)
	}
}

func TestRegisterErrors(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.register(t, "learner@example.com")

	var conflict errorBody
	resp := ts.do(t, http.MethodPost, "/api/v1/auth/register", "",
		auth.Credentials{Email: "learner@example.com", Password: "password123"}, &conflict)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Conflict", conflict.Error)

	var invalid errorBody
	resp = ts.do(t, http.MethodPost, "/api/v1/auth/register", "",
		map[string]string{"email": "not-an-email", "password": "short"}, &invalid)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "ValidationError", invalid.Error)
	assert.Equal(t, "must be a valid email address", invalid.Details["email"])
	assert.Equal(t, "must be at least 8 characters", invalid.Details["password"])
}

func TestMalformedBody(t *testing.T) {
	ts := newTestServer(t, Options{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogoutRevokesToken(t *testing.T) {
	ts := newTestServer(t, Options{})
	token := ts.register(t, "learner@example.com")

	resp := ts.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	var body errorBody
	resp = ts.do(t, http.MethodGet, "/api/v1/training-sessions", token, nil, &body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "token has been revoked", body.Message)

	var login auth.Result
	resp = ts.do(t, http.MethodPost, "/api/v1/auth/login", "",
		auth.Credentials{Email: "learner@example.com", Password: "password123"}, &login)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(t, http.MethodGet, "/api/v1/training-sessions", login.Token, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateSessionValidation(t *testing.T) {
	ts := newTestServer(t, Options{})
	token := ts.register(t, "learner@example.com")

	var body errorBody
	resp := ts.do(t, http.MethodPost, "/api/v1/training-sessions", token,
		map[string]string{"tense": "Future Simple", "difficulty": "Basic"}, &body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body.Details["tense"], "Past Simple")
	assert.NotContains(t, body.Details, "difficulty")
}

func TestInvalidAnswersAreBadRequest(t *testing.T) {
	ts := newTestServer(t, Options{})
	token := ts.register(t, "learner@example.com")
	sess := ts.createSession(t, token)

	var created training.CreateRoundResult
	resp := ts.do(t, http.MethodPost, "/api/v1/training-sessions/"+sess.ID+"/rounds", token, nil, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	path := "/api/v1/rounds/" + created.Round.ID + "/complete"

	blank := ts.correctAnswers(t, created.Round.ID)
	blank[3].SelectedAnswer = ""

	for name, body := range map[string]any{
		"missing answers": map[string]any{},
		"empty selection": training.CompleteRoundInput{Answers: blank},
	} {
		var res errorBody
		resp := ts.do(t, http.MethodPost, path, token, body, &res)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, name)
		assert.Equal(t, "BadRequest", res.Error, name)
	}

	resp = ts.do(t, http.MethodPost, path, token,
		training.CompleteRoundInput{Answers: ts.correctAnswers(t, created.Round.ID)}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t, Options{})
	token := ts.register(t, "learner@example.com")
	sess := ts.createSession(t, token)
	assert.Equal(t, "active", sess.Status)

	var created map[string]any
	resp := ts.do(t, http.MethodPost, "/api/v1/training-sessions/"+sess.ID+"/rounds", token, nil, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	questions := created["questions"].([]any)
	require.Len(t, questions, 10)
	for _, q := range questions {
		assert.NotContains(t, q.(map[string]any), "correct_answer")
	}
	roundID := created["round"].(map[string]any)["id"].(string)

	// Nine answers are rejected and nothing is written.
	answers := ts.correctAnswers(t, roundID)
	var short errorBody
	resp = ts.do(t, http.MethodPost, "/api/v1/rounds/"+roundID+"/complete", token,
		training.CompleteRoundInput{Answers: answers[:9]}, &short)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "BadRequest", short.Error)

	var done training.CompleteRoundResult
	resp = ts.do(t, http.MethodPost, "/api/v1/rounds/"+roundID+"/complete", token,
		training.CompleteRoundInput{Answers: answers}, &done)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "10/10", done.Summary.Score)
	require.NotNil(t, done.Round.RoundFeedback)

	var again errorBody
	resp = ts.do(t, http.MethodPost, "/api/v1/rounds/"+roundID+"/complete", token,
		training.CompleteRoundInput{Answers: answers}, &again)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var early errorBody
	resp = ts.do(t, http.MethodPost, "/api/v1/training-sessions/"+sess.ID+"/complete", token, nil, &early)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var detail map[string]any
	resp = ts.do(t, http.MethodGet, "/api/v1/training-sessions/"+sess.ID, token, nil, &detail)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rounds := detail["rounds"].([]any)
	require.Len(t, rounds, 1)
	first := rounds[0].(map[string]any)["questions"].([]any)[0].(map[string]any)
	assert.Contains(t, first, "correct_answer")
	assert.IsType(t, map[string]any{}, first["user_answer"])
	assert.NotContains(t, detail, "summary")

	var list training.SessionList
	resp = ts.do(t, http.MethodGet, "/api/v1/training-sessions?status=active&limit=5", token, nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, 1, list.Sessions[0].RoundsCompleted)
	assert.Equal(t, 10, list.Sessions[0].TotalScore)
	assert.Equal(t, 5, list.Pagination.ItemsPerPage)

	resp = ts.do(t, http.MethodDelete, "/api/v1/training-sessions/"+sess.ID, token, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = ts.do(t, http.MethodGet, "/api/v1/training-sessions/"+sess.ID, token, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCompleteSessionOverHTTP(t *testing.T) {
	ts := newTestServer(t, Options{})
	token := ts.register(t, "learner@example.com")
	sess := ts.createSession(t, token)

	for range 3 {
		var created training.CreateRoundResult
		resp := ts.do(t, http.MethodPost, "/api/v1/training-sessions/"+sess.ID+"/rounds", token, nil, &created)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp = ts.do(t, http.MethodPost, "/api/v1/rounds/"+created.Round.ID+"/complete", token,
			training.CompleteRoundInput{Answers: ts.correctAnswers(t, created.Round.ID)}, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	var res training.CompleteSessionResult
	resp := ts.do(t, http.MethodPost, "/api/v1/training-sessions/"+sess.ID+"/complete", token, nil, &res)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", res.Session.Status)
	assert.Equal(t, "30/30", res.Summary.TotalScore)
	assert.True(t, res.Summary.PerfectScore)
	assert.Equal(t, []int{10, 10, 10}, res.Summary.RoundsScores)

	var detail training.SessionDetailDTO
	resp = ts.do(t, http.MethodGet, "/api/v1/training-sessions/"+sess.ID, token, nil, &detail)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, detail.Summary)
	assert.Equal(t, 100, detail.Summary.AccuracyPercentage)
}

func TestOtherUsersSessionsAreNotFound(t *testing.T) {
	ts := newTestServer(t, Options{})
	owner := ts.register(t, "owner@example.com")
	other := ts.register(t, "other@example.com")
	sess := ts.createSession(t, owner)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/training-sessions/" + sess.ID},
		{http.MethodDelete, "/api/v1/training-sessions/" + sess.ID},
		{http.MethodPost, "/api/v1/training-sessions/" + sess.ID + "/rounds"},
		{http.MethodPost, "/api/v1/training-sessions/" + sess.ID + "/complete"},
	} {
		var body errorBody
		resp := ts.do(t, tc.method, tc.path, other, nil, &body)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "%s %s", tc.method, tc.path)
		assert.Equal(t, "NotFound", body.Error)
	}
}

func TestListSessionsBadQuery(t *testing.T) {
	ts := newTestServer(t, Options{})
	token := ts.register(t, "learner@example.com")

	for _, q := range []string{"page=0", "page=abc", "limit=500", "status=paused", "sort=up"} {
		var body errorBody
		resp := ts.do(t, http.MethodGet, "/api/v1/training-sessions?"+q, token, nil, &body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
		assert.NotEmpty(t, body.Details, q)
	}
}

func TestSessionCreationRateLimit(t *testing.T) {
	ts := newTestServer(t, Options{SessionCreateLimit: 2, RateWindow: time.Minute})
	token := ts.register(t, "learner@example.com")
	other := ts.register(t, "other@example.com")

	ts.createSession(t, token)
	ts.createSession(t, token)

	var body errorBody
	resp := ts.do(t, http.MethodPost, "/api/v1/training-sessions", token,
		map[string]string{"tense": "Past Simple", "difficulty": "Basic"}, &body)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RateLimitExceeded", body.Error)
	assert.Greater(t, body.RetryAfter, 0)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// Limits are per user.
	ts.createSession(t, other)
}

func TestQuestionReport(t *testing.T) {
	ts := newTestServer(t, Options{})
	token := ts.register(t, "learner@example.com")
	sess := ts.createSession(t, token)

	var created training.CreateRoundResult
	resp := ts.do(t, http.MethodPost, "/api/v1/training-sessions/"+sess.ID+"/rounds", token, nil, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var rep training.ReportDTO
	resp = ts.do(t, http.MethodPost, "/api/v1/question-reports", token, training.ReportInput{
		QuestionID: created.Questions[0].ID,
		Comment:    "Two options are correct here.",
	}, &rep)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "pending", rep.Status)

	var invalid errorBody
	resp = ts.do(t, http.MethodPost, "/api/v1/question-reports", token,
		map[string]string{"question_id": "nope", "comment": ""}, &invalid)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, invalid.Details, "question_id")
	assert.Contains(t, invalid.Details, "comment")
}

func TestPasswordResetOverHTTP(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.register(t, "learner@example.com")

	resp := ts.do(t, http.MethodPost, "/api/v1/auth/password-reset", "",
		auth.ResetRequest{Email: "learner@example.com"}, nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body errorBody
	resp = ts.do(t, http.MethodPost, "/api/v1/auth/password-reset/confirm", "",
		auth.ResetConfirm{Token: "forged", NewPassword: "newpassword1"}, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "BadRequest", body.Error)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	ts := newTestServer(t, Options{})
	var body errorBody
	resp := ts.do(t, http.MethodGet, "/nope", "", nil, &body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NotFound", body.Error)
}
