package store

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Session statuses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Session is a training_sessions row.
type Session struct {
	ID            string     `db:"id"`
	UserID        string     `db:"user_id"`
	Tense         string     `db:"tense"`
	Difficulty    string     `db:"difficulty"`
	Status        string     `db:"status"`
	StartedAt     time.Time  `db:"started_at"`
	CompletedAt   *time.Time `db:"completed_at"`
	FinalFeedback *string    `db:"final_feedback"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// Round is a rounds row. Score and RoundFeedback are set once, together
// with CompletedAt.
type Round struct {
	ID            string     `db:"id"`
	SessionID     string     `db:"session_id"`
	RoundNumber   int        `db:"round_number"`
	StartedAt     time.Time  `db:"started_at"`
	CompletedAt   *time.Time `db:"completed_at"`
	Score         *int       `db:"score"`
	RoundFeedback *string    `db:"round_feedback"`
}

// Completed reports whether the round has been scored.
func (r *Round) Completed() bool {
	return r.CompletedAt != nil
}

// Question is a questions row.
type Question struct {
	ID             string     `db:"id"`
	RoundID        string     `db:"round_id"`
	QuestionNumber int        `db:"question_number"`
	QuestionText   string     `db:"question_text"`
	Options        StringList `db:"options"`
	CorrectAnswer  string     `db:"correct_answer"`
}

// HasOption reports whether s is one of the question's options.
func (q *Question) HasOption(s string) bool {
	for _, o := range q.Options {
		if o == s {
			return true
		}
	}
	return false
}

// UserAnswer is a user_answers row.
type UserAnswer struct {
	ID             string    `db:"id"`
	QuestionID     string    `db:"question_id"`
	SessionID      string    `db:"session_id"`
	SelectedAnswer string    `db:"selected_answer"`
	IsCorrect      bool      `db:"is_correct"`
	AnsweredAt     time.Time `db:"answered_at"`
}

// QuestionWithAnswer pairs a question with its answer, if one exists.
type QuestionWithAnswer struct {
	Question
	Answer *UserAnswer
}

// RoundWithQuestions is a round and its questions in question_number order.
type RoundWithQuestions struct {
	Round
	Questions []QuestionWithAnswer
}

// SessionDetail is a session with every round, question and answer.
type SessionDetail struct {
	Session
	Rounds []RoundWithQuestions
}

// SessionListRow is a session with its rounds, for listings.
type SessionListRow struct {
	Session
	Rounds []Round
}

// ListFilter selects and pages a user's sessions. Sort is "asc" or "desc"
// by started_at.
type ListFilter struct {
	Status string
	Page   int
	Limit  int
	Sort   string
}

// StringList is a []string persisted as a JSON array in a TEXT column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("store: cannot scan %T into StringList", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("store: decode string list: %w", err)
	}
	*l = out
	return nil
}

// User is a local identity.
type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Report statuses.
const (
	ReportPending  = "pending"
	ReportReviewed = "reviewed"
	ReportResolved = "resolved"
)

// QuestionReport is a user-submitted flag on a question.
type QuestionReport struct {
	ID         string    `db:"id"`
	QuestionID string    `db:"question_id"`
	UserID     string    `db:"user_id"`
	Comment    string    `db:"comment"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
}

// LLMRequestEvent records a single AI provider call.
type LLMRequestEvent struct {
	ID           int64     `db:"id"`
	Timestamp    time.Time `db:"created_at"`
	Provider     string    `db:"provider"`
	Model        string    `db:"model"`
	Purpose      string    `db:"purpose"`
	InputTokens  int       `db:"input_tokens"`
	OutputTokens int       `db:"output_tokens"`
	LatencyMs    int64     `db:"latency_ms"`
	Success      bool      `db:"success"`
	ErrorMessage string    `db:"error_message"`
	RequestBody  string    `db:"request_body"`
	ResponseBody string    `db:"response_body"`
}

// QueryOpts configures LLM event listings.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	Purpose string // exact match when set
}

// PurposeUsage aggregates LLM usage for one purpose.
type PurposeUsage struct {
	Purpose      string `db:"purpose"`
	Calls        int    `db:"calls"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
	AvgLatencyMs int64  `db:"avg_latency_ms"`
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string `db:"model"`
	Calls        int    `db:"calls"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
}

// SessionRepo persists training sessions, rounds, questions and answers.
// Every read taking a userID is scoped to that owner; rows owned by
// someone else are reported as ErrNotFound.
type SessionRepo interface {
	CreateSession(ctx context.Context, s *Session) error
	DeleteSession(ctx context.Context, userID, sessionID string) error
	GetSessionByID(ctx context.Context, userID, sessionID string) (*Session, error)
	GetRoundsBySessionID(ctx context.Context, sessionID string) ([]Round, error)

	CreateRound(ctx context.Context, r *Round) error
	// CreateQuestions inserts the batch in one transaction.
	CreateQuestions(ctx context.Context, qs []Question) error
	// CreateRoundWithQuestions inserts the round and its questions in one
	// transaction. A duplicate round number yields ErrConflict.
	CreateRoundWithQuestions(ctx context.Context, r *Round, qs []Question) error
	DeleteRound(ctx context.Context, roundID string) error
	GetRoundWithSession(ctx context.Context, userID, roundID string) (*Round, *Session, error)
	GetQuestionsWithAnswers(ctx context.Context, roundID string) ([]QuestionWithAnswer, error)
	GetQuestionForUser(ctx context.Context, userID, questionID string) (*Question, error)

	// CreateUserAnswers inserts the batch all-or-nothing.
	CreateUserAnswers(ctx context.Context, answers []UserAnswer) error
	// UpdateRoundCompletion sets score, feedback and completed_at on an
	// open round. A round that is already completed yields ErrConflict.
	UpdateRoundCompletion(ctx context.Context, roundID string, score int, feedback string) (*Round, error)
	// CompleteRoundWithAnswers inserts the answers and closes the round in
	// one transaction. Either both happen or neither does.
	CompleteRoundWithAnswers(ctx context.Context, roundID string, answers []UserAnswer, score int, feedback string) (*Round, error)
	// UpdateSessionCompletion marks an active session completed.
	UpdateSessionCompletion(ctx context.Context, sessionID, finalFeedback string) (*Session, error)

	GetSessionsWithRounds(ctx context.Context, userID string, f ListFilter) ([]SessionListRow, int, error)
	GetSessionWithDetails(ctx context.Context, userID, sessionID string) (*SessionDetail, error)
}

// EventRepo stores the LLM request audit log.
type EventRepo interface {
	AppendLLMRequest(ctx context.Context, ev LLMRequestEvent) error
	ListLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)
	// GetLLMRequest returns ErrNotFound for an unknown id.
	GetLLMRequest(ctx context.Context, id int64) (*LLMRequestEvent, error)
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
	// PruneLLMRequests deletes events recorded before the cutoff.
	PruneLLMRequests(ctx context.Context, before time.Time) (int64, error)
}

// UserRepo stores local identities and revoked token ids.
type UserRepo interface {
	// CreateUser yields ErrConflict when the email is taken.
	CreateUser(ctx context.Context, u *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	PruneRevokedTokens(ctx context.Context, now time.Time) (int64, error)
}

// ReportRepo stores question reports.
type ReportRepo interface {
	CreateReport(ctx context.Context, r *QuestionReport) error
	ListReportsByUser(ctx context.Context, userID string) ([]QuestionReport, error)
}
