package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

// sessionRepo implements SessionRepo over sqlx.
type sessionRepo struct {
	db *sqlx.DB
}

const sessionColumns = `id, user_id, tense, difficulty, status, started_at, completed_at,
	final_feedback, created_at, updated_at`

const roundColumns = `id, session_id, round_number, started_at, completed_at, score, round_feedback`

func (r *sessionRepo) CreateSession(ctx context.Context, s *Session) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO training_sessions (`+sessionColumns+`)
		VALUES (:id, :user_id, :tense, :difficulty, :status, :started_at, :completed_at,
			:final_feedback, :created_at, :updated_at)`, s)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *sessionRepo) DeleteSession(ctx context.Context, userID, sessionID string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`DELETE FROM training_sessions WHERE id = ? AND user_id = ?`), sessionID, userID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sessionRepo) GetSessionByID(ctx context.Context, userID, sessionID string) (*Session, error) {
	var s Session
	err := r.db.GetContext(ctx, &s, r.db.Rebind(
		`SELECT `+sessionColumns+` FROM training_sessions WHERE id = ? AND user_id = ?`),
		sessionID, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *sessionRepo) GetRoundsBySessionID(ctx context.Context, sessionID string) ([]Round, error) {
	var rounds []Round
	err := r.db.SelectContext(ctx, &rounds, r.db.Rebind(
		`SELECT `+roundColumns+` FROM rounds WHERE session_id = ? ORDER BY round_number`),
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("select rounds: %w", err)
	}
	return rounds, nil
}

const insertRound = `
	INSERT INTO rounds (` + roundColumns + `)
	VALUES (:id, :session_id, :round_number, :started_at, :completed_at, :score, :round_feedback)`

const insertQuestion = `
	INSERT INTO questions (id, round_id, question_number, question_text, options, correct_answer)
	VALUES (:id, :round_id, :question_number, :question_text, :options, :correct_answer)`

func (r *sessionRepo) CreateRound(ctx context.Context, rd *Round) error {
	if _, err := r.db.NamedExecContext(ctx, insertRound, rd); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

func (r *sessionRepo) CreateQuestions(ctx context.Context, qs []Question) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return insertQuestions(ctx, tx, qs)
	})
}

func (r *sessionRepo) CreateRoundWithQuestions(ctx context.Context, rd *Round, qs []Question) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, insertRound, rd); err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return fmt.Errorf("insert round: %w", err)
		}
		return insertQuestions(ctx, tx, qs)
	})
}

func insertQuestions(ctx context.Context, tx *sqlx.Tx, qs []Question) error {
	for i := range qs {
		if _, err := tx.NamedExecContext(ctx, insertQuestion, &qs[i]); err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return fmt.Errorf("insert question %d: %w", qs[i].QuestionNumber, err)
		}
	}
	return nil
}

func (r *sessionRepo) DeleteRound(ctx context.Context, roundID string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM rounds WHERE id = ?`), roundID)
	if err != nil {
		return fmt.Errorf("delete round: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sessionRepo) GetRoundWithSession(ctx context.Context, userID, roundID string) (*Round, *Session, error) {
	var rd Round
	err := r.db.GetContext(ctx, &rd, r.db.Rebind(
		`SELECT `+roundColumns+` FROM rounds WHERE id = ?`), roundID)
	if err != nil {
		return nil, nil, notFound(err)
	}

	s, err := r.GetSessionByID(ctx, userID, rd.SessionID)
	if err != nil {
		return nil, nil, err
	}
	return &rd, s, nil
}

// questionAnswerRow is a questions row LEFT JOINed with its answer.
type questionAnswerRow struct {
	Question
	AnswerID        *string    `db:"answer_id"`
	AnswerSessionID *string    `db:"answer_session_id"`
	SelectedAnswer  *string    `db:"selected_answer"`
	IsCorrect       *bool      `db:"is_correct"`
	AnsweredAt      *time.Time `db:"answered_at"`
}

func (row questionAnswerRow) toQuestionWithAnswer() QuestionWithAnswer {
	qa := QuestionWithAnswer{Question: row.Question}
	if row.AnswerID == nil {
		return qa
	}
	qa.Answer = &UserAnswer{
		ID:         *row.AnswerID,
		QuestionID: row.ID,
	}
	if row.AnswerSessionID != nil {
		qa.Answer.SessionID = *row.AnswerSessionID
	}
	if row.SelectedAnswer != nil {
		qa.Answer.SelectedAnswer = *row.SelectedAnswer
	}
	if row.IsCorrect != nil {
		qa.Answer.IsCorrect = *row.IsCorrect
	}
	if row.AnsweredAt != nil {
		qa.Answer.AnsweredAt = *row.AnsweredAt
	}
	return qa
}

const selectQuestionsWithAnswers = `
	SELECT q.id, q.round_id, q.question_number, q.question_text, q.options, q.correct_answer,
		a.id AS answer_id, a.session_id AS answer_session_id, a.selected_answer,
		a.is_correct, a.answered_at
	FROM questions q
	LEFT JOIN user_answers a ON a.question_id = q.id`

func (r *sessionRepo) GetQuestionsWithAnswers(ctx context.Context, roundID string) ([]QuestionWithAnswer, error) {
	var rows []questionAnswerRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(selectQuestionsWithAnswers+`
		WHERE q.round_id = ?
		ORDER BY q.question_number`), roundID)
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}

	out := make([]QuestionWithAnswer, len(rows))
	for i, row := range rows {
		out[i] = row.toQuestionWithAnswer()
	}
	return out, nil
}

func (r *sessionRepo) GetQuestionForUser(ctx context.Context, userID, questionID string) (*Question, error) {
	var q Question
	err := r.db.GetContext(ctx, &q, r.db.Rebind(`
		SELECT q.id, q.round_id, q.question_number, q.question_text, q.options, q.correct_answer
		FROM questions q
		JOIN rounds r ON r.id = q.round_id
		JOIN training_sessions s ON s.id = r.session_id
		WHERE q.id = ? AND s.user_id = ?`), questionID, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &q, nil
}

func (r *sessionRepo) CreateUserAnswers(ctx context.Context, answers []UserAnswer) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return insertAnswers(ctx, tx, answers)
	})
}

func insertAnswers(ctx context.Context, tx *sqlx.Tx, answers []UserAnswer) error {
	for i := range answers {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO user_answers (id, question_id, session_id, selected_answer, is_correct, answered_at)
			VALUES (:id, :question_id, :session_id, :selected_answer, :is_correct, :answered_at)`,
			&answers[i])
		if err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return fmt.Errorf("insert answer for question %s: %w", answers[i].QuestionID, err)
		}
	}
	return nil
}

func (r *sessionRepo) UpdateRoundCompletion(ctx context.Context, roundID string, score int, feedback string) (*Round, error) {
	return completeRound(ctx, r.db, roundID, score, feedback)
}

func (r *sessionRepo) CompleteRoundWithAnswers(ctx context.Context, roundID string, answers []UserAnswer, score int, feedback string) (*Round, error) {
	var rd *Round
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := insertAnswers(ctx, tx, answers); err != nil {
			return err
		}
		var err error
		rd, err = completeRound(ctx, tx, roundID, score, feedback)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rd, nil
}

// completeRound closes an open round. It reports ErrConflict when the round
// was already completed and ErrNotFound when it does not exist.
func completeRound(ctx context.Context, q sqlx.ExtContext, roundID string, score int, feedback string) (*Round, error) {
	query, args := builder(q).Update("rounds").
		Set("score", score).
		Set("round_feedback", feedback).
		Set("completed_at", time.Now().UTC()).
		Where(entsql.And(entsql.EQ("id", roundID), entsql.IsNull("completed_at"))).
		Query()
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update round: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update round: %w", err)
	}

	var rd Round
	if err := sqlx.GetContext(ctx, q, &rd, q.Rebind(
		`SELECT `+roundColumns+` FROM rounds WHERE id = ?`), roundID); err != nil {
		return nil, notFound(err)
	}
	if n == 0 {
		return nil, ErrConflict
	}
	return &rd, nil
}

func (r *sessionRepo) UpdateSessionCompletion(ctx context.Context, sessionID, finalFeedback string) (*Session, error) {
	now := time.Now().UTC()
	query, args := builder(r.db).Update("training_sessions").
		Set("status", StatusCompleted).
		Set("final_feedback", finalFeedback).
		Set("completed_at", now).
		Set("updated_at", now).
		Where(entsql.And(entsql.EQ("id", sessionID), entsql.EQ("status", StatusActive))).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	var s Session
	getErr := r.db.GetContext(ctx, &s, r.db.Rebind(
		`SELECT `+sessionColumns+` FROM training_sessions WHERE id = ?`), sessionID)
	if getErr != nil {
		return nil, notFound(getErr)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrConflict
	}
	return &s, nil
}

func (r *sessionRepo) GetSessionsWithRounds(ctx context.Context, userID string, f ListFilter) ([]SessionListRow, int, error) {
	b := builder(r.db)
	where := func() *entsql.Predicate {
		p := entsql.EQ("user_id", userID)
		if f.Status != "" {
			p = entsql.And(p, entsql.EQ("status", f.Status))
		}
		return p
	}

	var total int
	countQuery, countArgs := b.Select().Count().From(b.Table("training_sessions")).Where(where()).Query()
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	order := entsql.Desc
	if f.Sort == "asc" {
		order = entsql.Asc
	}
	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var sessions []Session
	query, args := b.Select(columnNames(sessionColumns)...).
		From(b.Table("training_sessions")).
		Where(where()).
		OrderBy(order("started_at"), order("id")).
		Limit(limit).
		Offset((page - 1) * limit).
		Query()
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("select sessions: %w", err)
	}
	if len(sessions) == 0 {
		return []SessionListRow{}, total, nil
	}

	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	query, inArgs, err := sqlx.In(
		`SELECT `+roundColumns+` FROM rounds WHERE session_id IN (?) ORDER BY round_number`, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("build rounds query: %w", err)
	}
	var rounds []Round
	if err := r.db.SelectContext(ctx, &rounds, r.db.Rebind(query), inArgs...); err != nil {
		return nil, 0, fmt.Errorf("select rounds: %w", err)
	}

	bySession := make(map[string][]Round, len(sessions))
	for _, rd := range rounds {
		bySession[rd.SessionID] = append(bySession[rd.SessionID], rd)
	}

	out := make([]SessionListRow, len(sessions))
	for i, s := range sessions {
		out[i] = SessionListRow{Session: s, Rounds: bySession[s.ID]}
	}
	return out, total, nil
}

func (r *sessionRepo) GetSessionWithDetails(ctx context.Context, userID, sessionID string) (*SessionDetail, error) {
	s, err := r.GetSessionByID(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	rounds, err := r.GetRoundsBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var rows []questionAnswerRow
	err = r.db.SelectContext(ctx, &rows, r.db.Rebind(selectQuestionsWithAnswers+`
		JOIN rounds r ON r.id = q.round_id
		WHERE r.session_id = ?
		ORDER BY r.round_number, q.question_number`), sessionID)
	if err != nil {
		return nil, fmt.Errorf("select session questions: %w", err)
	}

	byRound := make(map[string][]QuestionWithAnswer, len(rounds))
	for _, row := range rows {
		byRound[row.RoundID] = append(byRound[row.RoundID], row.toQuestionWithAnswer())
	}

	detail := &SessionDetail{Session: *s, Rounds: make([]RoundWithQuestions, len(rounds))}
	for i, rd := range rounds {
		detail.Rounds[i] = RoundWithQuestions{Round: rd, Questions: byRound[rd.ID]}
	}
	return detail, nil
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
