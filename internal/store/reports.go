package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type reportRepo struct {
	db *sqlx.DB
}

func (r *reportRepo) CreateReport(ctx context.Context, rep *QuestionReport) error {
	if rep.Status == "" {
		rep.Status = ReportPending
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO question_reports (id, question_id, user_id, comment, status, created_at)
		VALUES (:id, :question_id, :user_id, :comment, :status, :created_at)`, rep)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (r *reportRepo) ListReportsByUser(ctx context.Context, userID string) ([]QuestionReport, error) {
	var out []QuestionReport
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT id, question_id, user_id, comment, status, created_at
		FROM question_reports WHERE user_id = ?
		ORDER BY created_at DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("select reports: %w", err)
	}
	return out, nil
}
