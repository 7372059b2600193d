package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

// eventRepo implements EventRepo over sqlx.
type eventRepo struct {
	db *sqlx.DB
}

const llmEventColumns = `id, created_at, provider, model, purpose, input_tokens, output_tokens,
	latency_ms, success, error_message, request_body, response_body`

func (r *eventRepo) AppendLLMRequest(ctx context.Context, ev LLMRequestEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	ev.Timestamp = ev.Timestamp.UTC()

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO llm_request_events (created_at, provider, model, purpose, input_tokens,
			output_tokens, latency_ms, success, error_message, request_body, response_body)
		VALUES (:created_at, :provider, :model, :purpose, :input_tokens,
			:output_tokens, :latency_ms, :success, :error_message, :request_body, :response_body)`, &ev)
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

// ListLLMRequests returns events newest first.
func (r *eventRepo) ListLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	b := builder(r.db)
	sel := b.Select(columnNames(llmEventColumns)...).
		From(b.Table("llm_request_events")).
		OrderBy(entsql.Desc("id"))
	if opts.Purpose != "" {
		sel.Where(entsql.EQ("purpose", opts.Purpose))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	var events []LLMRequestEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	return events, nil
}

func (r *eventRepo) GetLLMRequest(ctx context.Context, id int64) (*LLMRequestEvent, error) {
	var ev LLMRequestEvent
	err := r.db.GetContext(ctx, &ev, r.db.Rebind(
		`SELECT `+llmEventColumns+` FROM llm_request_events WHERE id = ?`), id)
	if err != nil {
		return nil, notFound(err)
	}
	return &ev, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error) {
	var out []PurposeUsage
	err := r.db.SelectContext(ctx, &out, `
		SELECT purpose,
			COUNT(*) AS calls,
			COALESCE(SUM(input_tokens), 0) AS input_tokens,
			COALESCE(SUM(output_tokens), 0) AS output_tokens,
			CAST(COALESCE(AVG(latency_ms), 0) AS BIGINT) AS avg_latency_ms
		FROM llm_request_events
		GROUP BY purpose
		ORDER BY purpose`)
	if err != nil {
		return nil, fmt.Errorf("aggregate usage by purpose: %w", err)
	}
	return out, nil
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]ModelUsage, error) {
	var out []ModelUsage
	err := r.db.SelectContext(ctx, &out, `
		SELECT model,
			COUNT(*) AS calls,
			COALESCE(SUM(input_tokens), 0) AS input_tokens,
			COALESCE(SUM(output_tokens), 0) AS output_tokens
		FROM llm_request_events
		GROUP BY model
		ORDER BY model`)
	if err != nil {
		return nil, fmt.Errorf("aggregate usage by model: %w", err)
	}
	return out, nil
}

func (r *eventRepo) PruneLLMRequests(ctx context.Context, before time.Time) (int64, error) {
	query, args := builder(r.db).Delete("llm_request_events").
		Where(entsql.LT("created_at", before.UTC())).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("prune LLM events: %w", err)
	}
	return res.RowsAffected()
}
