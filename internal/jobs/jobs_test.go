package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tensetrainer/internal/store"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPrunerRun(t *testing.T) {
	st, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, age := range []time.Duration{40 * 24 * time.Hour, 31 * 24 * time.Hour, time.Hour} {
		require.NoError(t, st.EventRepo().AppendLLMRequest(ctx, store.LLMRequestEvent{
			Timestamp: now.Add(-age),
			Provider:  "mock",
			Model:     "mock",
			Purpose:   "questions",
			Success:   true,
		}))
	}
	require.NoError(t, st.Users().RevokeToken(ctx, "expired", now.Add(-time.Minute)))
	require.NoError(t, st.Users().RevokeToken(ctx, "live", now.Add(time.Hour)))

	p := NewPruner(st.EventRepo(), st.Users(), 30*24*time.Hour, discard())
	p.now = func() time.Time { return now }
	require.NoError(t, p.Run(ctx))

	left, err := st.EventRepo().ListLLMRequests(ctx, store.QueryOpts{})
	require.NoError(t, err)
	assert.Len(t, left, 1)

	revoked, err := st.Users().IsTokenRevoked(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, revoked)
	revoked, err = st.Users().IsTokenRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestStartRejectsBadSpec(t *testing.T) {
	_, err := Start("every tuesday-ish", &Pruner{}, discard())
	assert.Error(t, err)
}

func TestStartAndStop(t *testing.T) {
	s, err := Start("@daily", &Pruner{}, discard())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
