package training

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tensetrainer/internal/apperr"
	"github.com/abhisek/tensetrainer/internal/store"
)

func round(number int, completed bool) store.Round {
	r := store.Round{ID: "r", RoundNumber: number}
	if completed {
		now := time.Now().UTC()
		r.CompletedAt = &now
	}
	return r
}

func TestCanCreateRound(t *testing.T) {
	active := &store.Session{Status: store.StatusActive}
	done := &store.Session{Status: store.StatusCompleted}

	tests := []struct {
		name     string
		session  *store.Session
		existing []store.Round
		next     int
		wantKind apperr.Kind // empty means allowed
	}{
		{"first round", active, nil, 1, ""},
		{"nil session", nil, nil, 1, apperr.KindNotFound},
		{"completed session", done, nil, 1, apperr.KindBadRequest},
		{"second after completed first", active, []store.Round{round(1, true)}, 2, ""},
		{"second while first open", active, []store.Round{round(1, false)}, 2, apperr.KindBadRequest},
		{"third out of order input", active, []store.Round{round(2, true), round(1, true)}, 3, ""},
		{"previous round missing", active, []store.Round{round(1, true)}, 3, apperr.KindBadRequest},
		{"fourth round", active, []store.Round{round(1, true), round(2, true), round(3, true)}, 4, apperr.KindBadRequest},
		{"round zero", active, nil, 0, apperr.KindBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanCreateRound(tt.session, tt.existing, tt.next)
			if tt.wantKind == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, tt.wantKind, err.Kind)
		})
	}
}

func TestCanCompleteRound(t *testing.T) {
	now := time.Now()

	assert.Nil(t, CanCompleteRound(nil, 10))

	err := CanCompleteRound(&now, 10)
	require.NotNil(t, err)
	assert.Equal(t, apperr.KindBadRequest, err.Kind)
	assert.Contains(t, err.Message, "already completed")

	for _, n := range []int{0, 9, 11} {
		err := CanCompleteRound(nil, n)
		require.NotNil(t, err, "questions=%d", n)
		assert.Equal(t, apperr.KindBadRequest, err.Kind)
	}
}

func TestCanCompleteSession(t *testing.T) {
	tests := []struct {
		status    string
		rounds    int
		completed int
		ok        bool
	}{
		{store.StatusActive, 3, 3, true},
		{store.StatusActive, 3, 2, false},
		{store.StatusActive, 2, 2, false},
		{store.StatusActive, 0, 0, false},
		{store.StatusCompleted, 3, 3, false},
	}

	for _, tt := range tests {
		err := CanCompleteSession(tt.status, tt.rounds, tt.completed)
		if tt.ok {
			assert.Nil(t, err)
			continue
		}
		require.NotNil(t, err, "%+v", tt)
		assert.Equal(t, apperr.KindBadRequest, err.Kind)
	}

	err := CanCompleteSession(store.StatusCompleted, 3, 3)
	require.NotNil(t, err)
	assert.Contains(t, err.Message, "already completed")
}
