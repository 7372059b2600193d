package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tensetrainer/internal/apperr"
	"github.com/abhisek/tensetrainer/internal/config"
	"github.com/abhisek/tensetrainer/internal/store"
)

func TestPrintUsageEstimatesCost(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf,
		[]store.PurposeUsage{{Purpose: "questions", Calls: 2, InputTokens: 1000, OutputTokens: 3000, AvgLatencyMs: 900}},
		[]store.ModelUsage{
			{Model: "claude-haiku-4-5", Calls: 2, InputTokens: 1_000_000, OutputTokens: 1_000_000},
			{Model: "homebrew-1", Calls: 1},
		})

	out := buf.String()
	assert.Contains(t, out, "questions")
	assert.Contains(t, out, "$6.00")
	assert.Contains(t, out, "TOTAL (partial)")
	assert.Contains(t, out, "Pricing unavailable for: homebrew-1")
}

func TestPrintUsageEmpty(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf, nil, nil)
	assert.Equal(t, "No AI usage recorded yet.\n", buf.String())
}

func TestLLMCommandsReadStore(t *testing.T) {
	dsn := t.TempDir() + "/trainer.db"
	s, err := store.Open(dsn)
	require.NoError(t, err)
	require.NoError(t, s.EventRepo().AppendLLMRequest(context.Background(), store.LLMRequestEvent{
		Timestamp: time.Now(), Provider: "anthropic", Model: "claude-haiku-4-5", Purpose: "round-feedback",
		InputTokens: 120, OutputTokens: 40, Success: true, RequestBody: `{"messages":[]}`,
	}))
	require.NoError(t, s.Close())

	run := func(args ...string) string {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(append(args, "--db", dsn, "--config", t.TempDir()+"/none.toml"))
		require.NoError(t, rootCmd.Execute())
		return out.String()
	}

	assert.Contains(t, run("llm", "list"), "round-feedback")
	view := run("llm", "view", "1")
	assert.Contains(t, view, "Provider:  anthropic")
	assert.Contains(t, view, `{"messages":[]}`)
	assert.Contains(t, view, "(not captured)")
	assert.Contains(t, run("llm", "stats"), "claude-haiku-4-5")
}

func TestNewLogger(t *testing.T) {
	cfg = config.Default()

	var buf bytes.Buffer
	logger, err := newLogger(&buf, "json")
	require.NoError(t, err)
	logger.Info("hello", "k", 1)
	assert.True(t, strings.HasPrefix(buf.String(), "{"), "want JSON, got %q", buf.String())

	cfg.Log.Format = "text"
	buf.Reset()
	logger, err = newLogger(&buf, "json")
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.NotContains(t, buf.String(), "hidden")

	cfg.Log.Format = "xml"
	_, err = newLogger(&buf, "json")
	assert.Error(t, err)
}

func TestAPIURLPrefersExplicitConfig(t *testing.T) {
	cfg = config.Default()
	assert.Equal(t, "https://trainer.example", apiURL(config.Credentials{APIURL: "https://trainer.example"}))
	assert.Equal(t, cfg.Client.APIURL, apiURL(config.Credentials{}))

	cfg.Client.APIURL = "http://10.0.0.2:8080"
	assert.Equal(t, "http://10.0.0.2:8080", apiURL(config.Credentials{APIURL: "https://trainer.example"}))
}

func TestDescribeListsFieldErrors(t *testing.T) {
	err := describe(apperr.Validation("Validation failed", map[string]string{"email": "must be a valid email"}))
	assert.Equal(t, "Validation failed\n  email: must be a valid email", err.Error())

	plain := apperr.Unauthorized("invalid email or password")
	assert.Equal(t, plain, describe(plain))
}
