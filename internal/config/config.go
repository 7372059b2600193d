// Package config loads settings from a TOML file, a .env file and TENSE_*
// environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/abhisek/tensetrainer/internal/llm"
)

// Config is the resolved configuration.
type Config struct {
	Server   Server
	Database Database
	LLM      llm.Config
	Log      Log
	Jobs     Jobs
	Client   Client
}

type Server struct {
	Addr               string
	JWTSecret          string
	TokenTTL           time.Duration
	AllowOrigins       string
	SessionCreateLimit int
	ReportCreateLimit  int
	RateWindow         time.Duration
}

type Database struct {
	// DSN is a SQLite path or a postgres:// URL. Empty means the default
	// SQLite file under $XDG_DATA_HOME.
	DSN string
}

type Log struct {
	Level  string // debug, info, warn, error
	Format string // text or json; empty picks json for serve, text otherwise
}

type Jobs struct {
	// LLMEventRetention is how long LLM request events are kept.
	LLMEventRetention time.Duration
	// PruneSchedule is a cron spec for the pruning job.
	PruneSchedule string
}

type Client struct {
	APIURL string
	Token  string
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Server: Server{
			Addr:               ":8080",
			TokenTTL:           24 * time.Hour,
			AllowOrigins:       "*",
			SessionCreateLimit: 10,
			ReportCreateLimit:  20,
			RateWindow:         time.Hour,
		},
		LLM: llm.DefaultConfig(),
		Log: Log{Level: "info"},
		Jobs: Jobs{
			LLMEventRetention: 30 * 24 * time.Hour,
			PruneSchedule:     "@daily",
		},
		Client: Client{APIURL: "http://localhost:8080"},
	}
}

// File is the TOML file layout. Pointer fields distinguish unset from zero.
type File struct {
	Server   FileServer   `toml:"server"`
	Database FileDatabase `toml:"database"`
	LLM      FileLLM      `toml:"llm"`
	Log      FileLog      `toml:"log"`
	Jobs     FileJobs     `toml:"jobs"`
	Client   FileClient   `toml:"client"`
}

type FileServer struct {
	Addr               *string `toml:"addr"`
	JWTSecret          *string `toml:"jwt-secret"`
	TokenTTL           *string `toml:"token-ttl"`
	AllowOrigins       *string `toml:"allow-origins"`
	SessionCreateLimit *int    `toml:"session-create-limit"`
	ReportCreateLimit  *int    `toml:"report-create-limit"`
	RateWindow         *string `toml:"rate-window"`
}

type FileDatabase struct {
	DSN *string `toml:"dsn"`
}

type FileLLM struct {
	Provider         *string `toml:"provider"`
	AnthropicModel   *string `toml:"anthropic-model"`
	OpenAIModel      *string `toml:"openai-model"`
	GeminiModel      *string `toml:"gemini-model"`
	OpenRouterModel  *string `toml:"openrouter-model"`
	AnthropicAPIKey  *string `toml:"anthropic-api-key"`
	OpenAIAPIKey     *string `toml:"openai-api-key"`
	GeminiAPIKey     *string `toml:"gemini-api-key"`
	OpenRouterAPIKey *string `toml:"openrouter-api-key"`
	MaxAttempts      *int    `toml:"max-attempts"`
	Timeout          *string `toml:"timeout"`
}

type FileLog struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
}

type FileJobs struct {
	LLMEventRetention *string `toml:"llm-event-retention"`
	PruneSchedule     *string `toml:"prune-schedule"`
}

type FileClient struct {
	APIURL *string `toml:"api-url"`
}

// ReadFile decodes the TOML file at path. A missing file is not an error.
func ReadFile(path string) (File, error) {
	var f File
	if path == "" {
		return f, nil
	}
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return f, nil
}

// Load resolves configuration: defaults, then the TOML file at path, then
// variables from .env in the working directory, then the environment.
// When no LLM provider is chosen and the default one has no key, the
// vendors' standard API key variables are probed, falling back to the
// offline mock provider.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	f, err := ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := cfg.applyFile(f); err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	explicit := f.LLM.Provider != nil || os.Getenv("TENSE_LLM_PROVIDER") != ""
	if !explicit && cfg.LLM.Validate() != nil {
		if discovered, ok := llm.DiscoverConfig(); ok {
			discovered.Retry = cfg.LLM.Retry
			discovered.Timeout = cfg.LLM.Timeout
			cfg.LLM = discovered
		} else {
			cfg.LLM.Provider = llm.ProviderMock
		}
	}
	return cfg, nil
}

func (c *Config) applyFile(f File) error {
	setStr(&c.Server.Addr, f.Server.Addr)
	setStr(&c.Server.JWTSecret, f.Server.JWTSecret)
	setStr(&c.Server.AllowOrigins, f.Server.AllowOrigins)
	setInt(&c.Server.SessionCreateLimit, f.Server.SessionCreateLimit)
	setInt(&c.Server.ReportCreateLimit, f.Server.ReportCreateLimit)
	if err := setDur(&c.Server.TokenTTL, f.Server.TokenTTL, "server.token-ttl"); err != nil {
		return err
	}
	if err := setDur(&c.Server.RateWindow, f.Server.RateWindow, "server.rate-window"); err != nil {
		return err
	}

	setStr(&c.Database.DSN, f.Database.DSN)

	setStr(&c.LLM.Provider, f.LLM.Provider)
	setStr(&c.LLM.Anthropic.Model, f.LLM.AnthropicModel)
	setStr(&c.LLM.OpenAI.Model, f.LLM.OpenAIModel)
	setStr(&c.LLM.Gemini.Model, f.LLM.GeminiModel)
	setStr(&c.LLM.OpenRouter.Model, f.LLM.OpenRouterModel)
	setStr(&c.LLM.Anthropic.APIKey, f.LLM.AnthropicAPIKey)
	setStr(&c.LLM.OpenAI.APIKey, f.LLM.OpenAIAPIKey)
	setStr(&c.LLM.Gemini.APIKey, f.LLM.GeminiAPIKey)
	setStr(&c.LLM.OpenRouter.APIKey, f.LLM.OpenRouterAPIKey)
	setInt(&c.LLM.Retry.MaxAttempts, f.LLM.MaxAttempts)
	if err := setDur(&c.LLM.Timeout, f.LLM.Timeout, "llm.timeout"); err != nil {
		return err
	}

	setStr(&c.Log.Level, f.Log.Level)
	setStr(&c.Log.Format, f.Log.Format)

	if err := setDur(&c.Jobs.LLMEventRetention, f.Jobs.LLMEventRetention, "jobs.llm-event-retention"); err != nil {
		return err
	}
	setStr(&c.Jobs.PruneSchedule, f.Jobs.PruneSchedule)

	setStr(&c.Client.APIURL, f.Client.APIURL)
	return nil
}

func (c *Config) applyEnv() error {
	env := func(key string) *string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return &v
		}
		return nil
	}
	envInt := func(key string) (*int, error) {
		v := env(key)
		if v == nil {
			return nil, nil
		}
		n, err := strconv.Atoi(*v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return &n, nil
	}

	setStr(&c.Server.Addr, env("TENSE_ADDR"))
	setStr(&c.Server.JWTSecret, env("TENSE_JWT_SECRET"))
	setStr(&c.Server.AllowOrigins, env("TENSE_ALLOW_ORIGINS"))
	if err := setDur(&c.Server.TokenTTL, env("TENSE_TOKEN_TTL"), "TENSE_TOKEN_TTL"); err != nil {
		return err
	}
	if err := setDur(&c.Server.RateWindow, env("TENSE_RATE_WINDOW"), "TENSE_RATE_WINDOW"); err != nil {
		return err
	}
	for key, dst := range map[string]*int{
		"TENSE_SESSION_CREATE_LIMIT": &c.Server.SessionCreateLimit,
		"TENSE_REPORT_CREATE_LIMIT":  &c.Server.ReportCreateLimit,
		"TENSE_LLM_MAX_ATTEMPTS":     &c.LLM.Retry.MaxAttempts,
	} {
		n, err := envInt(key)
		if err != nil {
			return err
		}
		setInt(dst, n)
	}

	setStr(&c.Database.DSN, env("TENSE_DB"))
	c.LLM = llm.ApplyEnv(c.LLM)
	if err := setDur(&c.LLM.Timeout, env("TENSE_LLM_TIMEOUT"), "TENSE_LLM_TIMEOUT"); err != nil {
		return err
	}

	setStr(&c.Log.Level, env("TENSE_LOG_LEVEL"))
	setStr(&c.Log.Format, env("TENSE_LOG_FORMAT"))

	if err := setDur(&c.Jobs.LLMEventRetention, env("TENSE_LLM_EVENT_RETENTION"), "TENSE_LLM_EVENT_RETENTION"); err != nil {
		return err
	}

	setStr(&c.Client.APIURL, env("TENSE_API_URL"))
	setStr(&c.Client.Token, env("TENSE_TOKEN"))
	return nil
}

// ValidateServer checks the settings `serve` cannot run without.
func (c Config) ValidateServer() error {
	if len(c.Server.JWTSecret) < 16 {
		return errors.New("a JWT secret of at least 16 characters is required (server.jwt-secret or TENSE_JWT_SECRET)")
	}
	if c.Server.TokenTTL <= 0 {
		return fmt.Errorf("server token ttl must be positive, got %s", c.Server.TokenTTL)
	}
	if c.Jobs.LLMEventRetention <= 0 {
		return fmt.Errorf("llm event retention must be positive, got %s", c.Jobs.LLMEventRetention)
	}
	return c.LLM.Validate()
}

func setStr(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDur(dst *time.Duration, v *string, name string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}
