package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/tensetrainer/internal/llm"
)

// clearEnv unsets every variable Load reads so the host environment does
// not leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "TENSE_") || strings.HasSuffix(key, "_API_KEY") {
			t.Setenv(key, "")
		}
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	def := Default()
	if cfg.Server != def.Server {
		t.Errorf("Server = %+v, want %+v", cfg.Server, def.Server)
	}
	if cfg.Jobs != def.Jobs {
		t.Errorf("Jobs = %+v, want %+v", cfg.Jobs, def.Jobs)
	}
	if cfg.LLM.Provider != llm.ProviderMock {
		t.Errorf("LLM.Provider = %q, want mock when no key is available", cfg.LLM.Provider)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
[server]
addr = ":9090"
jwt-secret = "0123456789abcdef"
token-ttl = "2h"
session-create-limit = 0

[database]
dsn = "/tmp/trainer.db"

[llm]
provider = "openai"
openai-api-key = "sk-file"
openai-model = "gpt-4.1-mini"
timeout = "30s"

[log]
format = "json"

[jobs]
llm-event-retention = "168h"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.TokenTTL != 2*time.Hour {
		t.Errorf("TokenTTL = %s", cfg.Server.TokenTTL)
	}
	// An explicit zero is kept, not replaced by the default.
	if cfg.Server.SessionCreateLimit != 0 {
		t.Errorf("SessionCreateLimit = %d, want 0", cfg.Server.SessionCreateLimit)
	}
	if cfg.Server.ReportCreateLimit != 20 {
		t.Errorf("ReportCreateLimit = %d, want default 20", cfg.Server.ReportCreateLimit)
	}
	if cfg.Database.DSN != "/tmp/trainer.db" {
		t.Errorf("DSN = %q", cfg.Database.DSN)
	}
	if cfg.LLM.Provider != llm.ProviderOpenAI || cfg.LLM.OpenAI.APIKey != "sk-file" || cfg.LLM.OpenAI.Model != "gpt-4.1-mini" {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	if cfg.LLM.Timeout != 30*time.Second {
		t.Errorf("LLM.Timeout = %s", cfg.LLM.Timeout)
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "info" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Jobs.LLMEventRetention != 7*24*time.Hour {
		t.Errorf("LLMEventRetention = %s", cfg.Jobs.LLMEventRetention)
	}
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("ValidateServer: %v", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
[server]
addr = ":9090"

[llm]
provider = "openai"
openai-api-key = "sk-file"
`)
	t.Setenv("TENSE_ADDR", ":7070")
	t.Setenv("TENSE_OPENAI_API_KEY", "sk-env")
	t.Setenv("TENSE_SESSION_CREATE_LIMIT", "3")
	t.Setenv("TENSE_RATE_WINDOW", "10m")
	t.Setenv("TENSE_API_URL", "http://trainer.internal")
	t.Setenv("TENSE_TOKEN", "tok")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("Addr = %q, want env value", cfg.Server.Addr)
	}
	if cfg.LLM.OpenAI.APIKey != "sk-env" {
		t.Errorf("OpenAI key = %q, want env value", cfg.LLM.OpenAI.APIKey)
	}
	if cfg.Server.SessionCreateLimit != 3 || cfg.Server.RateWindow != 10*time.Minute {
		t.Errorf("limits = %d per %s", cfg.Server.SessionCreateLimit, cfg.Server.RateWindow)
	}
	if cfg.Client.APIURL != "http://trainer.internal" || cfg.Client.Token != "tok" {
		t.Errorf("Client = %+v", cfg.Client)
	}
}

func TestLoadDiscoversVendorKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Provider != llm.ProviderGemini || cfg.LLM.Gemini.APIKey != "g-key" {
		t.Errorf("LLM = %+v, want discovered gemini", cfg.LLM)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "bad toml", body: "[server\naddr = 1"},
		{name: "bad duration", body: "[server]\ntoken-ttl = \"forever\""},
		{name: "bad env int", env: map[string]string{"TENSE_REPORT_CREATE_LIMIT": "many"}},
		{name: "bad env duration", env: map[string]string{"TENSE_LLM_EVENT_RETENTION": "1 month"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.body != "" {
				path = writeFile(t, tt.body)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load succeeded, want error")
			}
		})
	}
}

func TestValidateServer(t *testing.T) {
	cfg := Default()
	cfg.LLM.Provider = llm.ProviderMock

	if err := cfg.ValidateServer(); err == nil {
		t.Error("missing JWT secret accepted")
	}

	cfg.Server.JWTSecret = "0123456789abcdef"
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("ValidateServer: %v", err)
	}

	cfg.LLM.Provider = llm.ProviderAnthropic
	if err := cfg.ValidateServer(); err == nil {
		t.Error("anthropic without key accepted")
	}
}

func TestDefaultPathHonoursXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got, want := DefaultPath(), "/tmp/xdg/tensetrainer/config.toml"; got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
	if got, want := DefaultCredentialsPath(), "/tmp/xdg/tensetrainer/credentials.toml"; got != want {
		t.Errorf("DefaultCredentialsPath() = %q, want %q", got, want)
	}
}

func TestCredentialsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.toml")

	c, err := LoadCredentials(path)
	if err != nil || c != (Credentials{}) {
		t.Fatalf("LoadCredentials(missing) = %+v, %v", c, err)
	}

	want := Credentials{APIURL: "http://localhost:8080", Email: "ana@example.com", Token: "eyJ.x.y"}
	if err := SaveCredentials(path, want); err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %o, want 600", perm)
	}

	got, err := LoadCredentials(path)
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	if err := RemoveCredentials(path); err != nil {
		t.Fatalf("RemoveCredentials: %v", err)
	}
	if err := RemoveCredentials(path); err != nil {
		t.Errorf("second RemoveCredentials: %v", err)
	}
}
