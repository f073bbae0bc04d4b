package config

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
)

// Test environment variable keys.
const (
	testEnvStoreDriver = "STORE_DRIVER"
	testEnvPostgresDSN = "POSTGRES_DSN"
	testEnvProvider    = "LLM_PROVIDER"
	testEnvClaudeKey   = "CLAUDE_API_KEY"
	testEnvAnthropic   = "ANTHROPIC_API_KEY"
	testEnvClaudeModel = "CLAUDE_MODEL"
	testEnvAppEnv      = "APP_ENV"
)

// isolateEnv blanks variables a developer shell commonly exports so that
// Load sees only what the test sets.
func isolateEnv(t *testing.T) {
	t.Helper()

	t.Setenv(testEnvAppEnv, AppEnvLocal)

	for _, key := range []string{
		testEnvAnthropic, testEnvClaudeKey, "OPENAI_API_KEY", "GOOGLE_API_KEY",
		"LLM_MODEL", testEnvClaudeModel, "MAX_RETRIES",
	} {
		t.Setenv(key, "")
	}
}

const testErrLoad = "Load() error = %v"

func TestLoad_Defaults(t *testing.T) {
	isolateEnv(t)
	t.Setenv(testEnvStoreDriver, StoreDriverSQLite)
	t.Setenv(testEnvProvider, ProviderAnthropic)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.TaggingMaxRetries != 5 {
		t.Errorf("TaggingMaxRetries = %d, want 5", cfg.TaggingMaxRetries)
	}

	if cfg.TaggingBaseDelay != time.Second {
		t.Errorf("TaggingBaseDelay = %v, want 1s", cfg.TaggingBaseDelay)
	}

	if cfg.LLMMaxTokens != 1024 {
		t.Errorf("LLMMaxTokens = %d, want 1024", cfg.LLMMaxTokens)
	}

	if cfg.SQLitePath != "./tagger.db" {
		t.Errorf("SQLitePath = %q, want ./tagger.db", cfg.SQLitePath)
	}
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	isolateEnv(t)
	t.Setenv(testEnvStoreDriver, StoreDriverPostgres)
	t.Setenv(testEnvPostgresDSN, "")

	_, err := Load()
	if !errors.Is(err, apperrors.ErrInvalidConfig) {
		t.Fatalf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoad_UnknownProvider(t *testing.T) {
	isolateEnv(t)
	t.Setenv(testEnvStoreDriver, StoreDriverSQLite)
	t.Setenv(testEnvProvider, "llama")

	_, err := Load()
	if !errors.Is(err, apperrors.ErrInvalidConfig) {
		t.Fatalf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoad_ClaudeAliases(t *testing.T) {
	isolateEnv(t)
	t.Setenv(testEnvStoreDriver, StoreDriverSQLite)
	t.Setenv(testEnvProvider, ProviderAnthropic)
	t.Setenv(testEnvClaudeKey, "sk-ant-test")
	t.Setenv(testEnvClaudeModel, "claude-3-haiku-20240307")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.AnthropicAPIKey != "sk-ant-test" {
		t.Errorf("AnthropicAPIKey = %q, want alias value", cfg.AnthropicAPIKey)
	}

	if cfg.LLMModel != "claude-3-haiku-20240307" {
		t.Errorf("LLMModel = %q, want alias value", cfg.LLMModel)
	}
}

func TestLoad_PrimaryKeyWinsOverAlias(t *testing.T) {
	isolateEnv(t)
	t.Setenv(testEnvStoreDriver, StoreDriverSQLite)
	t.Setenv(testEnvProvider, ProviderAnthropic)
	t.Setenv(testEnvAnthropic, "primary")
	t.Setenv(testEnvClaudeKey, "alias")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.AnthropicAPIKey != "primary" {
		t.Errorf("AnthropicAPIKey = %q, want primary", cfg.AnthropicAPIKey)
	}
}

func TestLoad_EmptyPrimaryKeyUsesAlias(t *testing.T) {
	isolateEnv(t)
	t.Setenv(testEnvStoreDriver, StoreDriverSQLite)
	t.Setenv(testEnvProvider, ProviderAnthropic)
	t.Setenv(testEnvClaudeKey, "alias")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.AnthropicAPIKey != "alias" {
		t.Errorf("AnthropicAPIKey = %q, want alias", cfg.AnthropicAPIKey)
	}
}

func TestLoad_MissingKeyOutsideLocal(t *testing.T) {
	tests := []struct {
		name     string
		appEnv   string
		provider string
		key      string
		wantErr  bool
	}{
		{name: "local without key", appEnv: AppEnvLocal, provider: ProviderAnthropic},
		{name: "production without key", appEnv: "production", provider: ProviderAnthropic, wantErr: true},
		{name: "production with key", appEnv: "production", provider: ProviderAnthropic, key: "sk-ant-test"},
		{name: "production with mock", appEnv: "production", provider: ProviderMock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			t.Setenv(testEnvAppEnv, tt.appEnv)
			t.Setenv(testEnvStoreDriver, StoreDriverSQLite)
			t.Setenv(testEnvProvider, tt.provider)
			t.Setenv(testEnvAnthropic, tt.key)

			_, err := Load()
			if tt.wantErr != errors.Is(err, apperrors.ErrInvalidConfig) {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}

			if !tt.wantErr && err != nil {
				t.Fatalf(testErrLoad, err)
			}
		})
	}
}

func TestAPIKeyFor(t *testing.T) {
	cfg := &Config{AnthropicAPIKey: "a", OpenAIAPIKey: "o", GoogleAPIKey: "g"}

	tests := []struct {
		provider string
		want     string
	}{
		{ProviderAnthropic, "a"},
		{ProviderOpenAI, "o"},
		{ProviderGoogle, "g"},
		{ProviderMock, ""},
	}

	for _, tt := range tests {
		if got := cfg.APIKeyFor(tt.provider); got != tt.want {
			t.Errorf("APIKeyFor(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}
