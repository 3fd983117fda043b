package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_CONF_HOST", "redis.internal")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"set variable", "host: ${TEST_CONF_HOST}", "host: redis.internal"},
		{"set variable ignores default", "host: ${TEST_CONF_HOST:localhost}", "host: redis.internal"},
		{"unset with default", "host: ${TEST_CONF_MISSING:localhost}", "host: localhost"},
		{"unset with empty default", "key: ${TEST_CONF_MISSING:}", "key: "},
		{"unset without default stays verbatim", "host: ${TEST_CONF_MISSING}", "host: ${TEST_CONF_MISSING}"},
		{"multiple placeholders", "${TEST_CONF_HOST}:${TEST_CONF_PORT:6379}", "redis.internal:6379"},
		{"no placeholder", "plain text", "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandEnv(tt.in); got != tt.want {
				t.Errorf("expandEnv(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "configs"), 0o755); err != nil {
		t.Fatalf("failed to create configs dir: %v", err)
	}
	base := `
app:
  name: test-app
cache:
  redis:
    host: ${TEST_LOAD_REDIS_HOST:localhost}
retrieval:
  top_k: 7
`
	if err := os.WriteFile(filepath.Join(dir, "configs", "config.yaml"), []byte(base), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	envOverride := `
retrieval:
  top_k: 3
`
	if err := os.WriteFile(filepath.Join(dir, "configs", "config.test.yaml"), []byte(envOverride), 0o644); err != nil {
		t.Fatalf("failed to write env config: %v", err)
	}

	t.Chdir(dir)
	t.Setenv("APP_ENV", "test")
	t.Setenv("TEST_LOAD_REDIS_HOST", "redis.internal")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.App.Name != "test-app" {
		t.Errorf("app.name = %q, want test-app", cfg.App.Name)
	}
	if cfg.Cache.Redis.Host != "redis.internal" {
		t.Errorf("redis host = %q, want redis.internal", cfg.Cache.Redis.Host)
	}
	// 环境配置覆盖默认配置
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("retrieval.top_k = %d, want 3", cfg.Retrieval.TopK)
	}
	// 未显式配置的字段取默认值
	if cfg.Server.HTTP.Port != 8080 {
		t.Errorf("server port = %d, want default 8080", cfg.Server.HTTP.Port)
	}
	if cfg.Embedding.Text.Dimension != 1536 {
		t.Errorf("text dimension = %d, want default 1536", cfg.Embedding.Text.Dimension)
	}
}
