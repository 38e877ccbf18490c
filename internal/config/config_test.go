package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-jwt-secret-with-enough-length-1A!"

const testYAML = `server:
  host: "127.0.0.1"
  port: 3000
  mode: "release"
  csrf_secret: "test-csrf-secret-value-long-enough-xx"
  rate_limit:
    enabled: true
    rps: 5
    burst: 10
database:
  driver: "postgres"
  postgres:
    host: "db.example.com"
    port: 5433
    user: "admin"
    password: "secret"
    dbname: "newsdesk"
    sslmode: "require"
  pool:
    max_idle_conns: 5
    conn_max_lifetime: "30m"
log:
  level: "INFO"
  format: "json"
auth:
  jwt_secret: "` + testSecret + `"
  token_expiry: "2h"
redis:
  addr: "localhost:6379"
storage:
  buckets: ["news-images", "avatars"]
list:
  debounce: "250ms"
  default_limit: 20
  max_limit: 50
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// validBaseYAML returns a minimal valid debug config with extras appended.
func validBaseYAML(extras string) string {
	return `server:
  host: "localhost"
  port: 8080
  mode: "debug"
database:
  driver: "sqlite"
  sqlite:
    path: "data/app.db"
log:
  level: "info"
  format: "text"
auth:
  jwt_secret: "` + testSecret + `"
` + extras
}

func TestLoad_FullYAML(t *testing.T) {
	cfg, err := Load(writeTestConfig(t, testYAML))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 3000 || cfg.Server.Mode != "release" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.RateLimit.MaxClients != 10000 {
		t.Errorf("RateLimit.MaxClients = %d, want default 10000", cfg.Server.RateLimit.MaxClients)
	}
	if cfg.Database.Postgres.DBName != "newsdesk" || cfg.Database.Pool.ConnMaxLifetime != "30m" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want normalized %q", cfg.Log.Level, "info")
	}
	if cfg.Auth.TokenExpiry != "2h" || cfg.Auth.CookieName != "newsdesk_session" {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
	if cfg.Auth.SessionCache.Size != 1024 || cfg.Auth.SessionCache.TTL != "1m" {
		t.Errorf("Auth.SessionCache = %+v, want defaults", cfg.Auth.SessionCache)
	}
	if !cfg.Redis.Enabled() {
		t.Error("Redis should be enabled when addr is set")
	}
	if !slices.Equal(cfg.Storage.Buckets, []string{"news-images", "avatars"}) || cfg.Storage.PublicBaseURL != "/media" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.List.Debounce != "250ms" || cfg.List.DefaultLimit != 20 || cfg.List.MaxLimit != 50 {
		t.Errorf("List = %+v", cfg.List)
	}
	if cfg.List.IdleTTL != "15m" || cfg.List.MaxViews != 1000 {
		t.Errorf("List defaults = %+v", cfg.List)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeTestConfig(t, validBaseYAML("")))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Redis.Enabled() {
		t.Error("Redis should be disabled without addr")
	}
	if got := Duration(cfg.List.Debounce, 0); got != 300*time.Millisecond {
		t.Errorf("debounce = %v, want 300ms", got)
	}
	if got := Duration(cfg.Auth.TokenExpiry, 0); got != 12*time.Hour {
		t.Errorf("token expiry = %v, want 12h", got)
	}
	if cfg.List.DefaultLimit != 10 || cfg.List.MaxLimit != 100 {
		t.Errorf("List = %+v", cfg.List)
	}
	if cfg.Storage.Root != "data/media" {
		t.Errorf("Storage.Root = %q", cfg.Storage.Root)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeTestConfig(t, validBaseYAML(""))

	t.Setenv("APP__SERVER__PORT", "9090")
	t.Setenv("APP__LOG__LEVEL", "error")
	t.Setenv("APP__DATABASE__POOL__MAX_IDLE_CONNS", "20")
	t.Setenv("APP__LIST__IDLE_TTL", "5m")
	t.Setenv("APP__REDIS__ADDR", "cache:6379")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want error", cfg.Log.Level)
	}
	if cfg.Database.Pool.MaxIdleConns != 20 {
		t.Errorf("Pool.MaxIdleConns = %d, want 20", cfg.Database.Pool.MaxIdleConns)
	}
	if cfg.List.IdleTTL != "5m" {
		t.Errorf("List.IdleTTL = %q, want 5m", cfg.List.IdleTTL)
	}
	if cfg.Redis.Addr != "cache:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "server mode",
			yaml:    strings.Replace(validBaseYAML(""), `mode: "debug"`, `mode: "prod"`, 1),
			wantErr: "server.mode",
		},
		{
			name:    "server port",
			yaml:    strings.Replace(validBaseYAML(""), "port: 8080", "port: 70000", 1),
			wantErr: "server.port",
		},
		{
			name:    "empty host",
			yaml:    strings.Replace(validBaseYAML(""), `host: "localhost"`, `host: "  "`, 1),
			wantErr: "server.host",
		},
		{
			name:    "database driver",
			yaml:    strings.Replace(validBaseYAML(""), `driver: "sqlite"`, `driver: "mysql"`, 1),
			wantErr: "database.driver",
		},
		{
			name:    "missing sqlite path",
			yaml:    strings.Replace(validBaseYAML(""), `path: "data/app.db"`, `path: ""`, 1),
			wantErr: "database.sqlite.path",
		},
		{
			name:    "short jwt secret",
			yaml:    strings.Replace(validBaseYAML(""), testSecret, "short", 1),
			wantErr: "auth.jwt_secret",
		},
		{
			name:    "missing jwt secret",
			yaml:    strings.Replace(validBaseYAML(""), `jwt_secret: "`+testSecret+`"`, `jwt_secret: ""`, 1),
			wantErr: "auth.jwt_secret is required",
		},
		{
			name:    "bad token expiry",
			yaml:    validBaseYAML("  token_expiry: \"-1h\"\n"),
			wantErr: "auth.token_expiry",
		},
		{
			name:    "bad debounce",
			yaml:    validBaseYAML("list:\n  debounce: \"soon\"\n"),
			wantErr: "list.debounce",
		},
		{
			name:    "default limit above max",
			yaml:    validBaseYAML("list:\n  default_limit: 200\n  max_limit: 50\n"),
			wantErr: "list.default_limit",
		},
		{
			name:    "bucket name",
			yaml:    validBaseYAML("storage:\n  buckets: [\"../etc\"]\n"),
			wantErr: "storage.buckets[0]",
		},
		{
			name:    "rate limit rps",
			yaml:    strings.Replace(validBaseYAML(""), `mode: "debug"`, "mode: \"debug\"\n  rate_limit:\n    enabled: true\n    burst: 1", 1),
			wantErr: "server.rate_limit.rps",
		},
		{
			name:    "log format",
			yaml:    strings.Replace(validBaseYAML(""), `format: "text"`, `format: "xml"`, 1),
			wantErr: "log.format",
		},
		{
			name:    "release without csrf secret",
			yaml:    strings.Replace(validBaseYAML(""), `mode: "debug"`, `mode: "release"`, 1),
			wantErr: "server.csrf_secret",
		},
		{
			name:    "postgres without tls in release",
			yaml:    strings.Replace(testYAML, `sslmode: "require"`, `sslmode: "disable"`, 1),
			wantErr: "TLS is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTestConfig(t, tt.yaml))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	if err != nil {
		t.Fatalf("Load(configs/config.yaml) error: %v", err)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Server.Mode != "debug" {
		t.Errorf("unexpected shipped defaults: driver=%q mode=%q", cfg.Database.Driver, cfg.Server.Mode)
	}
	if cfg.Redis.Enabled() {
		t.Error("shipped config should not require redis")
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"5s", 5 * time.Second},
		{"", time.Minute},
		{"bogus", time.Minute},
		{"-1s", time.Minute},
	}
	for _, tt := range tests {
		if got := Duration(tt.in, time.Minute); got != tt.want {
			t.Errorf("Duration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCountSecretClasses(t *testing.T) {
	tests := []struct {
		secret string
		want   int
	}{
		{"", 0},
		{"abc", 1},
		{"abcABC", 2},
		{"abcABC123", 3},
		{"abcABC123!", 4},
	}
	for _, tt := range tests {
		if got := CountSecretClasses(tt.secret); got != tt.want {
			t.Errorf("CountSecretClasses(%q) = %d, want %d", tt.secret, got, tt.want)
		}
	}
}
