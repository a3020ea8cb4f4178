package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// cliWithPath returns a CLI struct pointing at the given config file.
func cliWithPath(path string) *CLI {
	return &CLI{Config: path}
}

// writeConfig writes data to a config.toml in a fresh temp dir and returns its path.
func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "127.0.0.1"
port = 9000
body_max_bytes = 5242880
cors_allow_origins = ["https://careers.example.com"]

[onet]
api_key = "Basic dGVzdDp0ZXN0"

[upstream]
base_url = "https://services.onetcenter.org/ws/online/v1/"
timeout_seconds = 20
health_timeout_seconds = 3
idle_connections = 50
startup_probe = false

[log]
level = "DEBUG"
format = "text"
`)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9000)
	}
	if got := cfg.Server.CORSAllowOrigins; len(got) != 1 || got[0] != "https://careers.example.com" {
		t.Errorf("Server.CORSAllowOrigins = %v", got)
	}
	if cfg.Onet.APIKey != "Basic dGVzdDp0ZXN0" {
		t.Errorf("Onet.APIKey = %q, want %q", cfg.Onet.APIKey, "Basic dGVzdDp0ZXN0")
	}
	if cfg.Upstream.TimeoutSeconds != 20 {
		t.Errorf("Upstream.TimeoutSeconds = %d, want %d", cfg.Upstream.TimeoutSeconds, 20)
	}
	if cfg.Upstream.HealthTimeoutSeconds != 3 {
		t.Errorf("Upstream.HealthTimeoutSeconds = %d, want %d", cfg.Upstream.HealthTimeoutSeconds, 3)
	}
	if cfg.Upstream.ProbeOnStart() {
		t.Error("ProbeOnStart() = true, want false")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
[upstream]
base_url = "https://services.onetcenter.org/ws/online/v1/"
`)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 5000)
	}
	if cfg.Server.BodyMaxBytes != 1<<20 {
		t.Errorf("Server.BodyMaxBytes = %d, want %d", cfg.Server.BodyMaxBytes, 1<<20)
	}
	if got := cfg.Server.CORSAllowOrigins; len(got) != 1 || got[0] != "*" {
		t.Errorf("Server.CORSAllowOrigins = %v, want [*]", got)
	}
	if cfg.Upstream.TimeoutSeconds != 10 {
		t.Errorf("Upstream.TimeoutSeconds = %d, want %d", cfg.Upstream.TimeoutSeconds, 10)
	}
	if cfg.Upstream.HealthTimeoutSeconds != 5 {
		t.Errorf("Upstream.HealthTimeoutSeconds = %d, want %d", cfg.Upstream.HealthTimeoutSeconds, 5)
	}
	if cfg.Upstream.IdleConnections != 100 {
		t.Errorf("Upstream.IdleConnections = %d, want %d", cfg.Upstream.IdleConnections, 100)
	}
	if cfg.Upstream.MaxResponseBytes != 10<<20 {
		t.Errorf("Upstream.MaxResponseBytes = %d, want %d", cfg.Upstream.MaxResponseBytes, 10<<20)
	}
	if !cfg.Upstream.ProbeOnStart() {
		t.Error("ProbeOnStart() = false, want true")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}
}

func TestLoad_EmptyAPIKeyAllowed(t *testing.T) {
	path := writeConfig(t, `
[onet]
api_key = ""

[upstream]
base_url = "https://services.onetcenter.org/ws/online/v1/"
`)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Onet.HasAPIKey() {
		t.Error("HasAPIKey() = true, want false")
	}
}

func TestLoad_PlaceholderAPIKey(t *testing.T) {
	path := writeConfig(t, `
[onet]
api_key = "YOUR_API_KEY_HERE"

[upstream]
base_url = "https://services.onetcenter.org/ws/online/v1/"
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for placeholder api_key, got nil")
	}
	if !strings.Contains(err.Error(), "api_key") {
		t.Errorf("error = %q, want mention of api_key", err)
	}
}

func TestLoad_NoFileUsesCLI(t *testing.T) {
	dir := t.TempDir()
	orig := configSearchPaths
	configSearchPaths = []string{filepath.Join(dir, "missing.toml")}
	t.Cleanup(func() { configSearchPaths = orig })

	cfg, err := Load(&CLI{
		APIKey:  "Basic Y2xpOmtleQ==",
		BaseURL: "http://127.0.0.1:8080/ws/",
		Port:    7000,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Onet.APIKey != "Basic Y2xpOmtleQ==" {
		t.Errorf("Onet.APIKey = %q", cfg.Onet.APIKey)
	}
	if cfg.Upstream.BaseURL != "http://127.0.0.1:8080/ws/" {
		t.Errorf("Upstream.BaseURL = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 7000)
	}
}

func TestLoad_CLIOverrides(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "127.0.0.1"
port = 9000

[onet]
api_key = "Basic ZmlsZTprZXk="

[upstream]
base_url = "https://services.onetcenter.org/ws/online/v1/"

[log]
level = "info"
`)

	cli := &CLI{
		Config:   path,
		Host:     "10.0.0.1",
		Port:     3000,
		APIKey:   "Basic Y2xpOmtleQ==",
		BaseURL:  "https://staging.onetcenter.example/ws/",
		LogLevel: "error",
	}

	cfg, err := Load(cli)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "10.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "10.0.0.1")
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 3000)
	}
	if cfg.Onet.APIKey != "Basic Y2xpOmtleQ==" {
		t.Errorf("Onet.APIKey = %q, want %q", cfg.Onet.APIKey, "Basic Y2xpOmtleQ==")
	}
	if cfg.Upstream.BaseURL != "https://staging.onetcenter.example/ws/" {
		t.Errorf("Upstream.BaseURL = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "error")
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	_, err := Load(cliWithPath("/nonexistent/config.toml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeConfig(t, `[invalid toml`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for invalid TOML, got nil")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "missing base_url",
			data:    "[upstream]\n",
			wantErr: "base_url",
		},
		{
			name:    "base_url bad scheme",
			data:    "[upstream]\nbase_url = \"ftp://services.onetcenter.org\"\n",
			wantErr: "base_url",
		},
		{
			name:    "base_url no host",
			data:    "[upstream]\nbase_url = \"https://\"\n",
			wantErr: "base_url",
		},
		{
			name:    "negative timeout",
			data:    "[upstream]\nbase_url = \"https://services.onetcenter.org\"\ntimeout_seconds = -1\n",
			wantErr: "timeout_seconds",
		},
		{
			name:    "negative health timeout",
			data:    "[upstream]\nbase_url = \"https://services.onetcenter.org\"\nhealth_timeout_seconds = -5\n",
			wantErr: "health_timeout_seconds",
		},
		{
			name:    "port out of range",
			data:    "[server]\nport = 70000\n[upstream]\nbase_url = \"https://services.onetcenter.org\"\n",
			wantErr: "port",
		},
		{
			name:    "negative body limit",
			data:    "[server]\nbody_max_bytes = -1\n[upstream]\nbase_url = \"https://services.onetcenter.org\"\n",
			wantErr: "body_max_bytes",
		},
		{
			name:    "blank cors origin",
			data:    "[server]\ncors_allow_origins = [\"\"]\n[upstream]\nbase_url = \"https://services.onetcenter.org\"\n",
			wantErr: "cors_allow_origins",
		},
		{
			name:    "bad log level",
			data:    "[upstream]\nbase_url = \"https://services.onetcenter.org\"\n[log]\nlevel = \"verbose\"\n",
			wantErr: "level",
		},
		{
			name:    "bad log format",
			data:    "[upstream]\nbase_url = \"https://services.onetcenter.org\"\n[log]\nformat = \"xml\"\n",
			wantErr: "format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.data)

			_, err := Load(cliWithPath(path))
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MetricsPathNoLeadingSlash(t *testing.T) {
	path := writeConfig(t, `
[upstream]
base_url = "https://services.onetcenter.org"

[metrics]
enabled = true
path = "metrics"
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for metrics.path without leading slash, got nil")
	}
	if !strings.Contains(err.Error(), "metrics") {
		t.Errorf("error = %q, want mention of metrics", err)
	}
}

func TestLoad_MetricsPathConflictsWithRoute(t *testing.T) {
	for _, p := range []string{"/api/careers", "/api/careers/metrics", "/api/onet", "/health", "/proxy/status"} {
		t.Run(p, func(t *testing.T) {
			path := writeConfig(t, `
[upstream]
base_url = "https://services.onetcenter.org"

[metrics]
enabled = true
path = "`+p+`"
`)

			_, err := Load(cliWithPath(path))
			if err == nil {
				t.Fatalf("Load() expected error for metrics.path=%q, got nil", p)
			}
			if !strings.Contains(err.Error(), "conflicts") {
				t.Errorf("error = %q, want mention of conflict", err)
			}
		})
	}
}

func TestLoad_MetricsDisabledSkipsPathValidation(t *testing.T) {
	path := writeConfig(t, `
[upstream]
base_url = "https://services.onetcenter.org"

[metrics]
enabled = false
path = "bad-no-slash"
`)

	if _, err := Load(cliWithPath(path)); err != nil {
		t.Fatalf("Load() error = %v; disabled metrics should skip path validation", err)
	}
}

func TestWarnPermissions_Loose(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on Windows")
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("# test"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{filePath: path}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg.WarnPermissions(logger)

	if !strings.Contains(buf.String(), "readable by group/others") {
		t.Errorf("expected permission warning, got: %q", buf.String())
	}
}

func TestWarnPermissions_NoFile(t *testing.T) {
	cfg := &Config{}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	cfg.WarnPermissions(logger)

	if buf.Len() != 0 {
		t.Errorf("expected no output without a config file, got: %q", buf.String())
	}
}

func TestFindConfigInPaths(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	path1 := filepath.Join(dir1, "config.toml")
	path2 := filepath.Join(dir2, "config.toml")
	for _, p := range []string{path1, path2} {
		if err := os.WriteFile(p, []byte("# test"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if got := findConfigInPaths([]string{"/nonexistent/a.toml", path2, path1}); got != path2 {
		t.Errorf("findConfigInPaths() = %q, want %q", got, path2)
	}
	if got := findConfigInPaths([]string{"/nonexistent/a.toml"}); got != "" {
		t.Errorf("findConfigInPaths() = %q, want empty", got)
	}
}

func TestServerConfig_Addr(t *testing.T) {
	sc := &ServerConfig{Host: "127.0.0.1", Port: 5000}
	if got := sc.Addr(); got != "127.0.0.1:5000" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:5000")
	}
}
