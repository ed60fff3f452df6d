package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Auth.JWTDuration != 24*time.Hour {
		t.Errorf("JWTDuration = %v", cfg.Auth.JWTDuration)
	}
	if cfg.RateLimit.Requests != 30 {
		t.Errorf("RateLimit.Requests = %d", cfg.RateLimit.Requests)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	body := []byte(`
server:
  addr: ":7000"
auth:
  jwt_issuer: from-file
  jwt_duration: 2h
log:
  level: debug
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TRAILERHUB_JWT_ISSUER", "from-env")
	t.Setenv("TRAILERHUB_TRUSTED_PROXIES", "10.0.0.1, 10.0.0.2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("Server.Addr = %q, want file value", cfg.Server.Addr)
	}
	if cfg.Auth.JWTIssuer != "from-env" {
		t.Errorf("JWTIssuer = %q, want env override", cfg.Auth.JWTIssuer)
	}
	if cfg.Auth.JWTDuration != 2*time.Hour {
		t.Errorf("JWTDuration = %v", cfg.Auth.JWTDuration)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if len(cfg.Server.TrustedProxies) != 2 || cfg.Server.TrustedProxies[1] != "10.0.0.2" {
		t.Errorf("TrustedProxies = %v", cfg.Server.TrustedProxies)
	}
}

func TestEnvTransformFunc_IgnoresUnknown(t *testing.T) {
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("PATH mapped to %q", got)
	}
	if got := envTransformFunc("TRAILERHUB_DB_PATH"); got != "database.path" {
		t.Errorf("TRAILERHUB_DB_PATH mapped to %q", got)
	}
}
