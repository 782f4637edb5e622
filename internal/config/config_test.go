package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Store.Driver != DriverSQLite || cfg.Uploads.Mode != UploadsLocal {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected origins: %v", cfg.Server.AllowedOrigins)
	}
}

func TestFromYAMLKeepsDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte("store:\n  driver: memory\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Store.Driver != DriverMemory {
		t.Fatalf("driver not applied: %s", cfg.Store.Driver)
	}
	if cfg.Server.Addr != "127.0.0.1:8000" || cfg.Uploads.Dir != "uploads" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"unknown driver":     "store:\n  driver: mongo\n",
		"postgres no dsn":    "store:\n  driver: postgres\n",
		"redis no addr":      "store:\n  driver: redis\n",
		"bucket no url":      "uploads:\n  mode: bucket\n",
		"bad upload mode":    "uploads:\n  mode: ftp\n",
		"relative base path": "server:\n  base_path: api\n",
		"negative rotation":  "log:\n  max_backups: -1\n",
	}
	for name, doc := range cases {
		if _, err := FromYAML([]byte(doc)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if _, err := FromYAML([]byte("server: [")); err == nil || !strings.Contains(err.Error(), "invalid config yaml") {
		t.Fatalf("expected yaml error, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if cfg.Store.Driver != DriverSQLite {
		t.Fatalf("expected default config when file missing")
	}
	doc := "store:\n  driver: redis\n  redis_addr: 127.0.0.1:6379\n"
	if err := os.WriteFile(filepath.Join(dir, "hireline.yml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != DriverRedis || cfg.Store.RedisAddr != "127.0.0.1:6379" {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.yml")
	if err := os.WriteFile(path, []byte("uploads:\n  mode: bucket\n  bucket_url: https://x.supabase.co\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := FromFile(path)
	if err != nil {
		t.Fatalf("from file: %v", err)
	}
	if cfg.Uploads.Mode != UploadsBucket || cfg.Server.Addr == "" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if _, err := FromFile(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
