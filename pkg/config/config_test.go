package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testYAML = `
port: "9000"
env: "test"
cors_origins: "http://localhost:5173, https://archive.example"
database:
  host: "db.example.com"
  port: 5433
  user: "researcher"
  database: "archive_test"
qdrant:
  host: "qdrant.example.com"
  port: 6333
  collection: "test_entries"
  embedding_dim: 384
llm:
  endpoint: "http://llm.example.com/v1"
  model: "test-model"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	os.Unsetenv("PGHOST")
	os.Unsetenv("PORT")
	os.Unsetenv("QDRANT_HOST")

	cfg, err := LoadFromFile(writeConfig(t, testYAML), "test-version")
	if err != nil {
		t.Fatalf("LoadFromFile() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("expected Port=9000, got %s", cfg.Port)
	}
	if cfg.Version != "test-version" {
		t.Errorf("expected Version=test-version, got %s", cfg.Version)
	}
	if cfg.Database.Host != "db.example.com" {
		t.Errorf("expected database host from yaml, got %s", cfg.Database.Host)
	}
	if cfg.Qdrant.Collection != "test_entries" {
		t.Errorf("expected qdrant collection from yaml, got %s", cfg.Qdrant.Collection)
	}
	if cfg.Qdrant.EmbeddingDim != 384 {
		t.Errorf("expected embedding_dim=384, got %d", cfg.Qdrant.EmbeddingDim)
	}
}

func TestLoadFromFile_EnvOverridesYAML(t *testing.T) {
	t.Setenv("PORT", "4443")
	t.Setenv("PGHOST", "env-db.example.com")
	t.Setenv("LLM_MODEL", "env-model")

	cfg, err := LoadFromFile(writeConfig(t, testYAML), "dev")
	if err != nil {
		t.Fatalf("LoadFromFile() failed: %v", err)
	}

	if cfg.Port != "4443" {
		t.Errorf("expected Port=4443 (from env), got %s", cfg.Port)
	}
	if cfg.Database.Host != "env-db.example.com" {
		t.Errorf("expected database host from env, got %s", cfg.Database.Host)
	}
	if cfg.LLM.Model != "env-model" {
		t.Errorf("expected llm model from env, got %s", cfg.LLM.Model)
	}
	// YAML values without overrides survive
	if cfg.Database.Database != "archive_test" {
		t.Errorf("expected database name from yaml, got %s", cfg.Database.Database)
	}
}

func TestCORSOriginsParsing(t *testing.T) {
	os.Unsetenv("CORS_ORIGINS")

	cfg, err := LoadFromFile(writeConfig(t, testYAML), "dev")
	if err != nil {
		t.Fatalf("LoadFromFile() failed: %v", err)
	}

	want := []string{"http://localhost:5173", "https://archive.example"}
	if len(cfg.CORSOrigins) != len(want) {
		t.Fatalf("expected %d origins, got %d: %v", len(want), len(cfg.CORSOrigins), cfg.CORSOrigins)
	}
	for i, origin := range want {
		if cfg.CORSOrigins[i] != origin {
			t.Errorf("origin %d: expected %q, got %q", i, origin, cfg.CORSOrigins[i])
		}
	}
}

func TestDatabaseConnectionString(t *testing.T) {
	dc := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "abyssal",
		Password: "hunter2",
		Database: "abyssal_archive",
		SSLMode:  "disable",
	}

	got := dc.ConnectionString()
	want := "host=localhost port=5432 user=abyssal password=hunter2 dbname=abyssal_archive sslmode=disable"
	if got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}
}

func TestQdrantBaseURL(t *testing.T) {
	qc := QdrantConfig{Host: "vectors.internal", Port: 6333}
	if got := qc.BaseURL(); got != "http://vectors.internal:6333" {
		t.Errorf("BaseURL() = %q", got)
	}
}
