package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Compare.TupleSize != 3 {
		t.Errorf("Compare.TupleSize = %d, want 3", cfg.Compare.TupleSize)
	}
	if cfg.Kafka.Topics.CompareJobs != "compare-jobs" {
		t.Errorf("Topics.CompareJobs = %q", cfg.Kafka.Topics.CompareJobs)
	}
	if cfg.Redis.CacheTTL != 10*time.Minute {
		t.Errorf("Redis.CacheTTL = %v, want 10m", cfg.Redis.CacheTTL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load on a missing file returned no error")
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9999
compare:
  tupleSize: 5
  workerCount: 2
postgres:
  database: testdb
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Compare.TupleSize != 5 {
		t.Errorf("Compare.TupleSize = %d, want 5", cfg.Compare.TupleSize)
	}
	if cfg.Postgres.Database != "testdb" {
		t.Errorf("Postgres.Database = %q, want testdb", cfg.Postgres.Database)
	}
	// Untouched fields keep their defaults.
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want default 30s", cfg.Server.ReadTimeout)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SC_SERVER_PORT", "7070")
	t.Setenv("SC_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("SC_COMPARE_TUPLE_SIZE", "4")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("Kafka.Brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Compare.TupleSize != 4 {
		t.Errorf("Compare.TupleSize = %d, want 4", cfg.Compare.TupleSize)
	}
}

func TestNormalizeClampsTupleSize(t *testing.T) {
	t.Setenv("SC_COMPARE_TUPLE_SIZE", "-2")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Compare.TupleSize != 3 {
		t.Errorf("Compare.TupleSize = %d, want clamped to 3", cfg.Compare.TupleSize)
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "db", Port: 5433, Database: "synocheck",
		User: "app", Password: "secret", SSLMode: "require",
	}
	want := "host=db port=5433 user=app password=secret dbname=synocheck sslmode=require"
	if got := p.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
