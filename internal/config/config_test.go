package config

import (
	"os"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Retrieval.RawK != 24 || cfg.Retrieval.ContextK != 24 {
		t.Errorf("retrieval k defaults: %+v", cfg.Retrieval)
	}
	if cfg.Retrieval.SimilarityFloor != 0.3 || cfg.Retrieval.MinKeep != 5 {
		t.Errorf("floor defaults: %+v", cfg.Retrieval)
	}
	if cfg.Retrieval.LexicalWeight != 0.35 {
		t.Errorf("lexical_weight = %g, want 0.35", cfg.Retrieval.LexicalWeight)
	}
	if cfg.Cluster.SimilarityThreshold != 0.8 || cfg.Cluster.BatchSize != 500 {
		t.Errorf("cluster defaults: %+v", cfg.Cluster)
	}
	if cfg.Storage.IndexName != "poldex-docs" {
		t.Errorf("index name = %q", cfg.Storage.IndexName)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Database:  DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Embedding: EmbeddingConfig{Dimensions: 1024},
	}
	valid.ApplyDefaults()
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.HTTP.Port = 0 }},
		{"missing addrs", func(c *Config) { c.Database.Addrs = nil }},
		{"missing dimensions", func(c *Config) { c.Embedding.Dimensions = 0 }},
		{"lexical weight out of range", func(c *Config) { c.Retrieval.LexicalWeight = 1.5 }},
		{"threshold out of range", func(c *Config) { c.Cluster.SimilarityThreshold = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("POLDEX_TEST_KEY", "sk-123")
	defer os.Unsetenv("POLDEX_TEST_KEY")

	in := []byte("api_key: ${POLDEX_TEST_KEY}\nbase_url: ${POLDEX_TEST_MISSING:-http://localhost}")
	out := string(expandEnvVars(in))

	if out != "api_key: sk-123\nbase_url: http://localhost" {
		t.Errorf("expanded = %q", out)
	}
}
