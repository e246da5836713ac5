package config

import (
	"os"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		OpenAI:   OpenAIConfig{APIKey: "sk-test"},
		Pinecone: PineconeConfig{APIKey: "pc-test", Index: "tiangong"},
		Xata:     XataConfig{APIKey: "xau-test", DBURL: "https://ws-1.us-east-1.xata.sh/db/esg:main"},
		KB:       KBConfig{DSN: "postgres://kb:kb@localhost:5432/kb?sslmode=disable"},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingCredentials(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"openai key", func(c *Config) { c.OpenAI.APIKey = "" }},
		{"pinecone key", func(c *Config) { c.Pinecone.APIKey = "" }},
		{"pinecone index", func(c *Config) { c.Pinecone.Index = "" }},
		{"xata db url", func(c *Config) { c.Xata.DBURL = "" }},
		{"kb dsn", func(c *Config) { c.KB.DSN = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected error for missing %s", tt.name)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.OpenAI.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("unexpected embedding model: %q", cfg.OpenAI.EmbeddingModel)
	}
	if cfg.Pinecone.ESGNamespace != "esg" {
		t.Errorf("unexpected esg namespace: %q", cfg.Pinecone.ESGNamespace)
	}
	if cfg.Pinecone.SciNamespace != "sci" {
		t.Errorf("unexpected sci namespace: %q", cfg.Pinecone.SciNamespace)
	}
	if cfg.Xata.Table != "ESG" {
		t.Errorf("unexpected xata table: %q", cfg.Xata.Table)
	}
	if cfg.KB.Table != "journals" {
		t.Errorf("unexpected kb table: %q", cfg.KB.Table)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TG_TEST_KEY", "secret")

	in := []byte("api_key: ${TG_TEST_KEY}\nindex: ${TG_TEST_MISSING:-tiangong}\n")
	out := string(expandEnvVars(in))

	want := "api_key: secret\nindex: tiangong\n"
	if out != want {
		t.Errorf("unexpected expansion:\ngot:  %q\nwant: %q", out, want)
	}
}

func TestGetEnv(t *testing.T) {
	os.Unsetenv("ENV")
	if env := GetEnv(); env != "local" {
		t.Errorf("expected local, got %q", env)
	}

	t.Setenv("ENV", "prod")
	if env := GetEnv(); env != "prod" {
		t.Errorf("expected prod, got %q", env)
	}
}
