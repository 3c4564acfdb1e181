package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load("")

	if cfg.Storage.Path != "data/insight.db" {
		t.Fatalf("unexpected storage path: %s", cfg.Storage.Path)
	}
	if cfg.Analyzer.MaxItemsPerRun != 30 {
		t.Fatalf("unexpected maxItemsPerRun: %d", cfg.Analyzer.MaxItemsPerRun)
	}
	if cfg.Analyzer.SummaryMaxChars != 500 {
		t.Fatalf("unexpected summaryMaxChars: %d", cfg.Analyzer.SummaryMaxChars)
	}
	if cfg.Scheduler.Interval.Std() != 24*time.Hour {
		t.Fatalf("unexpected interval: %s", cfg.Scheduler.Interval.Std())
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Scanner != "arxiv" {
		t.Fatalf("unexpected default sources: %+v", cfg.Sources)
	}
	if !cfg.Sources[0].IsEnabled() {
		t.Fatal("default source should be enabled")
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfigFile(t, `
storage:
  path: /tmp/other.db
analyzer:
  model: gpt-4o
  maxItemsPerRun: 5
delivery:
  plugins: [email]
  email:
    smtpHost: mail.example.org
    to:
      - a@example.org
      - b@example.org
sources:
  - name: arxiv
    scanner: arxiv
    enabled: false
    categories:
      - name: cs.CV
    maxResults: 10
`)

	cfg := Load(path)

	if cfg.Storage.Path != "/tmp/other.db" {
		t.Fatalf("storage path not overridden: %s", cfg.Storage.Path)
	}
	if cfg.Analyzer.Model != "gpt-4o" || cfg.Analyzer.MaxItemsPerRun != 5 {
		t.Fatalf("analyzer not merged: %+v", cfg.Analyzer)
	}
	// untouched defaults survive the merge
	if cfg.Analyzer.SummaryMaxChars != 500 {
		t.Fatalf("summaryMaxChars default lost: %d", cfg.Analyzer.SummaryMaxChars)
	}
	if cfg.Sources[0].IsEnabled() {
		t.Fatal("source should be disabled")
	}

	channel := cfg.Delivery.Channel("email")
	if channel["smtpHost"] != "mail.example.org" {
		t.Fatalf("channel block not parsed: %v", channel)
	}
	if channel["to"] != "a@example.org, b@example.org" {
		t.Fatalf("recipient list not normalized: %q", channel["to"])
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
analyzer:
  apiKey: from-file
`)
	t.Setenv("OPENAI_API_KEY", "from-env")
	t.Setenv("INSIGHT_DB_PATH", "/tmp/env.db")
	t.Setenv("SMTP_HOST", "env.example.org")

	cfg := Load(path)

	if cfg.Analyzer.APIKey != "from-env" {
		t.Fatalf("env should win over file: %s", cfg.Analyzer.APIKey)
	}
	if cfg.Storage.Path != "/tmp/env.db" {
		t.Fatalf("db path env override missing: %s", cfg.Storage.Path)
	}
	if cfg.Delivery.Channel("email")["smtpHost"] != "env.example.org" {
		t.Fatal("smtp host env override missing")
	}
}

func TestChannelForUnknownPluginIsEmpty(t *testing.T) {
	cfg := Load("")
	if len(cfg.Delivery.Channel("nope")) != 0 {
		t.Fatal("expected empty channel config")
	}
}
