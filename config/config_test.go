package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"LLM_PROVIDER", "MAX_STEPS", "MAX_CONTEXT_TOKENS", "SAMPLE_FILES_DIR", "HTTP_ADDR", "SCAN_CRON"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	if cfg.LLMProvider != "openai" {
		t.Errorf("LLMProvider = %q, want openai", cfg.LLMProvider)
	}
	if cfg.MaxSteps != 5 {
		t.Errorf("MaxSteps = %d, want 5", cfg.MaxSteps)
	}
	if cfg.MaxContextTokens != 0 {
		t.Errorf("MaxContextTokens = %d, want 0", cfg.MaxContextTokens)
	}
	if cfg.SampleFilesDir != "./sample_files" {
		t.Errorf("SampleFilesDir = %q", cfg.SampleFilesDir)
	}
	if cfg.ScanCron != "*/10 * * * *" {
		t.Errorf("ScanCron = %q", cfg.ScanCron)
	}
	if cfg.HTTPAddr != "" {
		t.Errorf("HTTPAddr = %q, want empty", cfg.HTTPAddr)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OPENAI_API_KEY", "sk-oai")
	t.Setenv("MAX_STEPS", "8")
	t.Setenv("MAX_CONTEXT_TOKENS", "4000")
	cfg := Load()

	if cfg.MaxSteps != 8 {
		t.Errorf("MaxSteps = %d, want 8", cfg.MaxSteps)
	}
	if cfg.MaxContextTokens != 4000 {
		t.Errorf("MaxContextTokens = %d, want 4000", cfg.MaxContextTokens)
	}
	if cfg.APIKey() != "sk-ant" {
		t.Errorf("APIKey = %q, want the anthropic key", cfg.APIKey())
	}
}

func TestLoad_InvalidMaxSteps(t *testing.T) {
	for _, v := range []string{"0", "-3", "five"} {
		t.Setenv("MAX_STEPS", v)
		if got := Load().MaxSteps; got != 5 {
			t.Errorf("MAX_STEPS=%q: got %d, want 5", v, got)
		}
	}
}
