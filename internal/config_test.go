package internal

import (
	"strings"
	"testing"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestStorageConfig_UnknownBackend(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Backend = "mongo"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown backend should fail validation")
	}
}

func TestStorageConfig_EmptyKeyDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Key = ""
	if err := cfg.Storage.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Key != "notes" {
		t.Errorf("key = %q, want notes", cfg.Storage.Key)
	}
}

func TestStorageConfig_OnlySelectedBackendValidated(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Backend = BackendMemory
	cfg.Storage.File.Dir = ""
	cfg.Storage.Redis.Addr = ""
	if err := cfg.Storage.Validate(); err != nil {
		t.Fatalf("memory backend should ignore other sections: %v", err)
	}

	cfg.Storage.Backend = BackendRedis
	if err := cfg.Storage.Validate(); err == nil {
		t.Fatal("redis backend without addr should fail")
	}
}

func TestExportConfig_Format(t *testing.T) {
	cfg := ExportConfig{}
	if err := cfg.Validate(); err != nil || cfg.Format != "legacy" {
		t.Fatalf("empty format = %q, %v", cfg.Format, err)
	}
	cfg.Format = "xlsx"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown format should fail")
	}
}

func TestShareConfig_RequiresURL(t *testing.T) {
	cfg := ShareConfig{BaseURL: "not a url"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid base url should fail")
	}
}
