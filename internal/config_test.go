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
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if !cfg.Normalize.Rules().CloseTurns {
		t.Error("default rules should close turns")
	}
}

func TestNormalizeConfig_Markers(t *testing.T) {
	cfg := NormalizeConfig{UserMarker: "", AssistantMarker: "DM:"}
	if err := cfg.Validate(); err == nil {
		t.Error("empty user marker should fail")
	}
	cfg = NormalizeConfig{UserMarker: "X:", AssistantMarker: "X:"}
	if err := cfg.Validate(); err == nil {
		t.Error("identical markers should fail")
	}
	cfg = NormalizeConfig{UserMarker: "Player:", AssistantMarker: "DM:"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("distinct markers should pass: %v", err)
	}
	if r := cfg.Rules(); r.UserMarker != "Player:" || r.AssistantMarker != "DM:" {
		t.Errorf("rules = %+v", r)
	}
}

func TestInboxConfig(t *testing.T) {
	cfg := InboxConfig{Enabled: true}
	if err := cfg.Validate(); err == nil {
		t.Error("enabled inbox without path should fail")
	}
	cfg = InboxConfig{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled inbox should pass: %v", err)
	}
	if cfg.ProcessedDir == "" {
		t.Error("processed dir should default")
	}
}

func TestUploadConfig(t *testing.T) {
	for _, n := range []int64{0, -1, 2 << 30} {
		cfg := UploadConfig{MaxBytes: n}
		if err := cfg.Validate(); err == nil {
			t.Errorf("max_bytes %d should fail", n)
		}
	}
}
