package internal

import (
	"log/slog"
	"strings"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestAuthConfig_DisabledWithoutToken(t *testing.T) {
	cfg := AuthConfig{Enabled: false, Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled auth should pass: %v", err)
	}
}

func TestAuthConfig_EnabledWithToken(t *testing.T) {
	cfg := AuthConfig{Enabled: true, Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("enabled auth with token should pass: %v", err)
	}
}

func TestAuthConfig_EnabledEmptyToken(t *testing.T) {
	cfg := AuthConfig{Enabled: true, Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("enabled auth with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLogLevel_Invalid(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.LogLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown log level should fail validation")
	}
}

func TestLogLevel_Mapping(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		app := ApplicationConfig{LogLevel: name}
		if got := app.Level(); got != want {
			t.Errorf("Level(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestHTTPConfig_PortBounds(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := HTTPConfig{Port: port}
		if err := cfg.Validate(); err == nil {
			t.Errorf("port %d should fail validation", port)
		}
	}
	if err := (&HTTPConfig{Port: 8080}).Validate(); err != nil {
		t.Errorf("port 8080 should pass: %v", err)
	}
}

func TestContentConfig_Required(t *testing.T) {
	cfg := ContentConfig{Dir: "./content"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing static_dir should fail validation")
	}
	cfg = ContentConfig{StaticDir: "./static"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing dir should fail validation")
	}
}

func TestSiteConfig_TitleRequired(t *testing.T) {
	cfg := SiteConfig{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing site title should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}
