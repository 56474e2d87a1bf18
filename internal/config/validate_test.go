package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_ValidDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_InvalidPort(t *testing.T) {
	for _, port := range []int{-1, 65536, 100000} {
		cfg := Defaults()
		cfg.Gateway.Port = port
		issues := Validate(&cfg)
		assert.Len(t, issues, 1)
		assert.Equal(t, "gateway.port", issues[0].Path)
	}
}

func TestValidate_InvalidBind(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.Bind = "tailnet"
	issues := Validate(&cfg)
	assert.Len(t, issues, 1)
	assert.Equal(t, "gateway.bind", issues[0].Path)
}

func TestValidate_NegativeRate(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.RateLimit = -1
	cfg.Gateway.RateBurst = -1
	issues := Validate(&cfg)
	assert.Len(t, issues, 2)
}

func TestValidate_InvalidInboxStore(t *testing.T) {
	cfg := Defaults()
	cfg.Inbox.Store = "postgres"
	issues := Validate(&cfg)
	assert.Len(t, issues, 1)
	assert.Equal(t, "inbox.store", issues[0].Path)
}

func TestValidate_Logging(t *testing.T) {
	cfg := Defaults()
	cfg.Logging.Level = "verbose"
	cfg.Logging.ConsoleStyle = "fancy"
	issues := Validate(&cfg)
	assert.Len(t, issues, 2)
}

func TestValidate_IgnoresWidgetOptions(t *testing.T) {
	cfg := Defaults()
	cfg.Widget.Position = "center"
	cfg.Widget.MessageLimit = -1
	assert.Empty(t, Validate(&cfg), "widget problems are corrected, never fatal")
}

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		paths []string
	}{
		{"defaults", DefaultOptions(), nil},
		{"position", Options{Position: "center"}, []string{"widget.position"}},
		{"limit", Options{MessageLimit: -2}, []string{"widget.messageLimit"}},
		{"theme", Options{Theme: "neon"}, []string{"widget.theme"}},
		{"relative url", Options{APIURL: "/api/chat"}, []string{"widget.apiUrl"}},
		{"absolute url", Options{APIURL: "https://example.com/chat"}, nil},
		{"negative delay", Options{Timing: Timing{CloseDelay: -1}}, []string{"widget.timing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, issue := range ValidateOptions(&tt.opts) {
				got = append(got, issue.Path)
			}
			assert.Equal(t, tt.paths, got)
		})
	}
}

func TestValidationIssueString(t *testing.T) {
	issue := ValidationIssue{Path: "widget.position", Message: "invalid"}
	assert.Equal(t, "widget.position: invalid", issue.String())
}
