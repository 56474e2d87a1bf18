package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/soyeahso/matchat/internal/logging"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks the process-level parts of a Config. Widget options are
// never fatal; see ValidateOptions and Normalize.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Gateway.Bind),
		})
	}

	if cfg.Gateway.RateLimit < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.rateLimit",
			Message: fmt.Sprintf("must not be negative, got %v", cfg.Gateway.RateLimit),
		})
	}
	if cfg.Gateway.RateBurst < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.rateBurst",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Gateway.RateBurst),
		})
	}

	validStores := []string{"sqlite", "memory"}
	if cfg.Inbox.Store != "" && !slices.Contains(validStores, cfg.Inbox.Store) {
		issues = append(issues, ValidationIssue{
			Path:    "inbox.store",
			Message: fmt.Sprintf("must be one of %v, got %q", validStores, cfg.Inbox.Store),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "compact", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	return issues
}

// ValidateOptions reports widget option values that Normalize would replace.
func ValidateOptions(opts *Options) []ValidationIssue {
	var issues []ValidationIssue

	if opts.Position != "" && !slices.Contains(Positions, opts.Position) {
		issues = append(issues, ValidationIssue{
			Path:    "widget.position",
			Message: fmt.Sprintf("invalid position %q, defaulting to %q", opts.Position, DefaultPosition),
		})
	}

	if opts.MessageLimit < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "widget.messageLimit",
			Message: fmt.Sprintf("messageLimit must be a positive number, using default %d", DefaultMessageLimit),
		})
	}

	if opts.Theme != "" && !slices.Contains(Themes, opts.Theme) {
		issues = append(issues, ValidationIssue{
			Path:    "widget.theme",
			Message: fmt.Sprintf("unknown theme %q, defaulting to %q", opts.Theme, DefaultTheme),
		})
	}

	if opts.APIURL != "" {
		if u, err := url.Parse(opts.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, ValidationIssue{
				Path:    "widget.apiUrl",
				Message: fmt.Sprintf("%q is not an absolute URL; remote calls will fail", opts.APIURL),
			})
		}
	}

	if opts.Timing.CloseDelay < 0 || opts.Timing.FallbackDelay < 0 || opts.Timing.RequestTimeout < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "widget.timing",
			Message: "delays must not be negative, using defaults",
		})
	}

	return issues
}

// Normalize replaces invalid option values with their defaults in place.
// Problems are logged as warnings and never returned.
func Normalize(opts *Options, log *logging.Logger) {
	for _, issue := range ValidateOptions(opts) {
		log.Warn().Str("path", issue.Path).Msg(issue.Message)
	}

	if !slices.Contains(Positions, opts.Position) {
		opts.Position = DefaultPosition
	}
	if opts.MessageLimit <= 0 {
		opts.MessageLimit = DefaultMessageLimit
	}
	if !slices.Contains(Themes, opts.Theme) {
		opts.Theme = DefaultTheme
	}
	if opts.Timing.CloseDelay < 0 {
		opts.Timing.CloseDelay = DefaultCloseDelay
	}
	if opts.Timing.FallbackDelay < 0 {
		opts.Timing.FallbackDelay = DefaultFallback
	}
	if opts.Timing.RequestTimeout <= 0 {
		opts.Timing.RequestTimeout = DefaultTimeout
	}

	opts.Webhook.Method = strings.ToUpper(strings.TrimSpace(opts.Webhook.Method))
	if opts.Webhook.Method == "" {
		opts.Webhook.Method = DefaultMethod
	}
}
