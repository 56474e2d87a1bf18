package config

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

const (
	DefaultPosition     = "bottom-right"
	DefaultTheme        = "serene"
	DefaultMessageLimit = MessageLimit(500)
	DefaultMethod       = "POST"
	DefaultCloseDelay   = 300 * time.Millisecond
	DefaultFallback     = 1500 * time.Millisecond
	DefaultTimeout      = 30 * time.Second
)

// Positions lists the corners a widget can be anchored to.
var Positions = []string{"bottom-right", "bottom-left", "top-right", "top-left"}

// Themes lists the named themes understood by the stylesheet.
var Themes = []string{"default", "modern", "serene", "vibrant", "deep", "custom"}

// DefaultOptions returns the complete default widget record.
func DefaultOptions() Options {
	return Options{
		Position:  DefaultPosition,
		AvatarURL: "https://ui-avatars.com/api/?name=Matcha&background=4361ee&color=fff",
		Title:     "Matcha",
		Theme:     DefaultTheme,
		Colors: Colors{
			Primary:     "#6c5ce7",
			PrimaryDark: "#5649c0",
			Secondary:   "#f9fafb",
			Text:        "#1f2937",
			LightText:   "#6b7280",
		},
		BubbleStyle: BubbleStyles{
			Bot:  BubbleStyle{BorderRadius: "4px 18px 18px 18px"},
			User: BubbleStyle{BorderRadius: "18px 4px 18px 18px"},
		},
		Dimensions: Dimensions{
			Width:           "350px",
			Height:          "500px",
			AvatarSize:      "40px",
			MessageMaxWidth: "240px",
		},
		MessageLimit: DefaultMessageLimit,
		Webhook: WebhookConfig{
			Method: DefaultMethod,
			Headers: map[string]string{
				"Content-Type": "application/json",
			},
		},
		Timing: Timing{
			CloseDelay:     DefaultCloseDelay,
			FallbackDelay:  DefaultFallback,
			RequestTimeout: DefaultTimeout,
		},
	}
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Widget: DefaultOptions(),
		Gateway: GatewayConfig{
			Port:      18790,
			Bind:      "loopback",
			RateLimit: 2,
			RateBurst: 5,
		},
		Inbox: InboxConfig{
			Store: "sqlite",
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
