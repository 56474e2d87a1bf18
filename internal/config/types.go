package config

import "time"

// Config is the root configuration for the matchat binary.
type Config struct {
	Widget  Options       `yaml:"widget,omitempty"`
	Gateway GatewayConfig `yaml:"gateway,omitempty"`
	Inbox   InboxConfig   `yaml:"inbox,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// Options configures a single widget instance. A zero field means "not
// supplied"; Build layers supplied fields over Defaults one group at a time.
type Options struct {
	Position          string        `yaml:"position,omitempty" json:"position,omitempty"` // "bottom-right" | "bottom-left" | "top-right" | "top-left"
	AvatarURL         string        `yaml:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	Title             string        `yaml:"title,omitempty" json:"title,omitempty"`
	WelcomeMessage    string        `yaml:"welcomeMessage,omitempty" json:"welcomeMessage,omitempty"`
	BackgroundImage   string        `yaml:"backgroundImage,omitempty" json:"backgroundImage,omitempty"`
	BackgroundPattern string        `yaml:"backgroundPattern,omitempty" json:"backgroundPattern,omitempty"`
	Icons             Icons         `yaml:"icons,omitempty" json:"icons,omitempty"`
	Theme             string        `yaml:"theme,omitempty" json:"theme,omitempty"` // "default" | "modern" | "serene" | "vibrant" | "deep" | "custom"
	BubbleStyle       BubbleStyles  `yaml:"messageBubbleStyle,omitempty" json:"messageBubbleStyle,omitempty"`
	Colors            Colors        `yaml:"colors,omitempty" json:"colors,omitempty"`
	Dimensions        Dimensions    `yaml:"dimensions,omitempty" json:"dimensions,omitempty"`
	MessageLimit      MessageLimit  `yaml:"messageLimit,omitempty" json:"messageLimit,omitempty"`
	APIURL            string        `yaml:"apiUrl,omitempty" json:"apiUrl,omitempty"`
	Webhook           WebhookConfig `yaml:"webhookConfig,omitempty" json:"webhookConfig,omitempty"`
	PositionOffset    string        `yaml:"positionOffset,omitempty" json:"positionOffset,omitempty"`
	Timing            Timing        `yaml:"timing,omitempty" json:"timing,omitempty"`

	OnMessageSend SendHandler `yaml:"-" json:"-"`
	OnWidgetOpen  func()      `yaml:"-" json:"-"`
	OnWidgetClose func()      `yaml:"-" json:"-"`
}

// SendHandler answers a user message. It must call deliver at most once,
// synchronously or later. A non-nil error before delivery shows the generic
// failure message instead.
type SendHandler func(message string, deliver func(response string)) error

// Icons overrides the launcher, close and send glyphs with image URLs.
type Icons struct {
	Chat  string `yaml:"chat,omitempty" json:"chat,omitempty"`
	Close string `yaml:"close,omitempty" json:"close,omitempty"`
	Send  string `yaml:"send,omitempty" json:"send,omitempty"`
}

// BubbleStyle overrides the look of one sender's message bubbles.
type BubbleStyle struct {
	BorderRadius string `yaml:"borderRadius,omitempty" json:"borderRadius,omitempty"`
	MinWidth     string `yaml:"minWidth,omitempty" json:"minWidth,omitempty"`
	Padding      string `yaml:"padding,omitempty" json:"padding,omitempty"`
}

// BubbleStyles groups bubble overrides per sender.
type BubbleStyles struct {
	Bot  BubbleStyle `yaml:"bot,omitempty" json:"bot,omitempty"`
	User BubbleStyle `yaml:"user,omitempty" json:"user,omitempty"`
}

// Colors is the widget palette.
type Colors struct {
	Primary     string `yaml:"primary,omitempty" json:"primary,omitempty"`
	PrimaryDark string `yaml:"primaryDark,omitempty" json:"primaryDark,omitempty"`
	Secondary   string `yaml:"secondary,omitempty" json:"secondary,omitempty"`
	Text        string `yaml:"text,omitempty" json:"text,omitempty"`
	LightText   string `yaml:"lightText,omitempty" json:"lightText,omitempty"`
	White       string `yaml:"white,omitempty" json:"white,omitempty"`
}

// Dimensions sizes the popup and its contents (CSS lengths).
type Dimensions struct {
	Width           string `yaml:"width,omitempty" json:"width,omitempty"`
	Height          string `yaml:"height,omitempty" json:"height,omitempty"`
	AvatarSize      string `yaml:"avatarSize,omitempty" json:"avatarSize,omitempty"`
	MessageMaxWidth string `yaml:"messageMaxWidth,omitempty" json:"messageMaxWidth,omitempty"`
}

// WebhookConfig shapes the outbound request to APIURL.
type WebhookConfig struct {
	Method  string            `yaml:"method,omitempty" json:"method,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// Timing holds the widget's fixed delays.
type Timing struct {
	CloseDelay     time.Duration `yaml:"closeDelay,omitempty" json:"closeDelay,omitempty"`         // launcher reveal after close
	FallbackDelay  time.Duration `yaml:"fallbackDelay,omitempty" json:"fallbackDelay,omitempty"`   // simulated latency of canned replies
	RequestTimeout time.Duration `yaml:"requestTimeout,omitempty" json:"requestTimeout,omitempty"` // remote call upper bound
}

// GatewayConfig controls the HTTP/WebSocket host.
type GatewayConfig struct {
	Port           int      `yaml:"port,omitempty"`
	Bind           string   `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string   `yaml:"customBindHost,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
	Token          string   `yaml:"token,omitempty"`     // bearer token required by /api/chat when set
	RateLimit      float64  `yaml:"rateLimit,omitempty"` // requests per second per session on /api/chat
	RateBurst      int      `yaml:"rateBurst,omitempty"`
}

// InboxConfig selects where the demo endpoint records received messages.
type InboxConfig struct {
	Store string `yaml:"store,omitempty"` // "sqlite" | "memory"
	Path  string `yaml:"path,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}
