package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/soyeahso/matchat/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 18790, cfg.Gateway.Port)
	assert.Equal(t, "loopback", cfg.Gateway.Bind)
	assert.Equal(t, "sqlite", cfg.Inbox.Store)
	assert.Equal(t, "info", cfg.Logging.Level)

	w := cfg.Widget
	assert.Equal(t, "bottom-right", w.Position)
	assert.Equal(t, "Matcha", w.Title)
	assert.Equal(t, "serene", w.Theme)
	assert.Equal(t, MessageLimit(500), w.MessageLimit)
	assert.Equal(t, "POST", w.Webhook.Method)
	assert.Equal(t, "application/json", w.Webhook.Headers["Content-Type"])
	assert.Equal(t, 300*time.Millisecond, w.Timing.CloseDelay)
	assert.Equal(t, 1500*time.Millisecond, w.Timing.FallbackDelay)
}

func TestMerge_NestedGroups(t *testing.T) {
	out := Merge(DefaultOptions(), Options{
		Title:      "Support",
		Colors:     Colors{Primary: "#000000"},
		Dimensions: Dimensions{Width: "400px"},
		BubbleStyle: BubbleStyles{
			User: BubbleStyle{Padding: "8px"},
		},
	})

	assert.Equal(t, "Support", out.Title)
	assert.Equal(t, "#000000", out.Colors.Primary)
	assert.Equal(t, "#5649c0", out.Colors.PrimaryDark, "unnamed colors keep their defaults")
	assert.Equal(t, "400px", out.Dimensions.Width)
	assert.Equal(t, "500px", out.Dimensions.Height)
	assert.Equal(t, "8px", out.BubbleStyle.User.Padding)
	assert.Equal(t, "18px 4px 18px 18px", out.BubbleStyle.User.BorderRadius)
	assert.Equal(t, MessageLimit(500), out.MessageLimit)
}

func TestMerge_HeadersOverlayDefaults(t *testing.T) {
	base := DefaultOptions()
	out := Merge(base, Options{
		Webhook: WebhookConfig{Headers: map[string]string{
			"Authorization": "Bearer x",
			"Content-Type":  "text/plain",
		}},
	})

	assert.Equal(t, "Bearer x", out.Webhook.Headers["Authorization"])
	assert.Equal(t, "text/plain", out.Webhook.Headers["Content-Type"])
	assert.Equal(t, "POST", out.Webhook.Method)

	out.Webhook.Headers["X-Mutated"] = "1"
	_, leaked := base.Webhook.Headers["X-Mutated"]
	assert.False(t, leaked, "merged headers must not alias the base map")
}

func TestMerge_Hooks(t *testing.T) {
	called := false
	out := Merge(DefaultOptions(), Options{OnWidgetOpen: func() { called = true }})
	require.NotNil(t, out.OnWidgetOpen)
	out.OnWidgetOpen()
	assert.True(t, called)
	assert.Nil(t, out.OnWidgetClose)
}

func TestBuild_InvalidPositionFallsBack(t *testing.T) {
	for _, pos := range []string{"middle", "BOTTOM-RIGHT", "left"} {
		t.Run(pos, func(t *testing.T) {
			opts := Build(Options{Position: pos}, logging.Nop())
			assert.Equal(t, "bottom-right", opts.Position)
		})
	}
}

func TestBuild_ValidPositionsKept(t *testing.T) {
	for _, pos := range Positions {
		opts := Build(Options{Position: pos}, logging.Nop())
		assert.Equal(t, pos, opts.Position)
	}
}

func TestBuild_NonPositiveLimitFallsBack(t *testing.T) {
	for _, limit := range []MessageLimit{-1, -500, InvalidLimit} {
		opts := Build(Options{MessageLimit: limit}, logging.Nop())
		assert.Equal(t, DefaultMessageLimit, opts.MessageLimit)
	}

	opts := Build(Options{MessageLimit: 42}, logging.Nop())
	assert.Equal(t, MessageLimit(42), opts.MessageLimit)
}

func TestBuild_WarnsInsteadOfFailing(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, "warn")

	opts := Build(Options{Position: "nowhere", Theme: "neon", MessageLimit: -3}, log)

	assert.Equal(t, "bottom-right", opts.Position)
	assert.Equal(t, "serene", opts.Theme)
	assert.Equal(t, DefaultMessageLimit, opts.MessageLimit)
	assert.Contains(t, buf.String(), "widget.position")
	assert.Contains(t, buf.String(), "widget.theme")
	assert.Contains(t, buf.String(), "widget.messageLimit")
}

func TestBuild_NormalizesMethod(t *testing.T) {
	opts := Build(Options{Webhook: WebhookConfig{Method: " put "}}, logging.Nop())
	assert.Equal(t, "PUT", opts.Webhook.Method)
}

func TestMessageLimit_LenientDecoding(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want MessageLimit
	}{
		{"number", "messageLimit: 120", 120},
		{"quoted number", `messageLimit: "80"`, 80},
		{"word", "messageLimit: lots", InvalidLimit},
		{"fraction", "messageLimit: 2.5", InvalidLimit},
		{"zero", "messageLimit: 0", InvalidLimit},
		{"negative", "messageLimit: -4", -4},
		{"null", "messageLimit: ~", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts Options
			require.NoError(t, yaml.Unmarshal([]byte(tt.doc), &opts))
			assert.Equal(t, tt.want, opts.MessageLimit)
		})
	}
}

func TestMessageLimit_JSON(t *testing.T) {
	var opts Options
	require.NoError(t, json.Unmarshal([]byte(`{"messageLimit":"abc"}`), &opts))
	assert.Equal(t, InvalidLimit, opts.MessageLimit)

	require.NoError(t, json.Unmarshal([]byte(`{"messageLimit":250}`), &opts))
	assert.Equal(t, MessageLimit(250), opts.MessageLimit)

	opts = Options{}
	require.NoError(t, json.Unmarshal([]byte(`{"messageLimit":null}`), &opts))
	assert.Equal(t, MessageLimit(0), opts.MessageLimit)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 18790, cfg.Gateway.Port)
	assert.Equal(t, "Matcha", cfg.Widget.Title)
}

func TestLoadValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	doc := `
widget:
  title: Helpdesk
  position: top-left
  apiUrl: https://example.com/chat
  messageLimit: 200
  colors:
    primary: "#112233"
  webhookConfig:
    headers:
      Authorization: Bearer ${MATCHAT_TEST_TOKEN}
  timing:
    fallbackDelay: 250ms
gateway:
  port: 9999
  bind: lan
inbox:
  store: memory
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	t.Setenv("MATCHAT_TEST_TOKEN", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Helpdesk", cfg.Widget.Title)
	assert.Equal(t, "top-left", cfg.Widget.Position)
	assert.Equal(t, "https://example.com/chat", cfg.Widget.APIURL)
	assert.Equal(t, MessageLimit(200), cfg.Widget.MessageLimit)
	assert.Equal(t, "#112233", cfg.Widget.Colors.Primary)
	assert.Equal(t, "#5649c0", cfg.Widget.Colors.PrimaryDark)
	assert.Equal(t, "Bearer s3cret", cfg.Widget.Webhook.Headers["Authorization"])
	assert.Equal(t, "application/json", cfg.Widget.Webhook.Headers["Content-Type"])
	assert.Equal(t, 250*time.Millisecond, cfg.Widget.Timing.FallbackDelay)
	assert.Equal(t, 300*time.Millisecond, cfg.Widget.Timing.CloseDelay)
	assert.Equal(t, 9999, cfg.Gateway.Port)
	assert.Equal(t, "lan", cfg.Gateway.Bind)
	assert.Equal(t, "memory", cfg.Inbox.Store)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "pretty", cfg.Logging.ConsoleStyle)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("widget: [unclosed"), 0o600))

	_, err := Load(path)
	var ce *ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MATCHAT_GATEWAY_PORT", "7777")
	t.Setenv("MATCHAT_API_URL", "http://localhost:1/api")
	t.Setenv("MATCHAT_LOG_LEVEL", "DEBUG")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Gateway.Port)
	assert.Equal(t, "http://localhost:1/api", cfg.Widget.APIURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRawAndSaveRaw(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	raw, err := LoadRaw(path)
	require.NoError(t, err)
	assert.Empty(t, raw)

	SetValueAtPath(raw, []string{"widget", "title"}, "Saved")
	require.NoError(t, SaveRaw(path, raw))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Saved", cfg.Widget.Title)
}
