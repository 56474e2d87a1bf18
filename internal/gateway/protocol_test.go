package gateway

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/soyeahso/matchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wire marshals v and decodes it generically, the way the host page's
// script sees it.
func wire(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestBridgeRequests(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		method     string
		params     any
		wantParams string
	}{
		{"typing goes out as an i-prefixed input", "i7", "widget.input", widgetInputParams{Text: "hel"}, `{"text":"hel"}`},
		{"send with text", "r8", "widget.send", widgetInputParams{Text: "hello"}, `{"text":"hello"}`},
		{"append as bot", "r9", "widget.append", widgetAppendParams{Text: "**hi**", Sender: domain.SenderBot}, `{"text":"**hi**","sender":"bot"}`},
		{"inbox for own session", "r10", "inbox.list", inboxListParams{Limit: 5}, `{"limit":5}`},
		{"state without params", "r11", "widget.state", nil, `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := NewRequest(tt.id, tt.method, tt.params)
			require.NoError(t, err)
			assert.Equal(t, FrameTypeRequest, frame.Type)
			assert.JSONEq(t, tt.wantParams, string(frame.Params))

			m := wire(t, frame)
			assert.Equal(t, "req", m["type"])
			assert.Equal(t, tt.id, m["id"])
			assert.Equal(t, tt.method, m["method"])
			assert.NotContains(t, m, "ok")
			assert.NotContains(t, m, "event")
		})
	}
}

func TestNewRequest_UnencodableParams(t *testing.T) {
	_, err := NewRequest("r1", "widget.send", math.Inf(1))
	assert.Error(t, err)
}

func TestRenderResponse_Wire(t *testing.T) {
	frame, err := NewResponse("r3", RenderEvent{
		HTML:  `<div class="matchat-container"></div>`,
		State: domain.WidgetState{SessionID: "session_x_1", Open: true, Entries: 2},
	})
	require.NoError(t, err)

	m := wire(t, frame)
	assert.Equal(t, "res", m["type"])
	assert.Equal(t, true, m["ok"])
	assert.NotContains(t, m, "error")

	payload := m["payload"].(map[string]any)
	assert.Equal(t, `<div class="matchat-container"></div>`, payload["html"])
	state := payload["state"].(map[string]any)
	assert.Equal(t, true, state["open"])
	assert.Equal(t, false, state["waiting"])
	assert.Equal(t, float64(2), state["entries"])
	assert.Equal(t, "session_x_1", state["sessionId"])
}

func TestRenderEvent_Wire(t *testing.T) {
	frame, err := NewEvent(EventRender, RenderEvent{HTML: "<p>x</p>"}, 42)
	require.NoError(t, err)

	m := wire(t, frame)
	assert.Equal(t, "event", m["type"])
	assert.Equal(t, "widget.render", m["event"])
	assert.Equal(t, float64(42), m["seq"])
	assert.NotContains(t, m, "id")
	assert.Equal(t, "<p>x</p>", m["payload"].(map[string]any)["html"])
}

func TestChallengeEvent_OmitsZeroSeq(t *testing.T) {
	frame, err := NewEvent(EventChallenge, map[string]any{"nonce": "n1"}, 0)
	require.NoError(t, err)

	m := wire(t, frame)
	assert.Equal(t, "connect.challenge", m["event"])
	assert.NotContains(t, m, "seq")
}

func TestErrorResponse_Wire(t *testing.T) {
	tests := []struct {
		name  string
		shape ErrorShape
		keys  []string
		never []string
	}{
		{
			name:  "bad sender",
			shape: ErrorShape{Code: "invalid_params", Message: `sender must be "user" or "bot"`},
			keys:  []string{"code", "message"},
			never: []string{"details", "retryable", "retryAfterMs"},
		},
		{
			name:  "throttled",
			shape: ErrorShape{Code: "rate_limited", Message: "slow down", Retryable: true, RetryAfter: 1500},
			keys:  []string{"code", "message", "retryable", "retryAfterMs"},
			never: []string{"details"},
		},
		{
			name:  "protocol mismatch",
			shape: ErrorShape{Code: "protocol_mismatch", Message: "unsupported", Details: map[string]int{"expected": ProtocolVersion}},
			keys:  []string{"code", "message", "details"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := NewErrorResponse("r5", tt.shape)
			require.NotNil(t, frame.OK)
			assert.False(t, *frame.OK)

			m := wire(t, frame)
			assert.Equal(t, false, m["ok"])
			assert.NotContains(t, m, "payload")
			errObj := m["error"].(map[string]any)
			for _, k := range tt.keys {
				assert.Contains(t, errObj, k)
			}
			for _, k := range tt.never {
				assert.NotContains(t, errObj, k)
			}
			assert.Equal(t, tt.shape.Message, errObj["message"])
		})
	}
}

func TestConnectParams_FromHostPage(t *testing.T) {
	// Shape sent by the host page script.
	raw := `{"minProtocol":1,"maxProtocol":1,
		"client":{"id":"host-page","version":"1","platform":"web"},
		"auth":{"token":"t0k"},
		"widget":{"position":"top-left","title":"Help","theme":"deep","welcomeMessage":"Hi *there*"}}`

	var p ConnectParams
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, ProtocolVersion, p.MinProtocol)
	assert.Equal(t, "host-page", p.Client.ID)
	require.NotNil(t, p.Auth)
	assert.Equal(t, "t0k", p.Auth.Token)
	require.NotNil(t, p.Widget)
	assert.Equal(t, WidgetOverrides{
		Position:       "top-left",
		Title:          "Help",
		WelcomeMessage: "Hi *there*",
		Theme:          "deep",
	}, *p.Widget)
}

func TestConnectParams_AnonymousPage(t *testing.T) {
	m := wire(t, ConnectParams{MinProtocol: 1, MaxProtocol: 1, Client: ClientInfo{ID: "embed", Version: "1", Platform: "web"}})
	assert.NotContains(t, m, "auth")
	assert.NotContains(t, m, "widget")
	assert.NotContains(t, m, "locale")
}

func TestHelloOK_Wire(t *testing.T) {
	m := wire(t, HelloOK{
		Protocol: ProtocolVersion,
		Server:   ServerInfo{Version: "dev", ConnID: "c1"},
		Widget: WidgetInfo{
			ID:        "w1",
			SessionID: "session_0123456789abcdef0123456789abcdef_lx2k",
			Strategy:  "remote",
			HTML:      "<div></div>",
		},
		Features: Features{Methods: []string{"widget.open"}, Events: []string{EventRender, EventHook}},
		Policy:   ServerPolicy{MaxPayload: maxPayload, MessageLimit: 500},
	})

	widget := m["widget"].(map[string]any)
	assert.Equal(t, "<div></div>", widget["html"])
	assert.Equal(t, "remote", widget["strategy"])
	assert.NotContains(t, m["server"].(map[string]any), "commit")
	assert.Equal(t, []any{"widget.render", "widget.event"}, m["features"].(map[string]any)["events"])
	assert.Equal(t, float64(500), m["policy"].(map[string]any)["messageLimit"])
}
