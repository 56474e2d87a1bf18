package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/soyeahso/matchat/internal/domain"
	"github.com/soyeahso/matchat/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatRequest(method, body, token string) *http.Request {
	req := httptest.NewRequest(method, ChatPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func TestChat_Echo(t *testing.T) {
	inbox := store.NewMemoryInbox()
	srv := New(testConfig(), testLog(), WithInbox(inbox))

	rr := serve(srv, chatRequest(http.MethodPost,
		`{"message":"  hi there ","sessionId":"s1","timestamp":"2024-03-05T13:07:09.123Z"}`, ""))
	require.Equal(t, http.StatusOK, rr.Code)

	var reply domain.WebhookReply
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reply))
	assert.Equal(t, "You said: hi there", reply.Response)
	assert.NotContains(t, rr.Body.String(), "formattedResponse")

	msgs, err := inbox.List(context.Background(), "s1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi there", msgs[0].Message)
	assert.Equal(t, "You said: hi there", msgs[0].Reply)
	assert.Equal(t, "2024-03-05T13:07:09.123Z", msgs[0].SentAt)
	assert.False(t, msgs[0].ReceivedAt.IsZero())
}

func TestChat_PutAccepted(t *testing.T) {
	srv := New(testConfig(), testLog())
	rr := serve(srv, chatRequest(http.MethodPut, `{"message":"hi","sessionId":"s1"}`, ""))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestChat_BadRequests(t *testing.T) {
	cfg := testConfig()
	cfg.Widget.MessageLimit = 5
	srv := New(cfg, testLog())

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"invalid json", `{"message":`, http.StatusBadRequest},
		{"missing message", `{"sessionId":"s1"}`, http.StatusBadRequest},
		{"blank message", `{"message":"   ","sessionId":"s1"}`, http.StatusBadRequest},
		{"missing session", `{"message":"hi"}`, http.StatusBadRequest},
		{"over limit", `{"message":"abcdef","sessionId":"s1"}`, http.StatusRequestEntityTooLarge},
		{"body too large", `{"message":"` + strings.Repeat("a", maxChatBody) + `","sessionId":"s1"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(srv, chatRequest(http.MethodPost, tt.body, ""))
			assert.Equal(t, tt.status, rr.Code)
			assert.Contains(t, rr.Body.String(), `"error"`)
		})
	}
}

func TestChat_RequiresToken(t *testing.T) {
	cfg := testConfig()
	cfg.Gateway.Token = "secret"
	srv := New(cfg, testLog())
	body := `{"message":"hi","sessionId":"s1"}`

	assert.Equal(t, http.StatusUnauthorized, serve(srv, chatRequest(http.MethodPost, body, "")).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(srv, chatRequest(http.MethodPost, body, "nope")).Code)
	assert.Equal(t, http.StatusOK, serve(srv, chatRequest(http.MethodPost, body, "secret")).Code)
}

func TestChat_RateLimitedPerSession(t *testing.T) {
	cfg := testConfig()
	cfg.Gateway.RateLimit = 0.001
	cfg.Gateway.RateBurst = 1
	srv := New(cfg, testLog())

	assert.Equal(t, http.StatusOK, serve(srv, chatRequest(http.MethodPost, `{"message":"a","sessionId":"s1"}`, "")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(srv, chatRequest(http.MethodPost, `{"message":"b","sessionId":"s1"}`, "")).Code)
	assert.Equal(t, http.StatusOK, serve(srv, chatRequest(http.MethodPost, `{"message":"c","sessionId":"s2"}`, "")).Code)
}

func TestChat_ResponderError(t *testing.T) {
	inbox := store.NewMemoryInbox()
	srv := New(testConfig(), testLog(), WithInbox(inbox), WithResponder(
		func(context.Context, domain.WebhookRequest) (domain.WebhookReply, error) {
			return domain.WebhookReply{}, errors.New("model offline")
		}))

	rr := serve(srv, chatRequest(http.MethodPost, `{"message":"hi","sessionId":"s1"}`, ""))
	assert.Equal(t, http.StatusBadGateway, rr.Code)

	msgs, err := inbox.List(context.Background(), "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestChat_CustomResponderFormatted(t *testing.T) {
	inbox := store.NewMemoryInbox()
	srv := New(testConfig(), testLog(), WithInbox(inbox), WithResponder(
		func(_ context.Context, req domain.WebhookRequest) (domain.WebhookReply, error) {
			return domain.WebhookReply{FormattedResponse: "<b>" + req.Message + "</b>"}, nil
		}))

	rr := serve(srv, chatRequest(http.MethodPost, `{"message":"hi","sessionId":"s1"}`, ""))
	require.Equal(t, http.StatusOK, rr.Code)

	msgs, err := inbox.List(context.Background(), "s1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "<b>hi</b>", msgs[0].Reply)
}

func TestSessionsEndpoints(t *testing.T) {
	srv := New(testConfig(), testLog())
	for _, body := range []string{
		`{"message":"one","sessionId":"s1"}`,
		`{"message":"two","sessionId":"s1"}`,
		`{"message":"three","sessionId":"s1"}`,
		`{"message":"other","sessionId":"s2"}`,
	} {
		require.Equal(t, http.StatusOK, serve(srv, chatRequest(http.MethodPost, body, "")).Code)
	}

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var sessions SessionsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sessions))
	require.Len(t, sessions.Sessions, 2)
	counts := map[string]int{}
	for _, s := range sessions.Sessions {
		counts[s.SessionID] = s.Messages
	}
	assert.Equal(t, map[string]int{"s1": 3, "s2": 1}, counts)

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/api/sessions/s1/messages?limit=2", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var msgs MessagesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &msgs))
	assert.Equal(t, "s1", msgs.SessionID)
	require.Len(t, msgs.Messages, 2)
	assert.Equal(t, "two", msgs.Messages[0].Message)
	assert.Equal(t, "three", msgs.Messages[1].Message)

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/api/sessions/unknown/messages", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"messages":[]`)

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/api/sessions/s1/messages?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessionsEndpoints_RequireToken(t *testing.T) {
	cfg := testConfig()
	cfg.Gateway.Token = "secret"
	srv := New(cfg, testLog())

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	req.Header.Set("Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, serve(srv, req).Code)
}

func TestReplyText(t *testing.T) {
	assert.Equal(t, "f", replyText(domain.WebhookReply{FormattedResponse: "f", Response: "r"}))
	assert.Equal(t, "m", replyText(domain.WebhookReply{Message: "m", Reply: "x"}))
	assert.Equal(t, "x", replyText(domain.WebhookReply{Reply: "x"}))
	assert.Empty(t, replyText(domain.WebhookReply{}))
}
