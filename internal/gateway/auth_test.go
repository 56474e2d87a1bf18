package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soyeahso/matchat/internal/config"
	"github.com/stretchr/testify/assert"
)

// --- safeEqual tests ---

func TestSafeEqual_Match(t *testing.T) {
	assert.True(t, safeEqual("secret", "secret"))
}

func TestSafeEqual_Mismatch(t *testing.T) {
	assert.False(t, safeEqual("secret", "wrong"))
}

func TestSafeEqual_DifferentLengths(t *testing.T) {
	assert.False(t, safeEqual("short", "longer-string"))
}

func TestSafeEqual_BothEmpty(t *testing.T) {
	assert.True(t, safeEqual("", ""))
}

func TestSafeEqual_OneEmpty(t *testing.T) {
	assert.False(t, safeEqual("secret", ""))
	assert.False(t, safeEqual("", "secret"))
}

// --- ResolveToken tests ---

func TestResolveToken_FromConfig(t *testing.T) {
	t.Setenv(TokenEnv, "env-token")
	assert.Equal(t, "cfg-token", ResolveToken(config.GatewayConfig{Token: "cfg-token"}))
}

func TestResolveToken_FromEnv(t *testing.T) {
	t.Setenv(TokenEnv, "env-token")
	assert.Equal(t, "env-token", ResolveToken(config.GatewayConfig{}))
}

func TestResolveToken_Unset(t *testing.T) {
	t.Setenv(TokenEnv, "")
	assert.Empty(t, ResolveToken(config.GatewayConfig{}))
}

// --- Authorize tests ---

func TestAuthorize_NoServerToken(t *testing.T) {
	res := Authorize("", nil)
	assert.True(t, res.OK)
	assert.Equal(t, "none", res.Method)
}

func TestAuthorize_TokenSuccess(t *testing.T) {
	res := Authorize("secret", &ConnectAuth{Token: "secret"})
	assert.True(t, res.OK)
	assert.Equal(t, "token", res.Method)
}

func TestAuthorize_TokenMismatch(t *testing.T) {
	res := Authorize("secret", &ConnectAuth{Token: "wrong"})
	assert.False(t, res.OK)
	assert.Equal(t, "token_mismatch", res.Reason)
}

func TestAuthorize_TokenMissing(t *testing.T) {
	for _, auth := range []*ConnectAuth{nil, {}} {
		res := Authorize("secret", auth)
		assert.False(t, res.OK)
		assert.Equal(t, "token required", res.Reason)
	}
}

func TestAuthorizeRequest_Bearer(t *testing.T) {
	tests := []struct {
		name   string
		header string
		ok     bool
	}{
		{"match", "Bearer secret", true},
		{"lowercase scheme", "bearer secret", true},
		{"mismatch", "Bearer nope", false},
		{"basic scheme", "Basic secret", false},
		{"missing", "", false},
		{"no credential", "Bearer", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, ChatPath, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.ok, AuthorizeRequest("secret", req).OK)
		})
	}
}

func TestAuthorizeRequest_OpenWithoutToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, ChatPath, nil)
	assert.True(t, AuthorizeRequest("", req).OK)
}

// --- checkWebSocketOrigin tests ---

func originRequest(origin string) *http.Request {
	req := httptest.NewRequest("GET", "/ws", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestCheckWebSocketOrigin_NoOriginHeader(t *testing.T) {
	check := checkWebSocketOrigin(nil)
	assert.True(t, check(originRequest("")))
}

func TestCheckWebSocketOrigin_EmptyAllowedList(t *testing.T) {
	check := checkWebSocketOrigin(nil)
	assert.False(t, check(originRequest("http://evil.com")))
}

func TestCheckWebSocketOrigin_Wildcard(t *testing.T) {
	check := checkWebSocketOrigin([]string{"*"})
	assert.True(t, check(originRequest("http://anything.com")))
}

func TestCheckWebSocketOrigin_SpecificMatch(t *testing.T) {
	check := checkWebSocketOrigin([]string{"http://allowed.com"})
	assert.True(t, check(originRequest("http://allowed.com")))
}

func TestCheckWebSocketOrigin_SpecificNoMatch(t *testing.T) {
	check := checkWebSocketOrigin([]string{"http://allowed.com"})
	assert.False(t, check(originRequest("http://evil.com")))
}

func TestCheckWebSocketOrigin_MultipleAllowed(t *testing.T) {
	check := checkWebSocketOrigin([]string{"http://one.com", "http://two.com"})
	assert.True(t, check(originRequest("http://one.com")))
	assert.True(t, check(originRequest("http://two.com")))
	assert.False(t, check(originRequest("http://three.com")))
}

func TestCheckWebSocketOrigin_SameHost(t *testing.T) {
	check := checkWebSocketOrigin(nil)
	req := originRequest("http://example.com")
	req.Host = "example.com"
	assert.True(t, check(req))
}
