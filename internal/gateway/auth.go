package gateway

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/soyeahso/matchat/internal/config"
)

// TokenEnv overrides an empty gateway.token setting.
const TokenEnv = "MATCHAT_GATEWAY_TOKEN"

// AuthResult is the outcome of an authentication attempt.
type AuthResult struct {
	OK     bool   `json:"ok"`
	Method string `json:"method,omitempty"` // "none" | "token"
	Reason string `json:"reason,omitempty"`
}

// ResolveToken returns the gateway token from config, then environment.
// An empty result disables authentication.
func ResolveToken(cfg config.GatewayConfig) string {
	if cfg.Token != "" {
		return cfg.Token
	}
	return os.Getenv(TokenEnv)
}

// Authorize checks the credentials of a connect request against token.
func Authorize(token string, clientAuth *ConnectAuth) AuthResult {
	if token == "" {
		return AuthResult{OK: true, Method: "none"}
	}
	if clientAuth == nil || clientAuth.Token == "" {
		return AuthResult{OK: false, Reason: "token required"}
	}
	if !safeEqual(clientAuth.Token, token) {
		return AuthResult{OK: false, Reason: "token_mismatch"}
	}
	return AuthResult{OK: true, Method: "token"}
}

// AuthorizeRequest checks the bearer token of an HTTP request.
func AuthorizeRequest(token string, r *http.Request) AuthResult {
	provided := bearerToken(r)
	if provided == "" {
		return Authorize(token, nil)
	}
	return Authorize(token, &ConnectAuth{Token: provided})
}

// bearerToken extracts the credential from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, rest, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(rest)
}

// safeEqual performs a constant-time string comparison to prevent timing attacks.
// It avoids early-return on length mismatch to prevent leaking secret length via timing.
func safeEqual(a, b string) bool {
	lenMatch := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	cmp := subtle.ConstantTimeCompare([]byte(a), []byte(b))
	return subtle.ConstantTimeSelect(lenMatch, cmp, 0) == 1
}
