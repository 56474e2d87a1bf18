package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/soyeahso/matchat/internal/domain"
)

// ChatPath is where the demo reply endpoint is mounted.
const ChatPath = "/api/chat"

const maxChatBody = 64 << 10

// Responder produces the demo endpoint's answer to a widget message.
type Responder func(ctx context.Context, req domain.WebhookRequest) (domain.WebhookReply, error)

// EchoResponder repeats the message back.
func EchoResponder(_ context.Context, req domain.WebhookRequest) (domain.WebhookReply, error) {
	return domain.WebhookReply{Response: "You said: " + req.Message}, nil
}

// handleChat answers a widget's remote call and records the exchange.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log := s.log.With("request", requestIDFrom(r.Context()))
	if res := AuthorizeRequest(s.token, r); !res.OK {
		writeError(w, http.StatusUnauthorized, res.Reason)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxChatBody+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body failed")
		return
	}
	if len(body) > maxChatBody {
		writeError(w, http.StatusRequestEntityTooLarge, "body too large")
		return
	}

	var req domain.WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	switch {
	case req.Message == "":
		writeError(w, http.StatusBadRequest, "message is required")
		return
	case req.SessionID == "":
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	case utf8.RuneCountInString(req.Message) > s.messageLimit:
		writeError(w, http.StatusRequestEntityTooLarge, "message too long")
		return
	}

	if !s.limiter.allow(req.SessionID) {
		log.Debug().Str("session", req.SessionID).Msg("chat rate limited")
		writeError(w, http.StatusTooManyRequests, "rate limited")
		return
	}

	reply, err := s.responder(r.Context(), req)
	if err != nil {
		log.Warn().Err(err).Str("session", req.SessionID).Msg("responder failed")
		writeError(w, http.StatusBadGateway, "no reply available")
		return
	}

	if _, err := s.inbox.Record(r.Context(), domain.InboxMessage{
		SessionID: req.SessionID,
		Message:   req.Message,
		Reply:     replyText(reply),
		SentAt:    req.Timestamp,
	}); err != nil {
		log.Error().Err(err).Str("session", req.SessionID).Msg("recording inbox message failed")
	}

	writeJSON(w, http.StatusOK, reply)
}

func replyText(r domain.WebhookReply) string {
	for _, s := range []string{r.FormattedResponse, r.Response, r.Message, r.Reply} {
		if s != "" {
			return s
		}
	}
	return ""
}

// SessionsResponse lists inbox sessions.
type SessionsResponse struct {
	Sessions []domain.SessionSummary `json:"sessions"`
}

// MessagesResponse lists the inbox messages of one session.
type MessagesResponse struct {
	SessionID string                `json:"sessionId"`
	Messages  []domain.InboxMessage `json:"messages"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if res := AuthorizeRequest(s.token, r); !res.OK {
		writeError(w, http.StatusUnauthorized, res.Reason)
		return
	}
	sessions, err := s.inbox.Sessions(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("listing sessions failed")
		writeError(w, http.StatusInternalServerError, "listing sessions failed")
		return
	}
	if sessions == nil {
		sessions = []domain.SessionSummary{}
	}
	writeJSON(w, http.StatusOK, SessionsResponse{Sessions: sessions})
}

func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	if res := AuthorizeRequest(s.token, r); !res.OK {
		writeError(w, http.StatusUnauthorized, res.Reason)
		return
	}

	id := r.PathValue("id")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	msgs, err := s.listMessages(r.Context(), id, limit)
	if err != nil {
		s.log.Error().Err(err).Str("session", id).Msg("listing messages failed")
		writeError(w, http.StatusInternalServerError, "listing messages failed")
		return
	}
	writeJSON(w, http.StatusOK, MessagesResponse{SessionID: id, Messages: msgs})
}

func (s *Server) listMessages(ctx context.Context, sessionID string, limit int) ([]domain.InboxMessage, error) {
	msgs, err := s.inbox.List(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.InboxMessage{}
	}
	return msgs, nil
}
