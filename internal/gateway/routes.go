package gateway

import (
	"context"
	"net/http"

	"github.com/soyeahso/matchat/internal/domain"
)

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("POST "+ChatPath, s.handleChat)
	mux.HandleFunc("PUT "+ChatPath, s.handleChat)
	mux.HandleFunc("GET /api/sessions", s.handleSessions)
	mux.HandleFunc("GET /api/sessions/{id}/messages", s.handleSessionMessages)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}

// registerRPCHandlers sets up all RPC method handlers.
func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("widget.state", s.rpcWidgetState)
	s.Handle("widget.open", s.rpcWidgetOpen)
	s.Handle("widget.close", s.rpcWidgetClose)
	s.Handle("widget.toggle", s.rpcWidgetToggle)
	s.Handle("widget.input", s.rpcWidgetInput)
	s.Handle("widget.send", s.rpcWidgetSend)
	s.Handle("widget.append", s.rpcWidgetAppend)
	s.Handle("widget.entries", s.rpcWidgetEntries)
	s.Handle("inbox.list", s.rpcInboxList)
}

// Built-in RPC handlers

func (s *Server) rpcHealth(rc *RequestContext) {
	rc.Respond(HealthResponse{
		Status:   "ok",
		Version:  s.version,
		Clients:  s.clients.Count(),
		UptimeMs: s.uptime().Milliseconds(),
	})
}

func (s *Server) rpcWidgetState(rc *RequestContext) {
	rc.RespondRender()
}

func (s *Server) rpcWidgetOpen(rc *RequestContext) {
	rc.Client.Widget.Open()
	rc.RespondRender()
}

func (s *Server) rpcWidgetClose(rc *RequestContext) {
	rc.Client.Widget.Close()
	rc.RespondRender()
}

func (s *Server) rpcWidgetToggle(rc *RequestContext) {
	rc.Client.Widget.Toggle()
	rc.RespondRender()
}

type widgetInputParams struct {
	Text string `json:"text"`
}

func (s *Server) rpcWidgetInput(rc *RequestContext) {
	var p widgetInputParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	rc.Client.Widget.SetInput(p.Text)
	rc.RespondRender()
}

// rpcWidgetSend submits the input. A text param replaces the input first,
// the same as typing it and pressing send.
func (s *Server) rpcWidgetSend(rc *RequestContext) {
	var p widgetInputParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	w := rc.Client.Widget
	if p.Text != "" {
		w.SetInput(p.Text)
	}
	w.Send()
	rc.RespondRender()
}

type widgetAppendParams struct {
	Text   string        `json:"text"`
	Sender domain.Sender `json:"sender"`
}

func (s *Server) rpcWidgetAppend(rc *RequestContext) {
	var p widgetAppendParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if !p.Sender.Valid() {
		rc.RespondError("invalid_params", "sender must be \"user\" or \"bot\"")
		return
	}
	rc.Client.Widget.AppendMessage(p.Text, p.Sender)
	rc.RespondRender()
}

func (s *Server) rpcWidgetEntries(rc *RequestContext) {
	rc.Respond(map[string]any{
		"entries": rc.Client.Widget.Entries(),
	})
}

type inboxListParams struct {
	SessionID string `json:"sessionId,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// rpcInboxList lists what the demo endpoint received, by default for the
// connection's own widget session.
func (s *Server) rpcInboxList(rc *RequestContext) {
	var p inboxListParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.SessionID == "" {
		p.SessionID = rc.Client.Widget.SessionID()
	}
	msgs, err := s.listMessages(context.Background(), p.SessionID, p.Limit)
	if err != nil {
		s.log.Error().Err(err).Str("session", p.SessionID).Msg("listing messages failed")
		rc.RespondError("internal", "listing messages failed")
		return
	}
	rc.Respond(MessagesResponse{SessionID: p.SessionID, Messages: msgs})
}
