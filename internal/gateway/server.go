// Package gateway serves chat widgets over HTTP and WebSocket. Every bridge
// connection gets its own widget rendered into a server-side document; the
// page sends widget actions as RPC requests and receives re-renders as
// events. The gateway also hosts a demo reply endpoint that widgets can use
// as their remote API.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/soyeahso/matchat/internal/config"
	"github.com/soyeahso/matchat/internal/hooks"
	"github.com/soyeahso/matchat/internal/logging"
	"github.com/soyeahso/matchat/internal/store"
	"github.com/soyeahso/matchat/internal/version"
	"github.com/soyeahso/matchat/internal/widget"
)

var ErrClientClosed = errors.New("client connection closed")

const (
	maxPayload       = 1 << 20
	handshakeTimeout = 10 * time.Second
)

// Server is the matchat HTTP + WebSocket server.
type Server struct {
	cfg      config.Config
	token    string
	log      *logging.Logger
	clients  *ClientRegistry
	handlers map[string]RequestHandler
	version  string
	eventSeq atomic.Int64

	hooks        *hooks.Manager
	inbox        store.Inbox
	responder    Responder
	limiter      *sessionLimiter
	messageLimit int
	widgetOpts   []widget.Option

	mu      sync.RWMutex
	baseURL string

	startedAt   time.Time
	httpServer  *http.Server
	upgrader    websocket.Upgrader
	authLimiter *authRateLimiter
}

// ServerOption configures the gateway server.
type ServerOption func(*Server)

// WithHooks sets the hook manager for gateway and widget lifecycle events.
func WithHooks(hm *hooks.Manager) ServerOption {
	return func(s *Server) {
		s.hooks = hm
	}
}

// WithInbox sets where the demo endpoint records traffic. Without it an
// in-memory inbox is used.
func WithInbox(in store.Inbox) ServerOption {
	return func(s *Server) {
		s.inbox = in
	}
}

// WithResponder replaces the demo endpoint's reply generator.
func WithResponder(r Responder) ServerOption {
	return func(s *Server) {
		s.responder = r
	}
}

// WithBaseURL sets the externally reachable URL of the server. Widgets with
// no apiUrl are pointed at this server's demo endpoint. Start fills it in
// from the listener when unset.
func WithBaseURL(u string) ServerOption {
	return func(s *Server) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}

// WithWidgetOptions passes options to every widget the bridge creates.
func WithWidgetOptions(o ...widget.Option) ServerOption {
	return func(s *Server) {
		s.widgetOpts = append(s.widgetOpts, o...)
	}
}

// New creates a new gateway server.
func New(cfg config.Config, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:         cfg,
		token:       ResolveToken(cfg.Gateway),
		log:         log.Sub("gateway"),
		clients:     NewClientRegistry(log.Sub("clients")),
		handlers:    make(map[string]RequestHandler),
		version:     version.Version,
		responder:   EchoResponder,
		limiter:     newSessionLimiter(cfg.Gateway.RateLimit, cfg.Gateway.RateBurst),
		authLimiter: newAuthRateLimiter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkWebSocketOrigin(cfg.Gateway.AllowedOrigins),
		},
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.inbox == nil {
		s.inbox = store.NewMemoryInbox()
	}
	s.messageLimit = int(config.Build(cfg.Widget, logging.Nop()).MessageLimit)

	s.registerRPCHandlers()
	return s
}

// checkWebSocketOrigin returns a function that validates WebSocket Origin headers.
// If no origins are configured, only same-origin (no Origin header) or non-browser
// clients are allowed. If origins are configured, the Origin must match one of them.
func checkWebSocketOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if origin == "http://"+r.Host || origin == "https://"+r.Host {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Handle registers an RPC method handler.
func (s *Server) Handle(method string, handler RequestHandler) {
	s.handlers[method] = handler
}

// Methods returns the sorted list of registered RPC method names.
func (s *Server) Methods() []string {
	methods := make([]string, 0, len(s.handlers))
	for m := range s.handlers {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

// Handler returns the HTTP handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerHTTPRoutes(mux)
	return withMiddleware(mux, s.log, s.cfg.Gateway.AllowedOrigins)
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.GatewayConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan", "auto":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return fmt.Sprintf("%s:%d", host, cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start begins listening for HTTP and WebSocket connections.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Gateway)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.baseURL == "" {
		s.baseURL = "http://" + ln.Addr().String()
	}
	s.httpServer = &http.Server{
		Addr:         ln.Addr().String(),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}
	s.startedAt = time.Now()
	s.mu.Unlock()

	if s.cfg.Gateway.Bind != "loopback" && s.token == "" {
		s.log.Warn().Msg("gateway reachable beyond loopback without a token")
	}

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Gateway.Bind).
		Bool("auth", s.token != "").
		Int("methods", len(s.handlers)).
		Msg("gateway server ready")

	s.emit(ctx, hooks.EventGatewayStart, map[string]any{
		"addr": ln.Addr().String(),
	})

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		s.emit(context.Background(), hooks.EventGatewayStop, nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.clients.CloseAll()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}

func (s *Server) emit(ctx context.Context, event string, data map[string]any) {
	if s.hooks == nil {
		return
	}
	s.hooks.Emit(ctx, hooks.Payload{Event: event, Data: data})
}

// widgetOptions derives the options of a bridge widget from the served
// config and the page's overrides.
func (s *Server) widgetOptions(ov *WidgetOverrides) config.Options {
	opts := s.cfg.Widget
	opts.Webhook.Headers = maps.Clone(opts.Webhook.Headers)

	if ov != nil {
		if ov.Position != "" {
			opts.Position = ov.Position
		}
		if ov.Title != "" {
			opts.Title = ov.Title
		}
		if ov.WelcomeMessage != "" {
			opts.WelcomeMessage = ov.WelcomeMessage
		}
		if ov.Theme != "" {
			opts.Theme = ov.Theme
		}
	}

	s.mu.RLock()
	base := s.baseURL
	s.mu.RUnlock()
	if opts.APIURL == "" && base != "" {
		opts.APIURL = base + ChatPath
		opts.Webhook.Method = http.MethodPost
		if s.token != "" {
			if opts.Webhook.Headers == nil {
				opts.Webhook.Headers = make(map[string]string)
			}
			opts.Webhook.Headers["Authorization"] = "Bearer " + s.token
		}
	}
	return opts
}

// attachWidget mounts a fresh widget into the client's document. Widget
// lifecycle events are forwarded to the page together with a re-render.
func (s *Server) attachWidget(ctx context.Context, c *Client, ov *WidgetOverrides) {
	hm := hooks.NewManager(c.log)
	hm.OnAll("bridge", func(ctx context.Context, p hooks.Payload) error {
		if s.hooks != nil {
			s.hooks.Emit(ctx, p)
		}
		if err := c.SendEvent(EventHook, p, s.eventSeq.Add(1)); err != nil {
			if errors.Is(err, ErrClientClosed) {
				return nil
			}
			return err
		}
		return c.SendEvent(EventRender, c.Render(), s.eventSeq.Add(1))
	})

	opts := append([]widget.Option{
		widget.WithHooks(hm),
		widget.WithContext(ctx),
	}, s.widgetOpts...)

	v := c.doc.NewView(c.doc.Body(), c.log)
	c.Widget = widget.New(v, s.widgetOptions(ov), c.log, opts...)
}

// handleWebSocket upgrades HTTP to WebSocket and runs the connection loop.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.authLimiter.allow(r.RemoteAddr) {
		s.log.Warn().Str("remote", r.RemoteAddr).Msg("rate limited, too many failed auth attempts")
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxPayload)

	s.log.Debug().Str("remote", r.RemoteAddr).Msg("new websocket connection")

	client, err := s.handshake(r.Context(), conn)
	if err != nil {
		s.log.Warn().Err(err).Msg("handshake failed")
		s.authLimiter.recordFailure(r.RemoteAddr)
		conn.Close()
		return
	}

	s.clients.Add(client)
	defer func() {
		s.clients.Remove(client.ConnID)
		client.Close()
	}()

	s.readLoop(client)
}

// handshake authenticates the connection and creates its widget.
// Flow: server sends challenge → client sends connect → server validates → sends hello-ok.
func (s *Server) handshake(ctx context.Context, conn *websocket.Conn) (*Client, error) {
	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))

	challenge, err := NewEvent(EventChallenge, map[string]any{
		"nonce": uuid.New().String(),
		"ts":    time.Now().UnixMilli(),
	}, 0)
	if err != nil {
		return nil, fmt.Errorf("creating challenge: %w", err)
	}
	if err := conn.WriteJSON(challenge); err != nil {
		return nil, fmt.Errorf("sending challenge: %w", err)
	}

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("reading connect: %w", err)
	}

	var frame Frame
	if err := json.Unmarshal(msg, &frame); err != nil {
		return nil, fmt.Errorf("parsing connect frame: %w", err)
	}

	if frame.Type != FrameTypeRequest || frame.Method != "connect" {
		sendErrorAndClose(conn, frame.ID, "protocol_error", "expected connect request")
		return nil, fmt.Errorf("expected connect request, got type=%s method=%s", frame.Type, frame.Method)
	}

	var params ConnectParams
	if len(frame.Params) > 0 {
		if err := json.Unmarshal(frame.Params, &params); err != nil {
			sendErrorAndClose(conn, frame.ID, "invalid_params", "invalid connect params")
			return nil, fmt.Errorf("parsing connect params: %w", err)
		}
	}

	authResult := Authorize(s.token, params.Auth)
	if !authResult.OK {
		sendErrorAndClose(conn, frame.ID, "unauthorized", authResult.Reason)
		return nil, fmt.Errorf("auth failed: %s", authResult.Reason)
	}

	conn.SetReadDeadline(time.Time{})

	client := NewClient(conn, params.Client, authResult, s.log.Sub("ws"))
	s.attachWidget(ctx, client, params.Widget)

	hello := HelloOK{
		Protocol: ProtocolVersion,
		Server: ServerInfo{
			Version: s.version,
			Commit:  version.Commit,
			ConnID:  client.ConnID,
		},
		Widget: WidgetInfo{
			ID:        client.Widget.ID(),
			SessionID: client.Widget.SessionID(),
			Strategy:  string(client.Widget.Strategy()),
			HTML:      client.doc.BodyHTML(),
		},
		Features: Features{
			Methods: s.Methods(),
			Events:  []string{EventChallenge, EventRender, EventHook},
		},
		Policy: ServerPolicy{
			MaxPayload:   maxPayload,
			MessageLimit: int(client.Widget.Options().MessageLimit),
		},
	}

	resp, err := NewResponse(frame.ID, hello)
	if err != nil {
		client.Widget.Destroy()
		return nil, fmt.Errorf("creating hello response: %w", err)
	}
	if err := conn.WriteJSON(resp); err != nil {
		client.Widget.Destroy()
		return nil, fmt.Errorf("sending hello: %w", err)
	}

	s.log.Info().
		Str("connId", client.ConnID).
		Str("clientId", params.Client.ID).
		Str("widget", client.Widget.ID()).
		Str("authMethod", authResult.Method).
		Msg("client connected")

	return client, nil
}

// readLoop processes incoming frames from a connected client.
func (s *Server) readLoop(client *Client) {
	for {
		frame, err := client.ReadFrame()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Str("connId", client.ConnID).Msg("client closed connection")
			} else {
				s.log.Warn().Err(err).Str("connId", client.ConnID).Msg("read error")
			}
			return
		}

		if frame.Type != FrameTypeRequest {
			s.log.Debug().Str("type", frame.Type).Msg("ignoring non-request frame")
			continue
		}

		s.dispatch(client, frame)
	}
}

// dispatch routes a request frame to the appropriate handler.
func (s *Server) dispatch(client *Client, frame Frame) {
	handler, ok := s.handlers[frame.Method]
	if !ok {
		client.RespondError(frame.ID, ErrorShape{
			Code:    "method_not_found",
			Message: "unknown method: " + frame.Method,
		})
		return
	}

	handler(&RequestContext{
		Client: client,
		Frame:  frame,
		Server: s,
	})
}

// sendErrorAndClose sends an error response and closes the connection.
func sendErrorAndClose(conn *websocket.Conn, reqID, code, message string) {
	errFrame := NewErrorResponse(reqID, ErrorShape{
		Code:    code,
		Message: message,
	})
	conn.WriteJSON(errFrame)
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, message))
}
