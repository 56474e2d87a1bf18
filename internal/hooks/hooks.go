// Package hooks dispatches widget lifecycle events to registered observers.
// The gateway bridge and the terminal front end listen here to learn when a
// widget opens, closes, or gains a conversation entry.
package hooks

import (
	"context"
	"fmt"
	"sync"

	"github.com/soyeahso/matchat/internal/logging"
)

// Event names for the hook system.
const (
	EventWidgetOpen      = "widget_open"
	EventWidgetClose     = "widget_close"
	EventLauncherShown   = "launcher_shown"
	EventMessageSent     = "message_sent"
	EventMessageAppended = "message_appended"
	EventResponseFailed  = "response_failed"
	EventWidgetDestroyed = "widget_destroyed"
	EventGatewayStart    = "gateway_start"
	EventGatewayStop     = "gateway_stop"
)

// AllEvents lists all known hook event names.
var AllEvents = []string{
	EventWidgetOpen,
	EventWidgetClose,
	EventLauncherShown,
	EventMessageSent,
	EventMessageAppended,
	EventResponseFailed,
	EventWidgetDestroyed,
	EventGatewayStart,
	EventGatewayStop,
}

// Payload carries event data to hook handlers.
type Payload struct {
	Event    string         `json:"event"`
	WidgetID string         `json:"widgetId,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// String returns a field of Data as a string, or "".
func (p Payload) String(key string) string {
	s, _ := p.Data[key].(string)
	return s
}

// Handler handles a hook event. A returned error or a panic is logged and
// does not stop later handlers.
type Handler func(ctx context.Context, p Payload) error

// Manager manages hook registrations and dispatches events.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	log      *logging.Logger
}

type namedHandler struct {
	name    string
	handler Handler
}

// NewManager creates a hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]namedHandler),
		log:      log.Sub("hooks"),
	}
}

// On registers a handler for the given event.
// The name identifies the handler for logging and for Off.
func (m *Manager) On(event, name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], namedHandler{name: name, handler: handler})
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook registered")
}

// OnAll registers handler under name for every event in AllEvents.
func (m *Manager) OnAll(name string, handler Handler) {
	for _, ev := range AllEvents {
		m.On(ev, name, handler)
	}
}

// Off removes all handlers with the given name from the event.
func (m *Manager) Off(event, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	handlers := m.handlers[event]
	filtered := make([]namedHandler, 0, len(handlers))
	for _, h := range handlers {
		if h.name != name {
			filtered = append(filtered, h)
		}
	}
	m.handlers[event] = filtered
}

// OffAll removes handlers named name from every event.
func (m *Manager) OffAll(name string) {
	m.mu.RLock()
	events := make([]string, 0, len(m.handlers))
	for ev := range m.handlers {
		events = append(events, ev)
	}
	m.mu.RUnlock()

	for _, ev := range events {
		m.Off(ev, name)
	}
}

// Emit dispatches p to all handlers of p.Event synchronously, in
// registration order.
func (m *Manager) Emit(ctx context.Context, p Payload) {
	for _, h := range m.snapshot(p.Event) {
		m.call(ctx, h, p)
	}
}

// EmitAsync dispatches p to all handlers concurrently and returns at once.
func (m *Manager) EmitAsync(ctx context.Context, p Payload) {
	for _, h := range m.snapshot(p.Event) {
		go m.call(ctx, h, p)
	}
}

func (m *Manager) snapshot(event string) []namedHandler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	handlers := make([]namedHandler, len(m.handlers[event]))
	copy(handlers, m.handlers[event])
	return handlers
}

func (m *Manager) call(ctx context.Context, h namedHandler, p Payload) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().
				Str("event", p.Event).
				Str("handler", h.name).
				Str("panic", fmt.Sprint(r)).
				Msg("hook handler panicked")
		}
	}()
	if err := h.handler(ctx, p); err != nil {
		m.log.Warn().
			Err(err).
			Str("event", p.Event).
			Str("handler", h.name).
			Msg("hook handler error")
	}
}

// Count returns the number of handlers registered for an event.
func (m *Manager) Count(event string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[event])
}

// Events returns the list of events that have at least one handler registered.
func (m *Manager) Events() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]string, 0, len(m.handlers))
	for event, handlers := range m.handlers {
		if len(handlers) > 0 {
			events = append(events, event)
		}
	}
	return events
}
