// Package widget implements the chat widget state machine: the open/closed
// lifecycle, the input gate that serializes submissions, the conversation
// log and the hand-off to the response resolver.
//
// A Widget drives a view.View and never touches presentation directly. All
// state is guarded by one mutex; user hooks and hook-manager observers run
// with it released so they may call back into the widget.
package widget

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/soyeahso/matchat/internal/config"
	"github.com/soyeahso/matchat/internal/domain"
	"github.com/soyeahso/matchat/internal/format"
	"github.com/soyeahso/matchat/internal/hooks"
	"github.com/soyeahso/matchat/internal/logging"
	"github.com/soyeahso/matchat/internal/resolver"
	"github.com/soyeahso/matchat/internal/session"
	"github.com/soyeahso/matchat/internal/view"
)

// Option configures a Widget at construction.
type Option func(*Widget)

// WithHooks publishes lifecycle events to m.
func WithHooks(m *hooks.Manager) Option {
	return func(w *Widget) {
		w.hooks = m
	}
}

// WithClock replaces the clock used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(w *Widget) {
		w.now = now
	}
}

// WithContext sets the parent of the widget's context. Destroy cancels the
// derived context, aborting an in-flight remote call.
func WithContext(ctx context.Context) Option {
	return func(w *Widget) {
		w.parent = ctx
	}
}

// WithResolverOptions passes options through to the response resolver.
func WithResolverOptions(o ...resolver.Option) Option {
	return func(w *Widget) {
		w.resolverOpts = append(w.resolverOpts, o...)
	}
}

// WithScopeID fixes the style scope instead of generating one. An id that
// is not a valid scope (see view.ValidScopeID) is replaced by a generated one.
func WithScopeID(id string) Option {
	return func(w *Widget) {
		w.id = id
	}
}

// Widget is one embedded chat instance.
type Widget struct {
	mu sync.Mutex

	id       string
	token    string
	opts     config.Options
	view     view.View
	resolver *resolver.Resolver
	hooks    *hooks.Manager
	log      *logging.Logger
	now      func() time.Time

	parent       context.Context
	ctx          context.Context
	cancel       context.CancelFunc
	resolverOpts []resolver.Option

	open       bool
	destroyed  bool
	gate       gate
	conv       conversation
	closeTimer *time.Timer
}

// New builds a widget from a partial options record and mounts it into v.
// Invalid options fall back to defaults with a warning. A mount failure is
// logged and leaves the widget inert; New never fails.
func New(v view.View, opts config.Options, log *logging.Logger, o ...Option) *Widget {
	w := &Widget{
		log:    log.Sub("widget"),
		now:    time.Now,
		parent: context.Background(),
	}
	for _, fn := range o {
		fn(w)
	}
	if w.id != "" && !view.ValidScopeID(w.id) {
		w.log.Warn().Str("scope", w.id).Msg("invalid scope id, generating one")
		w.id = ""
	}
	if w.id == "" {
		w.id = uuid.NewString()
	}
	w.log = w.log.With("widget", w.id)

	w.opts = config.Build(opts, w.log)
	w.token = session.NewToken()
	w.ctx, w.cancel = context.WithCancel(w.parent)
	w.resolver = resolver.New(w.opts, w.token, w.log, w.resolverOpts...)

	props, dropped := view.Properties(w.opts)
	for _, p := range dropped {
		w.log.Warn().Str("property", p.Name).Str("value", p.Value).Msg("unsafe style value dropped")
	}

	if v == nil {
		w.log.Error().Msg("failed to initialize widget: no view")
		return w
	}
	if err := v.Mount(view.Spec{ScopeID: w.id, Options: w.opts, Properties: props}); err != nil {
		w.log.Error().Err(err).Msg("failed to initialize widget")
		return w
	}
	w.view = v

	if w.opts.WelcomeMessage != "" {
		w.appendLocked(format.Message(w.opts.WelcomeMessage), domain.SenderBot)
	}
	w.log.Debug().
		Str("strategy", string(w.resolver.Strategy())).
		Str("session", w.token).
		Msg("widget initialized")
	return w
}

// usable reports whether the widget is mounted and not destroyed.
// Callers hold w.mu.
func (w *Widget) usable() bool {
	return !w.destroyed && w.view != nil
}

// Toggle flips the open state.
func (w *Widget) Toggle() {
	w.mu.Lock()
	if !w.usable() {
		w.mu.Unlock()
		return
	}
	open := !w.open
	w.mu.Unlock()

	if open {
		w.Open()
	} else {
		w.Close()
	}
}

// Open shows the popup and focuses the input. The open hook fires on every
// call, even when already open.
func (w *Widget) Open() {
	w.mu.Lock()
	if !w.usable() {
		w.mu.Unlock()
		return
	}
	w.open = true
	w.stopCloseTimer()
	w.view.SetOpen(true)
	w.view.FocusInput()
	w.mu.Unlock()

	w.emit(hooks.EventWidgetOpen, nil)
	w.callUser("onWidgetOpen", w.opts.OnWidgetOpen)
}

// Close hides the popup and brings the launcher back after the close delay.
func (w *Widget) Close() {
	w.mu.Lock()
	if !w.usable() {
		w.mu.Unlock()
		return
	}
	w.open = false
	w.view.SetOpen(false)
	w.stopCloseTimer()
	w.closeTimer = time.AfterFunc(w.opts.Timing.CloseDelay, w.revealLauncher)
	w.mu.Unlock()

	w.emit(hooks.EventWidgetClose, nil)
	w.callUser("onWidgetClose", w.opts.OnWidgetClose)
}

func (w *Widget) revealLauncher() {
	w.mu.Lock()
	if !w.usable() || w.open {
		w.mu.Unlock()
		return
	}
	w.closeTimer = nil
	w.view.RevealLauncher()
	w.mu.Unlock()

	w.emit(hooks.EventLauncherShown, nil)
}

// stopCloseTimer cancels a pending launcher reveal. Callers hold w.mu.
func (w *Widget) stopCloseTimer() {
	if w.closeTimer != nil {
		w.closeTimer.Stop()
		w.closeTimer = nil
	}
}

// SetInput replaces the input text, truncated to the message limit, and
// refreshes the character counter. Ignored while a response is pending.
func (w *Widget) SetInput(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.usable() || w.gate.locked() {
		return
	}

	limit := int(w.opts.MessageLimit)
	if utf8.RuneCountInString(text) > limit {
		text = string([]rune(text)[:limit])
	}
	w.view.SetInputValue(text)
	w.view.SetCounter(utf8.RuneCountInString(text), limit)
}

// Send submits the current input. It is a no-op when the trimmed input is
// empty or a response is already pending.
func (w *Widget) Send() {
	w.mu.Lock()
	if !w.usable() || w.gate.locked() {
		w.mu.Unlock()
		return
	}
	message := strings.TrimSpace(w.view.InputValue())
	if message == "" {
		w.mu.Unlock()
		return
	}

	entry := w.appendLocked(format.Message(message), domain.SenderUser)
	w.view.SetInputValue("")
	w.view.SetCounter(0, int(w.opts.MessageLimit))
	w.view.ShowTyping()
	w.gate.lock()
	w.view.SetInputBusy(true)
	ctx := w.ctx
	w.mu.Unlock()

	w.emit(hooks.EventMessageAppended, entryData(entry))
	w.emit(hooks.EventMessageSent, map[string]any{
		"message":  message,
		"strategy": string(w.resolver.Strategy()),
	})

	w.resolver.Resolve(ctx, message).Then(w.complete)
}

// complete applies a resolved reply: typing indicator off, gate open, then
// the bot entry. Replies arriving after Destroy are dropped.
func (w *Widget) complete(r resolver.Reply) {
	w.mu.Lock()
	if !w.usable() {
		w.mu.Unlock()
		w.log.Debug().Str("source", string(r.Source)).Msg("discarding reply for destroyed widget")
		return
	}
	w.view.HideTyping()
	w.gate.unlock()
	w.view.SetInputBusy(false)
	w.view.FocusInput()

	text := r.Text
	if !r.Markup {
		text = format.Message(text)
	}
	entry := w.appendLocked(text, domain.SenderBot)
	w.mu.Unlock()

	if r.Failed {
		w.emit(hooks.EventResponseFailed, map[string]any{"source": string(r.Source)})
	}
	w.emit(hooks.EventMessageAppended, entryData(entry))
}

// AppendMessage formats text and appends it as an entry from sender.
func (w *Widget) AppendMessage(text string, sender domain.Sender) {
	if !sender.Valid() {
		w.log.Warn().Str("sender", string(sender)).Msg("unknown sender, message dropped")
		return
	}

	w.mu.Lock()
	if !w.usable() {
		w.mu.Unlock()
		return
	}
	entry := w.appendLocked(format.Message(text), sender)
	w.mu.Unlock()

	w.emit(hooks.EventMessageAppended, entryData(entry))
}

// appendLocked records and renders markup. Callers hold w.mu.
func (w *Widget) appendLocked(markup string, sender domain.Sender) domain.Entry {
	e := domain.NewEntry(markup, sender, w.now())
	w.conv.append(e)
	w.view.AppendEntry(e)
	return e
}

// Destroy unmounts the widget and releases its resources. Safe to call more
// than once.
func (w *Widget) Destroy() {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}
	w.destroyed = true
	w.open = false
	w.stopCloseTimer()
	w.cancel()
	if w.view != nil {
		w.view.Unmount()
		w.view = nil
	}
	w.conv.clear()
	w.mu.Unlock()

	w.log.Debug().Msg("widget destroyed")
	w.emit(hooks.EventWidgetDestroyed, nil)
}

// ID returns the style scope of this instance.
func (w *Widget) ID() string {
	return w.id
}

// SessionID returns the correlation token sent with remote requests.
func (w *Widget) SessionID() string {
	return w.token
}

// Options returns the effective options.
func (w *Widget) Options() config.Options {
	return w.opts
}

// Strategy reports which response path Send will take.
func (w *Widget) Strategy() resolver.Source {
	return w.resolver.Strategy()
}

func (w *Widget) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open
}

// Waiting reports whether a response is pending.
func (w *Widget) Waiting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gate.locked()
}

func (w *Widget) Destroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyed
}

// Entries returns a copy of the conversation log.
func (w *Widget) Entries() []domain.Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conv.snapshot()
}

// State returns a snapshot of the widget.
func (w *Widget) State() domain.WidgetState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return domain.WidgetState{
		SessionID: w.token,
		Open:      w.open,
		Waiting:   w.gate.locked(),
		Destroyed: w.destroyed,
		Entries:   w.conv.size(),
	}
}

func (w *Widget) emit(event string, data map[string]any) {
	if w.hooks == nil {
		return
	}
	w.hooks.Emit(context.Background(), hooks.Payload{
		Event:    event,
		WidgetID: w.id,
		Data:     data,
	})
}

// callUser runs a host callback, containing any panic.
func (w *Widget) callUser(name string, fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Str("callback", name).Str("panic", fmt.Sprint(r)).Msg("widget callback panicked")
		}
	}()
	fn()
}

func entryData(e domain.Entry) map[string]any {
	return map[string]any{
		"sender":    string(e.Sender),
		"text":      e.Text,
		"timestamp": e.Timestamp,
	}
}
