package dom

import (
	"errors"
	"strconv"
	"sync"

	"golang.org/x/net/html"

	"github.com/soyeahso/matchat/internal/domain"
	"github.com/soyeahso/matchat/internal/logging"
	"github.com/soyeahso/matchat/internal/view"
)

// ErrMounted is returned by Mount on a View that already holds a widget.
var ErrMounted = errors.New("dom: view already mounted")

// Focus targets tracked by a View.
const (
	FocusNone     = ""
	FocusInput    = "input"
	FocusLauncher = "launcher"
)

// View builds and mutates one widget subtree inside a host element.
type View struct {
	mu   sync.Locker
	host *html.Node
	log  *logging.Logger

	root     *html.Node
	launcher *html.Node
	popup    *html.Node
	messages *html.Node
	wrapper  *html.Node
	input    *html.Node
	send     *html.Node
	counter  *html.Node
	typing   *html.Node
	focus    string
}

var _ view.View = (*View)(nil)

// NewView returns a View that mounts into host.
func NewView(host *html.Node, log *logging.Logger) *View {
	return &View{
		mu:   &sync.Mutex{},
		host: host,
		log:  log.Sub("dom"),
	}
}

func icon() *html.Node {
	return Element("i", "aria-hidden", "true")
}

// Mount builds the widget elements and appends the root to the host.
func (v *View) Mount(spec view.Spec) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.host == nil {
		return ErrNoHost
	}
	if v.root != nil {
		return ErrMounted
	}

	opts := spec.Options
	titleID := "chat-title-" + spec.ScopeID

	root := Element("div",
		"class", "matchat-container matchat-"+opts.Position,
		"aria-live", "polite",
		"data-theme", opts.Theme,
		view.ScopeAttr, spec.ScopeID,
	)
	style := appendAll(Element("style"), Text(view.ScopeRule(spec.ScopeID, spec.Properties)))

	launcher := appendAll(Element("button",
		"class", "chat-button",
		"aria-label", "Open chat",
		"role", "button",
	), icon())

	title := appendAll(Element("h3", "id", titleID), Text(opts.Title))
	header := appendAll(Element("div", "class", "chat-header"),
		appendAll(Element("div", "class", "chat-header-content"),
			Element("img", "src", opts.AvatarURL, "alt", "Chat Avatar", "class", "chat-avatar"),
			title,
		),
		appendAll(Element("button", "class", "chat-close", "aria-label", "Close chat"), icon()),
	)

	messages := Element("div",
		"class", "chat-messages",
		"aria-labelledby", titleID,
		"aria-live", "polite",
	)

	input := Element("input",
		"type", "text",
		"class", "chat-input",
		"placeholder", "Type your message...",
		"maxlength", strconv.Itoa(int(opts.MessageLimit)),
		"aria-label", "Type your message",
	)
	wrapper := appendAll(Element("div", "class", "input-wrapper"), input)
	send := appendAll(Element("button", "class", "send-button", "aria-label", "Send message"), icon())

	popup := appendAll(Element("div",
		"class", "chat-popup",
		"aria-modal", "true",
		"role", "dialog",
		"aria-hidden", "true",
	),
		header,
		messages,
		appendAll(Element("div", "class", "chat-input-container"), wrapper, send),
	)

	appendAll(root, style, launcher, popup)
	v.host.AppendChild(root)

	v.root = root
	v.launcher = launcher
	v.popup = popup
	v.messages = messages
	v.wrapper = wrapper
	v.input = input
	v.send = send
	v.log.Debug().Str("scope", spec.ScopeID).Msg("widget mounted")
	return nil
}

// SetOpen activates or deactivates the popup.
func (v *View) SetOpen(open bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.root == nil {
		return
	}
	if open {
		AddClass(v.launcher, "hidden")
		AddClass(v.popup, "active")
		SetAttr(v.popup, "aria-hidden", "false")
		return
	}
	RemoveClass(v.popup, "active")
	SetAttr(v.popup, "aria-hidden", "true")
	if v.focus == FocusInput {
		v.focus = FocusNone
	}
}

func (v *View) RevealLauncher() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.root == nil {
		return
	}
	RemoveClass(v.launcher, "hidden")
	v.focus = FocusLauncher
}

func (v *View) FocusInput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.root == nil {
		return
	}
	v.focus = FocusInput
}

func (v *View) InputValue() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.input == nil {
		return ""
	}
	val, _ := Attr(v.input, "value")
	return val
}

func (v *View) SetInputValue(val string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.input == nil {
		return
	}
	if val == "" {
		RemoveAttr(v.input, "value")
		return
	}
	SetAttr(v.input, "value", val)
}

func (v *View) SetInputBusy(busy bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.root == nil {
		return
	}
	if busy {
		SetAttr(v.input, "disabled", "")
		SetAttr(v.send, "disabled", "")
		SetAttr(v.input, "aria-busy", "true")
		return
	}
	RemoveAttr(v.input, "disabled")
	RemoveAttr(v.send, "disabled")
	RemoveAttr(v.input, "aria-busy")
}

func (v *View) SetCounter(n, limit int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.root == nil {
		return
	}
	Detach(v.counter)
	v.counter = nil
	if n <= 0 {
		return
	}
	v.counter = appendAll(Element("div", "class", "character-counter"),
		Text(strconv.Itoa(n)+"/"+strconv.Itoa(limit)))
	v.wrapper.AppendChild(v.counter)
}

// AppendEntry adds a message bubble. e.Text is parsed as markup.
func (v *View) AppendEntry(e domain.Entry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.root == nil {
		return
	}

	sender := string(e.Sender)
	content := Element("div", "class", "message-content")
	if err := SetInnerHTML(content, e.Text); err != nil {
		v.log.Warn().Err(err).Msg("failed to add message")
		return
	}
	msg := appendAll(Element("div",
		"class", "message "+sender+"-message",
		"aria-label", sender+" message",
	),
		content,
		appendAll(Element("div", "class", "timestamp"), Text(e.Timestamp)),
	)
	v.messages.AppendChild(msg)
}

func (v *View) ShowTyping() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.root == nil {
		return
	}
	Detach(v.typing)
	v.typing = appendAll(Element("div",
		"class", "typing-indicator",
		"aria-label", "Bot is typing",
	),
		Element("div", "class", "typing-dot"),
		Element("div", "class", "typing-dot"),
		Element("div", "class", "typing-dot"),
	)
	v.messages.AppendChild(v.typing)
}

func (v *View) HideTyping() {
	v.mu.Lock()
	defer v.mu.Unlock()
	Detach(v.typing)
	v.typing = nil
}

// Unmount detaches the widget root and drops every element reference.
func (v *View) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	Detach(v.root)
	*v = View{mu: v.mu, host: v.host, log: v.log}
}

// Focused reports which control holds focus.
func (v *View) Focused() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.focus
}

// Mounted reports whether the widget subtree is attached.
func (v *View) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.root != nil
}

// Render serializes the widget subtree, or "" when unmounted.
func (v *View) Render() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.root == nil {
		return ""
	}
	return Render(v.root)
}

// Root returns the widget root element, or nil when unmounted.
func (v *View) Root() *html.Node {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.root
}
