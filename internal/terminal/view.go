// Package terminal renders a widget as a scrolling transcript on a terminal.
// It backs the interactive chat command.
package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/soyeahso/matchat/internal/domain"
	"github.com/soyeahso/matchat/internal/logging"
	"github.com/soyeahso/matchat/internal/view"
)

// View prints widget changes to an io.Writer.
type View struct {
	mu  sync.Mutex
	out io.Writer
	r   *lipgloss.Renderer
	log *logging.Logger

	title   string
	mounted bool
	open    bool
	busy    bool
	typing  bool
	input   string
	counter string

	header lipgloss.Style
	user   lipgloss.Style
	bot    lipgloss.Style
	dim    lipgloss.Style
}

var _ view.View = (*View)(nil)

// New returns a View writing to out.
func New(out io.Writer, log *logging.Logger) *View {
	return &View{
		out: out,
		r:   lipgloss.NewRenderer(out),
		log: log.Sub("terminal"),
	}
}

func (v *View) Mount(spec view.Spec) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.out == nil {
		return fmt.Errorf("terminal: no output")
	}

	c := spec.Options.Colors
	v.title = spec.Options.Title
	v.header = v.r.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(c.White)).
		Background(lipgloss.Color(c.Primary)).
		Padding(0, 1)
	v.user = v.r.NewStyle().
		Foreground(lipgloss.Color(c.PrimaryDark)).
		Bold(true)
	v.bot = v.r.NewStyle().
		Foreground(lipgloss.Color(c.Primary)).
		Bold(true)
	v.dim = v.r.NewStyle().
		Foreground(lipgloss.Color(c.LightText))

	v.mounted = true
	v.println(v.header.Render(v.title))
	v.println(v.dim.Render("/open, /close, /toggle or /quit. Anything else is sent as a message."))
	return nil
}

func (v *View) SetOpen(open bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted || v.open == open {
		v.open = open
		return
	}
	v.open = open
	if open {
		v.println(v.dim.Render("── " + v.title + " opened ──"))
	} else {
		v.println(v.dim.Render("── " + v.title + " closed ──"))
	}
}

func (v *View) RevealLauncher() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted {
		return
	}
	v.println(v.dim.Render("(type /open to chat)"))
}

func (v *View) FocusInput() {}

func (v *View) InputValue() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.input
}

func (v *View) SetInputValue(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.input = s
}

func (v *View) SetInputBusy(busy bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.busy = busy
}

func (v *View) SetCounter(n, limit int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n <= 0 {
		v.counter = ""
		return
	}
	v.counter = fmt.Sprintf("%d/%d", n, limit)
}

func (v *View) AppendEntry(e domain.Entry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted {
		return
	}

	name, style := v.title, v.bot
	if e.Sender == domain.SenderUser {
		name, style = "You", v.user
	}
	v.println(fmt.Sprintf("%s %s %s",
		v.dim.Render("["+e.Timestamp+"]"),
		style.Render(name+":"),
		PlainText(e.Text),
	))
}

func (v *View) ShowTyping() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted || v.typing {
		return
	}
	v.typing = true
	v.println(v.dim.Render(v.title + " is typing..."))
}

func (v *View) HideTyping() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.typing = false
}

func (v *View) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted {
		return
	}
	v.mounted = false
	v.println(v.dim.Render("── session ended ──"))
}

// Prompt returns the input prompt, showing the counter and busy state.
func (v *View) Prompt() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch {
	case !v.mounted:
		return "> "
	case v.busy:
		return "… "
	case v.counter != "":
		return "[" + v.counter + "] > "
	default:
		return "> "
	}
}

// Busy reports whether input is disabled.
func (v *View) Busy() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.busy
}

func (v *View) println(s string) {
	if _, err := fmt.Fprintln(v.out, s); err != nil {
		v.log.Debug().Err(err).Msg("write failed")
	}
}

// PlainText renders entry markup the way a browser would display it: tags
// become structure, entities become characters.
func PlainText(markup string) string {
	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return html.UnescapeString(markup)
	}
	var b strings.Builder
	for _, n := range nodes {
		writeText(&b, n)
	}
	return b.String()
}

func writeText(b *strings.Builder, n *html.Node) {
	switch {
	case n.Type == html.TextNode:
		b.WriteString(strings.ReplaceAll(n.Data, "\u00a0", " "))
	case n.Type == html.ElementNode && n.Data == "br":
		b.WriteString("\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
}
