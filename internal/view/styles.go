package view

import (
	"strconv"
	"strings"

	"github.com/soyeahso/matchat/internal/config"
)

// PropertyPrefix starts every custom property name.
const PropertyPrefix = "--matchat-"

// ScopeAttr marks a widget root; style rules are scoped to its value.
const ScopeAttr = "data-matchat-scope"

// Property is one CSS custom property, without its prefix.
type Property struct {
	Name  string
	Value string
}

// Properties returns the custom properties for opts. Values that could escape
// a declaration are returned separately in dropped.
func Properties(opts config.Options) (props, dropped []Property) {
	add := func(name, value string, unsafe func(string) bool) {
		if value == "" {
			return
		}
		p := Property{Name: name, Value: value}
		if unsafe(value) {
			dropped = append(dropped, p)
			return
		}
		props = append(props, p)
	}
	plain := func(name, value string) { add(name, value, unsafeValue) }
	icon := func(name, value string) {
		if value == "" {
			return
		}
		if unsafeURL(value) {
			dropped = append(dropped, Property{Name: name, Value: value})
			return
		}
		props = append(props, Property{Name: name, Value: "url('" + value + "')"})
	}

	c := opts.Colors
	plain("primary-color", c.Primary)
	plain("primary-dark", c.PrimaryDark)
	plain("secondary-color", c.Secondary)
	plain("text-color", c.Text)
	plain("light-text", c.LightText)
	plain("white", c.White)
	plain("background-image", opts.BackgroundImage)
	plain("background-pattern", opts.BackgroundPattern)

	d := opts.Dimensions
	plain("width", d.Width)
	plain("height", d.Height)
	plain("avatar-size", d.AvatarSize)
	plain("message-max-width", d.MessageMaxWidth)

	b := opts.BubbleStyle
	plain("bot-message-border-radius", b.Bot.BorderRadius)
	plain("user-message-border-radius", b.User.BorderRadius)
	plain("bot-message-min-width", b.Bot.MinWidth)
	plain("user-message-min-width", b.User.MinWidth)
	plain("bot-message-padding", b.Bot.Padding)
	plain("user-message-padding", b.User.Padding)
	plain("position-distance", opts.PositionOffset)

	icon("chat-icon", opts.Icons.Chat)
	icon("close-icon", opts.Icons.Close)
	icon("send-icon", opts.Icons.Send)
	return props, dropped
}

// ScopeRule renders a single rule that applies props to the widget root
// carrying scope. The scope is written as an escaped CSS string.
func ScopeRule(scope string, props []Property) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(ScopeAttr)
	b.WriteString("=")
	b.WriteString(cssString(scope))
	b.WriteString("]{")
	for _, p := range props {
		b.WriteString(PropertyPrefix)
		b.WriteString(p.Name)
		b.WriteString(":")
		b.WriteString(p.Value)
		b.WriteString(";")
	}
	b.WriteString("}")
	return b.String()
}

const maxScopeIDLen = 64

// ValidScopeID reports whether id can name a style scope: 1 to 64 ASCII
// letters, digits, '-' or '_'.
func ValidScopeID(id string) bool {
	if id == "" || len(id) > maxScopeIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// cssString quotes s as a CSS string. Quotes, backslashes, control
// characters and angle brackets become hex escapes, so the result cannot
// end the selector or the enclosing style element.
func cssString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"', r == '\\', r == '<', r == '>', r < 0x20, r == 0x7f:
			b.WriteString(`\`)
			b.WriteString(strconv.FormatInt(int64(r), 16))
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func unsafeValue(v string) bool {
	return strings.ContainsAny(v, "{}<>;")
}

func unsafeURL(v string) bool {
	return unsafeValue(v) || strings.ContainsAny(v, `'"()\`)
}
