// Package format turns chat text into safe display markup.
//
// Four inline markdown patterns are substituted, newlines become line
// breaks, and the accumulated string is then escaped as plain text content.
// The escape runs last, so tags produced by the substitutions render as
// literal text just like any markup present in the input.
package format

import (
	"regexp"
	"strings"
)

var (
	linkPattern   = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	boldPattern   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern = regexp.MustCompile(`\*(.*?)\*`)
	codePattern   = regexp.MustCompile("`(.*?)`")
)

// textEscaper mirrors how a text node serializes into markup.
var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\u00a0", "&nbsp;",
)

// Message formats raw text into safe markup.
func Message(raw string) string {
	html := Markdown(raw)
	html = strings.ReplaceAll(html, "\n", "<br>")
	return Sanitize(html)
}

// Value formats v when it is a string and returns "" for anything else.
func Value(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return Message(s)
}

// Markdown applies the link, bold, italic and inline-code substitutions in
// that order. Nested constructs are handled on a best-effort basis only.
func Markdown(text string) string {
	text = linkPattern.ReplaceAllString(text, `<a href="${2}" target="_blank" rel="noopener noreferrer">${1}</a>`)
	text = boldPattern.ReplaceAllString(text, `<strong>${1}</strong>`)
	text = italicPattern.ReplaceAllString(text, `<em>${1}</em>`)
	text = codePattern.ReplaceAllString(text, `<code>${1}</code>`)
	return text
}

// Sanitize escapes s so it renders as literal text when inserted as markup.
func Sanitize(s string) string {
	return textEscaper.Replace(s)
}
