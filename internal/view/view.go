// Package view defines the presentation collaborator a widget drives and the
// scoped style properties every presentation shares.
package view

import (
	"github.com/soyeahso/matchat/internal/config"
	"github.com/soyeahso/matchat/internal/domain"
)

// View renders one widget instance. The widget serializes its calls; a View
// that is also read from other goroutines guards itself.
type View interface {
	// Mount builds the widget's elements inside the host.
	Mount(spec Spec) error
	// SetOpen shows or hides the popup. Opening also hides the launcher.
	SetOpen(open bool)
	// RevealLauncher shows the launcher again and focuses it.
	RevealLauncher()
	FocusInput()
	InputValue() string
	SetInputValue(v string)
	// SetInputBusy disables or enables the input and send controls.
	SetInputBusy(busy bool)
	// SetCounter shows "n/limit", or hides the counter when n is zero.
	SetCounter(n, limit int)
	AppendEntry(e domain.Entry)
	ShowTyping()
	HideTyping()
	// Unmount detaches the widget from its host and releases its elements.
	Unmount()
}

// Spec is everything a View needs to build a widget.
type Spec struct {
	ScopeID    string
	Options    config.Options
	Properties []Property
}
