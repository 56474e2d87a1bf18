// Package resolver picks and runs the response strategy for a user message:
// a custom send hook, a remote endpoint, or a canned fallback.
package resolver

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/soyeahso/matchat/internal/config"
	"github.com/soyeahso/matchat/internal/logging"
)

// Source names the strategy that produced a reply.
type Source string

const (
	SourceHook   Source = "hook"
	SourceRemote Source = "remote"
	SourceCanned Source = "canned"
)

const (
	// FailureMessage is shown for every failed response path.
	FailureMessage = "Sorry, I'm having trouble connecting. Please try again later."
	// AckMessage is used when a remote reply carries no recognised text field.
	AckMessage = "Thanks for your message! We'll get back to you soon."
)

// CannedResponses is the fallback reply set.
var CannedResponses = []string{
	"I understand your question. Let me check that for you.",
	"Thanks for reaching out! How can I assist you further?",
	"That's a great question. Here's what I can tell you...",
	"I'm here to help! Could you provide more details?",
}

// Reply is the terminal result of a resolution.
type Reply struct {
	Text   string
	Markup bool // Text is already safe markup
	Failed bool
	Source Source
}

func failure(src Source) Reply {
	return Reply{Text: FailureMessage, Failed: true, Source: src}
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient replaces the client used for remote calls.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) {
		r.client = c
	}
}

// WithRand replaces the canned-reply picker. fn returns an index in [0, n).
func WithRand(fn func(n int) int) Option {
	return func(r *Resolver) {
		r.pick = fn
	}
}

// WithClock replaces the clock stamped into outbound payloads.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// Resolver owns the strategy chosen for one widget.
type Resolver struct {
	hook   config.SendHandler
	remote *Remote
	canned *Canned
	log    *logging.Logger

	client *http.Client
	pick   func(n int) int
	now    func() time.Time
}

// New builds a resolver for opts. sessionID is sent with remote calls.
func New(opts config.Options, sessionID string, log *logging.Logger, o ...Option) *Resolver {
	r := &Resolver{
		hook: opts.OnMessageSend,
		log:  log.Sub("resolver"),
		pick: rand.IntN,
		now:  time.Now,
	}
	for _, fn := range o {
		fn(r)
	}
	if r.client == nil {
		r.client = &http.Client{Timeout: opts.Timing.RequestTimeout}
	}

	if opts.APIURL != "" {
		r.remote = &Remote{
			URL:       opts.APIURL,
			Method:    opts.Webhook.Method,
			Headers:   opts.Webhook.Headers,
			SessionID: sessionID,
			client:    r.client,
			now:       r.now,
			log:       r.log,
		}
	}
	r.canned = &Canned{
		Delay:     opts.Timing.FallbackDelay,
		Responses: CannedResponses,
		pick:      r.pick,
	}
	return r
}

// Strategy reports which path Resolve will take.
func (r *Resolver) Strategy() Source {
	switch {
	case r.hook != nil:
		return SourceHook
	case r.remote != nil:
		return SourceRemote
	default:
		return SourceCanned
	}
}

// Resolve starts exactly one response path for message and returns its
// future. The hook path runs synchronously on the caller's goroutine; the
// remote and canned paths settle later.
func (r *Resolver) Resolve(ctx context.Context, message string) *Future {
	f := newFuture()

	switch r.Strategy() {
	case SourceHook:
		deliver := func(text string) {
			if !f.resolve(Reply{Text: text, Source: SourceHook}) {
				r.log.Debug().Msg("send handler delivered more than once, ignoring")
			}
		}
		if err := invokeHook(r.hook, message, deliver); err != nil {
			r.log.Warn().Err(err).Msg("send handler failed")
			f.resolve(failure(SourceHook))
		}

	case SourceRemote:
		go func() {
			f.resolve(r.remote.Call(ctx, message))
		}()

	default:
		r.canned.Schedule(f)
	}

	return f
}

func invokeHook(h config.SendHandler, message string, deliver func(string)) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("send handler panicked: %v", p)
		}
	}()
	return h(message, deliver)
}
