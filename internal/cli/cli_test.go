package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soyeahso/matchat/internal/config"
	"github.com/soyeahso/matchat/internal/domain"
	"github.com/soyeahso/matchat/internal/logging"
	"github.com/soyeahso/matchat/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MATCHAT_HOME", t.TempDir())
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "silent"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"FALSE", false},
		{"42", 42},
		{"0.5", 0.5},
		{"007", 7.0},
		{"bottom-left", "bottom-left"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValue(tt.in))
		})
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "matchat")
}

func TestConfigSetShowValidate(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, "--config", cfgPath, "config", "set", "widget.title", "Helpdesk")
	require.NoError(t, err)
	assert.Contains(t, out, "Set widget.title = Helpdesk")

	out, err = execute(t, "--config", cfgPath, "config", "get", "widget.title")
	require.NoError(t, err)
	assert.Equal(t, "Helpdesk\n", out)

	_, err = execute(t, "--config", cfgPath, "config", "set", "gateway.token", "s3cret")
	require.NoError(t, err)

	out, err = execute(t, "--config", cfgPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "title: Helpdesk")
	assert.Contains(t, out, "position: bottom-right")
	assert.Contains(t, out, redacted)
	assert.NotContains(t, out, "s3cret")

	out, err = execute(t, "--config", cfgPath, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	_, err = execute(t, "--config", cfgPath, "config", "set", "widget.theme", "neon")
	require.NoError(t, err)
	out, err = execute(t, "--config", cfgPath, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "warning: widget.theme")

	_, err = execute(t, "--config", cfgPath, "config", "set", "gateway.bind", "everywhere")
	require.NoError(t, err)
	out, err = execute(t, "--config", cfgPath, "config", "validate")
	assert.Error(t, err)
	assert.Contains(t, out, "error:   gateway.bind")

	out, err = execute(t, "--config", cfgPath, "config", "unset", "gateway.bind")
	require.NoError(t, err)
	assert.Contains(t, out, "Unset gateway.bind")

	_, err = execute(t, "--config", cfgPath, "config", "get", "gateway.bind")
	assert.Error(t, err)
}

func TestConfigPathCmd(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "custom.yaml")
	out, err := execute(t, "--config", cfgPath, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, cfgPath+"\n", out)
}

func TestStatusCmd(t *testing.T) {
	out, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "not found (using defaults)")
	assert.Contains(t, out, "Gateway: port=18790 bind=loopback token=none")
	assert.Contains(t, out, "Inbox:   store=sqlite")
	assert.Contains(t, out, "Replies: canned")
}

func TestSendCmd_Remote(t *testing.T) {
	var got domain.WebhookRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"pong *now*"}`))
	}))
	defer srv.Close()

	out, err := execute(t, "send", "--api-url", srv.URL, "--session", "session_abc_1", "ping", "there")
	require.NoError(t, err)
	// Plain replies are sanitized after substitution, so the tags show literally.
	assert.Equal(t, "pong <em>now</em>\n", out)
	assert.Equal(t, "ping there", got.Message)
	assert.Equal(t, "session_abc_1", got.SessionID)
}

func TestSendCmd_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"hi"}`))
	}))
	defer srv.Close()

	out, err := execute(t, "send", "--json", "--api-url", srv.URL, "hello")
	require.NoError(t, err)

	var res sendResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "hi", res.Reply)
	assert.Equal(t, "remote", res.Source)
	assert.False(t, res.Failed)
	assert.Regexp(t, `^session_[0-9a-f]{32}_[0-9a-z]+$`, res.SessionID)
}

func TestSendCmd_RemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	out, err := execute(t, "send", "--api-url", srv.URL, "hello")
	assert.Error(t, err)
	assert.Contains(t, out, resolver.FailureMessage)
}

func TestSendCmd_BlankMessage(t *testing.T) {
	_, err := execute(t, "send", "   ")
	assert.Error(t, err)
}

func TestReplyPlain(t *testing.T) {
	assert.Equal(t, "a < b", replyPlain(resolver.Reply{Text: "a < b"}))
	assert.Equal(t, "bold", replyPlain(resolver.Reply{Text: "<strong>bold</strong>", Markup: true}))
	assert.Equal(t, "one<br>two", replyPlain(resolver.Reply{Text: "one\ntwo"}))
	assert.Equal(t, "see docs", replyPlain(resolver.Reply{Text: `see <a href="https://x.test">docs</a>`, Markup: true}))
}

func chatOptions() config.Options {
	opts := config.DefaultOptions()
	opts.Title = "Helper"
	opts.OnMessageSend = func(message string, deliver func(string)) error {
		deliver("echo: " + message)
		return nil
	}
	return opts
}

func TestRunChat_Replies(t *testing.T) {
	log = logging.Nop()
	var out bytes.Buffer
	in := strings.NewReader("hello there\n\nsecond\n/quit\nnever sent\n")

	require.NoError(t, runChat(context.Background(), chatOptions(), in, &out))

	s := out.String()
	assert.Contains(t, s, "Helper")
	assert.Contains(t, s, "You: hello there")
	assert.Contains(t, s, "Helper: echo: hello there")
	assert.Contains(t, s, "Helper: echo: second")
	assert.NotContains(t, s, "never sent")
	assert.Contains(t, s, "session ended")
}

func TestRunChat_Commands(t *testing.T) {
	log = logging.Nop()
	var out bytes.Buffer
	in := strings.NewReader("/close\n/toggle\n/open\n")

	require.NoError(t, runChat(context.Background(), chatOptions(), in, &out))

	s := out.String()
	assert.Contains(t, s, "Helper opened")
	assert.Contains(t, s, "Helper closed")
	assert.Equal(t, 2, strings.Count(s, "Helper opened"))
}

func TestRunChat_ContextCancelled(t *testing.T) {
	log = logging.Nop()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	assert.NoError(t, runChat(ctx, chatOptions(), strings.NewReader(""), &out))
}
