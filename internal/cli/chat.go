package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/soyeahso/matchat/internal/config"
	"github.com/soyeahso/matchat/internal/hooks"
	"github.com/soyeahso/matchat/internal/logging"
	"github.com/soyeahso/matchat/internal/terminal"
	"github.com/soyeahso/matchat/internal/widget"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var (
		apiURL  string
		title   string
		welcome string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the widget in the terminal",
		Long:  "Run a widget against the terminal. Replies come from the configured webhook, or canned replies when none is set.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if logLevel == "" {
				// Log lines would interleave with the transcript.
				log = logging.NewStyled("warn", cfg.Logging.ConsoleStyle)
			}

			opts := cfg.Widget
			if apiURL != "" {
				opts.APIURL = apiURL
			}
			if title != "" {
				opts.Title = title
			}
			if welcome != "" {
				opts.WelcomeMessage = welcome
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runChat(ctx, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "webhook to answer messages (default from config)")
	cmd.Flags().StringVar(&title, "title", "", "widget title")
	cmd.Flags().StringVar(&welcome, "welcome", "", "welcome message shown on start")

	return cmd
}

// runChat drives a terminal widget from line input until EOF, /quit or ctx
// ends. Each sent message blocks further input until its reply lands.
func runChat(ctx context.Context, opts config.Options, in io.Reader, out io.Writer) error {
	v := terminal.New(out, log)
	replies := make(chan struct{}, 1)
	hookMgr := hooks.NewManager(log)
	hookMgr.On(hooks.EventMessageAppended, "repl", func(_ context.Context, p hooks.Payload) error {
		if p.String("sender") == "bot" {
			select {
			case replies <- struct{}{}:
			default:
			}
		}
		return nil
	})

	w := widget.New(v, opts, log, widget.WithHooks(hookMgr), widget.WithContext(ctx))
	defer w.Destroy()
	w.Open()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, v.Prompt())
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		switch strings.TrimSpace(line) {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/open":
			w.Open()
			continue
		case "/close":
			w.Close()
			continue
		case "/toggle":
			w.Toggle()
			continue
		}

		if !w.IsOpen() {
			w.Open()
		}
		w.SetInput(line)
		w.Send()
		if err := waitReply(ctx, w, replies); err != nil {
			return nil
		}
	}
}

// waitReply blocks while the widget is waiting on a response.
func waitReply(ctx context.Context, w *widget.Widget, replies <-chan struct{}) error {
	for w.Waiting() {
		select {
		case <-replies:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
