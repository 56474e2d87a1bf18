package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/soyeahso/matchat/internal/config"
	"github.com/soyeahso/matchat/internal/gateway"
	"github.com/soyeahso/matchat/internal/hooks"
	"github.com/soyeahso/matchat/internal/store"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port  int
		bind  string
		token string
		inbox string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the widget gateway",
		Long:  "Serve the host page, the widget bridge over WebSocket and the demo chat endpoint.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			if port > 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}
			if token != "" {
				cfg.Gateway.Token = token
			}
			if inbox != "" {
				cfg.Inbox.Store = inbox
			}

			if issues := config.Validate(&cfg); len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config has %d validation issue(s)", len(issues))
			}

			if cfg.Inbox.Store == "sqlite" && cfg.Inbox.Path == "" {
				if err := paths.EnsureDirs(); err != nil {
					return err
				}
				cfg.Inbox.Path = paths.InboxDB()
			} else if cfg.Inbox.Path != "" {
				if err := os.MkdirAll(filepath.Dir(cfg.Inbox.Path), 0o700); err != nil {
					return err
				}
			}

			ib, err := store.OpenInbox(cfg.Inbox, log)
			if err != nil {
				return fmt.Errorf("opening inbox: %w", err)
			}
			defer ib.Close()

			hookMgr := hooks.NewManager(log)
			hookMgr.On(hooks.EventMessageSent, "log", func(_ context.Context, p hooks.Payload) error {
				log.Debug().Str("widget", p.WidgetID).Str("session", p.String("sessionId")).Msg("widget message sent")
				return nil
			})
			hookMgr.On(hooks.EventResponseFailed, "log", func(_ context.Context, p hooks.Payload) error {
				log.Warn().Str("widget", p.WidgetID).Str("source", p.String("source")).Msg("widget got no reply")
				return nil
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := gateway.New(cfg, log,
				gateway.WithHooks(hookMgr),
				gateway.WithInbox(ib),
			)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "gateway port (default from config)")
	cmd.Flags().StringVar(&bind, "bind", "", "bind mode: loopback, lan, custom")
	cmd.Flags().StringVar(&token, "token", "", "gateway token required by clients")
	cmd.Flags().StringVar(&inbox, "inbox", "", "inbox store: sqlite, memory")

	return cmd
}
