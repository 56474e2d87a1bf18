package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/soyeahso/matchat/internal/config"
	"github.com/soyeahso/matchat/internal/format"
	"github.com/soyeahso/matchat/internal/resolver"
	"github.com/soyeahso/matchat/internal/session"
	"github.com/soyeahso/matchat/internal/terminal"
	"github.com/spf13/cobra"
)

// sendResult is the --json output of the send command.
type sendResult struct {
	SessionID string `json:"sessionId"`
	Source    string `json:"source"`
	Reply     string `json:"reply"`
	Failed    bool   `json:"failed"`
}

func newSendCmd() *cobra.Command {
	var (
		apiURL    string
		sessionID string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "send [message]",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.TrimSpace(strings.Join(args, " "))
			if message == "" {
				return errors.New("message is empty")
			}

			cfg := loadConfig()
			opts := cfg.Widget
			if apiURL != "" {
				opts.APIURL = apiURL
			}
			opts = config.Build(opts, log)

			if sessionID == "" {
				sessionID = session.NewToken()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r := resolver.New(opts, sessionID, log)
			reply, err := r.Resolve(ctx, message).Wait(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sendResult{
					SessionID: sessionID,
					Source:    string(reply.Source),
					Reply:     replyPlain(reply),
					Failed:    reply.Failed,
				})
			}

			fmt.Fprintln(out, replyPlain(reply))
			if reply.Failed {
				return fmt.Errorf("no reply from %s", reply.Source)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "webhook to send to (default from config)")
	cmd.Flags().StringVar(&sessionID, "session", "", "session ID to send as (default: a fresh one)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")

	return cmd
}

// replyPlain renders a reply as terminal text. Markup replies are already
// HTML; plain ones go through the same formatting the widget applies.
func replyPlain(r resolver.Reply) string {
	if r.Markup {
		return terminal.PlainText(r.Text)
	}
	return terminal.PlainText(format.Message(r.Text))
}
