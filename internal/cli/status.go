package cli

import (
	"fmt"
	"os"

	"github.com/soyeahso/matchat/internal/config"
	"github.com/soyeahso/matchat/internal/logging"
	"github.com/soyeahso/matchat/internal/resolver"
	"github.com/soyeahso/matchat/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show matchat status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "matchat %s (commit %s)\n\n", version.Version, version.Commit)

			// Show paths
			fmt.Fprintf(out, "Config:  %s\n", paths.Config)
			fmt.Fprintf(out, "Data:    %s\n", paths.Data)
			fmt.Fprintf(out, "Logs:    %s\n", paths.Logs)
			fmt.Fprintln(out)

			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Fprintln(out, "Config:  not found (using defaults)")
			}
			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(out, "Config:  error loading: %v\n", err)
				return nil
			}

			token := "none"
			if cfg.Gateway.Token != "" {
				token = "set"
			}
			fmt.Fprintf(out, "Gateway: port=%d bind=%s token=%s rate=%v/s burst=%d\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, token, cfg.Gateway.RateLimit, cfg.Gateway.RateBurst)

			inboxPath := cfg.Inbox.Path
			if inboxPath == "" && cfg.Inbox.Store == "sqlite" {
				inboxPath = paths.InboxDB()
			}
			fmt.Fprintf(out, "Inbox:   store=%s path=%s\n", cfg.Inbox.Store, inboxPath)

			opts := config.Build(cfg.Widget, logging.Nop())
			strategy := resolver.New(opts, "", logging.Nop()).Strategy()
			fmt.Fprintf(out, "Widget:  title=%q theme=%s position=%s limit=%d\n",
				opts.Title, opts.Theme, opts.Position, opts.MessageLimit)
			if opts.APIURL != "" {
				fmt.Fprintf(out, "Replies: %s via %s %s\n", strategy, opts.Webhook.Method, opts.APIURL)
			} else {
				fmt.Fprintf(out, "Replies: %s\n", strategy)
			}

			// Validation
			issues := config.Validate(&cfg)
			issues = append(issues, config.ValidateOptions(&cfg.Widget)...)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}
