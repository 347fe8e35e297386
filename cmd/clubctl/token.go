package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nexussuite/clubcore/internal/identity"
)

func newTokenCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue bearer tokens",
	}
	cmd.AddCommand(newTokenIssueCommand(opts))
	return cmd
}

func newTokenIssueCommand(opts *rootOptions) *cobra.Command {
	var (
		p        identity.Principal
		ttl      time.Duration
		operator bool
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed token for a user or operator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if p.UserID == "" {
				return fmt.Errorf("--user is required")
			}
			p.Operator = operator
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}
			tokens := identity.NewTokenResolver([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, cfg.Auth.Audience)
			token, err := tokens.Issue(p, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&p.UserID, "user", "", "subject user ID")
	cmd.Flags().StringVar(&p.TenantID, "tenant", "", "tenant ID bound to the token")
	cmd.Flags().StringVar(&p.Email, "email", "", "email claim")
	cmd.Flags().StringVar(&p.Name, "name", "", "display name claim")
	cmd.Flags().BoolVar(&operator, "platform-operator", false, "grant platform operator rights")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	return cmd
}
