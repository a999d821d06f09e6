package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dkeye/telemed/internal/auth"
	"github.com/dkeye/telemed/internal/config"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token signed with auth.jwt_secret (development only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, _ := cmd.Flags().GetString("sub")
			role, _ := cmd.Flags().GetString("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if sub == "" {
				return errors.New("--sub is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not configured")
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}

			token, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret)).Generate(sub, role, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("sub", "", "Subject (user id)")
	cmd.Flags().String("role", "doctor", "Role claim")
	cmd.Flags().Duration("ttl", 0, "Lifetime, defaults to auth.token_ttl")
	return cmd
}
