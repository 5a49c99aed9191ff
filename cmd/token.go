package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/drillz/internal/identity"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user>",
	Short: "Issue an API token for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cfg.Auth.JWTSecret == "" {
			return errors.New("no JWT secret configured (set DRILLZ_JWT_SECRET or auth.jwt_secret)")
		}

		ttl := cfg.Auth.TokenTTL
		if d, _ := cmd.Flags().GetDuration("ttl"); d > 0 {
			ttl = d
		}

		token, err := identity.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.Issuer).Issue(args[0], ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Duration("ttl", 0, "Token lifetime (defaults to auth.token_ttl)")
}
