package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gitea.kood.tech/petrkubec/roomies/api"
	"gitea.kood.tech/petrkubec/roomies/config"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a bearer token for a user (development only)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		if cfg.Auth.JWTSecret == "" {
			return errors.New("auth.jwt-secret (or JWT_SECRET) is required")
		}

		userID, _ := cmd.Flags().GetString("user")
		ttl := cfg.Auth.TokenTTL
		if cmd.Flags().Changed("ttl") {
			ttl, _ = cmd.Flags().GetDuration("ttl")
		}

		token, err := api.IssueToken([]byte(cfg.Auth.JWTSecret), userID, ttl)
		if err != nil {
			return fmt.Errorf("signing token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringP("user", "u", "", "user id to put in the user_id claim")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (default auth.token-ttl)")
	_ = tokenCmd.MarkFlagRequired("user")
}
