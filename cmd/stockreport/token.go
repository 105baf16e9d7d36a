package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	appctx "stockledger/internal/core/context"
	"stockledger/internal/domain/auth"
	"stockledger/pkg/config"
)

var tokenOpts struct {
	user  string
	email string
	perms []string
	admin bool
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API access token signed with JWT_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		jwtCfg := auth.DefaultJWTConfig(cfg.JWT.Secret)
		jwtCfg.Issuer = cfg.JWT.Issuer
		if cfg.JWT.TTL > 0 {
			jwtCfg.AccessTokenTTL = cfg.JWT.TTL
		}

		token, expiresAt, err := auth.NewJWTService(jwtCfg).GenerateAccessToken(appctx.UserContext{
			UserID:      tokenOpts.user,
			Email:       tokenOpts.email,
			Permissions: tokenOpts.perms,
			IsAdmin:     tokenOpts.admin,
		})
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.UTC().Format(time.RFC3339))
		return nil
	},
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenOpts.user, "user", "cli", "User id placed in the token")
	f.StringVar(&tokenOpts.email, "email", "", "User email")
	f.StringSliceVar(&tokenOpts.perms, "perm",
		[]string{auth.PermStockReportRead, auth.PermJournalReportRead}, "Granted permissions")
	f.BoolVar(&tokenOpts.admin, "admin", false, "Grant every permission")

	rootCmd.AddCommand(tokenCmd)
}
