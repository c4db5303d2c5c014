package main

import (
	"errors"
	"fmt"
	"strings"

	"matchmaking/internal/config"
	"matchmaking/internal/pkg/jwt"

	"github.com/spf13/cobra"
)

var tokenArgs struct {
	subject string
	role    string
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API access token signed with JWT_ACCESS_SECRET",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if strings.TrimSpace(cfg.JWT.AccessSecret) == "" {
			return errors.New("JWT_ACCESS_SECRET is not set")
		}
		svc := jwt.NewHMACService(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiresIn, cfg.App.AppName)
		tok, err := svc.GenerateAccessToken(tokenArgs.subject, tokenArgs.role)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	flags := tokenCmd.Flags()
	flags.StringVar(&tokenArgs.subject, "subject", "", "token subject, e.g. the operator's email")
	flags.StringVar(&tokenArgs.role, "role", jwt.RoleOrganizer, "organizer or viewer")
	_ = tokenCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(tokenCmd)
}
