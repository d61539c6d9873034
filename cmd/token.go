package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/api"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		sub, _ := cmd.Flags().GetString("sub")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		secret := os.Getenv("NEUROMATH_AUTH_SECRET")
		if secret == "" {
			return fmt.Errorf("NEUROMATH_AUTH_SECRET is not set")
		}

		tok, err := api.NewAuth(secret).IssueToken(sub, ttl)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("sub", "", "Owner id the token is scoped to")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("sub")
}
