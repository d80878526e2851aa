package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shopwala/shopwala-golang/internal/auth"
)

var (
	tokenUser string
	tokenRole string
	tokenName string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a signed bearer token for local testing",
	Long: `Sign a token with the configured jwt.secret. Real tokens come from the
identity provider; this is for exercising the API locally.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)
		token, err := tokens.GenerateToken(auth.Identity{UserID: tokenUser, Role: tokenRole, Name: tokenName})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id placed in the sub claim")
	tokenCmd.Flags().StringVar(&tokenRole, "role", auth.RoleBuyer, "role claim (Buyer, AdminStaff, SuperAdmin)")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "display name")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}
