package cmd

import (
	"fmt"

	internalApp "github.com/magnusfroste/notton/internal/app"

	"github.com/spf13/cobra"
)

func init() {
	var userID, email string

	tokenCmd := &cobra.Command{
		Use:   "token --user <id> [--email e]",
		Short: "Issue a session token signed with session.token-secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfig(global)
			if err != nil {
				return err
			}
			cfg, _, err := internalApp.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg.ApplyEnv()

			token, err := internalApp.IssueToken(cfg.Session, userID, email)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&userID, "user", "", "user id")
	tokenCmd.Flags().StringVar(&email, "email", "", "user email")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}
