package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prohmpiriya/servus/internal/maintenance"
)

// PasswordReset is the result printed by user reset-password
type PasswordReset struct {
	UserID string `yaml:"user_id"`
	Email  string `yaml:"email"`
	Name   string `yaml:"name"`
}

func newUserCommand(opts *RootOptions, connect Connector) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	var email, password string
	reset := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(email) == "" {
				return errors.New("--email is required")
			}
			return withStore(cmd.Context(), connect, func(s *Store) error {
				user, err := maintenance.ResetPassword(cmd.Context(), s.Users, s.Hasher, email, password)
				if err != nil {
					return fmt.Errorf("reset password for %s: %w", email, err)
				}
				return writeResult(cmd.OutOrStdout(), opts.Output, PasswordReset{
					UserID: user.ID.Hex(),
					Email:  user.Email,
					Name:   user.Name,
				}, fmt.Sprintf("password updated for %s (%s)", user.Email, user.ID.Hex()))
			})
		},
	}
	reset.Flags().StringVar(&email, "email", "", "user email")
	reset.Flags().StringVar(&password, "password", "", fmt.Sprintf("new password, at least %d characters", maintenance.MinPasswordLength))
	_ = reset.MarkFlagRequired("password")
	cmd.AddCommand(reset)
	return cmd
}
