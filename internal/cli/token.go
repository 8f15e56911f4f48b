package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"leadflow/internal/authz"
	"leadflow/internal/middleware"
)

func newTokenCommand(opts *options) *cobra.Command {
	var (
		userID    string
		workspace string
		role      string
		ttl       time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with auth.jwt_secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" || workspace == "" {
				return fmt.Errorf("--user and --workspace are required")
			}
			if !authz.IsKnown(role) {
				return fmt.Errorf("unknown role %q", role)
			}
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			tok, err := middleware.SignToken([]byte(cfg.Auth.JWTSecret), userID, workspace, role, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID (user_id and sub claims)")
	cmd.Flags().StringVar(&workspace, "workspace", "", "Workspace the token is scoped to")
	cmd.Flags().StringVar(&role, "role", authz.RoleMember, "owner, admin, member or viewer")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
