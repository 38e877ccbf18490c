package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simp-lee/newsdesk/internal/app"
	"github.com/simp-lee/newsdesk/internal/config"
	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/module/admins"
)

func newCreateSuperadminCmd(e *env) *cobra.Command {
	var req admins.CreateAdminRequest
	cmd := &cobra.Command{
		Use:   "create-superadmin",
		Short: "Create a superadmin account",
		Long: `Create a superadmin account. The dashboard only lets superadmins add
staff, so a fresh deployment needs one created here.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Role = string(domain.RoleSuperadmin)
			return e.open(cmd.Context(), false, func(_ *config.Config, svc *app.Services) error {
				p, err := svc.Admins.Create(cmd.Context(), req)
				if err != nil {
					return fmt.Errorf("create superadmin: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created superadmin %s (%s)\n", p.Email, p.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "login email")
	cmd.Flags().StringVar(&req.Username, "username", "", "display username")
	cmd.Flags().StringVar(&req.Password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
