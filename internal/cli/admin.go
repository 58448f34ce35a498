package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iliyamo/recipe-share/internal/repository"
	"github.com/iliyamo/recipe-share/internal/service"
)

// SetAdminOptions holds flags for the set-admin command.
type SetAdminOptions struct {
	*RootOptions
	Revoke bool
}

// NewSetAdminCommand creates the set-admin command.
func NewSetAdminCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetAdminOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set-admin <user-id>",
		Short: "Grant or revoke admin rights",
		Long: `Grant admin rights to a user, or revoke them with --revoke.

The user's current access tokens keep their old role until they expire;
the new role applies from the next login or refresh.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			db, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB(db)

			u, err := service.NewUserService(repository.NewUserRepo(db), nil).SetAdmin(ctx, service.SystemActor, id, !opts.Revoke)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d (%s) admin=%t\n", u.ID, u.Email, u.IsAdmin)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Revoke, "revoke", false, "remove admin rights instead of granting them")
	return cmd
}

// DisableUserOptions holds flags for the disable-user command.
type DisableUserOptions struct {
	*RootOptions
	Enable bool
}

// NewDisableUserCommand creates the disable-user command.
func NewDisableUserCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DisableUserOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "disable-user <user-id>",
		Short: "Disable or re-enable an account",
		Long: `Disable an account so it can no longer log in or refresh its session,
or re-enable it with --enable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			db, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB(db)

			u, err := service.NewUserService(repository.NewUserRepo(db), nil).SetDisabled(ctx, service.SystemActor, id, !opts.Enable)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d (%s) status=%s\n", u.ID, u.Email, u.Status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Enable, "enable", false, "re-enable the account instead of disabling it")
	return cmd
}
