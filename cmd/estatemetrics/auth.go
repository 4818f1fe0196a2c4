package main

import (
	"errors"

	"estatemetrics/internal/app"

	"github.com/spf13/cobra"
)

func newLoginCmd(opts *options) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, a *app.App) error {
			user, err := a.Sessions.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			printf(cmd, "logged in as %s (id %d)\n", user.Email, user.ID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")

	return cmd
}

func newRegisterCmd(opts *options) *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, a *app.App) error {
			user, err := a.Sessions.Register(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}
			printf(cmd, "registered %s (id %d)\n", user.Email, user.ID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&name, "name", "", "display name")

	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, a *app.App) error {
			if err := a.Sessions.Logout(cmd.Context()); err != nil {
				return err
			}
			printf(cmd, "logged out\n")
			return nil
		}),
	}
}

func newWhoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, a *app.App) error {
			if !a.Sessions.IsValidToken(cmd.Context()) {
				return errors.New("not logged in")
			}
			user, _ := a.Sessions.User()
			printf(cmd, "%s <%s> id=%d\n", user.Name, user.Email, user.ID)
			return nil
		}),
	}
}
