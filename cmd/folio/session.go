package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/folio/internal/errors"
)

// passwordEnv is read when --password is not given.
const passwordEnv = "FOLIO_PASSWORD"

func loginCmd(flags *globalFlags) *cobra.Command {
	var (
		password string
		remember bool
	)

	cmd := &cobra.Command{
		Use:   "login [username or email]",
		Short: "Log in to the mock backend",
		Long: `Log in with a username or email address.

Without an argument the remembered identifier from a previous
--remember login is used. The password comes from --password or
the FOLIO_PASSWORD environment variable.

Examples:
  folio login admin --password=password
  folio login user@example.com --password=user --remember
  FOLIO_PASSWORD=password folio login`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openLocal(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			identifier := ""
			if len(args) == 1 {
				identifier = args[0]
			} else {
				identifier = app.Auth.RememberedCredentials(ctx)
			}
			if password == "" {
				password = os.Getenv(passwordEnv)
			}

			res := app.Auth.Login(ctx, identifier, password, remember)
			if !res.Success {
				return errors.New("F201").
					WithDetail(fmt.Sprintf("%s (status %d)", res.Message, res.Status))
			}

			success("%s", res.Message)
			info("user:     %s <%s>", res.User.Username, res.User.Email)
			info("role:     %s", res.User.Role)
			info("redirect: %s", app.History.Current())
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (default $"+passwordEnv+")")
	cmd.Flags().BoolVarP(&remember, "remember", "r", false, "Remember the identifier for later logins")

	return cmd
}

func logoutCmd(flags *globalFlags) *cobra.Command {
	var forget bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openLocal(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if !app.Auth.LoggedIn() {
				warn("Not logged in")
			}
			app.Auth.Logout(ctx)
			if forget {
				app.Auth.ClearRememberedCredentials(ctx)
			}
			success("Logged out")
			return nil
		},
	}

	cmd.Flags().BoolVar(&forget, "forget", false, "Also forget the remembered identifier")

	return cmd
}

func whoamiCmd(flags *globalFlags) *cobra.Command {
	var showToken bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openLocal(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()

			user := app.Auth.CurrentUser()
			if user == nil {
				return errors.New("F202").WithSuggestion("Run 'folio login' first")
			}

			fmt.Printf("%s <%s>\n", user.Username, user.Email)
			info("id:      %s", user.ID)
			info("role:    %s", user.Role)
			info("created: %s", user.CreatedAt)
			if showToken {
				info("token:   %s", app.Auth.Token())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showToken, "token", false, "Print the bearer token")

	return cmd
}

func resetPasswordCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <email>",
		Short: "Request password reset instructions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openLocal(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()

			res := app.Auth.RequestPasswordReset(cmd.Context(), args[0])
			if !res.Success {
				return errors.New("F203").WithDetail(res.Message)
			}
			success("%s", res.Message)
			return nil
		},
	}
}
