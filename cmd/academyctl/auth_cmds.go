package main

import (
	"bufio"
	"strings"

	"github.com/jrsteele09/go-academy-client/auth"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newLoginCmd(c *cli) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Long: `Log in with email and password. Without --password the password is read
from the first line of standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				line, err := bufio.NewReader(c.in).ReadString('\n')
				if err != nil && line == "" {
					return errors.Wrap(err, "read password from stdin")
				}
				password = strings.TrimRight(line, "\r\n")
			}

			u, err := c.app.Auth.Login(cmd.Context(), auth.Credentials{Email: email, Password: password})
			if err != nil {
				return err
			}
			c.printer.Success("Logged in as %s", u)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke and clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			c.printer.Success("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			get := c.app.Auth.CurrentUser
			if remote {
				get = c.app.Auth.Me
			}
			u, err := get(cmd.Context())
			if err != nil {
				return err
			}
			c.printer.Print("%s", u)
			if u.Email != "" {
				c.printer.Print("email: %s", u.Email)
			}
			if len(u.TeamIDs) > 0 {
				c.printer.Print("teams: %s", strings.Join(u.TeamIDs, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "ask the backend instead of reading the stored session")
	return cmd
}
