package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jrsteele09/readify/api"
	"github.com/jrsteele09/readify/server"
	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:         "login",
		Short:       "Sign in and save the session",
		Annotations: route(server.RouteLogin),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				var err error
				if password, err = readSecret(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			if err := a.store.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			a.printf("Signed in as %s\n", a.store.Identity().DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var reg api.Registration
	cmd := &cobra.Command{
		Use:         "register",
		Short:       "Create an account",
		Annotations: route(server.RouteRegister),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if reg.Password == "" {
				var err error
				if reg.Password, err = readSecret(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			if reg.Password2 == "" {
				reg.Password2 = reg.Password
			}
			return a.store.Register(cmd.Context(), reg)
		},
	}
	cmd.Flags().StringVar(&reg.Email, "email", "", "account email")
	cmd.Flags().StringVar(&reg.Username, "username", "", "username")
	cmd.Flags().StringVar(&reg.Password, "password", "", "password (read from stdin when empty)")
	cmd.Flags().StringVar(&reg.Password2, "confirm", "", "password confirmation, defaults to --password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "logout",
		Short:       "Forget the saved session",
		Annotations: route(server.RouteLogout),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.store.Logout(cmd.Context())
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who the saved session belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.store.Authenticated() {
				a.printf("Not signed in\n")
				return nil
			}
			id := a.store.Identity()
			a.printf("%s <%s> (user %s)\n", id.DisplayName(), id.Email, id.UserID)
			if !id.ExpiresAt.IsZero() {
				a.printf("Session expires %s\n", id.ExpiresAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("password is required")
	}
	return line, nil
}
