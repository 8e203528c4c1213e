package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tyemirov/hoteldesk/pkg/session"
)

func newLoginCommand() *cobra.Command {
	var credentials session.SignInCredentials
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the credential for later commands",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			runtime, openErr := openConsoleRuntime(command)
			if openErr != nil {
				return openErr
			}
			defer runtime.Close()
			return runtime.report(runtime.session.SignIn(command.Context(), credentials))
		},
	}
	loginCmd.Flags().StringVar(&credentials.Email, "email", "", "Account email")
	loginCmd.Flags().StringVar(&credentials.Password, "password", "", "Account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")
	return loginCmd
}

func newRegisterCommand() *cobra.Command {
	var credentials session.SignUpCredentials
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create an administrator account and sign in with it",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			runtime, openErr := openConsoleRuntime(command)
			if openErr != nil {
				return openErr
			}
			defer runtime.Close()
			return runtime.report(runtime.session.SignUp(command.Context(), credentials))
		},
	}
	registerCmd.Flags().StringVar(&credentials.Name, "name", "", "Display name")
	registerCmd.Flags().StringVar(&credentials.Email, "email", "", "Account email")
	registerCmd.Flags().StringVar(&credentials.Password, "password", "", "Account password")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("password")
	return registerCmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			runtime, openErr := openConsoleRuntime(command)
			if openErr != nil {
				return openErr
			}
			defer runtime.Close()
			runtime.session.SignOut()
			return runtime.print(runtime.session.State())
		},
	}
}

func newWhoAmICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			runtime, openErr := openConsoleRuntime(command)
			if openErr != nil {
				return openErr
			}
			defer runtime.Close()
			if err := runtime.requireIdentity(); err != nil {
				return err
			}
			return runtime.print(runtime.session.State())
		},
	}
}

func (runtime *consoleRuntime) report(outcome session.Outcome) error {
	if !outcome.Succeeded() {
		return fmt.Errorf("%s: %w", outcome.Message, outcome.Err)
	}
	return runtime.print(map[string]any{
		"identity": outcome.Identity,
		"message":  outcome.Message,
	})
}
