package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Google authentication",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize TODOIT with your Google account",
	RunE:  runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the cached token",
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether TODOIT is authenticated",
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authStatusCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	mgr, err := newAuthManager()
	if err != nil {
		return err
	}
	if err := mgr.Login(cmd.Context()); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Println("Authenticated successfully")
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	mgr, err := newAuthManager()
	if err != nil {
		return err
	}
	if err := mgr.Logout(); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	mgr, err := newAuthManager()
	if err != nil {
		return err
	}
	if mgr.IsAuthenticated() {
		fmt.Println("Authenticated")
	} else {
		fmt.Println("Not authenticated. Run 'todoit auth login'.")
	}
	return nil
}
