package command

import (
	"errors"
	"fmt"

	"manhwahub/cmd/cli/authentication"
	"manhwahub/internal/discussion/client"

	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"
)

// auth.go handles the session cookies the site hands out after login.

// authCmd represents the auth command for authentication related subcommands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Log in to the content site. The session and csrf cookies are kept in the OS keyring.`,
}

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to your account",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req client.LoginRequest
		req.Username, _ = cmd.Flags().GetString("username")
		req.Password, _ = cmd.Flags().GetString("password")

		httpClient, _, err := newClient()
		if err != nil {
			return err
		}
		response, err := httpClient.Login(cmd.Context(), &req)
		if err != nil {
			return fmt.Errorf("login process failed: %w", err)
		}

		session := authentication.FromCookies(response.Username, httpClient.Cookies(), authentication.SessionCookieName, cfg.CSRFCookieName)
		if session.SessionID == "" {
			return errors.New("login succeeded but no session cookie was set")
		}
		if err := authentication.StoreSession(session); err != nil {
			return fmt.Errorf("store session: %w", err)
		}

		fmt.Println("✓ Successfully logged in!")
		return nil
	},
}

// setCookiesCmd stores cookies copied from a browser session
var setCookiesCmd = &cobra.Command{
	Use:   "set-cookies",
	Short: "Store session and csrf cookies copied from a browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		var session authentication.StoredSession
		session.Username, _ = cmd.Flags().GetString("username")
		session.SessionID, _ = cmd.Flags().GetString("sessionid")
		session.CSRFToken, _ = cmd.Flags().GetString("csrftoken")

		if err := authentication.StoreSession(&session); err != nil {
			return fmt.Errorf("store session: %w", err)
		}
		fmt.Println("✓ Cookies stored.")
		return nil
	},
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := authentication.DeleteSession(); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("delete session: %w", err)
		}
		fmt.Println("✓ Successfully logged out.")
		return nil
	},
}

// statusCmd shows who the stored session belongs to
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := authentication.GetSession()
		if errors.Is(err, keyring.ErrNotFound) {
			fmt.Println("Not logged in.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s (csrf token stored: %t)\n", session.Username, session.CSRFToken != "")
		return nil
	},
}

// init function to add auth commands to the auth command
func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(setCookiesCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().StringP("username", "u", "", "Username for the account")
	loginCmd.Flags().StringP("password", "p", "", "Password for the account")
	loginCmd.MarkFlagRequired("username")
	loginCmd.MarkFlagRequired("password")

	setCookiesCmd.Flags().StringP("username", "u", "", "Username the cookies belong to")
	setCookiesCmd.Flags().String("sessionid", "", "Value of the session cookie")
	setCookiesCmd.Flags().String("csrftoken", "", "Value of the csrf cookie")
	setCookiesCmd.MarkFlagRequired("username")
	setCookiesCmd.MarkFlagRequired("sessionid")
}
