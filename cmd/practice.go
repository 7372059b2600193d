package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/abhisek/tensetrainer/internal/app"
	"github.com/abhisek/tensetrainer/internal/apperr"
	"github.com/abhisek/tensetrainer/internal/auth"
	"github.com/abhisek/tensetrainer/internal/client"
	"github.com/abhisek/tensetrainer/internal/config"
)

const authTimeout = 30 * time.Second

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Start the terminal client",
	Long:  "Opens the terminal client against the API. Sign in first with `practice login` or `practice register`.",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := config.LoadCredentials(config.DefaultCredentialsPath())
		if err != nil {
			return err
		}
		token := cfg.Client.Token
		if token == "" {
			token = creds.Token
		}
		if token == "" {
			return errors.New("not signed in: run `tensetrainer practice login` or `tensetrainer practice register`")
		}

		c := client.New(apiURL(creds), client.WithToken(token))
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if err := c.Health(ctx); err != nil {
			return fmt.Errorf("API at %s is not reachable: %w", apiURL(creds), err)
		}
		return app.Run(c, creds.Email)
	},
}

var practiceLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return signIn(cmd, (*client.Client).Login)
	},
}

var practiceRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		return signIn(cmd, (*client.Client).Register)
	},
}

var practiceLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the stored token and forget the account",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultCredentialsPath()
		creds, err := config.LoadCredentials(path)
		if err != nil {
			return err
		}
		if creds.Token == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
			return nil
		}

		c := client.New(apiURL(creds), client.WithToken(creds.Token))
		ctx, cancel := context.WithTimeout(cmd.Context(), authTimeout)
		defer cancel()
		// An expired or already revoked token still counts as signed out.
		if err := c.Logout(ctx); err != nil && apperr.KindOf(err) != apperr.KindUnauthorized {
			return fmt.Errorf("logout: %w", err)
		}
		if err := config.RemoveCredentials(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed out %s.\n", creds.Email)
		return nil
	},
}

var practiceResetCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Request a password reset, or set a new password with --token",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(apiURL(config.Credentials{}))
		ctx, cancel := context.WithTimeout(cmd.Context(), authTimeout)
		defer cancel()

		if token, _ := cmd.Flags().GetString("token"); token != "" {
			password, err := readPassword(cmd, "New password: ")
			if err != nil {
				return err
			}
			if err := c.ConfirmPasswordReset(ctx, token, password); err != nil {
				return describe(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password updated. Sign in with `tensetrainer practice login`.")
			return nil
		}

		email, err := readEmail(cmd)
		if err != nil {
			return err
		}
		if err := c.RequestPasswordReset(ctx, email); err != nil {
			return describe(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "If the account exists, a reset token is on its way.")
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{practiceLoginCmd, practiceRegisterCmd, practiceResetCmd} {
		c.Flags().String("email", "", "Account email")
	}
	for _, c := range []*cobra.Command{practiceLoginCmd, practiceRegisterCmd} {
		c.Flags().String("password", "", "Account password (prompted when omitted; TENSE_PASSWORD also works)")
	}
	practiceResetCmd.Flags().String("token", "", "Reset token received after requesting a reset")

	practiceCmd.AddCommand(practiceLoginCmd)
	practiceCmd.AddCommand(practiceRegisterCmd)
	practiceCmd.AddCommand(practiceLogoutCmd)
	practiceCmd.AddCommand(practiceResetCmd)
}

// signIn runs login or register and stores the resulting token.
func signIn(cmd *cobra.Command, call func(*client.Client, context.Context, string, string) (*auth.Result, error)) error {
	email, err := readEmail(cmd)
	if err != nil {
		return err
	}
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = os.Getenv("TENSE_PASSWORD")
	}
	if password == "" {
		if password, err = readPassword(cmd, "Password: "); err != nil {
			return err
		}
	}

	url := apiURL(config.Credentials{})
	c := client.New(url)
	ctx, cancel := context.WithTimeout(cmd.Context(), authTimeout)
	defer cancel()
	res, err := call(c, ctx, email, password)
	if err != nil {
		return describe(err)
	}

	creds := config.Credentials{APIURL: url, Email: res.User.Email, Token: res.Token}
	if err := config.SaveCredentials(config.DefaultCredentialsPath(), creds); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s. Run `tensetrainer practice` to start.\n", res.User.Email)
	return nil
}

// apiURL prefers an explicitly configured URL over the one stored at login.
func apiURL(creds config.Credentials) string {
	def := config.Default().Client.APIURL
	if cfg.Client.APIURL != def || creds.APIURL == "" {
		return cfg.Client.APIURL
	}
	return creds.APIURL
}

// describe turns a validation error into one readable line per field.
func describe(err error) error {
	e, ok := apperr.As(err)
	if !ok || len(e.Details) == 0 {
		return err
	}
	lines := []string{e.Message}
	for field, msg := range e.Details {
		lines = append(lines, fmt.Sprintf("  %s: %s", field, msg))
	}
	return errors.New(strings.Join(lines, "\n"))
}

func readEmail(cmd *cobra.Command) (string, error) {
	if email, _ := cmd.Flags().GetString("email"); email != "" {
		return email, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Email: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read email: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword prompts without echo when stdin is a terminal.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	if term.IsTerminal(os.Stdin.Fd()) {
		b, err := term.ReadPassword(os.Stdin.Fd())
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
