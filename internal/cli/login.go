package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mesh-intelligence/planbook/internal/session"
)

func newLoginCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in to the planbook server",
		Long: "Sign in and store the session in session.json. The password is read\n" +
			"from --password, or from stdin (without echo on a terminal).",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return userError(err)
				}
				password = p
			}

			c, err := a.connect(atLogin)
			if err != nil {
				return err
			}
			resp, err := c.client.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			if err := c.store.Save(c.client.Session().State()); err != nil {
				return sysError(err)
			}
			a.logger.Debug("session stored", "path", c.store.Path)
			return a.emit(cmd, resp.User, fmt.Sprintf("Logged in as %s (%s)", resp.User.Username, resp.User.Role))
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (default: read from stdin)")
	return cmd
}

// readPassword reads one line from in, without echo when in is a terminal.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password required")
	}
	return line, nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect(anySession)
			if err != nil {
				return err
			}
			if !c.client.Session().Authenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			if err := c.client.Logout(cmd.Context()); err != nil {
				a.logger.Warn("server logout failed", "error", err)
			}
			c.guard.Logout(session.ReasonLogout)
			if err := c.store.Clear(); err != nil {
				return sysError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
