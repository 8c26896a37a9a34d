package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/polydebate/frontend/internal/logger"
	"github.com/polydebate/frontend/internal/polydebate"
	"github.com/polydebate/frontend/internal/services"
	"github.com/spf13/cobra"
)

const maxCodeAttempts = 3

type loginFlags struct {
	email string
	name  string
	code  string
}

func newLoginCmd(a *app, mode services.AuthMode) *cobra.Command {
	var flags loginFlags
	short := "Sign in with a code sent to your email"
	if mode == services.AuthSignup {
		short = "Create an account with a code sent to your email"
	}

	cmd := &cobra.Command{
		Use:         string(mode),
		Short:       short,
		Annotations: map[string]string{skipBootstrap: "1"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.signIn(cmd, mode, flags)
		},
	}
	cmd.Flags().StringVar(&flags.email, "email", "", "email address")
	cmd.Flags().StringVar(&flags.code, "code", "", "6-digit code (skips the prompt)")
	if mode == services.AuthSignup {
		cmd.Flags().StringVar(&flags.name, "name", "", "display name")
	}
	return cmd
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *app) signIn(cmd *cobra.Command, mode services.AuthMode, flags loginFlags) error {
	ctx := cmd.Context()
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	var err error
	if flags.email == "" {
		if flags.email, err = prompt(in, out, "Email: "); err != nil {
			return err
		}
	}
	if mode == services.AuthSignup && flags.name == "" {
		if flags.name, err = prompt(in, out, "Name: "); err != nil {
			return err
		}
	}

	// Step one
	flow, err := a.auth.RequestCode(ctx, a.sess, mode, flags.email, flags.name)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n", green("Code sent to %s (expires in %d minutes)", flow.Email, flow.ExpiryMinutes))

	// Step two
	attempts := maxCodeAttempts
	if flags.code != "" {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		code := flags.code
		if code == "" {
			if code, err = prompt(in, out, "Code (or \"resend\"): "); err != nil {
				return err
			}
		}

		if strings.EqualFold(code, "resend") {
			flow, err := a.auth.Resend(ctx, a.sess, mode)
			if err != nil {
				fmt.Fprintln(out, red("%s", describe(err)))
			} else {
				fmt.Fprintln(out, green("New code sent (expires in %d minutes)", flow.ExpiryMinutes))
			}
			i--
			continue
		}

		user, _, err := a.auth.Verify(ctx, a.sess, mode, code)
		if err != nil {
			if polydebate.IsUnreachable(err) || i == attempts-1 {
				return err
			}
			fmt.Fprintln(out, red("%s", describe(err)))
			continue
		}

		if _, err := a.favorites.Load(ctx, a.sess); err != nil {
			logger.Warn("Could not load favorites: %v", err)
		}
		fmt.Fprintf(out, "Signed in as %s <%s>\n", bold(user.Name), user.Email)
		return nil
	}
	return errors.New("too many attempts")
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "logout",
		Short:       "Forget the stored session",
		Annotations: map[string]string{skipBootstrap: "1"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.auth.Logout(cmd.Context(), a.sess); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.sess.User(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if user == nil || !a.sess.Authenticated(cmd.Context()) {
				fmt.Fprintln(out, "Not signed in.")
				return nil
			}
			role := ""
			if user.IsAdmin {
				role = " (admin)"
			}
			fmt.Fprintf(out, "%s <%s>%s\n", bold(user.Name), user.Email, role)
			fmt.Fprintf(out, "%d debates, %d tokens remaining\n", user.TotalDebates, user.TokensRemaining)
			return nil
		},
	}
}
