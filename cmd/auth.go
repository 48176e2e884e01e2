package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"docq/internal/session"
)

// AuthLogin exchanges credentials for a token and stores it for later commands.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password := cmd.String("password")
	if password == "" {
		var err error
		if password, err = r.promptPassword(); err != nil {
			return err
		}
	}

	r.logger.Info("signing in", "email", email)

	if err := r.controller.Login(ctx, email, password); err != nil {
		return err
	}

	user := r.controller.User()
	r.writePlain("✓ Signed in as %s <%s>\n", user.Name, user.Email)
	r.writePlain("Token saved to %s\n", r.store.Path())
	return nil
}

// AuthSignup creates an account and signs it in.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	name := cmd.String("name")
	email := cmd.String("email")
	password := cmd.String("password")
	if password == "" {
		var err error
		if password, err = r.promptPassword(); err != nil {
			return err
		}
	}

	r.logger.Info("creating account", "email", email)

	if err := r.controller.Signup(ctx, name, email, password); err != nil {
		return err
	}

	user := r.controller.User()
	r.writePlain("✓ Account created, signed in as %s <%s>\n", user.Name, user.Email)
	return nil
}

// AuthLogout discards the stored token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.controller.Logout(); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus verifies the stored token against the backend.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	token, err := r.store.Load()
	if err != nil {
		return err
	}
	if token == "" {
		return r.writePlain("✗ Not authenticated (no stored token)\n")
	}

	if err := r.controller.Initialize(ctx); err != nil {
		return err
	}

	if r.controller.State() != session.StateAuthenticated {
		return r.writePlain("✗ Stored token was rejected, sign in again\n")
	}

	user := r.controller.User()
	r.writePlain("✓ Authenticated\n")
	r.writePlain("User: %s <%s>\n", user.Name, user.Email)
	return nil
}

func (r *Runner) promptPassword() (string, error) {
	r.writePlain("Password: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}
