package main

import (
	"context"
	"strings"

	"github.com/desertthunder/bpmx/internal/models"
	"github.com/urfave/cli/v3"
)

// AuthLogin exchanges credentials for a session and stores it.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	return r.authenticate(ctx, cmd, false)
}

// AuthRegister creates an account and stores the returned session.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	return r.authenticate(ctx, cmd, true)
}

func (r *Runner) authenticate(ctx context.Context, cmd *cli.Command, register bool) error {
	ctl, err := r.Controller(ctx, cmd)
	if err != nil {
		return err
	}

	creds := models.Credentials{
		Email:    strings.TrimSpace(cmd.String("email")),
		Password: cmd.String("password"),
	}

	r.logger.Info("authenticating", "email", creds.Email, "register", register)
	if _, err := ctl.Login(ctx, creds, register); err != nil {
		return err
	}

	label := ctl.Snapshot().Session.Label()
	r.logger.Info("authentication successful", "account", label)
	return r.writePlain("✓ Logged in as %s\n", label)
}

// AuthLogout forgets the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	ctl, err := r.Controller(ctx, cmd)
	if err != nil {
		return err
	}

	if !ctl.Snapshot().LoggedIn {
		return r.writePlain("Not logged in\n")
	}

	if err := ctl.Logout(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}

type authStatus struct {
	LoggedIn bool   `json:"logged_in"`
	Email    string `json:"email,omitempty"`
	Plan     string `json:"plan,omitempty"`
	BaseURL  string `json:"base_url"`
}

// AuthStatus prints the current account and the analysis service it talks to.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	ctl, err := r.Controller(ctx, cmd)
	if err != nil {
		return err
	}

	view := ctl.Snapshot()
	status := authStatus{LoggedIn: view.LoggedIn, BaseURL: r.client.BaseURL()}
	if view.LoggedIn {
		status.Email = view.Session.Email
		status.Plan = view.Session.Plan.String()
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	if view.LoggedIn {
		r.writePlain("✓ Logged in as %s\n", view.Session.Label())
	} else {
		r.writePlain("✗ Not logged in\n")
	}
	return r.writePlain("Service: %s\n", status.BaseURL)
}
