package cli

import (
	"context"
	"fmt"
)

// Forgot starts the password reset flow by requesting a reset email.
func (a *App) Forgot(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	return a.auth.ForgotPassword(ctx, email)
}

// Reset finishes the reset flow with the token from the email. The email of
// a flow started in this process is offered as the default.
func (a *App) Reset(ctx context.Context) error {
	prompt := "Enter email"
	pending := a.auth.PendingResetEmail()
	if pending != "" {
		prompt = fmt.Sprintf("Enter email (empty for %s)", pending)
	}
	email, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return err
	}
	if email == "" {
		email = pending
	}

	token, err := getSimpleText(a.reader, "Enter reset token", a.out)
	if err != nil {
		return err
	}
	newPassword, err := getPassword(a.out, "New password")
	if err != nil {
		return err
	}

	return a.auth.ResetPassword(ctx, email, token, newPassword)
}
