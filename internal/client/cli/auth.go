package cli

import (
	"context"

	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/session"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials and tries to authenticate. The outcome is
// reported through the notification sink; the error is returned for callers
// that want to inspect it.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}

	return a.auth.Login(ctx, email, password)
}

// Signup prompts for the account fields and attempts to create the account.
// A successful signup does not sign the user in; the next step is "login".
func (a *App) Signup(ctx context.Context) error {
	firstName, err := getSimpleText(a.reader, "Enter first name", a.out)
	if err != nil {
		return err
	}
	lastName, err := getSimpleText(a.reader, "Enter last name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	confirm, err := getPassword(a.out, "Confirm password")
	if err != nil {
		return err
	}

	return a.auth.Signup(ctx, session.SignupParams{
		Email:           email,
		Password:        password,
		ConfirmPassword: confirm,
		FirstName:       firstName,
		LastName:        lastName,
	})
}

// Logout ends the session. It cannot fail.
func (a *App) Logout(_ context.Context) error {
	a.auth.Logout()
	return nil
}
