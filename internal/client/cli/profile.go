package cli

import (
	"context"
	"fmt"

	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/models"
)

// WhoAmI prints the current profile.
func (a *App) WhoAmI(_ context.Context) error {
	s := a.auth.Current()
	if !s.Authenticated() {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	u := s.User
	fmt.Fprintf(a.out, "%s <%s>\n", u.FullName(), u.Email)
	if u.AvatarURL != "" {
		fmt.Fprintf(a.out, "Avatar: %s\n", u.AvatarURL)
	}
	if u.CreatedAt != "" {
		fmt.Fprintf(a.out, "Member since: %s\n", u.CreatedAt)
	}
	return nil
}

// Update prompts for profile fields and applies the ones the user filled in.
// Empty answers leave a field unchanged.
func (a *App) Update(ctx context.Context) error {
	firstName, err := getSimpleText(a.reader, "First name (empty to keep)", a.out)
	if err != nil {
		return err
	}
	lastName, err := getSimpleText(a.reader, "Last name (empty to keep)", a.out)
	if err != nil {
		return err
	}
	avatarURL, err := getSimpleText(a.reader, "Avatar URL (empty to keep)", a.out)
	if err != nil {
		return err
	}

	var upd models.ProfileUpdate
	if firstName != "" {
		upd.FirstName = &firstName
	}
	if lastName != "" {
		upd.LastName = &lastName
	}
	if avatarURL != "" {
		upd.AvatarURL = &avatarURL
	}

	return a.auth.UpdateProfile(ctx, upd)
}

// Passwd prompts for the current and a new password and changes it. The new
// password is confirmed locally before anything goes over the wire.
func (a *App) Passwd(ctx context.Context) error {
	current, err := getPassword(a.out, "Current password")
	if err != nil {
		return err
	}
	newPassword, err := getPassword(a.out, "New password")
	if err != nil {
		return err
	}
	confirm, err := getPassword(a.out, "Confirm new password")
	if err != nil {
		return err
	}
	if newPassword != confirm {
		fmt.Fprintln(a.out, "Passwords do not match.")
		return nil
	}

	return a.auth.ChangePassword(ctx, current, newPassword)
}
