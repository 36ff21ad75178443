package session

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/models"
)

const minPasswordLength = 6

func checkEmail(email string) error {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return &ValidationError{Field: "email", Message: "Please enter a valid email address"}
	}
	return nil
}

func checkPassword(field, password string) error {
	if password == "" {
		return &ValidationError{Field: field, Message: "Password is required"}
	}
	if err := validation.Validate(password, validation.Length(minPasswordLength, 0)); err != nil {
		return &ValidationError{Field: field, Message: "Password must be at least 6 characters"}
	}
	return nil
}

func checkRequired(field, label, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: label + " is required"}
	}
	return nil
}

// The minimum-length rule applies only where a new password is chosen.
// An existing password is the server's to judge, however short.
func validateLogin(email, password string) error {
	if err := checkEmail(email); err != nil {
		return err
	}
	if password == "" {
		return &ValidationError{Field: "password", Message: "Password is required"}
	}
	return nil
}

func validateSignup(p SignupParams) error {
	if err := checkRequired("first_name", "First name", p.FirstName); err != nil {
		return err
	}
	if err := checkRequired("last_name", "Last name", p.LastName); err != nil {
		return err
	}
	if err := checkEmail(p.Email); err != nil {
		return err
	}
	if err := checkPassword("password", p.Password); err != nil {
		return err
	}
	if p.Password != p.ConfirmPassword {
		return &ValidationError{Field: "confirm_password", Message: "Passwords do not match"}
	}
	return nil
}

func validateProfileUpdate(upd models.ProfileUpdate) error {
	if upd.IsEmpty() {
		return &ValidationError{Field: "profile", Message: "Nothing to update"}
	}
	if upd.FirstName != nil {
		if err := checkRequired("first_name", "First name", *upd.FirstName); err != nil {
			return err
		}
	}
	if upd.LastName != nil {
		if err := checkRequired("last_name", "Last name", *upd.LastName); err != nil {
			return err
		}
	}
	if upd.AvatarURL != nil && *upd.AvatarURL != "" {
		if err := validation.Validate(*upd.AvatarURL, is.URL); err != nil {
			return &ValidationError{Field: "avatar_url", Message: "Please enter a valid URL"}
		}
	}
	return nil
}

func validateChangePassword(currentPassword, newPassword string) error {
	if currentPassword == "" {
		return &ValidationError{Field: "current_password", Message: "Current password is required"}
	}
	return checkPassword("new_password", newPassword)
}

func validateReset(email, resetToken, newPassword string) error {
	if err := checkEmail(email); err != nil {
		return err
	}
	if err := checkRequired("token", "Reset token", resetToken); err != nil {
		return err
	}
	return checkPassword("password", newPassword)
}
