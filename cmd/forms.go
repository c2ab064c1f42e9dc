// ABOUTME: Interactive huh prompts for credentials and signup details
// ABOUTME: Used only when stdin is a terminal and required flags are missing

package cmd

import (
	"context"
	"errors"
	"net/mail"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/dangquan18/subme/internal/render"
	"github.com/dangquan18/subme/models"
)

// isInteractive reports whether prompts can be shown
var isInteractive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// createTheme builds the prompt theme from the shared palette
func createTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = t.Focused.Title.Foreground(render.Primary).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(render.Muted)
	t.Focused.TextInput.Cursor = t.Focused.TextInput.Cursor.Foreground(render.Primary)
	t.Focused.TextInput.Prompt = t.Focused.TextInput.Prompt.Foreground(render.Primary)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(render.Primary)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(render.Secondary)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(render.Danger)
	t.Focused.ErrorIndicator = t.Focused.ErrorIndicator.Foreground(render.Danger)
	t.Focused.Base = t.Focused.Base.BorderForeground(lipgloss.Color("238"))

	t.Blurred.Title = t.Blurred.Title.Foreground(render.Muted)
	t.Blurred.TextInput.Prompt = t.Blurred.TextInput.Prompt.Foreground(render.Muted)

	return t
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return errors.New("enter a valid email address")
	}
	return nil
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

// promptCredentials asks for whichever of email and password is missing
func promptCredentials(ctx context.Context, email, password *string) error {
	var fields []huh.Field
	if *email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Value(email).
			Validate(validateEmail))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(password).
			Validate(validateRequired("password")))
	}
	if len(fields) == 0 {
		return nil
	}
	form := huh.NewForm(huh.NewGroup(fields...)).WithTheme(createTheme())
	return form.RunWithContext(ctx)
}

// promptSignup fills missing signup fields. The business name group is
// shown only for vendor accounts.
func promptSignup(ctx context.Context, req *models.SignupRequest) error {
	role := string(req.Role)
	if role == "" {
		role = string(models.RoleUser)
	}

	account := []huh.Field{}
	if req.Email == "" {
		account = append(account, huh.NewInput().Title("Email").Value(&req.Email).Validate(validateEmail))
	}
	if req.Password == "" {
		account = append(account, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&req.Password).
			Validate(validateRequired("password")))
	}
	if req.Name == "" {
		account = append(account, huh.NewInput().Title("Name").Value(&req.Name).Validate(validateRequired("name")))
	}
	if req.Role == "" {
		account = append(account, huh.NewSelect[string]().
			Title("Account type").
			Options(
				huh.NewOption("Customer", string(models.RoleUser)),
				huh.NewOption("Vendor", string(models.RoleVendor)),
			).
			Value(&role))
	}

	groups := []*huh.Group{}
	if len(account) > 0 {
		groups = append(groups, huh.NewGroup(account...).Title("Create your SubMe account"))
	}
	if req.BusinessName == "" {
		groups = append(groups, huh.NewGroup(
			huh.NewInput().Title("Business name").Value(&req.BusinessName).Validate(validateRequired("business name")),
		).Title("Vendor details").WithHideFunc(func() bool {
			return role != string(models.RoleVendor)
		}))
	}
	if len(groups) > 0 {
		if err := huh.NewForm(groups...).WithTheme(createTheme()).RunWithContext(ctx); err != nil {
			return err
		}
	}
	req.Role = models.Role(role)
	return nil
}
