// ABOUTME: Session commands: login, signup, logout, whoami, reload and profile
// ABOUTME: Every command routes the resulting user through auth.RouteFor

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dangquan18/subme/internal/auth"
	"github.com/dangquan18/subme/internal/render"
	"github.com/dangquan18/subme/models"
)

var (
	loginEmail    string
	loginPassword string

	signupReq  models.SignupRequest
	signupRole string

	profileName    string
	profilePhone   string
	profileAddress string
	profileAvatar  string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to SubMe",
	Long: `Signs in with email and password and stores the session locally.

Missing credentials are prompted for when running in a terminal.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			if loginEmail == "" || loginPassword == "" {
				if !isInteractive() {
					fmt.Fprintln(os.Stdout, "Error: --email and --password are required when not running in a terminal")
					return exitError
				}
				if err := promptCredentials(ctx, &loginEmail, &loginPassword); err != nil {
					fmt.Fprintf(os.Stdout, "Error: %v\n", err)
					return exitError
				}
			}
			return runLogin(ctx, os.Stdout, loginEmail, loginPassword)
		})
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a customer or vendor account",
	Long: `Registers a new account and signs in.

Vendor accounts must be approved by an admin before vendor commands work.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			req := signupReq
			if signupRole != "" {
				role, err := models.ParseRole(signupRole)
				if err != nil || role == models.RoleAdmin {
					fmt.Fprintf(os.Stdout, "Error: --role must be user or vendor, got %q\n", signupRole)
					return exitError
				}
				req.Role = role
			}
			if needsSignupPrompt(req) {
				if !isInteractive() {
					fmt.Fprintln(os.Stdout, "Error: --email, --password and --name are required when not running in a terminal")
					return exitError
				}
				if err := promptSignup(ctx, &req); err != nil {
					fmt.Fprintf(os.Stdout, "Error: %v\n", err)
					return exitError
				}
			}
			return runSignup(ctx, os.Stdout, req)
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the stored session",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int { return runLogout(ctx, os.Stdout) })
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and where they are routed",
	Long: `Shows the locally stored session without contacting the backend.

Exits 1 when no valid session is stored.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int { return runWhoami(ctx, os.Stdout) })
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Refresh the session user and vendor approval status",
	Long: `Re-reads the stored session and, for vendors, fetches the current
approval status from the backend. Use it after an admin approves a vendor.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int { return runReload(ctx, os.Stdout) })
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the profile stored by the backend",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int { return runProfile(ctx, os.Stdout) })
	},
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update name, phone, address or avatar",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			upd := models.ProfileUpdate{}
			if cmd.Flags().Changed("name") {
				upd.Name = &profileName
			}
			if cmd.Flags().Changed("phone") {
				upd.Phone = &profilePhone
			}
			if cmd.Flags().Changed("address") {
				upd.Address = &profileAddress
			}
			if cmd.Flags().Changed("avatar") {
				upd.Avatar = &profileAvatar
			}
			return runProfileUpdate(ctx, os.Stdout, upd)
		})
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")

	signupCmd.Flags().StringVar(&signupReq.Email, "email", "", "Account email")
	signupCmd.Flags().StringVar(&signupReq.Password, "password", "", "Account password")
	signupCmd.Flags().StringVar(&signupReq.Name, "name", "", "Display name")
	signupCmd.Flags().StringVar(&signupRole, "role", "", "Account type: user or vendor (default user)")
	signupCmd.Flags().StringVar(&signupReq.Phone, "phone", "", "Phone number")
	signupCmd.Flags().StringVar(&signupReq.Address, "address", "", "Delivery address")
	signupCmd.Flags().StringVar(&signupReq.BusinessName, "business-name", "", "Business name (vendors)")

	profileUpdateCmd.Flags().StringVar(&profileName, "name", "", "Display name")
	profileUpdateCmd.Flags().StringVar(&profilePhone, "phone", "", "Phone number")
	profileUpdateCmd.Flags().StringVar(&profileAddress, "address", "", "Delivery address")
	profileUpdateCmd.Flags().StringVar(&profileAvatar, "avatar", "", "Avatar URL")
	profileCmd.AddCommand(profileUpdateCmd)

	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, whoamiCmd, reloadCmd, profileCmd)
}

func needsSignupPrompt(req models.SignupRequest) bool {
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return true
	}
	return req.Role == models.RoleVendor && req.BusinessName == ""
}

// sessionView is the JSON shape of session-related commands
type sessionView struct {
	State     string           `json:"state"`
	Route     auth.Destination `json:"route"`
	User      *models.User     `json:"user,omitempty"`
	ExpiresIn string           `json:"expires_in,omitempty"`
}

func newSessionView(snap auth.Snapshot, expiresIn time.Duration) sessionView {
	v := sessionView{State: snap.State.String(), Route: auth.RouteFor(snap.User), User: snap.User}
	if expiresIn > 0 {
		v.ExpiresIn = expiresIn.Round(time.Second).String()
	}
	return v
}

func runLogin(ctx context.Context, w io.Writer, email, password string) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	user, err := a.Auth.SignIn(ctx, email, password)
	if err != nil {
		return fail(w, err)
	}
	return output(w, newSessionView(a.Auth.Snapshot(), a.Sessions.ExpiresIn(ctx)), func() string {
		return formatSignedIn(user)
	})
}

func runSignup(ctx context.Context, w io.Writer, req models.SignupRequest) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	user, err := a.Auth.SignUp(ctx, req)
	if err != nil {
		return fail(w, err)
	}
	return output(w, newSessionView(a.Auth.Snapshot(), a.Sessions.ExpiresIn(ctx)), func() string {
		return formatSignedIn(user)
	})
}

func runLogout(ctx context.Context, w io.Writer) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if err := a.Auth.SignOut(ctx); err != nil {
		return fail(w, err)
	}
	return output(w, newSessionView(a.Auth.Snapshot(), 0), func() string {
		return render.SuccessStyle.Render(render.CheckOK.String() + " Signed out")
	})
}

func runWhoami(ctx context.Context, w io.Writer) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	snap := a.Auth.Snapshot()
	code = output(w, newSessionView(snap, a.Sessions.ExpiresIn(ctx)), func() string {
		if snap.User == nil {
			return "Not signed in. Run 'subme login' to sign in."
		}
		return formatUser(snap.User, a.Sessions.ExpiresIn(ctx))
	})
	if code == exitOK && snap.State != auth.StateAuthenticated {
		return exitRejected
	}
	return code
}

func runReload(ctx context.Context, w io.Writer) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	user, err := a.Auth.Reload(ctx)
	if err != nil {
		return fail(w, err)
	}
	if user == nil {
		return fail(w, auth.ErrNotAuthenticated)
	}
	return output(w, newSessionView(a.Auth.Snapshot(), a.Sessions.ExpiresIn(ctx)), func() string {
		return formatUser(user, a.Sessions.ExpiresIn(ctx))
	})
}

func runProfile(ctx context.Context, w io.Writer) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireUser(w, a); code != exitOK {
		return code
	}
	user, err := a.API.Auth.Me(ctx)
	if err != nil {
		return fail(w, err)
	}
	return output(w, user, func() string { return formatProfile(user) })
}

func runProfileUpdate(ctx context.Context, w io.Writer, upd models.ProfileUpdate) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	current, code := requireUser(w, a)
	if current == nil {
		return code
	}
	if upd == (models.ProfileUpdate{}) {
		fmt.Fprintln(w, "Error: nothing to update; pass at least one of --name, --phone, --address, --avatar")
		return exitError
	}
	user, err := a.API.Auth.UpdateProfile(ctx, upd)
	if err != nil {
		return fail(w, err)
	}

	// Keep the stored snapshot in step with the backend
	merged := user.Clone()
	merged.ID = current.ID
	merged.Role = current.Role
	merged.Merge(current)
	a.Sessions.SaveUser(ctx, merged)

	return output(w, user, func() string {
		return render.SuccessStyle.Render(render.CheckOK.String()+" Profile updated") + "\n\n" + formatProfile(user)
	})
}

func formatSignedIn(user *models.User) string {
	var b strings.Builder
	name := user.Name
	if name == "" {
		name = user.Email
	}
	b.WriteString(render.SuccessStyle.Render(fmt.Sprintf("%s Signed in as %s (%s)", render.CheckOK, name, user.Role)))
	b.WriteString("\n")
	b.WriteString(routeHint(auth.RouteFor(user)))
	return b.String()
}

func formatUser(user *models.User, expiresIn time.Duration) string {
	fields := []render.Field{
		{Label: "Email", Value: user.Email},
		{Label: "Name", Value: render.Plain(user.Name)},
		{Label: "Role", Value: string(user.Role)},
	}
	if user.IsVendor() {
		fields = append(fields,
			render.Field{Label: "Business", Value: render.Plain(user.BusinessName)},
			render.Field{Label: "Vendor status", Value: render.VendorBadge(user.Status)},
		)
	}
	if expiresIn > 0 {
		fields = append(fields, render.Field{Label: "Session expires", Value: "in " + expiresIn.Round(time.Minute).String()})
	}
	return render.Heading("Signed in") + "\n" + render.Fields(fields...) + "\n\n" + routeHint(auth.RouteFor(user))
}

func formatProfile(user *models.User) string {
	return render.Heading("Profile") + "\n" + render.Fields(
		render.Field{Label: "ID", Value: user.ID.String()},
		render.Field{Label: "Email", Value: user.Email},
		render.Field{Label: "Name", Value: render.Plain(user.Name)},
		render.Field{Label: "Role", Value: string(user.Role)},
		render.Field{Label: "Phone", Value: user.Phone},
		render.Field{Label: "Address", Value: render.Plain(user.Address)},
		render.Field{Label: "Avatar", Value: user.Avatar},
	)
}

// routeHint describes the destination in terms of commands
func routeHint(dest auth.Destination) string {
	switch dest {
	case auth.DestCustomerHome:
		return render.InfoIcon.String() + " Browse plans with 'subme packages list' and manage them with 'subme subscriptions list'."
	case auth.DestVendorHome:
		return render.Store.String() + " Vendor dashboard: 'subme vendor dashboard'."
	case auth.DestVendorPending:
		return render.StatusText(render.WarningIcon.String()+" Your vendor account is awaiting admin approval. Run 'subme reload' to check again.", render.StatusWarning)
	case auth.DestVendorRejected:
		return render.StatusText(render.Critical.String()+" Your vendor account was rejected. Contact support for details.", render.StatusCritical)
	case auth.DestAdminHome:
		return render.Shield.String() + " Review pending vendors with 'subme admin vendors'."
	default:
		return "Run 'subme login' to sign in."
	}
}
