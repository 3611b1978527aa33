package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"scentara/internal/model"
)

func (a *App) signUp(ctx context.Context) {
	email := a.readLine("Email: ")
	password, err := a.readPassword("Password: ")
	if err != nil {
		fmt.Printf("Could not read password: %v\n", err)
		return
	}

	if err := a.session.SignUp(ctx, email, password); err != nil {
		fmt.Printf("Sign-up failed: %v\n", err)
		return
	}
	fmt.Println("Account created. Complete your profile with 'profile complete'.")
}

func (a *App) signIn(ctx context.Context) {
	email := a.readLine("Email: ")
	password, err := a.readPassword("Password: ")
	if err != nil {
		fmt.Printf("Could not read password: %v\n", err)
		return
	}

	if err := a.session.SignIn(ctx, email, password); err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			fmt.Println("Invalid email or password.")
			return
		}
		fmt.Printf("Sign-in failed: %v\n", err)
		return
	}
	fmt.Println("Signed in.")
}

func (a *App) signOut(ctx context.Context) {
	a.session.SignOut(ctx)
	fmt.Println("Signed out.")
}

func (a *App) resetPassword(ctx context.Context) {
	email := a.readLine("Email: ")
	if err := a.session.ResetPassword(ctx, email); err != nil {
		fmt.Printf("Recovery request failed: %v\n", err)
		return
	}
	fmt.Println("Recovery email sent if the address is registered.")
}

func (a *App) whoAmI() {
	identity := a.session.Identity()
	if identity == nil {
		fmt.Println("Not signed in.")
		return
	}
	fmt.Printf("%s (%s)\n", identity.Email, identity.ID)
	fmt.Printf("Profile: %s\n", a.flow.ProfileState())
}

// readPassword reads without echo when stdin is a terminal, and falls back
// to a plain line read otherwise so piped input keeps working.
func (a *App) readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	if !term.IsTerminal(int(syscall.Stdin)) {
		return a.readLine(""), nil
	}

	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stdout)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
