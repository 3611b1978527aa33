package cli

import (
	"context"
	"fmt"

	"scentara/internal/profile"
)

func (a *App) profileCmd(ctx context.Context, args []string) {
	if a.session.Identity() == nil {
		fmt.Println("Sign in first.")
		return
	}

	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "show":
		a.profileShow()
	case "complete":
		a.profileComplete(ctx)
	case "edit":
		a.profileEdit(ctx)
	default:
		fmt.Println("Usage: profile show|complete|edit")
	}
}

func (a *App) profileShow() {
	p := a.profiles.Current()
	if p == nil {
		fmt.Printf("Profile state: %s. Run 'profile complete'.\n", a.flow.ProfileState())
		return
	}

	fmt.Printf("Username: %s\n", p.Username)
	if p.Gender != nil {
		fmt.Printf("Gender:   %s\n", *p.Gender)
	}
	if p.Age != nil {
		fmt.Printf("Age:      %d\n", *p.Age)
	}
	if p.Country != nil {
		fmt.Printf("Country:  %s\n", *p.Country)
	}
}

func (a *App) profileComplete(ctx context.Context) {
	if a.flow.ProfileState() == profile.StateComplete {
		fmt.Println("Profile is already complete. Use 'profile edit'.")
		return
	}

	in, ok := a.readProfileForm()
	if !ok {
		return
	}

	if err := a.flow.CompleteProfile(ctx, in); err != nil {
		fmt.Printf("Could not save profile: %v\n", err)
		return
	}
	fmt.Println("Profile saved. Your collections are ready.")
}

func (a *App) profileEdit(ctx context.Context) {
	if a.profiles.Current() == nil {
		fmt.Println("No profile yet. Run 'profile complete'.")
		return
	}

	in, ok := a.readProfileForm()
	if !ok {
		return
	}

	if _, err := a.profiles.Update(ctx, in); err != nil {
		fmt.Printf("Could not update profile: %v\n", err)
		return
	}
	fmt.Println("Profile updated.")
}

func (a *App) readProfileForm() (profile.Input, bool) {
	in := profile.Input{
		Username: a.readLine("Username: "),
	}

	if err := profile.ValidateUsername(in.Username); err != nil {
		fmt.Println(err)
		return in, false
	}

	gender := a.readLine("Gender (male/female/other, empty to skip): ")
	if gender != "" {
		in.Gender = &gender
	}

	age, err := profile.ParseAge(a.readLine("Age (empty to skip): "))
	if err != nil {
		fmt.Println(err)
		return in, false
	}
	in.Age = age

	in.Country = a.readLine("Country: ")
	return in, true
}
