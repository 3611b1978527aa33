// Package profile implements the profile completion workflow: every
// authenticated identity must have a profile record before the collection
// features unlock, and a missing record is created through a one-time form.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"scentara/internal/gateway"
	"scentara/internal/model"
)

// State of the completion workflow for the current identity.
type State int

const (
	StateChecking State = iota
	StateNeedsCompletion
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateNeedsCompletion:
		return "needs_completion"
	case StateComplete:
		return "complete"
	}
	return "unknown"
}

const (
	usernameMinLen = 3
	usernameMaxLen = 20

	ageMin = 13
	ageMax = 120
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

var (
	ErrUsernameLength  = errors.New("username must be 3-20 characters")
	ErrUsernameCharset = errors.New("username may contain only letters, digits, and underscores")
	ErrAgeRange        = errors.New("age must be between 13 and 120")
	ErrAgeNotANumber   = errors.New("age must be a number")
	ErrCountryRequired = errors.New("country is required")
	ErrInvalidGender   = errors.New("gender must be male, female, or other")
)

// Input is the profile form as submitted by the user.
type Input struct {
	Username string
	Gender   *string
	Age      *int
	Country  string
}

type Service struct {
	profiles gateway.ProfileGateway
	log      *slog.Logger

	mu      sync.Mutex
	state   State
	current *model.Profile
}

func NewService(profiles gateway.ProfileGateway, logger *slog.Logger) *Service {
	return &Service{
		profiles: profiles,
		log:      logger,
		state:    StateChecking,
	}
}

// Check resolves the workflow state for a freshly signed-in identity. A
// missing profile means the form must be shown; any other failure also lands
// on needs_completion so the flow never gets stuck behind a transient error.
func (s *Service) Check(ctx context.Context, identityID string) State {
	p, err := s.profiles.Get(ctx, identityID)
	if err != nil {
		if !errors.Is(err, model.ErrProfileNotFound) {
			s.log.Warn("profile check failed, assuming incomplete", "error", err)
		}
		return s.transition(StateNeedsCompletion, nil)
	}
	return s.transition(StateComplete, p)
}

// Submit validates the form and creates the profile record.
func (s *Service) Submit(ctx context.Context, identityID string, in Input) (*model.Profile, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validate(in); err != nil {
		return nil, err
	}

	available, err := s.profiles.UsernameAvailable(ctx, in.Username, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if !available {
		return nil, model.ErrUsernameTaken
	}

	country := in.Country
	p, err := s.profiles.Create(ctx, &model.Profile{
		ID:       identityID,
		Username: in.Username,
		Gender:   in.Gender,
		Age:      in.Age,
		Country:  &country,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.transition(StateComplete, p)
	return p, nil
}

// Update saves an edited profile in place. The username is re-validated and
// re-checked for availability only when it changed from the stored value;
// availability excludes the identity's own row.
func (s *Service) Update(ctx context.Context, in Input) (*model.Profile, error) {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	if current == nil {
		return nil, model.ErrProfileNotFound
	}

	in.Username = strings.TrimSpace(in.Username)
	if err := validate(in); err != nil {
		return nil, err
	}

	if in.Username != current.Username {
		available, err := s.profiles.UsernameAvailable(ctx, in.Username, current.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		if !available {
			return nil, model.ErrUsernameTaken
		}
	}

	country := in.Country
	p, err := s.profiles.Update(ctx, current.ID, model.ProfilePatch{
		Username: &in.Username,
		Gender:   in.Gender,
		Age:      in.Age,
		Country:  &country,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.transition(StateComplete, p)
	return p, nil
}

// Reset returns the workflow to checking. Called on sign-out so the next
// sign-in starts from scratch.
func (s *Service) Reset() {
	s.transition(StateChecking, nil)
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the stored profile, or nil before completion.
func (s *Service) Current() *model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Service) transition(state State, p *model.Profile) State {
	s.mu.Lock()
	s.state = state
	s.current = p
	s.mu.Unlock()
	return state
}

func validate(in Input) error {
	if err := ValidateUsername(in.Username); err != nil {
		return err
	}
	if in.Age != nil {
		if err := ValidateAge(*in.Age); err != nil {
			return err
		}
	}
	if strings.TrimSpace(in.Country) == "" {
		return ErrCountryRequired
	}
	if in.Gender != nil {
		switch *in.Gender {
		case "male", "female", "other":
		default:
			return ErrInvalidGender
		}
	}
	return nil
}

// ValidateUsername checks length and charset. Availability is a separate,
// remote concern.
func ValidateUsername(username string) error {
	if len(username) < usernameMinLen || len(username) > usernameMaxLen {
		return ErrUsernameLength
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameCharset
	}
	return nil
}

// ValidateAge checks the allowed range, both bounds inclusive.
func ValidateAge(age int) error {
	if age < ageMin || age > ageMax {
		return ErrAgeRange
	}
	return nil
}

// ParseAge converts raw form input to an age. Empty input means "not
// provided" and returns nil.
func ParseAge(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	age, err := strconv.Atoi(raw)
	if err != nil {
		return nil, ErrAgeNotANumber
	}
	if err := ValidateAge(age); err != nil {
		return nil, err
	}
	return &age, nil
}
