package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"people-search/internal/domain"
	"people-search/internal/handle"
	"people-search/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRegistrationPassword indicates the registration secret is incorrect.
	ErrInvalidRegistrationPassword = errors.New("invalid registration password")
	// ErrUserAlreadyExists is returned when registering a handle that is taken.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidHandle wraps a handle format violation.
	ErrInvalidHandle = errors.New("invalid handle")
)

// HandleCheck is the outcome of an availability probe.
type HandleCheck struct {
	Handle      string
	Violation   handle.Violation
	Available   bool
	Suggestions []string
}

// UserService describes account lifecycle operations.
type UserService interface {
	Register(ctx context.Context, handle, displayName, password, providedSecret string) (*domain.User, error)
	Authenticate(ctx context.Context, handle, password string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// CheckHandle validates format and probes availability. A format
	// violation other than reserved leaves Available false with no
	// suggestions; reserved and taken handles get alternatives that are
	// themselves unclaimed.
	CheckHandle(ctx context.Context, h string) (HandleCheck, error)
}

type userService struct {
	users          repository.UserRepository
	registerSecret string
	now            func() time.Time
}

func NewUserService(users repository.UserRepository, registerSecret string) UserService {
	return &userService{
		users:          users,
		registerSecret: strings.TrimSpace(registerSecret),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *userService) Register(ctx context.Context, rawHandle, displayName, password, providedSecret string) (*domain.User, error) {
	rawHandle = strings.TrimSpace(rawHandle)
	displayName = strings.TrimSpace(displayName)
	password = strings.TrimSpace(password)
	providedSecret = strings.TrimSpace(providedSecret)

	if v := handle.Validate(strings.ToLower(rawHandle)); v != handle.ViolationNone {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, v.Message())
	}
	if password == "" {
		return nil, errors.New("password is required")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}
	if s.registerSecret == "" {
		return nil, fmt.Errorf("registration secret is not configured")
	}
	if subtle.ConstantTimeCompare([]byte(providedSecret), []byte(s.registerSecret)) != 1 {
		return nil, ErrInvalidRegistrationPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		SearchUser: domain.SearchUser{
			ID:            uuid.NewString(),
			Handle:        strings.ToLower(rawHandle),
			DisplayHandle: rawHandle,
			DisplayName:   displayName,
			Status:        domain.UserStatusActive,
			LastActiveAt:  s.now(),
		},
		PasswordHash: string(hash),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrHandleTaken) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, rawHandle, password string) (*domain.User, error) {
	rawHandle = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rawHandle), "@"))
	password = strings.TrimSpace(password)
	if rawHandle == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByHandle(ctx, rawHandle)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// A successful login feeds the recency ranking signal.
	if err := s.users.UpdateLastActive(ctx, user.ID); err != nil {
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) CheckHandle(ctx context.Context, h string) (HandleCheck, error) {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(h), "@")))
	check := HandleCheck{Handle: h}

	v := handle.Validate(h)
	check.Violation = v
	if v != handle.ViolationNone && v != handle.ViolationReserved {
		return check, nil
	}

	if v == handle.ViolationNone {
		exists, err := s.users.HandleExists(ctx, h)
		if err != nil {
			return check, err
		}
		if !exists {
			check.Available = true
			return check, nil
		}
	}

	// Reserved or taken: offer unclaimed alternatives.
	suggestions, err := s.availableSuggestions(ctx, h)
	if err != nil {
		return check, err
	}
	check.Suggestions = suggestions
	return check, nil
}

// availableSuggestions filters generated candidates against the store so a
// taken suggestion is never surfaced.
func (s *userService) availableSuggestions(ctx context.Context, base string) ([]string, error) {
	var out []string
	for _, candidate := range handle.Suggest(base, s.now()) {
		if len(out) == handle.SuggestionCount {
			break
		}
		taken, err := s.users.HandleExists(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if !taken {
			out = append(out, candidate)
		}
	}
	return out, nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	clean := *user
	clean.PasswordHash = ""
	return &clean
}
