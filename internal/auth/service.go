package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"reviewme/internal/apperr"
	"reviewme/pkg/models"
)

const msgAllFieldsRequired = "All fields are required"

type SignUpInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the outcome of a successful sign-in.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// Service is the sign-up / sign-in flow. It holds no per-request state.
type Service struct {
	Users  UserStore
	Hasher Hasher
	Tokens TokenService

	now func() time.Time
}

func NewService(users UserStore, hasher Hasher, tokens TokenService) *Service {
	return &Service{Users: users, Hasher: hasher, Tokens: tokens, now: time.Now}
}

func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*models.User, error) {
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	email := normalizeEmail(in.Email)
	if firstName == "" || lastName == "" || email == "" || in.Password == "" {
		return nil, apperr.Validation(msgAllFieldsRequired)
	}
	if len(in.Password) > MaxPasswordBytes {
		return nil, apperr.Validation(fmt.Sprintf("Password must be at most %d bytes", MaxPasswordBytes))
	}

	existing, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("Email already exists")
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperr.Validation(fmt.Sprintf("Password must be at most %d bytes", MaxPasswordBytes))
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock()
	u := &models.User{
		ID:           uuid.NewString(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		// lost a race with a concurrent sign-up for the same email
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, apperr.Conflict("Email already exists")
		}
		return nil, fmt.Errorf("sign up: %w", err)
	}
	return u, nil
}

// SignIn verifies the credentials and mints a session token. Unknown email
// and wrong password are reported with different errors.
func (s *Service) SignIn(ctx context.Context, in SignInInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperr.Validation(msgAllFieldsRequired)
	}

	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if u == nil {
		return nil, apperr.NotFound("User not found")
	}
	if !s.Hasher.Compare(u.PasswordHash, in.Password) {
		return nil, apperr.Unauthorized("Invalid password")
	}

	token, exp, err := s.Tokens.Sign(u)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token, ExpiresAt: exp}, nil
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}
