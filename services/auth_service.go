package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/websitedesigna/tastygrill/common/auth"
	apperrors "github.com/websitedesigna/tastygrill/common/errors"
	"github.com/websitedesigna/tastygrill/common/validation"
	"github.com/websitedesigna/tastygrill/models"
	"github.com/websitedesigna/tastygrill/repository"
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrPasswordNoLetter = errors.New("password must contain at least one letter")
	ErrPasswordNoNumber = errors.New("password must contain at least one number")
)

// TokenDenylist tracks revoked token ids.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type RegisterInput struct {
	Email    string `json:"email" binding:"required" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type ProfileInput struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type AuthService struct {
	users    repository.UserRepository
	tokens   *auth.TokenManager
	denylist TokenDenylist
	log      *zap.Logger
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, denylist TokenDenylist, log *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, denylist: denylist, log: log}
}

// ValidatePassword enforces the minimum password rules.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	var hasLetter, hasNumber bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasNumber = true
		}
	}
	if !hasLetter {
		return ErrPasswordNoLetter
	}
	if !hasNumber {
		return ErrPasswordNoNumber
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	email := in.Email
	problems := validation.Struct(in)
	if _, bad := problems["password"]; !bad {
		if err := ValidatePassword(in.Password); err != nil {
			problems["password"] = err.Error()
		}
	}
	if len(problems) > 0 {
		return nil, apperrors.Validation(problems)
	}

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil, apperrors.Conflict("An account with this email already exists", nil)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("Failed to create account", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to create account", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         models.RoleCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.Internal("Failed to create account", err)
	}
	s.log.Info("user registered", zap.String("user_id", user.ID.String()))
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized("Invalid email or password")
		}
		return nil, apperrors.Internal("Failed to sign in", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, claims, err := s.tokens.Issue(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token", err)
	}
	return &AuthResult{Token: token, ExpiresAt: claims.ExpiresAt, User: user}, nil
}

// Authenticate validates an access token and rejects revoked ones.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.Parse(token, auth.TokenTypeAccess)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid or expired token")
	}
	if claims.TokenID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			return nil, apperrors.Internal("Failed to verify token", err)
		}
		if revoked {
			return nil, apperrors.Unauthorized("Session has ended. Please sign in again.")
		}
	}
	return claims, nil
}

// Logout revokes the token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.TokenID == "" {
		return nil
	}
	if err := s.denylist.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return apperrors.Internal("Failed to sign out", err)
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("User not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load profile", err)
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*models.User, error) {
	err := s.users.UpdateProfile(ctx, userID,
		strings.TrimSpace(in.FullName),
		strings.TrimSpace(in.Phone),
		strings.TrimSpace(in.Address),
	)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("User not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to update profile", err)
	}
	return s.Me(ctx, userID)
}
