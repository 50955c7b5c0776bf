package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"expense_tracker/internal/common"
	"expense_tracker/internal/common/security"
	"expense_tracker/internal/domain/model"
	"expense_tracker/internal/domain/repository"
	"expense_tracker/internal/platform/events"

	"github.com/google/uuid"
)

var (
	errInvalidCredentials = common.NewError(common.ErrUnauthorized, "Invalid credentials")
	errUserExists         = common.NewError(common.ErrConflict, "User already exists")
)

type AuthService struct {
	userRepo  repository.UserRepository
	tokens    *security.TokenService
	publisher events.Publisher
}

func NewAuthService(userRepo repository.UserRepository, tokens *security.TokenService, publisher events.Publisher) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens, publisher: publisher}
}

// RegisterRequest is the public sign-up payload. Role defaults to user.
type RegisterRequest struct {
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=6"`
	Role     model.Role `json:"role" validate:"omitempty,oneof=user manager"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token    string
	User     *model.User
	Redirect string
}

var loginMessages = common.Messages{
	"email":    "Email and password required",
	"password": "Email and password required",
}

// normalizeEmail lowercases and trims so lookups are case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := common.ValidateStruct(req, userMessages); err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}

	user, err := createUser(ctx, s.userRepo, req.Email, req.Password, req.Role)
	if err != nil {
		return nil, err
	}
	events.Emit(ctx, s.publisher, events.New(events.UserRegistered, user.ID, user.ID, userEventData(user)))
	return user, nil
}

// Login checks credentials and mints a token. Unknown email and wrong
// password produce the same error.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	req.Email = normalizeEmail(req.Email)
	if err := common.ValidateStruct(req, loginMessages); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, errInvalidCredentials
	}

	token, err := s.tokens.Issue(security.Claims{ID: user.ID, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &LoginResult{Token: token, User: user, Redirect: user.Role.DashboardPath()}, nil
}

// createUser hashes password and stores a new account. Shared by
// registration and manager-side creation.
func createUser(ctx context.Context, repo repository.UserRepository, email, password string, role model.Role) (*model.User, error) {
	hashedPassword, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:             uuid.NewString(),
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           role,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := repo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, errUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.HashedPassword = "" // Clear password before returning
	return user, nil
}

func userEventData(u *model.User) map[string]any {
	return map[string]any{"email": u.Email, "role": u.Role}
}
