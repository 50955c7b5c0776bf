package service

import (
	"context"
	"errors"
	"fmt"

	"expense_tracker/internal/common"
	"expense_tracker/internal/common/security"
	"expense_tracker/internal/domain/model"
	"expense_tracker/internal/domain/repository"
	"expense_tracker/internal/platform/events"
)

var (
	errUserNotFound = common.NewError(common.ErrNotFound, "User not found")
	errEmailInUse   = common.NewError(common.ErrConflict, "Email already in use")
	errDeleteSelf   = common.NewError(common.ErrBadRequest, "You cannot delete your own account")
	errCreateUsers  = common.NewError(common.ErrForbidden, "Only managers can create users")
	errViewUsers    = common.NewError(common.ErrForbidden, "Only managers can view users")
	errUpdateUsers  = common.NewError(common.ErrForbidden, "Only managers can update users")
	errDeleteUsers  = common.NewError(common.ErrForbidden, "Only managers can delete users")
)

var userMessages = common.Messages{
	"email":    "Invalid email address",
	"password": "Password must be at least 6 characters",
}

// UserService is the manager-only account administration surface.
type UserService struct {
	userRepo  repository.UserRepository
	publisher events.Publisher
}

func NewUserService(userRepo repository.UserRepository, publisher events.Publisher) *UserService {
	return &UserService{userRepo: userRepo, publisher: publisher}
}

type CreateUserRequest struct {
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=6"`
	Role     model.Role `json:"role" validate:"omitempty,oneof=user manager"`
}

type UpdateUserRequest struct {
	Email    *string     `json:"email,omitempty" validate:"omitempty,email"`
	Password *string     `json:"password,omitempty" validate:"omitempty,min=6"`
	Role     *model.Role `json:"role,omitempty" validate:"omitempty,oneof=user manager"`
}

func (s *UserService) Create(ctx context.Context, actor security.Claims, req CreateUserRequest) (*model.User, error) {
	if actor.Role != model.RoleManager {
		return nil, errCreateUsers
	}
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
	events.Emit(ctx, s.publisher, events.New(events.UserCreated, actor.ID, user.ID, userEventData(user)))
	return user, nil
}

func (s *UserService) List(ctx context.Context, actor security.Claims, filter model.UserFilter, p common.Pagination) (common.Paginated[model.User], error) {
	if actor.Role != model.RoleManager {
		return common.Paginated[model.User]{}, errViewUsers
	}
	users, total, err := s.userRepo.List(ctx, filter, p.Limit, p.Offset())
	if err != nil {
		return common.Paginated[model.User]{}, fmt.Errorf("failed to list users: %w", err)
	}
	return common.NewPaginated(users, p, total), nil
}

func (s *UserService) Get(ctx context.Context, actor security.Claims, id string) (*model.User, error) {
	if actor.Role != model.RoleManager {
		return nil, errViewUsers
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, actor security.Claims, id string, req UpdateUserRequest) (*model.User, error) {
	if actor.Role != model.RoleManager {
		return nil, errUpdateUsers
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
	}
	if err := common.ValidateStruct(req, userMessages); err != nil {
		return nil, err
	}

	patch := model.UserPatch{Email: req.Email, Role: req.Role}
	if req.Password != nil {
		hashed, err := security.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		patch.HashedPassword = &hashed
	}

	user, err := s.userRepo.Update(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			return nil, errUserNotFound
		case errors.Is(err, common.ErrConflict):
			return nil, errEmailInUse
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	changed := map[string]any{}
	if req.Email != nil {
		changed["email"] = user.Email
	}
	if req.Role != nil {
		changed["role"] = user.Role
	}
	if req.Password != nil {
		changed["password_changed"] = true
	}
	events.Emit(ctx, s.publisher, events.New(events.UserUpdated, actor.ID, user.ID, changed))
	return user, nil
}

// Delete removes an account and, through the store, its entries. A manager
// cannot remove their own account.
func (s *UserService) Delete(ctx context.Context, actor security.Claims, id string) error {
	if actor.Role != model.RoleManager {
		return errDeleteUsers
	}
	if id == actor.ID {
		return errDeleteSelf
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return errUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	events.Emit(ctx, s.publisher, events.New(events.UserDeleted, actor.ID, id, nil))
	return nil
}
