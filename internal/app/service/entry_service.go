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
	errEntryNotFound = common.NewError(common.ErrNotFound, "Entry not found")
	errCreateEntries = common.NewError(common.ErrForbidden, "Only users can create entries")
	errViewEntry     = common.NewError(common.ErrForbidden, "Forbidden")
	errUpdateEntry   = common.NewError(common.ErrForbidden, "You can only update your own entries")
	errDeleteEntry   = common.NewError(common.ErrForbidden, "You can only delete your own entries")
	errUpdateStatus  = common.NewError(common.ErrForbidden, "Only managers can update status")
	errUnknownCaller = common.NewError(common.ErrForbidden, "Forbidden")
	errGoneAccount   = common.NewError(common.ErrUnauthorized, "Unauthorized")
)

var entryMessages = common.Messages{
	"title.min": "Title must be at least 3 characters",
	"amount.gt": "Amount must be positive",
}

type EntryService struct {
	entryRepo repository.EntryRepository
	publisher events.Publisher
}

func NewEntryService(entryRepo repository.EntryRepository, publisher events.Publisher) *EntryService {
	return &EntryService{entryRepo: entryRepo, publisher: publisher}
}

type CreateEntryRequest struct {
	Title       string   `json:"title" validate:"required,min=3"`
	Description string   `json:"description"`
	Amount      *float64 `json:"amount" validate:"required,gt=0"`
}

type UpdateEntryRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=3"`
	Description *string  `json:"description,omitempty"`
	Amount      *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
}

type UpdateStatusRequest struct {
	Status model.EntryStatus `json:"status" validate:"required,oneof=pending approved rejected"`
}

// ListEntriesRequest carries the query string filters. Status is honoured
// only for managers.
type ListEntriesRequest struct {
	Status model.EntryStatus
	Search string
	common.Pagination
}

// canAccess reports whether actor may read or modify e.
func canAccess(actor security.Claims, e *model.Entry) bool {
	switch actor.Role {
	case model.RoleManager:
		return true
	case model.RoleUser:
		return e.OwnedBy(actor.ID)
	}
	return false
}

func (s *EntryService) Create(ctx context.Context, actor security.Claims, req CreateEntryRequest) (*model.Entry, error) {
	if actor.Role != model.RoleUser {
		return nil, errCreateEntries
	}
	if err := common.ValidateStruct(req, entryMessages); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := &model.Entry{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Amount:      *req.Amount,
		Status:      model.StatusPending,
		CreatedByID: actor.ID, // Always the caller
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.entryRepo.Create(ctx, entry); err != nil {
		// The token outlived its account.
		if errors.Is(err, common.ErrMissingReference) {
			return nil, errGoneAccount
		}
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}

	events.Emit(ctx, s.publisher, events.New(events.EntryCreated, actor.ID, entry.ID, map[string]any{
		"title":  entry.Title,
		"amount": entry.Amount,
	}))
	return entry, nil
}

func (s *EntryService) List(ctx context.Context, actor security.Claims, req ListEntriesRequest) (common.Paginated[model.Entry], error) {
	filter := model.EntryFilter{Search: strings.TrimSpace(req.Search)}
	switch actor.Role {
	case model.RoleUser:
		filter.CreatedByID = actor.ID
	case model.RoleManager:
		filter.Status = req.Status
	default:
		return common.Paginated[model.Entry]{}, errUnknownCaller
	}

	entries, total, err := s.entryRepo.List(ctx, filter, req.Limit, req.Offset())
	if err != nil {
		return common.Paginated[model.Entry]{}, fmt.Errorf("failed to list entries: %w", err)
	}
	return common.NewPaginated(entries, req.Pagination, total), nil
}

func (s *EntryService) find(ctx context.Context, id string) (*model.Entry, error) {
	entry, err := s.entryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, errEntryNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return entry, nil
}

func (s *EntryService) Get(ctx context.Context, actor security.Claims, id string) (*model.Entry, error) {
	entry, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(actor, entry) {
		return nil, errViewEntry
	}
	return entry, nil
}

// AuthorizeUpdate runs the existence and ownership checks of Update, so a
// handler can reject the caller before reading the body.
func (s *EntryService) AuthorizeUpdate(ctx context.Context, actor security.Claims, id string) error {
	current, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !canAccess(actor, current) {
		return errUpdateEntry
	}
	return nil
}

// Update changes title, description or amount. Existence is checked before
// ownership, ownership before the payload.
func (s *EntryService) Update(ctx context.Context, actor security.Claims, id string, req UpdateEntryRequest) (*model.Entry, error) {
	if err := s.AuthorizeUpdate(ctx, actor, id); err != nil {
		return nil, err
	}
	if err := common.ValidateStruct(req, entryMessages); err != nil {
		return nil, err
	}

	patch := model.EntryPatch{Title: req.Title, Description: req.Description, Amount: req.Amount}
	updated, err := s.entryRepo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, errEntryNotFound
		}
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}

	changed := map[string]any{}
	if req.Title != nil {
		changed["title"] = updated.Title
	}
	if req.Description != nil {
		changed["description"] = updated.Description
	}
	if req.Amount != nil {
		changed["amount"] = updated.Amount
	}
	events.Emit(ctx, s.publisher, events.New(events.EntryUpdated, actor.ID, updated.ID, changed))
	return updated, nil
}

// AuthorizeStatusUpdate rejects every caller that is not a manager.
func (s *EntryService) AuthorizeStatusUpdate(actor security.Claims) error {
	if actor.Role != model.RoleManager {
		return errUpdateStatus
	}
	return nil
}

// UpdateStatus is the manager review action. Role is checked first, then the
// payload, then existence.
func (s *EntryService) UpdateStatus(ctx context.Context, actor security.Claims, id string, req UpdateStatusRequest) (*model.Entry, error) {
	if err := s.AuthorizeStatusUpdate(actor); err != nil {
		return nil, err
	}
	if err := common.ValidateStruct(req, entryMessages); err != nil {
		return nil, err
	}

	updated, err := s.entryRepo.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, errEntryNotFound
		}
		return nil, fmt.Errorf("failed to update entry status: %w", err)
	}
	events.Emit(ctx, s.publisher, events.New(events.EntryStatusChanged, actor.ID, updated.ID, map[string]any{
		"status":        updated.Status,
		"created_by_id": updated.CreatedByID,
	}))
	return updated, nil
}

func (s *EntryService) Delete(ctx context.Context, actor security.Claims, id string) error {
	entry, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !canAccess(actor, entry) {
		return errDeleteEntry
	}
	if err := s.entryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return errEntryNotFound
		}
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	events.Emit(ctx, s.publisher, events.New(events.EntryDeleted, actor.ID, id, nil))
	return nil
}
