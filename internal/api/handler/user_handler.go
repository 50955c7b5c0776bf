package handler

import (
	"net/http"

	"expense_tracker/internal/api/middleware"
	"expense_tracker/internal/app/service"
	"expense_tracker/internal/common"
	"expense_tracker/internal/common/security"
	"expense_tracker/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

// UserHandler serves account administration. Every route requires a manager;
// the service enforces it.
type UserHandler struct {
	userService *service.UserService
	tokens      *security.TokenService
}

func NewUserHandler(us *service.UserService, tokens *security.TokenService) *UserHandler {
	return &UserHandler{userService: us, tokens: tokens}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Post("/", h.createUser)
	r.Get("/{userID}", h.getUser)
	r.Put("/{userID}", h.updateUser)
	r.Delete("/{userID}", h.deleteUser)
}

func (h *UserHandler) createUser(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.Identify(h.tokens, r)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	var req service.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	user, err := h.userService.Create(r.Context(), actor, req)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.Identify(h.tokens, r)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	q := r.URL.Query()
	filter := model.UserFilter{Role: model.Role(q.Get("role"))}
	page, err := h.userService.List(r.Context(), actor, filter, common.ParsePagination(q))
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, page)
}

func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.Identify(h.tokens, r)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	user, err := h.userService.Get(r.Context(), actor, chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.Identify(h.tokens, r)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	var req service.UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	user, err := h.userService.Update(r.Context(), actor, chi.URLParam(r, "userID"), req)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.Identify(h.tokens, r)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	if err := h.userService.Delete(r.Context(), actor, chi.URLParam(r, "userID")); err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "User deleted successfully")
}
