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

type EntryHandler struct {
	entryService *service.EntryService
	tokens       *security.TokenService
}

func NewEntryHandler(es *service.EntryService, tokens *security.TokenService) *EntryHandler {
	return &EntryHandler{entryService: es, tokens: tokens}
}

func (h *EntryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listEntries)                  // GET /api/entries?page=&limit=&status=&search=
	r.Post("/", h.createEntry)                 // POST /api/entries
	r.Get("/{entryID}", h.getEntry)            // GET /api/entries/{id}
	r.Put("/{entryID}", h.updateEntry)         // PUT /api/entries/{id}
	r.Patch("/{entryID}", h.updateEntryStatus) // PATCH /api/entries/{id}
	r.Delete("/{entryID}", h.deleteEntry)      // DELETE /api/entries/{id}
}

func (h *EntryHandler) createEntry(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.Identify(h.tokens, r)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	var req service.CreateEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	entry, err := h.entryService.Create(r.Context(), actor, req)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, entry)
}

func (h *EntryHandler) listEntries(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.Identify(h.tokens, r)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	q := r.URL.Query()
	page, err := h.entryService.List(r.Context(), actor, service.ListEntriesRequest{
		Status:     model.EntryStatus(q.Get("status")),
		Search:     q.Get("search"),
		Pagination: common.ParsePagination(q),
	})
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, page)
}

func (h *EntryHandler) getEntry(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.Identify(h.tokens, r)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	entry, err := h.entryService.Get(r.Context(), actor, chi.URLParam(r, "entryID"))
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entry)
}

func (h *EntryHandler) updateEntry(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.Identify(h.tokens, r)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	id := chi.URLParam(r, "entryID")
	if err := h.entryService.AuthorizeUpdate(r.Context(), actor, id); err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	var req service.UpdateEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	entry, err := h.entryService.Update(r.Context(), actor, id, req)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entry)
}

func (h *EntryHandler) updateEntryStatus(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.Identify(h.tokens, r)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	if err := h.entryService.AuthorizeStatusUpdate(actor); err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	var req service.UpdateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	entry, err := h.entryService.UpdateStatus(r.Context(), actor, chi.URLParam(r, "entryID"), req)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entry)
}

func (h *EntryHandler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.Identify(h.tokens, r)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	if err := h.entryService.Delete(r.Context(), actor, chi.URLParam(r, "entryID")); err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Entry deleted successfully")
}
