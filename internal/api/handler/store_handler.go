package handler

import (
	"net/http"

	"codearena/internal/api/middleware"
	"codearena/internal/app/service"
	"codearena/internal/common"

	"github.com/go-chi/chi/v5"
)

type StoreHandler struct {
	storeService *service.StoreService
	seedEnabled  bool
}

func NewStoreHandler(ss *service.StoreService, seedEnabled bool) *StoreHandler {
	return &StoreHandler{storeService: ss, seedEnabled: seedEnabled}
}

func (h *StoreHandler) RegisterRoutes(r chi.Router) {
	// Development helper, unauthenticated but switchable off via config.
	r.Post("/seed", h.seed)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)
		authed.Get("/", h.listItems)
		authed.Get("/inventory", h.inventory)
		authed.Post("/buy", h.buy)
	})
}

func (h *StoreHandler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.storeService.ListItems(r.Context())
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, items)
}

func (h *StoreHandler) inventory(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	entries, err := h.storeService.Inventory(r.Context(), id.UserID)
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *StoreHandler) buy(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req service.BuyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}

	resp, err := h.storeService.Purchase(r.Context(), id.UserID, req.ItemID)
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

type seedResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

func (h *StoreHandler) seed(w http.ResponseWriter, r *http.Request) {
	if !h.seedEnabled {
		common.RespondWithError(w, http.StatusForbidden, "Store seeding is disabled")
		return
	}
	count, err := h.storeService.ReseedCatalog(r.Context())
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, seedResponse{Message: "Store seeded", Count: count})
}
