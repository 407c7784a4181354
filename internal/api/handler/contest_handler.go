package handler

import (
	"net/http"

	"codearena/internal/api/middleware"
	"codearena/internal/app/service"
	"codearena/internal/common"

	"github.com/go-chi/chi/v5"
)

type ContestHandler struct {
	contestService *service.ContestService
}

func NewContestHandler(cs *service.ContestService) *ContestHandler {
	return &ContestHandler{contestService: cs}
}

func (h *ContestHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{contestID}", h.get)
	r.With(middleware.Authenticator).Post("/{contestID}/register", h.register)
	r.With(middleware.Authenticator, middleware.AdminOnly).Post("/", h.create)
}

func (h *ContestHandler) list(w http.ResponseWriter, r *http.Request) {
	contests, err := h.contestService.List(r.Context())
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, contests)
}

func (h *ContestHandler) get(w http.ResponseWriter, r *http.Request) {
	contest, err := h.contestService.Get(r.Context(), chi.URLParam(r, "contestID"))
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, contest)
}

func (h *ContestHandler) create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateContestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	contest, err := h.contestService.Create(r.Context(), req)
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, contest)
}

func (h *ContestHandler) register(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	res, err := h.contestService.Register(r.Context(), chi.URLParam(r, "contestID"), id.UserID)
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}
