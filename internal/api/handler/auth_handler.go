package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"codearena/internal/api/middleware"
	"codearena/internal/app/service"
	"codearena/internal/common"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService   *service.AuthService
	ledgerService *service.LedgerService
}

func NewAuthHandler(authService *service.AuthService, ledgerService *service.LedgerService) *AuthHandler {
	return &AuthHandler{authService: authService, ledgerService: ledgerService}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/signup", h.signup)
	r.Post("/login", h.login)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)
		authed.Get("/me", h.me)
		authed.Post("/add-points", h.addPoints)
		authed.Get("/points/history", h.pointHistory)
	})
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	profile, err := h.authService.Me(r.Context(), id.UserID)
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profile)
}

type addPointsRequest struct {
	Points json.RawMessage `json:"points"`
	Reason string          `json:"reason"`
}

type addPointsResponse struct {
	Points  int    `json:"points"`
	Message string `json:"message"`
}

func (h *AuthHandler) addPoints(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req addPointsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, err := service.ParsePointAmount(req.Points)
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}

	balance, err := h.ledgerService.AwardPoints(r.Context(), id.UserID, amount, req.Reason)
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, addPointsResponse{
		Points:  balance,
		Message: "Added " + strconv.Itoa(amount) + " points",
	})
}

func (h *AuthHandler) pointHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.ledgerService.History(r.Context(), id.UserID, limit)
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, events)
}
