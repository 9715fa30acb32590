package handler

import (
	"net/http"

	"bookshelf_api/internal/api/middleware"
	"bookshelf_api/internal/app/service"
	"bookshelf_api/internal/common"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
	requireAuth func(http.Handler) http.Handler
	log         logrus.FieldLogger
}

func NewAuthHandler(authService *service.AuthService, userService *service.UserService, requireAuth func(http.Handler) http.Handler, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService, requireAuth: requireAuth, log: log}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)

	r.Group(func(authed chi.Router) {
		authed.Use(h.requireAuth)
		authed.Get("/profile", h.profile)
		authed.Put("/profile", h.updateProfile)
	})
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithDomainError(w, r, h.log, err)
		return
	}

	resp, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithDomainError(w, r, h.log, err)
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) profile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *AuthHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req service.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithDomainError(w, r, h.log, err)
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user, user.ID, req)
	if err != nil {
		common.RespondWithDomainError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"user": updated})
}
