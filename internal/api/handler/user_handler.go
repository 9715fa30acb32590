package handler

import (
	"net/http"

	"bookshelf_api/internal/api/middleware"
	"bookshelf_api/internal/app/service"
	"bookshelf_api/internal/common"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type UserHandler struct {
	userService *service.UserService
	requireAuth func(http.Handler) http.Handler
	log         logrus.FieldLogger
}

func NewUserHandler(userService *service.UserService, requireAuth func(http.Handler) http.Handler, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{userService: userService, requireAuth: requireAuth, log: log}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(adminRouter chi.Router) {
		adminRouter.Use(h.requireAuth)
		adminRouter.Use(middleware.AdminOnly(h.log))
		adminRouter.Get("/{userID}", h.getUser) // GET /api/v1/users/{id}
	})
}

func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondWithDomainError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}
