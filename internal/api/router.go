package api

import (
	"net/http"
	"time"

	"bookshelf_api/internal/api/handler"
	"bookshelf_api/internal/api/middleware"
	"bookshelf_api/internal/app/service"
	"bookshelf_api/internal/common"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const requestTimeout = 30 * time.Second

func NewRouter(
	authService *service.AuthService,
	userService *service.UserService,
	bookService *service.BookService,
	log logrus.FieldLogger,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(requestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithError(w, http.StatusNotFound, common.CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithError(w, http.StatusMethodNotAllowed, common.CodeMethodNotAllowed, "method not allowed")
	})

	requireAuth := middleware.Authenticator(authService, log)

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(authService, userService, requireAuth, log)
		v1.Route("/auth", authHandler.RegisterRoutes)

		// Admin only
		userHandler := handler.NewUserHandler(userService, requireAuth, log)
		v1.Route("/users", userHandler.RegisterRoutes)

		// Reads are public, writes need a token and ownership
		bookHandler := handler.NewBookHandler(bookService, requireAuth, log)
		v1.Route("/books", bookHandler.RegisterRoutes)
	})

	return r
}
