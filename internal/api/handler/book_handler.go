package handler

import (
	"net/http"

	"bookshelf_api/internal/api/middleware"
	"bookshelf_api/internal/app/service"
	"bookshelf_api/internal/common"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type BookHandler struct {
	bookService *service.BookService
	requireAuth func(http.Handler) http.Handler
	log         logrus.FieldLogger
}

func NewBookHandler(bookService *service.BookService, requireAuth func(http.Handler) http.Handler, log logrus.FieldLogger) *BookHandler {
	return &BookHandler{bookService: bookService, requireAuth: requireAuth, log: log}
}

func (h *BookHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listBooks)        // GET /api/v1/books?page=1&limit=10&search=dune
	r.Get("/genres", h.listGenres) // GET /api/v1/books/genres
	r.Get("/{bookID}", h.getBook)  // GET /api/v1/books/{id}

	r.Group(func(authed chi.Router) {
		authed.Use(h.requireAuth)
		authed.Post("/", h.createBook)
		authed.Put("/{bookID}", h.updateBook)
		authed.Delete("/{bookID}", h.deleteBook)
	})
}

func (h *BookHandler) listBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	invalid := map[string]string{}
	query := service.ListBooksQuery{
		Page:      queryInt(r, "page", invalid),
		Limit:     queryInt(r, "limit", invalid),
		Search:    q.Get("search"),
		Genre:     q.Get("genre"),
		Available: queryBool(r, "available", invalid),
		OwnerID:   q.Get("owner"),
		Sort:      q.Get("sort"),
	}
	if len(invalid) > 0 {
		common.RespondWithDomainError(w, r, h.log, common.NewValidationError(invalid))
		return
	}

	page, err := h.bookService.List(r.Context(), query)
	if err != nil {
		common.RespondWithDomainError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, page)
}

func (h *BookHandler) listGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.bookService.Genres(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"genres": genres})
}

func (h *BookHandler) getBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.bookService.Get(r.Context(), chi.URLParam(r, "bookID"))
	if err != nil {
		common.RespondWithDomainError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"book": book})
}

func (h *BookHandler) createBook(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req service.CreateBookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithDomainError(w, r, h.log, err)
		return
	}

	book, err := h.bookService.Create(r.Context(), user, req)
	if err != nil {
		common.RespondWithDomainError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{"book": book})
}

func (h *BookHandler) updateBook(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req service.UpdateBookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithDomainError(w, r, h.log, err)
		return
	}

	book, err := h.bookService.Update(r.Context(), user, chi.URLParam(r, "bookID"), req)
	if err != nil {
		common.RespondWithDomainError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"book": book})
}

func (h *BookHandler) deleteBook(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	if err := h.bookService.Delete(r.Context(), user, chi.URLParam(r, "bookID")); err != nil {
		common.RespondWithDomainError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Book deleted successfully"})
}
