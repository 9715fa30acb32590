package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"bookshelf_api/internal/common"
	"bookshelf_api/internal/common/security"
	"bookshelf_api/internal/common/validator"
	"bookshelf_api/internal/domain/model"
	"bookshelf_api/internal/domain/repository"
	"bookshelf_api/internal/platform/cache"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type BookService struct {
	bookRepo repository.BookRepository
	genres   cache.GenreCache
	log      logrus.FieldLogger
}

func NewBookService(bookRepo repository.BookRepository, genres cache.GenreCache, log logrus.FieldLogger) *BookService {
	if genres == nil {
		genres = cache.Nop{}
	}
	return &BookService{bookRepo: bookRepo, genres: genres, log: log}
}

type CreateBookRequest struct {
	Title           string   `json:"title" validate:"required,notblank,max=200"`
	Author          string   `json:"author" validate:"required,notblank,max=100"`
	Description     string   `json:"description" validate:"max=1000"`
	Genre           string   `json:"genre" validate:"max=50"`
	PublicationYear *int     `json:"publication_year" validate:"omitempty,min=1000,notfuture"`
	Price           *float64 `json:"price" validate:"omitempty,gte=0"`
	Available       *bool    `json:"available"`
}

type UpdateBookRequest struct {
	Title           *string  `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Author          *string  `json:"author,omitempty" validate:"omitempty,notblank,max=100"`
	Description     *string  `json:"description,omitempty" validate:"omitempty,max=1000"`
	Genre           *string  `json:"genre,omitempty" validate:"omitempty,max=50"`
	PublicationYear *int     `json:"publication_year,omitempty" validate:"omitempty,min=1000,notfuture"`
	Price           *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Available       *bool    `json:"available,omitempty"`
}

// ListBooksQuery is a listing request as parsed from the query string.
type ListBooksQuery struct {
	Page      int
	Limit     int
	Search    string
	Genre     string
	Available *bool
	OwnerID   string
	Sort      string
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type BookPage struct {
	Books      []model.Book `json:"books"`
	Pagination Pagination   `json:"pagination"`
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

func bookSlug(title, id string) string {
	prefix := id
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	if s := slug.Make(title); s != "" {
		return s + "-" + prefix
	}
	return prefix
}

func (s *BookService) Create(ctx context.Context, owner *model.User, req CreateBookRequest) (*model.Book, error) {
	if owner == nil {
		return nil, common.ErrUnauthorized
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	req.Genre = strings.TrimSpace(req.Genre)
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}
	book := &model.Book{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Author:          req.Author,
		Description:     req.Description,
		Genre:           req.Genre,
		PublicationYear: req.PublicationYear,
		Price:           req.Price,
		Available:       available,
		OwnerID:         owner.ID,
	}
	book.Slug = bookSlug(book.Title, book.ID)

	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	s.invalidateGenres(ctx)
	return book, nil
}

func (s *BookService) Get(ctx context.Context, id string) (*model.Book, error) {
	return s.bookRepo.FindByID(ctx, id)
}

func (s *BookService) List(ctx context.Context, q ListBooksQuery) (*BookPage, error) {
	page := q.Page
	if page <= 0 {
		page = 1
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if page > math.MaxInt/limit {
		return nil, common.NewValidationError(map[string]string{"page": "is too large"})
	}
	order, ok := model.ParseBookSort(strings.TrimSpace(q.Sort))
	if !ok {
		return nil, common.NewValidationError(map[string]string{
			"sort": "must be one of title, author, price, publication_year, created_at, optionally prefixed with -",
		})
	}

	filter := model.BookFilter{
		Search:    strings.TrimSpace(q.Search),
		Genre:     strings.TrimSpace(q.Genre),
		Available: q.Available,
		OwnerID:   strings.TrimSpace(q.OwnerID),
	}
	books, total, err := s.bookRepo.Find(ctx, filter, order, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	pages := (total + limit - 1) / limit
	return &BookPage{
		Books:      books,
		Pagination: Pagination{Page: page, Limit: limit, Total: total, Pages: pages},
	}, nil
}

// loadAuthorized fetches the book and applies the access policy. A missing
// book is ErrNotFound; an existing one the requester may not touch is
// ErrForbidden.
func (s *BookService) loadAuthorized(ctx context.Context, requester *model.User, id string, action security.Action) (*model.Book, error) {
	book, err := s.bookRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := security.Authorize(security.IdentityOf(requester), book.OwnerID, action); !d.Allowed {
		return nil, fmt.Errorf("%s: %w", d.Reason, common.ErrForbidden)
	}
	return book, nil
}

func (s *BookService) Update(ctx context.Context, requester *model.User, id string, req UpdateBookRequest) (*model.Book, error) {
	book, err := s.loadAuthorized(ctx, requester, id, security.ActionWrite)
	if err != nil {
		return nil, err
	}

	req.Title = trimPtr(req.Title)
	req.Author = trimPtr(req.Author)
	req.Genre = trimPtr(req.Genre)
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	fields := model.BookUpdate{
		Title:           req.Title,
		Author:          req.Author,
		Description:     req.Description,
		Genre:           req.Genre,
		PublicationYear: req.PublicationYear,
		Price:           req.Price,
		Available:       req.Available,
	}
	if req.Title != nil {
		newSlug := bookSlug(*req.Title, book.ID)
		fields.Slug = &newSlug
	}
	if fields.Empty() {
		return book, nil
	}

	updated, err := s.bookRepo.UpdateByID(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if req.Genre != nil {
		s.invalidateGenres(ctx)
	}
	return updated, nil
}

func (s *BookService) Delete(ctx context.Context, requester *model.User, id string) error {
	if _, err := s.loadAuthorized(ctx, requester, id, security.ActionDelete); err != nil {
		return err
	}
	if err := s.bookRepo.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.invalidateGenres(ctx)
	return nil
}

// Genres lists distinct non-empty genres, served from the cache when warm.
// A write that invalidates between the store read and SetGenres can leave
// the previous list cached until the TTL expires.
func (s *BookService) Genres(ctx context.Context) ([]string, error) {
	if genres, ok, err := s.genres.Genres(ctx); err != nil {
		s.log.WithError(err).Warn("genre cache read failed")
	} else if ok {
		return genres, nil
	}

	genres, err := s.bookRepo.DistinctValues(ctx, model.DistinctGenre)
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	if err := s.genres.SetGenres(ctx, genres); err != nil {
		s.log.WithError(err).Warn("genre cache write failed")
	}
	return genres, nil
}

func (s *BookService) invalidateGenres(ctx context.Context) {
	if err := s.genres.Invalidate(ctx); err != nil {
		s.log.WithError(err).Warn("genre cache invalidation failed")
	}
}
