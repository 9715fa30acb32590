package repository

import (
	"cmp"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"bookshelf_api/internal/common"
	"bookshelf_api/internal/domain/model"
)

// MemoryUserRepository keeps users in-process. It enforces the same
// uniqueness rules as the users table.
type MemoryUserRepository struct {
	mu         sync.RWMutex
	users      map[string]model.User // key: user ID
	byEmail    map[string]string     // email -> user ID
	byUsername map[string]string     // username -> user ID
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:      make(map[string]model.User),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

func (m *MemoryUserRepository) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; ok {
		return fmt.Errorf("user with id %s already exists: %w", user.ID, common.ErrConflict)
	}
	if _, ok := m.byUsername[user.Username]; ok {
		return fmt.Errorf("user with given username or email already exists: %w", common.ErrConflict)
	}
	if _, ok := m.byEmail[user.Email]; ok {
		return fmt.Errorf("user with given username or email already exists: %w", common.ErrConflict)
	}

	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	m.users[user.ID] = *user
	m.byUsername[user.Username] = user.ID
	m.byEmail[user.Email] = user.ID
	return nil
}

func (m *MemoryUserRepository) FindByEmailOrUsername(_ context.Context, email, username string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if id, ok := m.byEmail[email]; ok && email != "" {
		u := m.users[id]
		return &u, nil
	}
	if id, ok := m.byUsername[username]; ok && username != "" {
		u := m.users[id]
		return &u, nil
	}
	return nil, common.ErrNotFound
}

func (m *MemoryUserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (m *MemoryUserRepository) UpdateFields(_ context.Context, id string, fields model.UserUpdate) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if fields.Empty() {
		return &u, nil
	}
	if fields.Username != nil {
		if owner, taken := m.byUsername[*fields.Username]; taken && owner != id {
			return nil, fmt.Errorf("username or email already in use: %w", common.ErrConflict)
		}
	}
	if fields.Email != nil {
		if owner, taken := m.byEmail[*fields.Email]; taken && owner != id {
			return nil, fmt.Errorf("username or email already in use: %w", common.ErrConflict)
		}
	}

	if fields.Username != nil {
		delete(m.byUsername, u.Username)
		u.Username = *fields.Username
		m.byUsername[u.Username] = id
	}
	if fields.Email != nil {
		delete(m.byEmail, u.Email)
		u.Email = *fields.Email
		m.byEmail[u.Email] = id
	}
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return &u, nil
}

func (m *MemoryUserRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return common.ErrNotFound
	}
	delete(m.users, id)
	delete(m.byUsername, u.Username)
	delete(m.byEmail, u.Email)
	return nil
}

// Exists satisfies the owner check of MemoryBookRepository.
func (m *MemoryUserRepository) Exists(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.users[id]
	return ok
}

type memoryBook struct {
	book model.Book
	seq  uint64
}

// MemoryBookRepository keeps books in-process.
type MemoryBookRepository struct {
	mu     sync.RWMutex
	books  map[string]memoryBook
	seq    uint64
	owners interface{ Exists(id string) bool }
}

// NewMemoryBookRepository checks new books' owners against owners when it is
// non-nil, mirroring the books.owner_id foreign key.
func NewMemoryBookRepository(owners interface{ Exists(id string) bool }) *MemoryBookRepository {
	return &MemoryBookRepository{
		books:  make(map[string]memoryBook),
		owners: owners,
	}
}

func (m *MemoryBookRepository) Create(_ context.Context, b *model.Book) error {
	if m.owners != nil && !m.owners.Exists(b.OwnerID) {
		return fmt.Errorf("book owner %s does not exist: %w", b.OwnerID, common.ErrBadRequest)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[b.ID]; ok {
		return fmt.Errorf("book with id %s already exists: %w", b.ID, common.ErrConflict)
	}
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	m.seq++
	m.books[b.ID] = memoryBook{book: *b, seq: m.seq}
	return nil
}

func (m *MemoryBookRepository) FindByID(_ context.Context, id string) (*model.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.books[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	b := entry.book
	return &b, nil
}

func (m *MemoryBookRepository) Find(_ context.Context, filter model.BookFilter, order model.BookSort, page, limit int) ([]model.Book, int, error) {
	m.mu.RLock()
	matched := make([]memoryBook, 0, len(m.books))
	for _, entry := range m.books {
		if matchesFilter(entry.book, filter) {
			matched = append(matched, entry)
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return lessBook(matched[i], matched[j], order)
	})

	total := len(matched)
	start := offset(page, limit)
	if start < 0 || start > total {
		start = total
	}
	end := start + limit
	if limit <= 0 || end > total {
		end = total
	}

	books := make([]model.Book, 0, end-start)
	for _, entry := range matched[start:end] {
		books = append(books, entry.book)
	}
	return books, total, nil
}

func matchesFilter(b model.Book, f model.BookFilter) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(b.Title), q) &&
			!strings.Contains(strings.ToLower(b.Author), q) &&
			!strings.Contains(strings.ToLower(b.Description), q) {
			return false
		}
	}
	if f.Genre != "" && b.Genre != f.Genre {
		return false
	}
	if f.Available != nil && b.Available != *f.Available {
		return false
	}
	if f.OwnerID != "" && b.OwnerID != f.OwnerID {
		return false
	}
	return true
}

// lessBook orders like the SQL store: missing values last in either
// direction, then insertion order.
func lessBook(a, b memoryBook, order model.BookSort) bool {
	var c int
	switch order.Field {
	case model.SortByTitle:
		c = strings.Compare(a.book.Title, b.book.Title)
	case model.SortByAuthor:
		c = strings.Compare(a.book.Author, b.book.Author)
	case model.SortByPrice:
		switch {
		case a.book.Price == nil && b.book.Price == nil:
		case a.book.Price == nil:
			return false
		case b.book.Price == nil:
			return true
		default:
			c = cmp.Compare(*a.book.Price, *b.book.Price)
		}
	case model.SortByPublicationYear:
		switch {
		case a.book.PublicationYear == nil && b.book.PublicationYear == nil:
		case a.book.PublicationYear == nil:
			return false
		case b.book.PublicationYear == nil:
			return true
		default:
			c = cmp.Compare(*a.book.PublicationYear, *b.book.PublicationYear)
		}
	default:
		c = a.book.CreatedAt.Compare(b.book.CreatedAt)
	}
	if c == 0 {
		c = cmp.Compare(a.seq, b.seq)
	}
	if order.Descending {
		return c > 0
	}
	return c < 0
}

func (m *MemoryBookRepository) UpdateByID(_ context.Context, id string, fields model.BookUpdate) (*model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.books[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	b := &entry.book
	if fields.Empty() {
		out := *b
		return &out, nil
	}
	if fields.Title != nil {
		b.Title = *fields.Title
	}
	if fields.Slug != nil {
		b.Slug = *fields.Slug
	}
	if fields.Author != nil {
		b.Author = *fields.Author
	}
	if fields.Description != nil {
		b.Description = *fields.Description
	}
	if fields.Genre != nil {
		b.Genre = *fields.Genre
	}
	if fields.PublicationYear != nil {
		year := *fields.PublicationYear
		b.PublicationYear = &year
	}
	if fields.Price != nil {
		price := *fields.Price
		b.Price = &price
	}
	if fields.Available != nil {
		b.Available = *fields.Available
	}
	b.UpdatedAt = time.Now().UTC()
	m.books[id] = entry

	out := *b
	return &out, nil
}

func (m *MemoryBookRepository) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[id]; !ok {
		return common.ErrNotFound
	}
	delete(m.books, id)
	return nil
}

func (m *MemoryBookRepository) DistinctValues(_ context.Context, field model.BookDistinctField) ([]string, error) {
	var pick func(model.Book) string
	switch field {
	case model.DistinctGenre:
		pick = func(b model.Book) string { return b.Genre }
	case model.DistinctAuthor:
		pick = func(b model.Book) string { return b.Author }
	default:
		return nil, fmt.Errorf("unsupported distinct field %q: %w", field, common.ErrBadRequest)
	}

	m.mu.RLock()
	seen := make(map[string]struct{})
	for _, entry := range m.books {
		if v := pick(entry.book); v != "" {
			seen[v] = struct{}{}
		}
	}
	m.mu.RUnlock()

	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values, nil
}
