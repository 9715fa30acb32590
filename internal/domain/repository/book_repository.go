package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"bookshelf_api/internal/common"
	"bookshelf_api/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

// BookRepository is the resource store.
type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	FindByID(ctx context.Context, id string) (*model.Book, error)
	Find(ctx context.Context, filter model.BookFilter, sort model.BookSort, page, limit int) ([]model.Book, int, error)
	UpdateByID(ctx context.Context, id string, fields model.BookUpdate) (*model.Book, error)
	DeleteByID(ctx context.Context, id string) error
	DistinctValues(ctx context.Context, field model.BookDistinctField) ([]string, error)
}

const bookColumns = `id, title, slug, author, description, genre, publication_year, price, available, owner_id, created_at, updated_at`

// Sort columns are whitelisted here; nothing from the request reaches SQL directly.
var bookSortColumns = map[model.BookSortField]string{
	model.SortByTitle:           "title",
	model.SortByAuthor:          "author",
	model.SortByPrice:           "price",
	model.SortByPublicationYear: "publication_year",
	model.SortByCreatedAt:       "created_at",
}

var bookDistinctColumns = map[model.BookDistinctField]string{
	model.DistinctGenre:  "genre",
	model.DistinctAuthor: "author",
}

type pgBookRepository struct {
	db *sql.DB
}

func NewPgBookRepository(db *sql.DB) BookRepository {
	return &pgBookRepository{db: db}
}

func scanBook(row interface{ Scan(...any) error }) (*model.Book, error) {
	b := &model.Book{}
	err := row.Scan(&b.ID, &b.Title, &b.Slug, &b.Author, &b.Description, &b.Genre,
		&b.PublicationYear, &b.Price, &b.Available, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func (r *pgBookRepository) Create(ctx context.Context, b *model.Book) error {
	query := `INSERT INTO books (id, title, slug, author, description, genre, publication_year, price, available, owner_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, b.ID, b.Title, b.Slug, b.Author, b.Description, b.Genre,
		b.PublicationYear, b.Price, b.Available, b.OwnerID).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("book owner %s does not exist: %w", b.OwnerID, common.ErrBadRequest)
		}
		return fmt.Errorf("pgBookRepository.Create: %w", err)
	}
	return nil
}

func (r *pgBookRepository) FindByID(ctx context.Context, id string) (*model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	b, err := scanBook(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgBookRepository.FindByID: %w", err)
	}
	return b, nil
}

func (r *pgBookRepository) Find(ctx context.Context, filter model.BookFilter, sort model.BookSort, page, limit int) ([]model.Book, int, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR author ILIKE $%d OR description ILIKE $%d)", argID, argID, argID))
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		argID++
	}
	if filter.Genre != "" {
		conditions = append(conditions, fmt.Sprintf("genre = $%d", argID))
		args = append(args, filter.Genre)
		argID++
	}
	if filter.Available != nil {
		conditions = append(conditions, fmt.Sprintf("available = $%d", argID))
		args = append(args, *filter.Available)
		argID++
	}
	if filter.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argID))
		args = append(args, filter.OwnerID)
		argID++
	}

	var whereClause string
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgBookRepository.Find count: %w", err)
	}

	column, ok := bookSortColumns[sort.Field]
	if !ok {
		column = bookSortColumns[model.SortByCreatedAt]
	}
	direction := "ASC"
	if sort.Descending {
		direction = "DESC"
	}

	query := fmt.Sprintf(`SELECT %s FROM books%s ORDER BY %s %s NULLS LAST, id ASC LIMIT $%d OFFSET $%d`,
		bookColumns, whereClause, column, direction, argID, argID+1)
	args = append(args, limit, offset(page, limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgBookRepository.Find query: %w", err)
	}
	defer rows.Close()

	books := []model.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("pgBookRepository.Find scan: %w", err)
		}
		books = append(books, *b)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgBookRepository.Find rows.Err: %w", err)
	}
	return books, total, nil
}

func (r *pgBookRepository) UpdateByID(ctx context.Context, id string, fields model.BookUpdate) (*model.Book, error) {
	if fields.Empty() {
		return r.FindByID(ctx, id)
	}

	var sets []string
	var args []interface{}
	argID := 1
	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argID))
		args = append(args, value)
		argID++
	}
	if fields.Title != nil {
		add("title", *fields.Title)
	}
	if fields.Slug != nil {
		add("slug", *fields.Slug)
	}
	if fields.Author != nil {
		add("author", *fields.Author)
	}
	if fields.Description != nil {
		add("description", *fields.Description)
	}
	if fields.Genre != nil {
		add("genre", *fields.Genre)
	}
	if fields.PublicationYear != nil {
		add("publication_year", *fields.PublicationYear)
	}
	if fields.Price != nil {
		add("price", *fields.Price)
	}
	if fields.Available != nil {
		add("available", *fields.Available)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE books SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), argID, bookColumns)
	b, err := scanBook(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgBookRepository.UpdateByID: %w", err)
	}
	return b, nil
}

func (r *pgBookRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgBookRepository.DeleteByID: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgBookRepository.DeleteByID rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgBookRepository) DistinctValues(ctx context.Context, field model.BookDistinctField) ([]string, error) {
	column, ok := bookDistinctColumns[field]
	if !ok {
		return nil, fmt.Errorf("unsupported distinct field %q: %w", field, common.ErrBadRequest)
	}
	query := fmt.Sprintf(`SELECT DISTINCT %[1]s FROM books WHERE %[1]s <> '' ORDER BY %[1]s`, column)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgBookRepository.DistinctValues query: %w", err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("pgBookRepository.DistinctValues scan: %w", err)
		}
		values = append(values, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgBookRepository.DistinctValues rows.Err: %w", err)
	}
	return values, nil
}

// offset saturates at math.MaxInt instead of overflowing.
func offset(page, limit int) int {
	if page < 1 || limit <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
