package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"bookshelf_api/internal/common"
	"bookshelf_api/internal/domain/model"
)

// UserRepository is the credential store. Username and email uniqueness is
// enforced here and surfaces as common.ErrConflict.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	UpdateFields(ctx context.Context, id string, fields model.UserUpdate) (*model.User, error)
	Delete(ctx context.Context, id string) error
}

const userColumns = `id, username, email, hashed_password, role, created_at, updated_at`

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.HashedPassword, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, username, email, hashed_password, role)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, user.ID, user.Username, user.Email, user.HashedPassword, user.Role).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("user with given username or email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + `
	          FROM users WHERE email = $1 OR username = $2
	          ORDER BY created_at LIMIT 1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByEmailOrUsername: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) UpdateFields(ctx context.Context, id string, fields model.UserUpdate) (*model.User, error) {
	if fields.Empty() {
		return r.FindByID(ctx, id)
	}

	var sets []string
	var args []interface{}
	argID := 1
	if fields.Username != nil {
		sets = append(sets, fmt.Sprintf("username = $%d", argID))
		args = append(args, *fields.Username)
		argID++
	}
	if fields.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", argID))
		args = append(args, *fields.Email)
		argID++
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), argID, userColumns)
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		if common.IsUniqueViolation(err) {
			return nil, fmt.Errorf("username or email already in use: %w", common.ErrConflict)
		}
		return nil, fmt.Errorf("pgUserRepository.UpdateFields: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgUserRepository.Delete rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
