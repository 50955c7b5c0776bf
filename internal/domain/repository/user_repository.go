package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"expense_tracker/internal/common"
	"expense_tracker/internal/domain/model"
	"expense_tracker/internal/platform/database"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, filter model.UserFilter, limit, offset int) ([]model.User, int, error)
	Update(ctx context.Context, id string, patch model.UserPatch) (*model.User, error)
	Delete(ctx context.Context, id string) error
}

type sqlUserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) UserRepository {
	return &sqlUserRepository{db: db}
}

const userColumns = `id, email, hashed_password, role, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Email, &user.HashedPassword, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *sqlUserRepository) Create(ctx context.Context, user *model.User) error {
	query := r.db.Rebind(`INSERT INTO users (id, email, hashed_password, role, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.HashedPassword, user.Role, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		err = database.Classify(err)
		if errors.Is(err, common.ErrConflict) {
			return fmt.Errorf("user with given email already exists: %w", err)
		}
		return fmt.Errorf("userRepository.Create: %w", err)
	}
	return nil
}

func (r *sqlUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if err = database.Classify(err); errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("userRepository.FindByEmail: %w", err)
	}
	return user, nil
}

func (r *sqlUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err = database.Classify(err); errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("userRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *sqlUserRepository) List(ctx context.Context, filter model.UserFilter, limit, offset int) ([]model.User, int, error) {
	var where string
	var args []any
	if filter.Role != "" {
		where = " WHERE role = ?"
		args = append(args, filter.Role)
	}

	var total int
	countQuery := r.db.Rebind(`SELECT COUNT(*) FROM users` + where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("userRepository.List count: %w", database.Classify(err))
	}

	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`)
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("userRepository.List query: %w", database.Classify(err))
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("userRepository.List scan: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("userRepository.List rows: %w", database.Classify(err))
	}
	return users, total, nil
}

// Update applies patch and returns the stored row.
func (r *sqlUserRepository) Update(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	if patch.Empty() {
		return r.FindByID(ctx, id)
	}

	var sets []string
	var args []any
	if patch.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *patch.Email)
	}
	if patch.HashedPassword != nil {
		sets = append(sets, "hashed_password = ?")
		args = append(args, *patch.HashedPassword)
	}
	if patch.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, *patch.Role)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	query := r.db.Rebind(`UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		err = database.Classify(err)
		if errors.Is(err, common.ErrConflict) {
			return nil, fmt.Errorf("email already in use: %w", err)
		}
		return nil, fmt.Errorf("userRepository.Update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("userRepository.Update rows affected: %w", err)
	}
	if n == 0 {
		return nil, common.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *sqlUserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("userRepository.Delete: %w", database.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("userRepository.Delete rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
