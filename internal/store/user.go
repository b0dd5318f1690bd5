package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/imagetext/apiserver/types"
	"github.com/jmoiron/sqlx"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT id, email, password_hash, registered_at
		FROM users
		WHERE id = ?`
	var user types.User
	if err := r.db.GetContext(ctx, &user, r.db.Rebind(query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT id, email, password_hash, registered_at
		FROM users
		WHERE email = ?`
	var user types.User
	if err := r.db.GetContext(ctx, &user, r.db.Rebind(query), email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// Create inserts a user and stamps its registration time.
// A taken email yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	user.RegisteredAt = time.Now().UTC()

	const query = `
		INSERT INTO users (email, password_hash, registered_at)
		VALUES (?, ?, ?)
		RETURNING id`
	if err := r.db.QueryRowxContext(
		ctx,
		r.db.Rebind(query),
		user.Email,
		user.PasswordHash,
		user.RegisteredAt,
	).Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrDuplicate
		}
		return types.User{}, err
	}
	return user, nil
}

// UpdatePasswordHash replaces the stored hash in a single statement.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id int, passwordHash string) error {
	const query = `UPDATE users SET password_hash = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), passwordHash, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
