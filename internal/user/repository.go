package user

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, name, email, passwordHash, role string) (*User, error) {
	user := &User{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, password_hash, role, created_at
	`, name, email, passwordHash, role).StructScan(user)

	return user, err
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	user := &User{}
	err := r.db.GetContext(ctx, user, `
		SELECT id, name, email, password_hash, role, created_at
		FROM users
		WHERE email = $1
	`, email)

	return user, err
}

func (r *Repository) FindByID(ctx context.Context, id int) (*User, error) {
	user := &User{}
	err := r.db.GetContext(ctx, user, `
		SELECT id, name, email, password_hash, role, created_at
		FROM users
		WHERE id = $1
	`, id)

	return user, err
}

func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)
	`, email)
	return exists, err
}

// UpdateProfile writes the editable profile fields in one row update.
func (r *Repository) UpdateProfile(ctx context.Context, id int, name, email string) (*User, error) {
	user := &User{}
	err := r.db.QueryRowxContext(ctx, `
		UPDATE users
		SET name = $1, email = $2
		WHERE id = $3
		RETURNING id, name, email, password_hash, role, created_at
	`, name, email, id).StructScan(user)

	return user, err
}

func (r *Repository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $1
		WHERE id = $2
	`, passwordHash, id)
	return err
}
