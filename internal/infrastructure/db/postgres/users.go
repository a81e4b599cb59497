package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

const (
	userColumns = `id, username, COALESCE(email, ''), first_name, last_name, password_hash, role, is_superuser, is_active, join_date, created_at, updated_at`

	selectUser = `SELECT ` + userColumns + ` FROM users`

	insertUser = `INSERT INTO users (id, username, email, first_name, last_name, password_hash, role, is_superuser, is_active, join_date, created_at, updated_at) VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	updateUser = `UPDATE users SET username = $2, email = NULLIF($3, ''), first_name = $4, last_name = $5, password_hash = $6, role = $7, is_superuser = $8, is_active = $9, join_date = $10, updated_at = $11 WHERE id = $1`

	deleteUser = `DELETE FROM users WHERE id = $1`
)

// UserRepository implements ports.UserRepository. Deleting a user nulls the
// client and event references through ON DELETE SET NULL.
type UserRepository struct {
	db *DB
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
		&role, &u.IsSuperuser, &u.IsActive, &u.JoinDate, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(r.db.conn(ctx).QueryRow(ctx, forUpdate(ctx, selectUser+` WHERE id = $1`), id))
	if err != nil {
		return nil, mapErr("get user", err)
	}
	return u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := scanUser(r.db.conn(ctx).QueryRow(ctx, selectUser+` WHERE username = $1`, username))
	if err != nil {
		return nil, mapErr("find user", err)
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context, f ports.UserFilter) ([]*domain.User, error) {
	var w where
	if f.Role != nil {
		w.eq("role", string(*f.Role))
	}
	if f.Active != nil {
		w.eq("is_active", *f.Active)
	}

	rows, err := r.db.conn(ctx).Query(ctx, selectUser+w.String()+` ORDER BY created_at, id`, w.args...)
	if err != nil {
		return nil, mapErr("list users", err)
	}
	users, err := collect(rows, scanUser)
	return users, mapErr("scan users", err)
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	u := *user
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := r.db.conn(ctx).Exec(ctx, insertUser,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash,
		string(u.Role), u.IsSuperuser, u.IsActive, u.JoinDate, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return nil, mapErr("insert user", err)
	}
	return &u, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	tag, err := r.db.conn(ctx).Exec(ctx, updateUser,
		user.ID, user.Username, user.Email, user.FirstName, user.LastName, user.PasswordHash,
		string(user.Role), user.IsSuperuser, user.IsActive, user.JoinDate, user.UpdatedAt)
	if err != nil {
		return nil, mapErr("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, mapErr("update user", pgx.ErrNoRows)
	}
	u := *user
	return &u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, deleteUser, id)
	if err != nil {
		return mapErr("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return mapErr("delete user", pgx.ErrNoRows)
	}
	return nil
}
