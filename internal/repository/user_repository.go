package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/renewalhub/renewalhub/internal/model"
	"github.com/renewalhub/renewalhub/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "id,email,password_hash,name,role,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &role, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	u.Role = model.ParseRole(role)
	return u, err
}

// Create inserts a user and returns its id. The very first user in the
// system is granted the admin role regardless of the requested one.
func (r *UserRepo) Create(ctx context.Context, email, password, name string, cost int) (uint64, model.Role, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, "", err
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return 0, "", err
	}
	role := model.RoleUser
	if total == 0 {
		role = model.RoleAdmin
	}

	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, name, role) VALUES (?,?,?,?)",
		email, hash, name, string(role))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, "", ErrEmailExists
		}
		return 0, "", err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, "", err
	}
	return uint64(id), role, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// List returns every user, oldest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userCols+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		var role string
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Role = model.ParseRole(role)
		out = append(out, u)
	}
	return out, rows.Err()
}

// CountAdmins returns the number of admin accounts. Callers use it to
// enforce the at-least-one-admin invariant before demotes and deletes.
func (r *UserRepo) CountAdmins(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE role=?", string(model.RoleAdmin)).Scan(&n)
	return n, err
}

// UserUpdate carries the admin-editable fields. Nil means "leave unchanged".
type UserUpdate struct {
	Name *string `json:"name"`
	Role *string `json:"role"`
}

// Update applies a partial update. Demoting the last admin is rejected with
// ErrLastAdmin; the check and the write are not atomic, which is acceptable
// for a single-process deployment.
func (r *UserRepo) Update(ctx context.Context, id uint64, upd UserUpdate) (model.User, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if upd.Role != nil && existing.Role == model.RoleAdmin && model.ParseRole(*upd.Role) != model.RoleAdmin {
		n, err := r.CountAdmins(ctx)
		if err != nil {
			return model.User{}, err
		}
		if n <= 1 {
			return model.User{}, ErrLastAdmin
		}
	}
	if upd.Name != nil {
		if _, err := r.DB.ExecContext(ctx, "UPDATE users SET name=? WHERE id=?", *upd.Name, id); err != nil {
			return model.User{}, err
		}
	}
	if upd.Role != nil {
		if _, err := r.DB.ExecContext(ctx, "UPDATE users SET role=? WHERE id=?", string(model.ParseRole(*upd.Role)), id); err != nil {
			return model.User{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes a user. Self-deletion and deleting the last admin are
// rejected so the system always keeps an operable admin account.
func (r *UserRepo) Delete(ctx context.Context, id, callerID uint64) error {
	if id == callerID {
		return ErrSelfDelete
	}
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.Role == model.RoleAdmin {
		n, err := r.CountAdmins(ctx)
		if err != nil {
			return err
		}
		if n <= 1 {
			return ErrLastAdmin
		}
	}
	_, err = r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	return err
}
