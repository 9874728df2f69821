package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/renewalhub/renewalhub/internal/model"
)

type CategoryRepo struct{ DB *sql.DB }

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{DB: db} }

const categoryCols = "id,user_id,name,description,color,icon,created_at,updated_at"

// Create inserts a category for the given owner. The unique key on
// (user_id, name) uses a case-insensitive collation, so "Cloud" and "cloud"
// collide; the 1062 duplicate is surfaced as ErrDuplicateName.
func (r *CategoryRepo) Create(ctx context.Context, userID uint64, name, description, color, icon string) (model.Category, error) {
	if color == "" {
		color = "#06b6d4"
	}
	if icon == "" {
		icon = "folder"
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO categories (user_id, name, description, color, icon) VALUES (?,?,?,?,?)",
		userID, name, description, color, icon)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.Category{}, ErrDuplicateName
		}
		return model.Category{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Category{}, err
	}
	return r.GetByID(ctx, uint64(id), userID)
}

// GetByID fetches one category scoped to its owner.
func (r *CategoryRepo) GetByID(ctx context.Context, id, userID uint64) (model.Category, error) {
	var c model.Category
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+categoryCols+" FROM categories WHERE id=? AND user_id=? LIMIT 1",
		id, userID).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.Color, &c.Icon, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

// ListForUser returns the owner's categories sorted by name, each with the
// number of services currently referencing it.
func (r *CategoryRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Category, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT c.id,c.user_id,c.name,c.description,c.color,c.icon,c.created_at,c.updated_at,
		        (SELECT COUNT(*) FROM services s WHERE s.category_id=c.id) AS service_count
		 FROM categories c WHERE c.user_id=? ORDER BY c.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.Color, &c.Icon,
			&c.CreatedAt, &c.UpdatedAt, &c.ServiceCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CategoryUpdate carries the editable fields; nil leaves a field unchanged.
type CategoryUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
}

// Update applies a partial update scoped to the owner.
func (r *CategoryRepo) Update(ctx context.Context, id, userID uint64, upd CategoryUpdate) (model.Category, error) {
	if _, err := r.GetByID(ctx, id, userID); err != nil {
		return model.Category{}, err
	}
	set := []string{}
	args := []any{}
	if upd.Name != nil {
		set, args = append(set, "name=?"), append(args, *upd.Name)
	}
	if upd.Description != nil {
		set, args = append(set, "description=?"), append(args, *upd.Description)
	}
	if upd.Color != nil {
		set, args = append(set, "color=?"), append(args, *upd.Color)
	}
	if upd.Icon != nil {
		set, args = append(set, "icon=?"), append(args, *upd.Icon)
	}
	if len(set) > 0 {
		args = append(args, id, userID)
		q := "UPDATE categories SET " + strings.Join(set, ",") + " WHERE id=? AND user_id=?"
		if _, err := r.DB.ExecContext(ctx, q, args...); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "1062") {
				return model.Category{}, ErrDuplicateName
			}
			return model.Category{}, err
		}
	}
	return r.GetByID(ctx, id, userID)
}

// Delete removes a category and reassigns every service that referenced it
// to the synthetic "Uncategorized" group. Both writes run in one
// transaction so a service never points at a vanished category.
func (r *CategoryRepo) Delete(ctx context.Context, id, userID uint64) error {
	if _, err := r.GetByID(ctx, id, userID); err != nil {
		return err
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE services SET category_id=NULL, category_name=? WHERE category_id=?",
		model.UncategorizedName, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM categories WHERE id=? AND user_id=?", id, userID); err != nil {
		return err
	}
	return tx.Commit()
}
