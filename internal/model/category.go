package model

import "time"

// Category is a user-scoped grouping for services. Names are unique per
// owner, case-insensitive. Deleting a category never deletes its services;
// they are rewritten to the synthetic "Uncategorized" group instead.
type Category struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	Icon        string    `json:"icon"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// ServiceCount is computed on read; it is not a column.
	ServiceCount int `json:"service_count"`
}

// UncategorizedName is the display name services fall back to when their
// category is removed.
const UncategorizedName = "Uncategorized"
