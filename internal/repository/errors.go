// Package repository implements the persistence layer on database/sql.
// Sentinel errors let handlers map failure modes onto HTTP statuses without
// inspecting driver-specific error strings themselves.
package repository

import "errors"

// ErrNotFound is returned when a row with the requested id does not exist.
// Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned by user creation when the email is taken.
// Handlers translate it into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrDuplicateName is returned when a category name collides with another
// category of the same owner (case-insensitive). Handlers translate it into
// HTTP 409.
var ErrDuplicateName = errors.New("name already exists")

// ErrLastAdmin guards the invariant that at least one admin always exists:
// deleting or demoting the final admin fails with this error.
var ErrLastAdmin = errors.New("cannot remove last admin")

// ErrSelfDelete is returned when a user attempts to delete their own account.
var ErrSelfDelete = errors.New("cannot delete yourself")
