package model

import (
	"time"

	"github.com/google/uuid"
)

// ServiceStatus is the closed set of service lifecycle states.
type ServiceStatus string

const (
	StatusActive   ServiceStatus = "active"
	StatusInactive ServiceStatus = "inactive"
)

// ReminderThreshold is a per-service trip point: a reminder fires once the
// service is within DaysBefore days of expiry. DaysBefore may be negative,
// meaning "after expiry". Thresholds are value types owned by their service;
// ids are assigned at creation and never referenced from outside the parent.
type ReminderThreshold struct {
	ID         string `json:"id"`
	DaysBefore int    `json:"days_before"`
	Label      string `json:"label"`
}

// Owner is an informational stakeholder attached to a service. The role is
// a free-text label ("App Owner", "Developer"); it plays no part in access
// control.
type Owner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Service is the central entity: a recurring-service record with an expiry
// date, its reminder policy and the bookkeeping of which thresholds have
// already fired.
//
// ExpiryDate is kept as the raw ISO-8601 string the client supplied (naive
// or zone-aware); the notification engine parses it per sweep so that one
// malformed record skips cleanly instead of failing at write time.
// NotificationsSent holds threshold ids that have fired; it only grows while
// the service stays active.
type Service struct {
	ID                   uint64              `json:"id"`
	UserID               uint64              `json:"user_id"`
	Name                 string              `json:"name"`
	Provider             string              `json:"provider"`
	CategoryID           *uint64             `json:"category_id"`
	CategoryName         string              `json:"category_name"`
	ExpiryDate           string              `json:"expiry_date"`
	ExpiryDurationMonths *int                `json:"expiry_duration_months"`
	ReminderThresholds   []ReminderThreshold `json:"reminder_thresholds"`
	Owners               []Owner             `json:"owners"`
	ContactEmail         string              `json:"contact_email"`
	ContactName          string              `json:"contact_name"`
	Notes                string              `json:"notes"`
	Cost                 float64             `json:"cost"`
	Status               ServiceStatus       `json:"status"`
	NotificationsSent    []string            `json:"notifications_sent"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// DefaultThresholds returns the 30/7/1 reminder ladder seeded onto services
// created without an explicit policy.
func DefaultThresholds() []ReminderThreshold {
	return []ReminderThreshold{
		{ID: uuid.NewString(), DaysBefore: 30, Label: "First reminder"},
		{ID: uuid.NewString(), DaysBefore: 7, Label: "Second reminder"},
		{ID: uuid.NewString(), DaysBefore: 1, Label: "Final reminder"},
	}
}

// HasFired reports whether the given threshold id is already recorded in the
// service's fired set.
func (s *Service) HasFired(thresholdID string) bool {
	for _, id := range s.NotificationsSent {
		if id == thresholdID {
			return true
		}
	}
	return false
}

// Recipients returns the people a reminder for this service goes to: every
// owner, or the legacy single contact when no owners exist.
func (s *Service) Recipients() []Owner {
	if len(s.Owners) > 0 {
		return s.Owners
	}
	if s.ContactEmail != "" {
		return []Owner{{Name: s.ContactName, Email: s.ContactEmail}}
	}
	return nil
}
