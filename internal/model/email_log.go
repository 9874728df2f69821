package model

import "time"

// LogStatus summarizes a send attempt across all of its recipients.
type LogStatus string

const (
	LogSent    LogStatus = "sent"    // every recipient accepted
	LogPartial LogStatus = "partial" // some recipients failed
	LogFailed  LogStatus = "failed"  // no recipient accepted
)

// RecipientResult records the outcome of one recipient within a send.
type RecipientResult struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Status string `json:"status"` // "sent" or "failed"
}

// EmailLog is an append-only record of one reminder send attempt. Rows are
// never mutated after insertion; they exist purely for observation.
type EmailLog struct {
	ID              string            `json:"id"`
	ServiceID       uint64            `json:"service_id"`
	ServiceName     string            `json:"service_name"`
	ThresholdID     string            `json:"threshold_id"`
	ThresholdLabel  string            `json:"threshold_label"`
	DaysUntilExpiry int               `json:"days_until_expiry"`
	Recipients      []RecipientResult `json:"recipients"`
	Status          LogStatus         `json:"status"`
	SentAt          time.Time         `json:"sent_at"`
}
