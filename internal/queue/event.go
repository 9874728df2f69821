// Package queue defines message payloads exchanged over the message broker.
package queue

// ReminderSentEvent is published after a reminder email goes out. It
// carries enough context for downstream consumers to log or alert without
// querying the primary database.
type ReminderSentEvent struct {
	ServiceID       uint64 `json:"service_id"`
	ServiceName     string `json:"service_name"`
	ThresholdLabel  string `json:"threshold_label"`
	DaysUntilExpiry int    `json:"days_until_expiry"`
	Recipients      int    `json:"recipients"`
	Status          string `json:"status"` // sent | partial
	SentAt          string `json:"sent_at"`
}
