package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/renewalhub/renewalhub/internal/model"
)

// EmailLogRepo is an append-only store; rows are inserted once and never
// updated.
type EmailLogRepo struct{ DB *sql.DB }

func NewEmailLogRepo(db *sql.DB) *EmailLogRepo { return &EmailLogRepo{DB: db} }

// Append inserts one send-attempt record. The id and timestamp are assigned
// here if the caller left them empty.
func (r *EmailLogRepo) Append(ctx context.Context, e model.EmailLog) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.SentAt.IsZero() {
		e.SentAt = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO email_logs
		 (id,service_id,service_name,threshold_id,threshold_label,days_until_expiry,recipients,status,sent_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		e.ID, e.ServiceID, e.ServiceName, e.ThresholdID, e.ThresholdLabel,
		e.DaysUntilExpiry, mustJSON(e.Recipients), string(e.Status), e.SentAt)
	return err
}

// Recent returns the latest send attempts, newest first.
func (r *EmailLogRepo) Recent(ctx context.Context, limit int) ([]model.EmailLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,service_id,service_name,threshold_id,threshold_label,days_until_expiry,recipients,status,sent_at
		 FROM email_logs ORDER BY sent_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.EmailLog
	for rows.Next() {
		var (
			e             model.EmailLog
			recipientsRaw []byte
			status        string
		)
		if err := rows.Scan(&e.ID, &e.ServiceID, &e.ServiceName, &e.ThresholdID,
			&e.ThresholdLabel, &e.DaysUntilExpiry, &recipientsRaw, &status, &e.SentAt); err != nil {
			return nil, err
		}
		e.Status = model.LogStatus(status)
		_ = json.Unmarshal(recipientsRaw, &e.Recipients)
		out = append(out, e)
	}
	return out, rows.Err()
}
