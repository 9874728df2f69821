package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/renewalhub/renewalhub/internal/model"
)

type ServiceRepo struct{ DB *sql.DB }

func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{DB: db} }

const serviceCols = `id,user_id,name,provider,category_id,category_name,expiry_date,
expiry_duration_months,reminder_thresholds,owners,contact_email,contact_name,
notes,cost,status,notifications_sent,created_at,updated_at`

// ServiceCreate is the creation payload. Thresholds and owners arrive
// without ids; the repository assigns them at insert time so they are owned
// by the service from birth.
type ServiceCreate struct {
	Name                 string                    `json:"name"`
	Provider             string                    `json:"provider"`
	CategoryID           *uint64                   `json:"category_id"`
	CategoryName         string                    `json:"category_name"`
	ExpiryDate           string                    `json:"expiry_date"`
	ExpiryDurationMonths *int                      `json:"expiry_duration_months"`
	ReminderThresholds   []model.ReminderThreshold `json:"reminder_thresholds"`
	Owners               []model.Owner             `json:"owners"`
	ContactEmail         string                    `json:"contact_email"`
	ContactName          string                    `json:"contact_name"`
	Notes                string                    `json:"notes"`
	Cost                 float64                   `json:"cost"`
}

// ServiceUpdate carries partial-merge semantics: nil fields keep their
// current value. NotificationsSent is deliberately absent; only the
// notification engine mutates the fired set, via AppendNotification.
type ServiceUpdate struct {
	Name                 *string                    `json:"name"`
	Provider             *string                    `json:"provider"`
	CategoryID           *uint64                    `json:"category_id"`
	CategoryName         *string                    `json:"category_name"`
	ExpiryDate           *string                    `json:"expiry_date"`
	ExpiryDurationMonths *int                       `json:"expiry_duration_months"`
	ReminderThresholds   *[]model.ReminderThreshold `json:"reminder_thresholds"`
	Owners               *[]model.Owner             `json:"owners"`
	ContactEmail         *string                    `json:"contact_email"`
	ContactName          *string                    `json:"contact_name"`
	Notes                *string                    `json:"notes"`
	Cost                 *float64                   `json:"cost"`
	Status               *string                    `json:"status"`
}

func marshalJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("[]")
	}
	return b
}

// Create inserts a service. If no explicit expiry date is given but a
// duration in months is, the expiry is now + N calendar months (AddDate,
// not a fixed 30-day multiple). A missing threshold list is seeded with the
// 30/7/1 defaults.
func (r *ServiceRepo) Create(ctx context.Context, userID uint64, in ServiceCreate) (model.Service, error) {
	if in.ExpiryDate == "" && in.ExpiryDurationMonths != nil {
		in.ExpiryDate = time.Now().UTC().AddDate(0, *in.ExpiryDurationMonths, 0).Format(time.RFC3339)
	}
	if len(in.ReminderThresholds) == 0 {
		in.ReminderThresholds = model.DefaultThresholds()
	}
	for i := range in.ReminderThresholds {
		if in.ReminderThresholds[i].ID == "" {
			in.ReminderThresholds[i].ID = uuid.NewString()
		}
	}
	if in.Owners == nil {
		in.Owners = []model.Owner{}
	}
	for i := range in.Owners {
		if in.Owners[i].ID == "" {
			in.Owners[i].ID = uuid.NewString()
		}
		if in.Owners[i].Role == "" {
			in.Owners[i].Role = "App Owner"
		}
	}
	if in.CategoryName == "" {
		in.CategoryName = model.UncategorizedName
	}

	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO services
		 (user_id,name,provider,category_id,category_name,expiry_date,expiry_duration_months,
		  reminder_thresholds,owners,contact_email,contact_name,notes,cost,status,notifications_sent)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		userID, in.Name, in.Provider, in.CategoryID, in.CategoryName, in.ExpiryDate,
		in.ExpiryDurationMonths, marshalJSON(in.ReminderThresholds), marshalJSON(in.Owners),
		in.ContactEmail, in.ContactName, in.Notes, in.Cost, string(model.StatusActive), []byte("[]"))
	if err != nil {
		return model.Service{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Service{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

func scanService(scan func(dest ...any) error) (model.Service, error) {
	var (
		s                             model.Service
		categoryID                    sql.NullInt64
		durationMonths                sql.NullInt64
		notes                         sql.NullString
		status                        string
		thresholdsRaw, ownersRaw, sentRaw []byte
	)
	err := scan(&s.ID, &s.UserID, &s.Name, &s.Provider, &categoryID, &s.CategoryName,
		&s.ExpiryDate, &durationMonths, &thresholdsRaw, &ownersRaw, &s.ContactEmail,
		&s.ContactName, &notes, &s.Cost, &status, &sentRaw, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return s, err
	}
	if categoryID.Valid {
		v := uint64(categoryID.Int64)
		s.CategoryID = &v
	}
	if durationMonths.Valid {
		v := int(durationMonths.Int64)
		s.ExpiryDurationMonths = &v
	}
	s.Notes = notes.String
	s.Status = model.ServiceStatus(status)
	_ = json.Unmarshal(thresholdsRaw, &s.ReminderThresholds)
	_ = json.Unmarshal(ownersRaw, &s.Owners)
	_ = json.Unmarshal(sentRaw, &s.NotificationsSent)
	if s.NotificationsSent == nil {
		s.NotificationsSent = []string{}
	}
	return s, nil
}

// GetByID fetches a single service.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (model.Service, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+serviceCols+" FROM services WHERE id=? LIMIT 1", id)
	s, err := scanService(row.Scan)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	return s, err
}

func (r *ServiceRepo) queryList(ctx context.Context, q string, args ...any) ([]model.Service, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		s, err := scanService(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// List returns every service. Services are shared across users of the same
// deployment; only categories are owner-scoped.
func (r *ServiceRepo) List(ctx context.Context) ([]model.Service, error) {
	return r.queryList(ctx, "SELECT "+serviceCols+" FROM services ORDER BY id")
}

// ListActive returns all services the notification sweep should consider.
func (r *ServiceRepo) ListActive(ctx context.Context) ([]model.Service, error) {
	return r.queryList(ctx,
		"SELECT "+serviceCols+" FROM services WHERE status=? ORDER BY id",
		string(model.StatusActive))
}

// ListByCategory returns the services referencing a category; pass nil for
// the uncategorized group.
func (r *ServiceRepo) ListByCategory(ctx context.Context, categoryID *uint64) ([]model.Service, error) {
	if categoryID == nil {
		return r.queryList(ctx,
			"SELECT "+serviceCols+" FROM services WHERE category_id IS NULL ORDER BY id")
	}
	return r.queryList(ctx,
		"SELECT "+serviceCols+" FROM services WHERE category_id=? ORDER BY id", *categoryID)
}

// Update applies a partial merge: only non-nil payload fields overwrite.
// The fired-threshold set is untouched even when the expiry date moves;
// resetting it on a date change is a product decision that has not been
// taken.
func (r *ServiceRepo) Update(ctx context.Context, id uint64, upd ServiceUpdate) (model.Service, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return model.Service{}, err
	}
	set := []string{}
	args := []any{}
	add := func(col string, v any) {
		set = append(set, col+"=?")
		args = append(args, v)
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Provider != nil {
		add("provider", *upd.Provider)
	}
	if upd.CategoryID != nil {
		add("category_id", *upd.CategoryID)
	}
	if upd.CategoryName != nil {
		add("category_name", *upd.CategoryName)
	}
	if upd.ExpiryDate != nil {
		add("expiry_date", *upd.ExpiryDate)
	}
	if upd.ExpiryDurationMonths != nil {
		add("expiry_duration_months", *upd.ExpiryDurationMonths)
	}
	if upd.ReminderThresholds != nil {
		ts := *upd.ReminderThresholds
		for i := range ts {
			if ts[i].ID == "" {
				ts[i].ID = uuid.NewString()
			}
		}
		add("reminder_thresholds", marshalJSON(ts))
	}
	if upd.Owners != nil {
		os := *upd.Owners
		for i := range os {
			if os[i].ID == "" {
				os[i].ID = uuid.NewString()
			}
		}
		add("owners", marshalJSON(os))
	}
	if upd.ContactEmail != nil {
		add("contact_email", *upd.ContactEmail)
	}
	if upd.ContactName != nil {
		add("contact_name", *upd.ContactName)
	}
	if upd.Notes != nil {
		add("notes", *upd.Notes)
	}
	if upd.Cost != nil {
		add("cost", *upd.Cost)
	}
	if upd.Status != nil {
		status := model.StatusActive
		if strings.EqualFold(*upd.Status, string(model.StatusInactive)) || strings.EqualFold(*upd.Status, "cancelled") {
			status = model.StatusInactive
		}
		add("status", string(status))
	}
	if len(set) > 0 {
		args = append(args, id)
		q := "UPDATE services SET " + strings.Join(set, ",") + " WHERE id=?"
		if _, err := r.DB.ExecContext(ctx, q, args...); err != nil {
			return model.Service{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes a service.
func (r *ServiceRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM services WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendNotification records a fired threshold id on the service. The set
// only ever grows; the engine is the sole writer.
func (r *ServiceRepo) AppendNotification(ctx context.Context, id uint64, thresholdID string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE services SET notifications_sent=JSON_ARRAY_APPEND(notifications_sent,'$',?) WHERE id=?",
		thresholdID, id)
	return err
}
