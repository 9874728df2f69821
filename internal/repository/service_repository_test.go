package repository

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renewalhub/renewalhub/internal/model"
)

var serviceRowCols = []string{
	"id", "user_id", "name", "provider", "category_id", "category_name",
	"expiry_date", "expiry_duration_months", "reminder_thresholds", "owners",
	"contact_email", "contact_name", "notes", "cost", "status",
	"notifications_sent", "created_at", "updated_at",
}

func serviceRow(id uint64, name, thresholds, sent string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(serviceRowCols).AddRow(
		id, 1, name, "Acme Inc", nil, "Uncategorized",
		"2026-09-30T00:00:00Z", nil, []byte(thresholds), []byte("[]"),
		"ops@example.com", "Ops", "", 12.5, "active", []byte(sent), now, now)
}

// defaultLadderArg matches the JSON blob of the seeded 30/7/1 thresholds.
type defaultLadderArg struct{}

func (defaultLadderArg) Match(v driver.Value) bool {
	b, ok := v.([]byte)
	if !ok {
		return false
	}
	var ts []model.ReminderThreshold
	if json.Unmarshal(b, &ts) != nil || len(ts) != 3 {
		return false
	}
	return ts[0].DaysBefore == 30 && ts[1].DaysBefore == 7 && ts[2].DaysBefore == 1 &&
		ts[0].ID != "" && ts[1].ID != "" && ts[2].ID != ""
}

// expiryNearArg matches an RFC 3339 expiry string within an hour of want.
type expiryNearArg struct{ want time.Time }

func (m expiryNearArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return false
	}
	d := ts.Sub(m.want)
	if d < 0 {
		d = -d
	}
	return d < time.Hour
}

func TestServiceCreateSeedsDefaultThresholds(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewServiceRepo(db)

	mock.ExpectExec("INSERT INTO services").
		WithArgs(uint64(1), "Datadog", "Acme Inc", nil, "Uncategorized",
			"2026-09-30T00:00:00Z", nil, defaultLadderArg{}, []byte("[]"),
			"ops@example.com", "Ops", "", 12.5, "active", []byte("[]")).
		WillReturnResult(sqlmock.NewResult(7, 1))
	ladder, _ := json.Marshal(model.DefaultThresholds())
	mock.ExpectQuery("SELECT (.+) FROM services WHERE id=").
		WithArgs(uint64(7)).
		WillReturnRows(serviceRow(7, "Datadog", string(ladder), "[]"))

	svc, err := repo.Create(context.Background(), 1, ServiceCreate{
		Name:         "Datadog",
		Provider:     "Acme Inc",
		ExpiryDate:   "2026-09-30T00:00:00Z",
		ContactEmail: "ops@example.com",
		ContactName:  "Ops",
		Cost:         12.5,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), svc.ID)
	assert.Len(t, svc.ReminderThresholds, 3)
	assert.NotNil(t, svc.NotificationsSent)
	assert.Empty(t, svc.NotificationsSent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceCreateComputesExpiryFromDuration(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewServiceRepo(db)

	months := 2
	mock.ExpectExec("INSERT INTO services").
		WithArgs(uint64(1), "Hosting", "", nil, "Uncategorized",
			expiryNearArg{want: time.Now().UTC().AddDate(0, months, 0)},
			&months, defaultLadderArg{}, []byte("[]"),
			"", "", "", 0.0, "active", []byte("[]")).
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectQuery("SELECT (.+) FROM services WHERE id=").
		WithArgs(uint64(8)).
		WillReturnRows(serviceRow(8, "Hosting", "[]", "[]"))

	_, err = repo.Create(context.Background(), 1, ServiceCreate{
		Name:                 "Hosting",
		ExpiryDurationMonths: &months,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceUpdatePartialMerge(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewServiceRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM services WHERE id=").
		WithArgs(uint64(7)).
		WillReturnRows(serviceRow(7, "Datadog", "[]", "[]"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE services SET name=?,cost=? WHERE id=?")).
		WithArgs("Datadog EU", 99.0, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM services WHERE id=").
		WithArgs(uint64(7)).
		WillReturnRows(serviceRow(7, "Datadog EU", "[]", "[]"))

	name, cost := "Datadog EU", 99.0
	svc, err := repo.Update(context.Background(), 7, ServiceUpdate{Name: &name, Cost: &cost})
	require.NoError(t, err)
	assert.Equal(t, "Datadog EU", svc.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceUpdateNormalizesCancelledStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewServiceRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM services WHERE id=").
		WithArgs(uint64(7)).
		WillReturnRows(serviceRow(7, "Datadog", "[]", "[]"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE services SET status=? WHERE id=?")).
		WithArgs("inactive", uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM services WHERE id=").
		WithArgs(uint64(7)).
		WillReturnRows(serviceRow(7, "Datadog", "[]", "[]"))

	status := "cancelled"
	_, err = repo.Update(context.Background(), 7, ServiceUpdate{Status: &status})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceUpdateUnknownID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewServiceRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM services WHERE id=").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows(serviceRowCols))

	name := "x"
	_, err = repo.Update(context.Background(), 99, ServiceUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceAppendNotification(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewServiceRepo(db)

	mock.ExpectExec("JSON_ARRAY_APPEND").
		WithArgs("t30", uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AppendNotification(context.Background(), 7, "t30"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceDeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewServiceRepo(db)

	mock.ExpectExec("DELETE FROM services").
		WithArgs(uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 99), ErrNotFound)
}
