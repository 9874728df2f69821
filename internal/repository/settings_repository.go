package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"

	"github.com/renewalhub/renewalhub/internal/model"
)

// settingsRowID keys the singleton row; there is exactly one settings record.
const settingsRowID = 1

type SettingsRepo struct{ DB *sql.DB }

func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{DB: db} }

const settingsCols = `email_provider,resend_api_key,sender_email,sender_name,
smtp_host,smtp_port,smtp_username,smtp_password,smtp_use_tls,company_name,
notification_thresholds,logo_url,company_tagline,primary_color,theme_mode,
accent_color,updated_at,updated_by`

// Load reads the settings singleton, lazily inserting the defaults the
// first time anything asks for it.
func (r *SettingsRepo) Load(ctx context.Context) (model.AppSettings, error) {
	s, err := r.get(ctx)
	if err == nil {
		return s, nil
	}
	if err != sql.ErrNoRows {
		return model.AppSettings{}, err
	}

	def := model.DefaultSettings()
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO settings
		 (id,email_provider,resend_api_key,sender_email,sender_name,smtp_host,smtp_port,
		  smtp_username,smtp_password,smtp_use_tls,company_name,notification_thresholds,
		  logo_url,company_tagline,primary_color,theme_mode,accent_color)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		settingsRowID, def.EmailProvider, def.ResendAPIKey, def.SenderEmail, def.SenderName,
		def.SMTPHost, def.SMTPPort, def.SMTPUsername, def.SMTPPassword, def.SMTPUseTLS,
		def.CompanyName, mustJSON(def.NotificationThresholds), def.LogoURL,
		def.CompanyTagline, def.PrimaryColor, def.ThemeMode, def.AccentColor)
	if err != nil {
		// A concurrent first read may have inserted already; re-read.
		if s, rerr := r.get(ctx); rerr == nil {
			return s, nil
		}
		return model.AppSettings{}, err
	}
	return r.get(ctx)
}

func (r *SettingsRepo) get(ctx context.Context) (model.AppSettings, error) {
	var (
		s             model.AppSettings
		thresholdsRaw []byte
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+settingsCols+" FROM settings WHERE id=? LIMIT 1", settingsRowID).
		Scan(&s.EmailProvider, &s.ResendAPIKey, &s.SenderEmail, &s.SenderName,
			&s.SMTPHost, &s.SMTPPort, &s.SMTPUsername, &s.SMTPPassword, &s.SMTPUseTLS,
			&s.CompanyName, &thresholdsRaw, &s.LogoURL, &s.CompanyTagline,
			&s.PrimaryColor, &s.ThemeMode, &s.AccentColor, &s.UpdatedAt, &s.UpdatedBy)
	if err != nil {
		return s, err
	}
	_ = json.Unmarshal(thresholdsRaw, &s.NotificationThresholds)
	return s, nil
}

// SettingsUpdate is a partial-merge payload; nil fields keep their value.
type SettingsUpdate struct {
	EmailProvider          *string `json:"email_provider"`
	ResendAPIKey           *string `json:"resend_api_key"`
	SenderEmail            *string `json:"sender_email"`
	SenderName             *string `json:"sender_name"`
	SMTPHost               *string `json:"smtp_host"`
	SMTPPort               *int    `json:"smtp_port"`
	SMTPUsername           *string `json:"smtp_username"`
	SMTPPassword           *string `json:"smtp_password"`
	SMTPUseTLS             *bool   `json:"smtp_use_tls"`
	CompanyName            *string `json:"company_name"`
	NotificationThresholds *[]int  `json:"notification_thresholds"`
	LogoURL                *string `json:"logo_url"`
	CompanyTagline         *string `json:"company_tagline"`
	PrimaryColor           *string `json:"primary_color"`
	ThemeMode              *string `json:"theme_mode"`
	AccentColor            *string `json:"accent_color"`
}

// Update applies a partial merge and stamps the editing admin. Threshold
// lists are stored sorted descending so the engine always walks the
// furthest-out reminder first.
func (r *SettingsRepo) Update(ctx context.Context, updatedBy uint64, upd SettingsUpdate) error {
	if _, err := r.Load(ctx); err != nil {
		return err
	}

	set := []string{"updated_at=NOW()", "updated_by=?"}
	args := []any{updatedBy}
	add := func(col string, v any) {
		set = append(set, col+"=?")
		args = append(args, v)
	}
	if upd.EmailProvider != nil {
		add("email_provider", *upd.EmailProvider)
	}
	if upd.ResendAPIKey != nil {
		add("resend_api_key", *upd.ResendAPIKey)
	}
	if upd.SenderEmail != nil {
		add("sender_email", *upd.SenderEmail)
	}
	if upd.SenderName != nil {
		add("sender_name", *upd.SenderName)
	}
	if upd.SMTPHost != nil {
		add("smtp_host", *upd.SMTPHost)
	}
	if upd.SMTPPort != nil {
		add("smtp_port", *upd.SMTPPort)
	}
	if upd.SMTPUsername != nil {
		add("smtp_username", *upd.SMTPUsername)
	}
	if upd.SMTPPassword != nil {
		add("smtp_password", *upd.SMTPPassword)
	}
	if upd.SMTPUseTLS != nil {
		add("smtp_use_tls", *upd.SMTPUseTLS)
	}
	if upd.CompanyName != nil {
		add("company_name", *upd.CompanyName)
	}
	if upd.NotificationThresholds != nil {
		ts := append([]int(nil), (*upd.NotificationThresholds)...)
		sort.Sort(sort.Reverse(sort.IntSlice(ts)))
		add("notification_thresholds", mustJSON(ts))
	}
	if upd.LogoURL != nil {
		add("logo_url", *upd.LogoURL)
	}
	if upd.CompanyTagline != nil {
		add("company_tagline", *upd.CompanyTagline)
	}
	if upd.PrimaryColor != nil {
		add("primary_color", *upd.PrimaryColor)
	}
	if upd.ThemeMode != nil {
		add("theme_mode", *upd.ThemeMode)
	}
	if upd.AccentColor != nil {
		add("accent_color", *upd.AccentColor)
	}

	args = append(args, settingsRowID)
	q := "UPDATE settings SET " + joinSet(set) + " WHERE id=?"
	_, err := r.DB.ExecContext(ctx, q, args...)
	return err
}

func joinSet(set []string) string {
	out := set[0]
	for _, s := range set[1:] {
		out += "," + s
	}
	return out
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("[]")
	}
	return b
}
