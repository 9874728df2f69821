package model

import "time"

// AppSettings is the single global configuration record. It is lazily
// created with defaults on first read and keyed by a fixed row id, so there
// is always exactly one. It is loaded fresh on every sweep so admin edits
// take effect on the next run without a restart.
type AppSettings struct {
	// Email provider: "resend" uses the Resend API, anything else goes
	// through SMTP (known provider names pick up host/port presets).
	EmailProvider string `json:"email_provider"`
	ResendAPIKey  string `json:"resend_api_key,omitempty"`
	SenderEmail   string `json:"sender_email"`
	SenderName    string `json:"sender_name"`

	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	SMTPPassword string `json:"smtp_password,omitempty"`
	SMTPUseTLS   bool   `json:"smtp_use_tls"`

	CompanyName string `json:"company_name"`
	// Fallback reminder ladder for services that define no thresholds of
	// their own. Stored sorted descending (furthest-out first).
	NotificationThresholds []int `json:"notification_thresholds"`

	// Branding/theme. Stored and served verbatim; no behavior attached.
	LogoURL        string `json:"logo_url"`
	CompanyTagline string `json:"company_tagline"`
	PrimaryColor   string `json:"primary_color"`
	ThemeMode      string `json:"theme_mode"`
	AccentColor    string `json:"accent_color"`

	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy uint64    `json:"updated_by"`
}

// DefaultSettings are the values written on first read of the singleton.
func DefaultSettings() AppSettings {
	return AppSettings{
		EmailProvider:          "resend",
		SenderEmail:            "onboarding@resend.dev",
		SenderName:             "Service Renewal Hub",
		SMTPPort:               587,
		SMTPUseTLS:             true,
		CompanyName:            "Your Organization",
		NotificationThresholds: []int{30, 7, 1},
		CompanyTagline:         "Service Management System",
		PrimaryColor:           "#06b6d4",
		ThemeMode:              "dark",
		AccentColor:            "#06b6d4",
	}
}
