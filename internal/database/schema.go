package database

import (
	"context"
	"database/sql"
)

// EnsureSchema creates the tables on first boot. Statements are idempotent;
// the embedded threshold/owner/fired-set lists live in JSON columns owned by
// the service row, never in tables of their own.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL DEFAULT '',
			role VARCHAR(16) NOT NULL DEFAULT 'user',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT UNSIGNED NOT NULL,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			color VARCHAR(32) NOT NULL DEFAULT '#06b6d4',
			icon VARCHAR(64) NOT NULL DEFAULT 'folder',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_owner_name (user_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS services (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT UNSIGNED NOT NULL,
			name VARCHAR(255) NOT NULL,
			provider VARCHAR(255) NOT NULL DEFAULT '',
			category_id BIGINT UNSIGNED NULL,
			category_name VARCHAR(255) NOT NULL DEFAULT 'Uncategorized',
			expiry_date VARCHAR(64) NOT NULL DEFAULT '',
			expiry_duration_months INT NULL,
			reminder_thresholds JSON NOT NULL,
			owners JSON NOT NULL,
			contact_email VARCHAR(255) NOT NULL DEFAULT '',
			contact_name VARCHAR(255) NOT NULL DEFAULT '',
			notes TEXT,
			cost DOUBLE NOT NULL DEFAULT 0,
			status VARCHAR(16) NOT NULL DEFAULT 'active',
			notifications_sent JSON NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			KEY idx_status (status),
			KEY idx_category (category_id)
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id TINYINT UNSIGNED PRIMARY KEY,
			email_provider VARCHAR(32) NOT NULL DEFAULT 'resend',
			resend_api_key VARCHAR(255) NOT NULL DEFAULT '',
			sender_email VARCHAR(255) NOT NULL DEFAULT '',
			sender_name VARCHAR(255) NOT NULL DEFAULT '',
			smtp_host VARCHAR(255) NOT NULL DEFAULT '',
			smtp_port INT NOT NULL DEFAULT 587,
			smtp_username VARCHAR(255) NOT NULL DEFAULT '',
			smtp_password VARCHAR(255) NOT NULL DEFAULT '',
			smtp_use_tls BOOLEAN NOT NULL DEFAULT TRUE,
			company_name VARCHAR(255) NOT NULL DEFAULT '',
			notification_thresholds JSON NOT NULL,
			logo_url VARCHAR(512) NOT NULL DEFAULT '',
			company_tagline VARCHAR(255) NOT NULL DEFAULT '',
			primary_color VARCHAR(32) NOT NULL DEFAULT '#06b6d4',
			theme_mode VARCHAR(16) NOT NULL DEFAULT 'dark',
			accent_color VARCHAR(32) NOT NULL DEFAULT '#06b6d4',
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_by BIGINT UNSIGNED NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS email_logs (
			id CHAR(36) PRIMARY KEY,
			service_id BIGINT UNSIGNED NOT NULL,
			service_name VARCHAR(255) NOT NULL,
			threshold_id VARCHAR(64) NOT NULL DEFAULT '',
			threshold_label VARCHAR(255) NOT NULL DEFAULT '',
			days_until_expiry INT NOT NULL,
			recipients JSON NOT NULL,
			status VARCHAR(16) NOT NULL,
			sent_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			KEY idx_sent_at (sent_at)
		)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
