package database

import (
	"context"
	"database/sql"
)

// EnsureSchema creates the tables the service needs when they do not
// exist yet, so a fresh database is usable without a separate
// migration step.
//
// The bookings table enforces slot uniqueness among ACTIVE rows only:
// active_slot is a stored generated column that mirrors time_slot for
// active rows and is NULL for cancelled ones, and MySQL unique keys
// ignore NULLs.  Cancelling a booking therefore frees its slot while
// the row itself is kept for history.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(64) NOT NULL,
			email VARCHAR(255) NOT NULL,
			password_hash VARCHAR(100) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_username (username),
			UNIQUE KEY uniq_email (email)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT UNSIGNED NOT NULL,
			date DATE NOT NULL,
			time_slot VARCHAR(13) NOT NULL,
			status ENUM('ACTIVE','CANCELLED') NOT NULL DEFAULT 'ACTIVE',
			active_slot VARCHAR(13) GENERATED ALWAYS AS
				(IF(status = 'ACTIVE', time_slot, NULL)) STORED,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_active_slot (date, active_slot),
			KEY idx_user_date (user_id, date, status),
			CONSTRAINT fk_bookings_user FOREIGN KEY (user_id) REFERENCES users(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT UNSIGNED NOT NULL,
			token_hash CHAR(64) NOT NULL,
			expires_at DATETIME NOT NULL,
			revoked_at DATETIME NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_token_hash (token_hash),
			KEY idx_user (user_id),
			CONSTRAINT fk_tokens_user FOREIGN KEY (user_id) REFERENCES users(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
