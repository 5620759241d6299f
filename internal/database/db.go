package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"github.com/patientdex/patient-dex/internal/utils"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// schema contains the CREATE TABLE statements for the clinic store.
// Dates of birth and visit dates are CHAR(10) "YYYY-MM-DD" strings on
// purpose: monthly reporting compares them lexicographically against
// a fixed "YYYY-MM-31" upper bound. Cascades run
// patients -> visits -> (visit_tags, documents).
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		username VARCHAR(100) NOT NULL,
		password_hash CHAR(64) NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		username VARCHAR(100) NOT NULL,
		token_hash CHAR(64) NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		revoked_at DATETIME NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_sessions_token (token_hash)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS patients (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(255) NOT NULL,
		dob CHAR(10) NOT NULL,
		gender VARCHAR(30) NOT NULL DEFAULT '',
		diagnosis TEXT,
		notes TEXT,
		status VARCHAR(20) NOT NULL DEFAULT 'ALIVE',
		handler_user VARCHAR(100) NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_patients_identity (name, dob)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS visits (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		patient_id BIGINT UNSIGNED NOT NULL,
		visit_date CHAR(10) NOT NULL,
		reason VARCHAR(255) NOT NULL DEFAULT '',
		outcome TEXT,
		progress_status VARCHAR(20) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_visits_patient (patient_id),
		KEY idx_visits_date (visit_date),
		CONSTRAINT fk_visits_patient FOREIGN KEY (patient_id)
			REFERENCES patients (id) ON DELETE CASCADE
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS visit_tags (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		visit_id BIGINT UNSIGNED NOT NULL,
		position INT UNSIGNED NOT NULL,
		tag VARCHAR(50) NOT NULL,
		PRIMARY KEY (id),
		KEY idx_visit_tags_visit (visit_id),
		KEY idx_visit_tags_tag (tag),
		CONSTRAINT fk_visit_tags_visit FOREIGN KEY (visit_id)
			REFERENCES visits (id) ON DELETE CASCADE
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS documents (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		visit_id BIGINT UNSIGNED NOT NULL,
		file_name VARCHAR(255) NOT NULL,
		file_path VARCHAR(500) NOT NULL,
		uploaded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_documents_visit (visit_id),
		CONSTRAINT fk_documents_visit FOREIGN KEY (visit_id)
			REFERENCES visits (id) ON DELETE CASCADE
	) ENGINE=InnoDB`,
}

// seedUsername / seedPassword are the credentials of the account
// created at first initialization. The password is documented to the
// operator and expected to be changed; the application does not force
// rotation.
const (
	seedUsername = "admin"
	seedPassword = "admin123"
)

// Init creates the schema if missing and seeds the default admin
// account. It is safe to call on every startup.
func Init(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return seedAdmin(ctx, db)
}

// seedAdmin inserts the default admin account when no such user
// exists yet.
func seedAdmin(ctx context.Context, db *sql.DB) error {
	var n int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE username=?", seedUsername).Scan(&n)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?,?)",
		seedUsername, utils.HashPassword(seedPassword))
	if err != nil {
		return err
	}
	log.Info().Str("username", seedUsername).
		Msg("seeded default admin account; change its password after first login")
	return nil
}
