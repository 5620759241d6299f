package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/patientdex/patient-dex/internal/model"
	"github.com/patientdex/patient-dex/internal/utils"
)

// UserRepo is the credential store. It holds unsalted SHA-256
// password digests keyed by username and answers login attempts.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a staff account and returns its ID. The password is
// hashed before storage.
func (r *UserRepo) Create(ctx context.Context, username, password string) (uint64, error) {
	username = strings.TrimSpace(username)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?,?)",
		username, utils.HashPassword(password))
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a staff account by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username=? LIMIT 1",
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// Authenticate checks a username/password pair against the stored
// digest. An unknown username yields (false, nil), never an error:
// callers cannot distinguish a missing account from a wrong password.
func (r *UserRepo) Authenticate(ctx context.Context, username, password string) (bool, error) {
	u, err := r.GetByUsername(ctx, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return utils.VerifyPassword(u.PasswordHash, password), nil
}
