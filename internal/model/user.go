package model

import "time"

// User represents a clinic staff account as stored in the `users`
// table. Accounts are created administratively (the default admin is
// seeded at first initialization) and the application never deletes
// them. Only the SHA-256 digest of the password is stored, never the
// plain text.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  PasswordHash – hex-encoded SHA-256 digest of the password.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
}

// Session models an entry in the `sessions` table. Each session is
// created on a successful login and destroyed (revoked) on logout.
// The raw session key handed to the client is never stored; only its
// SHA-256 hash. Sessions carry no expiry: revocation is the only way
// a session ends.
//
// Fields:
//  ID        – primary key identifier.
//  Username  – staff account the session belongs to.
//  TokenHash – SHA-256 hex digest of the session key.
//  CreatedAt – timestamp of login.
//  RevokedAt – when the session was logged out (null while active).
type Session struct {
	ID        uint64     // sessions.id
	Username  string     // sessions.username
	TokenHash string     // sessions.token_hash
	CreatedAt time.Time  // sessions.created_at
	RevokedAt *time.Time // sessions.revoked_at (nullable)
}
