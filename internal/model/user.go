package model

import "time"

// User is a login account.
//
// Accounts are provisioned by an operator (see the `user create` command),
// never through the HTTP API. PasswordHash holds the full bcrypt output,
// salt and cost included. LastLogin is nil (NULL) until the first
// successful login.
type User struct {
	ID           int64      `json:"id"          db:"id"`
	Username     string     `json:"username"    db:"username"`
	PasswordHash string     `json:"-"           db:"password_hash"`
	Email        string     `json:"email"       db:"email"`
	FirstName    string     `json:"firstName"   db:"first_name"`
	LastName     string     `json:"lastName"    db:"last_name"`
	IsActive     bool       `json:"isActive"    db:"is_active"`
	DateJoined   time.Time  `json:"dateJoined"  db:"date_joined"`
	LastLogin    *time.Time `json:"lastLogin"   db:"last_login"`
}
