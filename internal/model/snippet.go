// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Snippet is a titled piece of text owned by a user and filed under one tag.
//
// TagID is the foreign key that gets persisted. Tag is the joined row the
// repositories fill in on every read, so callers never need a second lookup
// to render the embedded tag.
type Snippet struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	UserID    int64     `db:"user_id"`
	TagID     int64     `db:"tag_id"`
	Tag       Tag       `db:"-"`
}
