package model

// Tag is a named category. Titles are unique across the table.
type Tag struct {
	ID    int64  `db:"id"`
	Title string `db:"title"`
}
