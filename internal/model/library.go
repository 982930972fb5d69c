package model

import "time"

// LibraryEntry is a row of the `library_entries` join table.  The pair
// (UserID, BookID) is unique.
type LibraryEntry struct {
	UserID  string    // library_entries.user_id
	BookID  string    // library_entries.book_id
	AddedAt time.Time // library_entries.added_at
}

// LibraryBook is a saved book as returned by the library listing.
type LibraryBook struct {
	Book
	AddedAt time.Time `json:"addedAt"`
}
