package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/audiobook-library/internal/model"
)

// FixedClock returns a clock that always reads t, plus a function to move it.
func FixedClock(t time.Time) (func() time.Time, func(time.Duration)) {
	now := t
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

// AddBook stores a book with sensible defaults and returns it.
func (s *Store) AddBook(title string, published bool, created time.Time) model.Book {
	audio := "audio/" + title + ".mp3"
	preview := "preview/" + title + ".mp3"
	cat := "Fiction"
	b := model.Book{
		ID:          uuid.NewString(),
		Title:       title,
		Author:      "Author of " + title,
		Description: "About " + title,
		Duration:    "1h 0m",
		Category:    &cat,
		IsPublished: published,
		AudioFile:   &audio,
		PreviewFile: &preview,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	s.st.mu.Lock()
	s.st.books[b.ID] = b
	s.st.mu.Unlock()
	return b
}

// AddUser stores a user with the given role and returns it.  The password
// hash is left empty; users that must log in go through registration.
func (s *Store) AddUser(email string, role model.Role, created time.Time) model.User {
	u := model.User{ID: uuid.NewString(), Email: email, Role: role, CreatedAt: created}
	s.st.mu.Lock()
	s.st.users[u.ID] = u
	s.st.mu.Unlock()
	return u
}
