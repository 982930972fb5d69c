package model

import "time"

// Book is a catalog record from the `books` table.  Optional columns
// are pointers so that NULL survives a round trip through JSON.
type Book struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	CoverImage     string    `json:"coverImage"`
	Duration       string    `json:"duration"`
	Rating         float64   `json:"rating"`
	Category       *string   `json:"category,omitempty"`
	Description    string    `json:"description"`
	ReleaseDate    *string   `json:"releaseDate,omitempty"`
	Narrator       *string   `json:"narrator,omitempty"`
	AdditionalText *string   `json:"additionalText,omitempty"`
	Reviews        int       `json:"reviews"`
	IsPublished    bool      `json:"isPublished"`
	AudioFile      *string   `json:"audioFile,omitempty"`
	PreviewFile    *string   `json:"previewFile,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Restricted returns a copy of the book without the full audio
// reference.  It is served to callers that are not entitled to premium
// content; the preview stays available.
func (b Book) Restricted() Book {
	b.AudioFile = nil
	return b
}
