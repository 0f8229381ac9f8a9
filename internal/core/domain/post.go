package domain

import (
	"time"

	"github.com/google/uuid"
)

// Post is a short text entry owned by an account.
type Post struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	AuthorID uuid.UUID `json:"author_id"`
	PubDate  time.Time `json:"pub_date"`
}
