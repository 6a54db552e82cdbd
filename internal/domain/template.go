package domain

import (
	"encoding/json"
	"time"
)

// PublishedTemplate is a rendered index template kept in the template store.
type PublishedTemplate struct {
	Name        string          `json:"name"`
	Document    string          `json:"document"`
	Title       string          `json:"title"`
	Role        string          `json:"role"`
	DocType     string          `json:"doc_type"`
	Checksum    string          `json:"checksum"`
	PublishedAt time.Time       `json:"published_at"`
	Body        json.RawMessage `json:"body"`
}
