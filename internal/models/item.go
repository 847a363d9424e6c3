package models

import (
	"time"

	"github.com/google/uuid"
)

// Item is a tracked document attached to an object.
type Item struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ObjectID  uuid.UUID `json:"object_id" db:"object_id"`
	ClientID  uuid.UUID `json:"client_id" db:"client_id"`
	Name      string    `json:"name" db:"name"`
	CreatedBy uuid.UUID `json:"created_by" db:"created_by"`
	Location  string    `json:"location" db:"location"`
	Notes     string    `json:"notes" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ItemDetail describes the stored file behind an Item and the metadata
// inferred from it. EndDate keeps the date exactly as it appeared in the text.
type ItemDetail struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ItemID     uuid.UUID `json:"item_id" db:"item_id"`
	ClientID   uuid.UUID `json:"client_id" db:"client_id"`
	Name       string    `json:"name" db:"name"`
	FileType   string    `json:"file_type" db:"file_type"`
	FileSize   int64     `json:"file_size" db:"file_size"`
	FileURL    string    `json:"file_url" db:"file_url"`
	StorageKey string    `json:"-" db:"storage_key"`
	EndDate    *string   `json:"end_date" db:"end_date"`
	CreatedBy  uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
