package model

import (
	"time"
)

type EntryStatus string

const (
	StatusPending  EntryStatus = "pending"
	StatusApproved EntryStatus = "approved"
	StatusRejected EntryStatus = "rejected"
)

func (s EntryStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

type Entry struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Amount      float64      `json:"amount"`
	Status      EntryStatus  `json:"status"`
	CreatedByID string       `json:"created_by_id"`
	CreatedBy   *UserSummary `json:"created_by,omitempty"` // Joined for display
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// OwnedBy reports whether userID created the entry.
func (e *Entry) OwnedBy(userID string) bool {
	return e.CreatedByID == userID
}

// EntryFilter narrows entry listings. Zero values mean "any".
type EntryFilter struct {
	CreatedByID string
	Status      EntryStatus
	Search      string // case-insensitive substring over title and description
}

// EntryPatch carries the fields of a partial update; nil means unchanged.
type EntryPatch struct {
	Title       *string
	Description *string
	Amount      *float64
}

func (p EntryPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Amount == nil
}
