package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Type classifies the domain event a notification announces.
type Type string

const (
	TypeCaseCreated       Type = "CASE_CREATED"
	TypeCaseStatusChanged Type = "CASE_STATUS_CHANGED"
	TypeReportCreated     Type = "REPORT_CREATED"
	TypeSystem            Type = "SYSTEM"
)

// Status is the notification lifecycle state. Trashing is a soft delete: the
// row survives with its read state intact so a restore loses nothing. Only
// the retention sweep removes rows for good.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusTrashed Status = "TRASHED"
)

// Notification is one recipient's copy of a fanned-out event. Rows are owned
// exclusively by their recipient; fan-out duplicates, never shares.
type Notification struct {
	ID      uuid.UUID      `json:"id"`
	UserID  string         `json:"userId"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Type    Type           `json:"type"`
	Action  string         `json:"action"`
	URL     string         `json:"url"`
	// Metadata carries event fields beyond the five well-known ones,
	// serialized as JSON.
	Metadata  string     `json:"metadata,omitempty"`
	Status    Status     `json:"status"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Trashed reports whether the notification sits in the trash.
func (n *Notification) Trashed() bool { return n.Status == StatusTrashed }

// Validate checks the fields every stored notification must carry.
func (n *Notification) Validate() error {
	if n.UserID == "" {
		return errors.New("notification requires a recipient")
	}
	if n.Title == "" {
		return errors.New("notification requires a title")
	}
	if n.Type == "" {
		return errors.New("notification requires a type")
	}
	return nil
}
