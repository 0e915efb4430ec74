package models

import (
	"encoding/json"
	"time"
)

// CaseType classifies an investigation case.
type CaseType string

const (
	TypeEnquete  CaseType = "ENQUETE"
	TypeFraude   CaseType = "FRAUDE"
	TypeSinistre CaseType = "SINISTRE"
)

// CaseStatus tracks where a case sits in its investigation lifecycle.
type CaseStatus string

const (
	StatusSousEnquete CaseStatus = "SOUS_ENQUETE"
	StatusEnAttente   CaseStatus = "EN_ATTENTE"
	StatusClos        CaseStatus = "CLOS"
	StatusArchive     CaseStatus = "ARCHIVE"
)

// Case is an investigation record, owned by its creator. Data is an opaque
// serialized document describing the case content; the core never interprets
// it beyond duplicate grouping and title extraction.
type Case struct {
	ID        int64      `json:"id"`
	Reference string     `json:"reference"`
	Type      CaseType   `json:"type"`
	Status    CaseStatus `json:"status"`
	Data      string     `json:"dataJson"`
	CreatedBy string     `json:"createdBy"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Patch lists the fields mutable after creation. Nil means "leave unchanged".
type Patch struct {
	Status *CaseStatus `json:"status"`
	Data   *string     `json:"dataJson"`
}

// Permissions answers who may act on a case; edit and delete share the single
// creator-only rule.
type Permissions struct {
	CanEdit   bool `json:"canEdit"`
	CanDelete bool `json:"canDelete"`
}

// DisplayTitle extracts a readable title from the case payload, trying the
// "title" then "caseTitle" keys and falling back to the reference.
func (c *Case) DisplayTitle() string {
	if c.Data != "" {
		var doc map[string]any
		if err := json.Unmarshal([]byte(c.Data), &doc); err == nil {
			for _, key := range []string{"title", "caseTitle"} {
				if title, ok := doc[key].(string); ok && title != "" {
					return title
				}
			}
		}
	}
	return c.Reference
}
