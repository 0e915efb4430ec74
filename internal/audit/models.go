package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates the audited domain actions.
//
// The taxonomy is intentionally narrow: report updates and deletions reuse
// EventReportCreated because no dedicated kinds exist in the trail consumers,
// so extending the enum would orphan historical rows. Accepted compression.
type EventType string

const (
	EventCaseCreated       EventType = "CASE_CREATED"
	EventCaseStatusChanged EventType = "CASE_STATUS_CHANGED"
	EventCaseDeleted       EventType = "CASE_DELETED"
	EventReportCreated     EventType = "REPORT_CREATED"
	EventUserRegistered    EventType = "USER_REGISTERED"
	EventUserLoggedIn      EventType = "USER_LOGGED_IN"
)

// Event is an immutable record of a domain action. It is written once and
// never mutated; only the retention sweep (out of core scope) removes rows.
type Event struct {
	ID        uuid.UUID
	Type      EventType
	Actor     string
	Message   string
	CreatedAt time.Time
}
