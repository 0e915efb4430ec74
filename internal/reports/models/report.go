package models

import (
	"fmt"
	"time"
)

// ReportStatus tracks availability of a report for download workflows.
type ReportStatus string

const (
	StatusDisponible   ReportStatus = "DISPONIBLE"
	StatusIndisponible ReportStatus = "INDISPONIBLE"
	StatusArchive      ReportStatus = "ARCHIVE"
)

// Report is an investigation document tied to a case. Beneficiaries and
// Insureds may hold a single name or a serialized list; the core treats both
// as opaque non-blank strings. CaseID is loosely typed: either a numeric case
// id or a case reference code.
type Report struct {
	ID            int64        `json:"id"`
	Title         string       `json:"title"`
	Beneficiaries string       `json:"beneficiaries"`
	Insureds      string       `json:"insureds"`
	Initiator     string       `json:"initiator"`
	Subscriber    string       `json:"subscriber"`
	CaseID        string       `json:"caseId"`
	Status        ReportStatus `json:"status"`
	CreatedBy     string       `json:"createdBy"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// ReportFile is the metadata row for one uploaded file; the bytes live in the
// blob store under StorageKey.
type ReportFile struct {
	ID          int64     `json:"id"`
	ReportID    int64     `json:"reportId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}

// StorageKey is the blob store key for this file's content.
func (f *ReportFile) StorageKey() string {
	return fmt.Sprintf("reports/%d/%d", f.ReportID, f.ID)
}
