package constants

import (
	"database/sql/driver"
	"fmt"
)

// Severity mirrors the safety_reports.severity check constraint.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) String() string { return string(s) }

// Alertable reports whether a report of this severity is pushed to the alert stream.
func (s Severity) Alertable() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// ReportStatus mirrors safety_reports.status.
type ReportStatus string

const (
	ReportSubmitted   ReportStatus = "submitted"
	ReportUnderReview ReportStatus = "under-review"
	ReportResolved    ReportStatus = "resolved"
	ReportClosed      ReportStatus = "closed"
)

func (s ReportStatus) String() string { return string(s) }

// Scan implements the sql.Scanner interface
func (s *Severity) Scan(src interface{}) error {
	v, err := scanString(src, "Severity")
	*s = Severity(v)
	return err
}

// Value implements the driver.Valuer interface
func (s Severity) Value() (driver.Value, error) { return string(s), nil }

func (s *ReportStatus) Scan(src interface{}) error {
	v, err := scanString(src, "ReportStatus")
	*s = ReportStatus(v)
	return err
}

func (s ReportStatus) Value() (driver.Value, error) { return string(s), nil }

func scanString(src interface{}, name string) (string, error) {
	switch v := src.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("%s: cannot scan type %T", name, src)
	}
}
