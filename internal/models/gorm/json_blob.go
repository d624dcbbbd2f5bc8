package gorm

import (
	"database/sql/driver"
	"fmt"
)

// RawJSON holds a jsonb column verbatim. It is written as text so the postgres
// driver casts it instead of sending bytea.
type RawJSON []byte

// Scan implements the sql.Scanner interface
func (j *RawJSON) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*j = nil
	case string:
		*j = RawJSON(v)
	case []byte:
		*j = append(RawJSON(nil), v...)
	default:
		return fmt.Errorf("RawJSON: cannot scan type %T", src)
	}
	return nil
}

// Value implements the driver.Valuer interface
func (j RawJSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

// AllModels is the migration set used by tests and local SQLite runs.
func AllModels() []interface{} {
	return []interface{}{
		&Pilot{},
		&Aircraft{},
		&Flight{},
		&SafetyReport{},
		&RouteTargetTime{},
	}
}
