package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// LogEntry is one append-only audit record. UID is nil for system actions.
type LogEntry struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	UID     *string   `gorm:"column:uid;size:64;index" json:"uid"`
	Action  string    `gorm:"size:100;index;not null" json:"action"`
	Details Details   `gorm:"type:text" json:"details"`
	Ts      time.Time `gorm:"column:ts;index" json:"ts"`
}

func (LogEntry) TableName() string { return "log_entries" }

// Details is the opaque structured payload of a log entry, stored as JSON.
type Details map[string]interface{}

// Value implements the driver.Valuer interface
func (d Details) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (d *Details) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported details type %T", value)
	}
	if len(raw) == 0 {
		*d = nil
		return nil
	}
	return json.Unmarshal(raw, d)
}
