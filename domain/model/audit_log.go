package model

import (
	"math"
	"time"
)

// TimestampLayout is the wire format for every timestamp the core returns.
const TimestampLayout = "2006-01-02T15:04:05Z"

// AuditLog is an immutable record of one actor performing one action on one target.
// ID and CreatedAt are assigned by the store on insert.
type AuditLog struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false;default:CURRENT_TIMESTAMP;index"`

	// Actor, 0 means unknown
	UserID int64  `gorm:"not null;default:0;index"`
	Action string `gorm:"type:VARCHAR(128);not null;index;check:chk_audit_action,action <> ''"`

	// Target
	TargetType string `gorm:"type:VARCHAR(64);not null;default:''"`
	TargetID   string `gorm:"type:VARCHAR(128);not null;default:''"`
	Scope      string `gorm:"type:VARCHAR(128);not null;default:''"`

	Details string `gorm:"type:TEXT;not null;default:''"`

	// Provenance
	IPAddress string `gorm:"type:VARCHAR(64);not null;default:''"`
	UserAgent string `gorm:"type:TEXT;not null;default:''"`
}

func (AuditLog) TableName() string {
	return "extended_audit_logs"
}

// MaxUserID is the largest user id the store can hold; user_id columns are signed 64-bit.
const MaxUserID = math.MaxInt64

// AuditEvent carries the caller-supplied fields of an audit entry.
type AuditEvent struct {
	UserID     uint64
	Action     string
	TargetType string
	TargetID   string
	Scope      string
	Details    string
	IPAddress  string
	UserAgent  string
}

func (e AuditEvent) UserIDInRange() bool {
	return e.UserID <= MaxUserID
}

func (e AuditEvent) ToModel() AuditLog {
	return AuditLog{
		UserID:     int64(e.UserID),
		Action:     e.Action,
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		Scope:      e.Scope,
		Details:    e.Details,
		IPAddress:  e.IPAddress,
		UserAgent:  e.UserAgent,
	}
}

// FormattedCreatedAt renders CreatedAt in UTC with second precision.
func (a AuditLog) FormattedCreatedAt() string {
	return FormatTimestamp(a.CreatedAt)
}

func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// AuditLogPage is one page of GetLogs plus the filtered total.
type AuditLogPage struct {
	Entries []AuditLog
	Total   int64
}
