package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxKind string

const (
	OutboxReceipt         OutboxKind = "RECEIPT"
	OutboxCacheInvalidate OutboxKind = "CACHE_INVALIDATE"
	OutboxRealtimeEvent   OutboxKind = "REALTIME_EVENT"
	OutboxAuditLog        OutboxKind = "AUDIT_LOG"
)

type OutboxStatus string

const (
	OutboxPending OutboxStatus = "PENDING"
	OutboxDone    OutboxStatus = "DONE"
	OutboxFailed  OutboxStatus = "FAILED"
)

// OutboxEntry persists a post-commit side-effect intent in the same transaction
// as the sale it belongs to. The dispatcher drains pending entries with capped
// exponential backoff; after MaxAttempts the entry is parked as FAILED.
type OutboxEntry struct {
	BaseModel
	OrganizationID uuid.UUID       `gorm:"type:uuid;index;not null" json:"organization_id"`
	Kind           OutboxKind      `gorm:"type:varchar(30);not null" json:"kind"`
	Payload        json.RawMessage `gorm:"type:jsonb" json:"payload"`
	Status         OutboxStatus    `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Attempts       int             `gorm:"not null;default:0" json:"attempts"`
	NextAttemptAt  time.Time       `gorm:"not null;index" json:"next_attempt_at"`
	LastError      string          `gorm:"type:text" json:"last_error"`
}

// AuditLog records who did what; written by the outbox audit handler.
type AuditLog struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`
	MemberID       uuid.UUID `gorm:"type:uuid" json:"member_id"`
	Action         string    `gorm:"type:varchar(50);not null" json:"action"`
	EntityType     string    `gorm:"type:varchar(50)" json:"entity_type"`
	EntityID       string    `gorm:"type:varchar(100)" json:"entity_id"`
	Detail         string    `gorm:"type:text" json:"detail"`
}
