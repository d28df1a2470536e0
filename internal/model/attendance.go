package model

import (
	"time"

	"github.com/google/uuid"
)

// Attendance is the open-row-per-member clock log: clock-in creates a row with
// a nil ClockOutAt, clock-out closes it. A member has at most one open row.
type Attendance struct {
	BaseModel
	OrganizationID uuid.UUID  `gorm:"type:uuid;index;not null" json:"organization_id"`
	MemberID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"member_id"`
	LocationID     *uuid.UUID `gorm:"type:uuid" json:"location_id,omitempty"`
	ClockInAt      time.Time  `gorm:"not null" json:"clock_in_at"`
	ClockOutAt     *time.Time `json:"clock_out_at,omitempty"`
	Note           string     `gorm:"type:text" json:"note"`
}
