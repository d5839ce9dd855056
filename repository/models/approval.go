package models

import "time"

// Approval status values. Pending is the only state a record can be created
// in; Approved is terminal.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
)

// RefZone is the fixed reference time zone (UTC+8) all creation and approval
// timestamps are stamped in, so records sort consistently across shifts
// regardless of the host's local zone.
var RefZone = time.FixedZone("UTC+8", 8*60*60)

// Now returns the current time in the reference zone.
func Now() time.Time {
	return time.Now().In(RefZone)
}

// Approval is the approval sub-structure embedded in every approvable record.
// The four fields transition together: before approval ApprovedBy, ApprovedAt
// and Signature are all absent; after approval all are set. Signature is a
// by-value snapshot of the approver's signature image at approval time.
type Approval struct {
	Status     string     `gorm:"column:approval_status;type:varchar(20);not null;default:'Pending';index" json:"approval_status"`
	ApprovedBy *string    `gorm:"column:approved_by;type:varchar(100)" json:"approved_by,omitempty"`
	ApprovedAt *time.Time `gorm:"column:approved_at" json:"approved_at,omitempty"`
	Signature  []byte     `gorm:"column:approval_signature;type:blob" json:"-"`
}

// IsApproved reports whether the record has reached the terminal state.
func (a Approval) IsApproved() bool {
	return a.Status == StatusApproved
}
