package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User roles
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleManager  = "manager"
)

// ValidRole reports whether role is one of the known account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleOperator, RoleManager:
		return true
	}
	return false
}

// UserAccount represents an operator, manager or admin account. The stored
// Signature image is the account's current profile signature; it is reused as
// the default signature for approvals and copied by value into the approved
// record, so replacing it later never rewrites history.
type UserAccount struct {
	ID           uint      `gorm:"column:user_id;primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"column:username;type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(100);not null" json:"-"`
	FullName     string    `gorm:"column:fullname;type:varchar(100);not null" json:"fullname"`
	Role         string    `gorm:"column:role;type:varchar(20);not null" json:"role"`
	Signature    []byte    `gorm:"column:signature;type:blob" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at;not null" json:"created_at"`

	// Relationships
	Checklists   []ChecklistRecord   `gorm:"foreignKey:CreatorID" json:"-"`
	Calibrations []CalibrationRecord `gorm:"foreignKey:CreatorID" json:"-"`
}

func (UserAccount) TableName() string {
	return "users"
}

// SetPassword hashes the plaintext credential with bcrypt.
func (u *UserAccount) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether the plaintext credential matches the stored hash.
func (u *UserAccount) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}
