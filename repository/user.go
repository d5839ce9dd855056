package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/rizqinugroho/equipcheck/audit"
	"github.com/rizqinugroho/equipcheck/repository/models"
)

// CreateUser creates a new account. Usernames are unique; a duplicate is a
// CONFLICT, not a database error.
func (r *Repository) CreateUser(username, password, fullname, role string) (*models.UserAccount, *RepositoryError) {
	if username == "" {
		return nil, validationError("username is required")
	}
	if password == "" {
		return nil, validationError("password is required")
	}
	if fullname == "" {
		return nil, validationError("full name is required")
	}
	if !models.ValidRole(role) {
		return nil, validationError(fmt.Sprintf("role %q is not one of admin, operator, manager", role))
	}

	user := models.UserAccount{
		Username:  username,
		FullName:  fullname,
		Role:      role,
		CreatedAt: r.now(),
	}
	if err := user.SetPassword(password); err != nil {
		return nil, databaseError(err)
	}

	dbTx := r.db.Begin()

	var count int64
	if err := dbTx.Model(&models.UserAccount{}).Where("username = ?", username).Count(&count).Error; err != nil {
		dbTx.Rollback()
		return nil, databaseError(err)
	}
	if count > 0 {
		dbTx.Rollback()
		return nil, &RepositoryError{
			Code:    ErrCodeConflict,
			Message: "Username already taken",
			Detail:  fmt.Sprintf("an account named %q already exists", username),
		}
	}

	if err := dbTx.Create(&user).Error; err != nil {
		dbTx.Rollback()
		return nil, databaseError(err)
	}
	if err := dbTx.Commit().Error; err != nil {
		return nil, databaseError(err)
	}

	r.appendAudit(audit.Entry{
		Event:      audit.EventUserCreated,
		RecordKind: "user",
		RecordID:   recordID(user.ID),
		Detail:     fmt.Sprintf("%s (%s)", username, role),
	})
	return &user, nil
}

// GetUser returns one account by id.
func (r *Repository) GetUser(id uint) (*models.UserAccount, *RepositoryError) {
	var user models.UserAccount
	err := r.db.First(&user, "user_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("User", id)
		}
		return nil, databaseError(err)
	}
	return &user, nil
}

// Authenticate checks a username/password pair. The same UNAUTHORIZED error
// covers an unknown username and a wrong password.
func (r *Repository) Authenticate(username, password string) (*models.UserAccount, *RepositoryError) {
	unauthorized := &RepositoryError{
		Code:    ErrCodeUnauthorized,
		Message: "Authentication failed",
		Detail:  "unknown username or wrong password",
	}

	var user models.UserAccount
	err := r.db.First(&user, "username = ?", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, unauthorized
		}
		return nil, databaseError(err)
	}
	if !user.CheckPassword(password) {
		return nil, unauthorized
	}
	return &user, nil
}

// UpdateSignature replaces the account's stored profile signature. The new
// image only affects future approvals; records approved earlier keep their
// own snapshot.
func (r *Repository) UpdateSignature(userID uint, signature []byte) (*models.UserAccount, *RepositoryError) {
	if len(signature) == 0 {
		return nil, &RepositoryError{
			Code:    ErrCodeInvalidSignature,
			Message: "Signature image is empty",
			Detail:  "an empty signature cannot be stored on the profile",
		}
	}

	dbTx := r.db.Begin()

	var user models.UserAccount
	err := dbTx.First(&user, "user_id = ?", userID).Error
	if err != nil {
		dbTx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("User", userID)
		}
		return nil, databaseError(err)
	}

	user.Signature = copyBytes(signature)
	if err := dbTx.Model(&user).Update("signature", user.Signature).Error; err != nil {
		dbTx.Rollback()
		return nil, databaseError(err)
	}
	if err := dbTx.Commit().Error; err != nil {
		return nil, databaseError(err)
	}

	r.appendAudit(audit.Entry{
		Event:      audit.EventSignatureUpdated,
		RecordKind: "user",
		RecordID:   recordID(userID),
		Actor:      user.Username,
	})
	return &user, nil
}
