package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rizqinugroho/equipcheck/audit"
	"github.com/rizqinugroho/equipcheck/repository/models"
)

// SchemaMigration records one applied migration step.
type SchemaMigration struct {
	ID        string    `gorm:"column:migration_id;primaryKey;type:varchar(100)"`
	AppliedAt time.Time `gorm:"column:applied_at;not null"`
}

func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

type migration struct {
	id  string
	run func(tx *gorm.DB) error
}

// Migration steps run in order at startup. Each step is idempotent on its
// own, but once recorded in schema_migrations it is never re-run. Failures
// abort startup; nothing is swallowed.
var migrations = []migration{
	{
		id: "0001_create_users",
		run: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.UserAccount{})
		},
	},
	{
		id: "0002_create_checklists",
		run: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.ChecklistRecord{})
		},
	},
	{
		id: "0003_create_calibrations",
		run: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.CalibrationRecord{})
		},
	},
	{
		id: "0004_index_batch_session_key",
		run: func(tx *gorm.DB) error {
			// Batch-session grouping filters pending rows by (sub_area, date,
			// shift); give the resolver a composite index to walk.
			return tx.Exec(
				"CREATE INDEX IF NOT EXISTS idx_checklists_session ON checklists(sub_area, date, shift)",
			).Error
		},
	},
}

// Migrate applies all unapplied migration steps in order.
func (r *Repository) Migrate() error {
	if err := r.db.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var count int64
		if err := r.db.Model(&SchemaMigration{}).Where("migration_id = ?", m.id).Count(&count).Error; err != nil {
			return fmt.Errorf("checking migration %s: %w", m.id, err)
		}
		if count > 0 {
			continue
		}

		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := m.run(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{ID: m.id, AppliedAt: r.now()}).Error
		})
		if err != nil {
			return fmt.Errorf("applying migration %s: %w", m.id, err)
		}
		r.logger.Info("Applied migration", "id", m.id)
	}
	return nil
}

// SeedAdmin creates the bootstrap admin account on first run. Existing
// accounts are left untouched.
func (r *Repository) SeedAdmin(username, password, fullname string) error {
	var count int64
	if err := r.db.Model(&models.UserAccount{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return fmt.Errorf("checking seed admin: %w", err)
	}
	if count > 0 {
		return nil
	}

	admin := models.UserAccount{
		Username:  username,
		FullName:  fullname,
		Role:      models.RoleAdmin,
		CreatedAt: r.now(),
	}
	if err := admin.SetPassword(password); err != nil {
		return fmt.Errorf("hashing seed admin password: %w", err)
	}
	if err := r.db.Create(&admin).Error; err != nil {
		return fmt.Errorf("creating seed admin: %w", err)
	}
	r.logger.Info("Seeded admin account", "username", username)
	r.appendAudit(audit.Entry{
		Event:      audit.EventUserCreated,
		RecordKind: "user",
		RecordID:   recordID(admin.ID),
		Actor:      "system",
		Detail:     fmt.Sprintf("seed admin %s", username),
	})
	return nil
}
