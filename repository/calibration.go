package repository

import (
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rizqinugroho/equipcheck/audit"
	"github.com/rizqinugroho/equipcheck/repository/models"
)

// CalibrationDraft is the presentation layer's input for one calibration
// report. Status is not part of the draft; every report starts Pending.
type CalibrationDraft struct {
	CreatorID      uint                    `json:"creator_id"`
	DocumentNumber string                  `json:"document_number"`
	Date           string                  `json:"date"`
	Instrument     string                  `json:"instrument"`
	Manufacturer   string                  `json:"manufacturer"`
	Model          string                  `json:"model"`
	SerialNumber   string                  `json:"serial_number"`
	RangeInput     string                  `json:"range_input"`
	RangeOutput    string                  `json:"range_output"`
	Rows           []models.CalibrationRow `json:"rows"`
	Note           string                  `json:"note"`
}

// CreateCalibration persists one calibration report with status forced to
// Pending.
func (r *Repository) CreateCalibration(draft *CalibrationDraft) (*models.CalibrationRecord, *RepositoryError) {
	if draft.CreatorID == 0 {
		return nil, validationError("creator is required")
	}
	if draft.Date == "" {
		return nil, validationError("date is required")
	}
	if !validDate(draft.Date) {
		return nil, validationError(fmt.Sprintf("date %q is not in YYYY-MM-DD format", draft.Date))
	}
	if draft.Instrument == "" {
		return nil, validationError("instrument name is required")
	}

	record := &models.CalibrationRecord{
		CreatorID:      draft.CreatorID,
		DocumentNumber: draft.DocumentNumber,
		Date:           draft.Date,
		Instrument:     draft.Instrument,
		Manufacturer:   draft.Manufacturer,
		Model:          draft.Model,
		SerialNumber:   draft.SerialNumber,
		RangeInput:     draft.RangeInput,
		RangeOutput:    draft.RangeOutput,
		Rows:           datatypes.NewJSONSlice(draft.Rows),
		Note:           draft.Note,
		CreatedAt:      r.now(),
		Approval:       models.Approval{Status: models.StatusPending},
	}

	dbTx := r.db.Begin()
	if err := dbTx.Create(record).Error; err != nil {
		dbTx.Rollback()
		return nil, databaseError(err)
	}
	if err := dbTx.Commit().Error; err != nil {
		return nil, databaseError(err)
	}

	r.appendAudit(audit.Entry{
		Event:      audit.EventRecordCreated,
		RecordKind: "calibration",
		RecordID:   recordID(record.ID),
		Actor:      recordID(record.CreatorID),
		Detail:     record.Instrument,
	})
	return record, nil
}

// GetCalibration returns one calibration report by id.
func (r *Repository) GetCalibration(id uint) (*models.CalibrationRecord, *RepositoryError) {
	var record models.CalibrationRecord
	err := r.db.Preload("Creator").First(&record, "calibration_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("Calibration", id)
		}
		return nil, databaseError(err)
	}
	return &record, nil
}

// ListCalibrations returns reports matching filter, date descending with ties
// broken by id descending.
func (r *Repository) ListCalibrations(filter RecordFilter) ([]models.CalibrationRecord, *RepositoryError) {
	query := r.db.Model(&models.CalibrationRecord{})
	if filter.CreatorID != 0 {
		query = query.Where("creator_id = ?", filter.CreatorID)
	}
	if filter.Status != "" {
		query = query.Where("approval_status = ?", filter.Status)
	}

	var records []models.CalibrationRecord
	if err := query.Order("date DESC, calibration_id DESC").Find(&records).Error; err != nil {
		return nil, databaseError(err)
	}
	return records, nil
}

// ApproveCalibration transitions one pending calibration report to Approved,
// with the same atomic compare-and-set semantics as checklist approval.
func (r *Repository) ApproveCalibration(id uint, approver string, signature []byte) (*models.CalibrationRecord, *RepositoryError) {
	if repoErr := validateApproval(approver, signature); repoErr != nil {
		return nil, repoErr
	}

	dbTx := r.db.Begin()

	var record models.CalibrationRecord
	err := dbTx.First(&record, "calibration_id = ?", id).Error
	if err != nil {
		dbTx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("Calibration", id)
		}
		return nil, databaseError(err)
	}
	if record.IsApproved() {
		dbTx.Rollback()
		return nil, alreadyApprovedError("Calibration", id)
	}

	now := r.now()
	result := dbTx.Model(&models.CalibrationRecord{}).
		Where("calibration_id = ? AND approval_status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"approval_status":    models.StatusApproved,
			"approved_by":        approver,
			"approved_at":        now,
			"approval_signature": copyBytes(signature),
		})
	if result.Error != nil {
		dbTx.Rollback()
		return nil, databaseError(result.Error)
	}
	if result.RowsAffected == 0 {
		dbTx.Rollback()
		return nil, alreadyApprovedError("Calibration", id)
	}
	if err := dbTx.Commit().Error; err != nil {
		return nil, databaseError(err)
	}

	record.Status = models.StatusApproved
	record.ApprovedBy = &approver
	record.ApprovedAt = &now
	record.Signature = copyBytes(signature)

	r.appendAudit(audit.Entry{
		Event:      audit.EventRecordApproved,
		RecordKind: "calibration",
		RecordID:   recordID(id),
		Actor:      approver,
	})
	return &record, nil
}
