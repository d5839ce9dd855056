package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/rizqinugroho/equipcheck/audit"
	"github.com/rizqinugroho/equipcheck/repository/models"
)

// ChecklistDraft is the plain structured input the presentation layer
// collects for one checklist line item. Status is not part of the draft;
// every created record starts Pending.
type ChecklistDraft struct {
	CreatorID   uint                `json:"creator_id"`
	Date        string              `json:"date"`
	Machine     string              `json:"machine"`
	SubArea     string              `json:"sub_area"`
	Shift       string              `json:"shift"`
	Item        string              `json:"item"`
	Condition   string              `json:"condition"`
	Note        string              `json:"note"`
	PhotoBefore []byte              `json:"photo_before,omitempty"`
	PhotoAfter  []byte              `json:"photo_after,omitempty"`
	Checks      models.CheckResults `json:"checks,omitempty"`
}

func (r *Repository) validateChecklistDraft(draft *ChecklistDraft) *RepositoryError {
	if draft.CreatorID == 0 {
		return validationError("creator is required")
	}
	if draft.Date == "" {
		return validationError("date is required")
	}
	if !validDate(draft.Date) {
		return validationError(fmt.Sprintf("date %q is not in YYYY-MM-DD format", draft.Date))
	}
	if draft.Machine == "" && draft.Item == "" {
		return validationError("machine or inspected item is required")
	}
	if err := draft.Checks.Validate(); err != nil {
		return validationError(err.Error())
	}
	if r.isDetailedArea(draft.SubArea) {
		// Condition of a detailed sub-part is derived, never chosen.
		return nil
	}
	if !models.ValidCondition(draft.Condition) {
		return validationError(fmt.Sprintf("condition %q is not one of Good, Minor, Bad", draft.Condition))
	}
	return nil
}

func (r *Repository) buildChecklist(draft *ChecklistDraft) *models.ChecklistRecord {
	condition := draft.Condition
	if r.isDetailedArea(draft.SubArea) {
		condition = draft.Checks.DeriveCondition()
	}
	return &models.ChecklistRecord{
		CreatorID:   draft.CreatorID,
		Date:        draft.Date,
		Machine:     draft.Machine,
		SubArea:     draft.SubArea,
		Shift:       draft.Shift,
		Item:        draft.Item,
		Condition:   condition,
		Note:        draft.Note,
		PhotoBefore: copyBytes(draft.PhotoBefore),
		PhotoAfter:  copyBytes(draft.PhotoAfter),
		Checks:      draft.Checks,
		CreatedAt:   r.now(),
		Approval:    models.Approval{Status: models.StatusPending},
	}
}

// CreateChecklist persists one checklist record with status forced to Pending.
func (r *Repository) CreateChecklist(draft *ChecklistDraft) (*models.ChecklistRecord, *RepositoryError) {
	if repoErr := r.validateChecklistDraft(draft); repoErr != nil {
		return nil, repoErr
	}

	record := r.buildChecklist(draft)

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
		RecordKind: "checklist",
		RecordID:   recordID(record.ID),
		Actor:      recordID(record.CreatorID),
		Detail:     fmt.Sprintf("%s / %s", record.SubArea, record.Item),
	})
	return record, nil
}

// CreateChecklistBatch persists one detailed-area submission: one record per
// inspected sub-part, all sharing (sub_area, date, shift). All drafts are
// validated before any row is written; the whole batch lands in one
// transaction or not at all.
func (r *Repository) CreateChecklistBatch(drafts []*ChecklistDraft) ([]*models.ChecklistRecord, *RepositoryError) {
	if len(drafts) == 0 {
		return nil, validationError("batch is empty")
	}

	first := drafts[0]
	if !r.isDetailedArea(first.SubArea) {
		return nil, validationError(fmt.Sprintf("sub-area %q is not a detailed area", first.SubArea))
	}
	for i, draft := range drafts {
		if repoErr := r.validateChecklistDraft(draft); repoErr != nil {
			return nil, repoErr
		}
		if draft.SubArea != first.SubArea || draft.Date != first.Date || draft.Shift != first.Shift {
			return nil, validationError(fmt.Sprintf(
				"draft %d does not share the batch session key (%s, %s, %s)",
				i, first.SubArea, first.Date, first.Shift,
			))
		}
	}

	records := make([]*models.ChecklistRecord, len(drafts))
	for i, draft := range drafts {
		records[i] = r.buildChecklist(draft)
	}

	dbTx := r.db.Begin()
	for _, record := range records {
		if err := dbTx.Create(record).Error; err != nil {
			dbTx.Rollback()
			return nil, databaseError(err)
		}
	}
	if err := dbTx.Commit().Error; err != nil {
		return nil, databaseError(err)
	}

	r.appendAudit(audit.Entry{
		Event:      audit.EventBatchCreated,
		RecordKind: "checklist",
		RecordID:   joinIDs(checklistIDs(records)),
		Actor:      recordID(first.CreatorID),
		Detail:     fmt.Sprintf("%s %s %s (%d parts)", first.SubArea, first.Date, first.Shift, len(records)),
	})
	return records, nil
}

// GetChecklist returns one checklist record by id.
func (r *Repository) GetChecklist(id uint) (*models.ChecklistRecord, *RepositoryError) {
	var record models.ChecklistRecord
	err := r.db.Preload("Creator").First(&record, "checklist_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("Checklist", id)
		}
		return nil, databaseError(err)
	}
	return &record, nil
}

// ListChecklists returns records matching filter, most recent submission
// first: date descending, ties broken by id descending. The result is not
// paginated; record volume in this tool does not warrant it.
func (r *Repository) ListChecklists(filter RecordFilter) ([]models.ChecklistRecord, *RepositoryError) {
	query := r.db.Model(&models.ChecklistRecord{})
	if filter.CreatorID != 0 {
		query = query.Where("creator_id = ?", filter.CreatorID)
	}
	if filter.Status != "" {
		query = query.Where("approval_status = ?", filter.Status)
	}

	var records []models.ChecklistRecord
	if err := query.Order("date DESC, checklist_id DESC").Find(&records).Error; err != nil {
		return nil, databaseError(err)
	}
	return records, nil
}

// ApproveChecklist performs the single legal transition Pending -> Approved,
// binding the approver name, a timestamp and a by-value signature snapshot in
// one atomic row update. Re-approval is rejected: overwriting an existing
// approval would rewrite the audit trail.
func (r *Repository) ApproveChecklist(id uint, approver string, signature []byte) (*models.ChecklistRecord, *RepositoryError) {
	if repoErr := validateApproval(approver, signature); repoErr != nil {
		return nil, repoErr
	}

	dbTx := r.db.Begin()

	var record models.ChecklistRecord
	err := dbTx.First(&record, "checklist_id = ?", id).Error
	if err != nil {
		dbTx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("Checklist", id)
		}
		return nil, databaseError(err)
	}
	if record.IsApproved() {
		dbTx.Rollback()
		return nil, alreadyApprovedError("Checklist", id)
	}

	// Compare-and-set on the status column: if another caller approved the
	// row between our read and this update, zero rows match and we reject
	// instead of half-writing.
	now := r.now()
	result := dbTx.Model(&models.ChecklistRecord{}).
		Where("checklist_id = ? AND approval_status = ?", id, models.StatusPending).
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
		return nil, alreadyApprovedError("Checklist", id)
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
		RecordKind: "checklist",
		RecordID:   recordID(id),
		Actor:      approver,
	})
	return &record, nil
}

// ApproveChecklistBatch approves every id in ids with one shared approver,
// timestamp and signature snapshot. Strict all-or-nothing: the full set is
// validated before any row is written, and one failed precondition leaves
// every record untouched.
func (r *Repository) ApproveChecklistBatch(ids []uint, approver string, signature []byte) ([]models.ChecklistRecord, *RepositoryError) {
	if repoErr := validateApproval(approver, signature); repoErr != nil {
		return nil, repoErr
	}
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return nil, validationError("id set is empty")
	}

	dbTx := r.db.Begin()

	var records []models.ChecklistRecord
	if err := dbTx.Where("checklist_id IN ?", ids).Find(&records).Error; err != nil {
		dbTx.Rollback()
		return nil, databaseError(err)
	}
	if len(records) != len(ids) {
		dbTx.Rollback()
		found := make(map[uint]bool, len(records))
		for _, rec := range records {
			found[rec.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, notFoundError("Checklist", id)
			}
		}
	}
	for _, rec := range records {
		if rec.IsApproved() {
			dbTx.Rollback()
			return nil, alreadyApprovedError("Checklist", rec.ID)
		}
	}

	now := r.now()
	sig := copyBytes(signature)
	result := dbTx.Model(&models.ChecklistRecord{}).
		Where("checklist_id IN ? AND approval_status = ?", ids, models.StatusPending).
		Updates(map[string]interface{}{
			"approval_status":    models.StatusApproved,
			"approved_by":        approver,
			"approved_at":        now,
			"approval_signature": sig,
		})
	if result.Error != nil {
		dbTx.Rollback()
		return nil, databaseError(result.Error)
	}
	if result.RowsAffected != int64(len(ids)) {
		// A concurrent approval slipped in after our read; the batch
		// invariant (all rows share one approval) must not be broken.
		dbTx.Rollback()
		return nil, &RepositoryError{
			Code:    ErrCodeAlreadyApproved,
			Message: "Batch partially approved concurrently",
			Detail:  fmt.Sprintf("only %d of %d records were still pending", result.RowsAffected, len(ids)),
		}
	}
	if err := dbTx.Commit().Error; err != nil {
		return nil, databaseError(err)
	}

	for i := range records {
		records[i].Status = models.StatusApproved
		records[i].ApprovedBy = &approver
		records[i].ApprovedAt = &now
		records[i].Signature = sig
	}

	r.appendAudit(audit.Entry{
		Event:      audit.EventBatchApproved,
		RecordKind: "checklist",
		RecordID:   joinIDs(ids),
		Actor:      approver,
	})
	return records, nil
}

// BatchSession is one approvable unit of pending detailed-area records: all
// pending rows sharing (sub_area, date, shift).
type BatchSession struct {
	SubArea   string                   `json:"sub_area"`
	Date      string                   `json:"date"`
	Shift     string                   `json:"shift"`
	RecordIDs []uint                   `json:"record_ids"`
	Records   []models.ChecklistRecord `json:"records"`
}

// PendingBatchSessions groups pending checklist records from detailed areas
// into batch-session candidates offered to the approver as single units.
func (r *Repository) PendingBatchSessions() ([]BatchSession, *RepositoryError) {
	areas := make([]string, 0, len(r.detailedAreas))
	for name := range r.detailedAreas {
		areas = append(areas, name)
	}

	var records []models.ChecklistRecord
	err := r.db.
		Where("approval_status = ? AND sub_area IN ?", models.StatusPending, areas).
		Order("date DESC, sub_area, shift, checklist_id").
		Find(&records).Error
	if err != nil {
		return nil, databaseError(err)
	}

	var sessions []BatchSession
	index := make(map[string]int)
	for _, rec := range records {
		key := rec.SubArea + "\x00" + rec.Date + "\x00" + rec.Shift
		i, ok := index[key]
		if !ok {
			i = len(sessions)
			index[key] = i
			sessions = append(sessions, BatchSession{
				SubArea: rec.SubArea,
				Date:    rec.Date,
				Shift:   rec.Shift,
			})
		}
		sessions[i].RecordIDs = append(sessions[i].RecordIDs, rec.ID)
		sessions[i].Records = append(sessions[i].Records, rec)
	}
	return sessions, nil
}

// SessionRecords returns every checklist record sharing one batch session
// key, regardless of approval status. The report renderer uses it to print a
// whole detailed-area submission on one document.
func (r *Repository) SessionRecords(subArea, date, shift string) ([]models.ChecklistRecord, *RepositoryError) {
	var records []models.ChecklistRecord
	err := r.db.
		Where("sub_area = ? AND date = ? AND shift = ?", subArea, date, shift).
		Order("checklist_id").
		Find(&records).Error
	if err != nil {
		return nil, databaseError(err)
	}
	if len(records) == 0 {
		return nil, &RepositoryError{
			Code:    ErrCodeNotFound,
			Message: "Batch session does not exist",
			Detail:  fmt.Sprintf("no records for session (%s, %s, %s)", subArea, date, shift),
		}
	}
	return records, nil
}

func validateApproval(approver string, signature []byte) *RepositoryError {
	if approver == "" {
		return validationError("approver identity is required")
	}
	if len(signature) == 0 {
		return &RepositoryError{
			Code:    ErrCodeInvalidSignature,
			Message: "Signature is required for approval",
			Detail:  "signature bytes are empty; a hollow approval is not recorded",
		}
	}
	return nil
}

func alreadyApprovedError(kind string, id uint) *RepositoryError {
	return &RepositoryError{
		Code:    ErrCodeAlreadyApproved,
		Message: fmt.Sprintf("%s already approved", kind),
		Detail:  fmt.Sprintf("%s %d is not pending; approvals are never overwritten", kind, id),
	}
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func checklistIDs(records []*models.ChecklistRecord) []uint {
	ids := make([]uint, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	return ids
}

func joinIDs(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = recordID(id)
	}
	return strings.Join(parts, ",")
}
