package repository

import (
	"testing"

	"github.com/rizqinugroho/equipcheck/repository/models"
)

func TestCreateChecklistStartsPending(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "operator1", models.RoleOperator)

	record, repoErr := repo.CreateChecklist(pendingChecklistDraft(user.ID, "2025-01-10"))
	if repoErr != nil {
		t.Fatalf("CreateChecklist: %v", repoErr)
	}
	if record.ID == 0 {
		t.Fatal("expected a persisted id")
	}

	got, repoErr := repo.GetChecklist(record.ID)
	if repoErr != nil {
		t.Fatalf("GetChecklist: %v", repoErr)
	}
	if got.Status != models.StatusPending {
		t.Errorf("status = %q, want %q", got.Status, models.StatusPending)
	}
	if got.ApprovedBy != nil || got.ApprovedAt != nil || len(got.Signature) != 0 {
		t.Errorf("pending record must carry no approval fields, got by=%v at=%v sig=%d bytes",
			got.ApprovedBy, got.ApprovedAt, len(got.Signature))
	}
	if got.Creator == nil || got.Creator.Username != "operator1" {
		t.Errorf("expected creator preloaded, got %+v", got.Creator)
	}
}

func TestCreateChecklistValidation(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "operator1", models.RoleOperator)

	tests := []struct {
		name   string
		mutate func(d *ChecklistDraft)
	}{
		{"missing creator", func(d *ChecklistDraft) { d.CreatorID = 0 }},
		{"missing date", func(d *ChecklistDraft) { d.Date = "" }},
		{"malformed date", func(d *ChecklistDraft) { d.Date = "10/01/2025" }},
		{"missing machine and item", func(d *ChecklistDraft) { d.Machine = ""; d.Item = "" }},
		{"unknown condition", func(d *ChecklistDraft) { d.Condition = "Excellent" }},
		{"invalid check state", func(d *ChecklistDraft) {
			d.Checks = models.CheckResults{"pump": "BROKEN"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := pendingChecklistDraft(user.ID, "2025-01-10")
			tt.mutate(draft)
			_, repoErr := repo.CreateChecklist(draft)
			if repoErr == nil {
				t.Fatal("expected validation error")
			}
			if repoErr.Code != ErrCodeValidation {
				t.Errorf("code = %q, want %q", repoErr.Code, ErrCodeValidation)
			}
		})
	}
}

func TestDetailedAreaConditionIsDerived(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "operator1", models.RoleOperator)

	// The chosen condition is ignored for detailed areas; the rubric decides.
	draft := &ChecklistDraft{
		CreatorID: user.ID,
		Date:      "2025-01-10",
		SubArea:   "WRAPPING & REWINDER",
		Shift:     "Pagi",
		Item:      "Rewinder Drum",
		Condition: models.ConditionBad,
		Checks:    models.CheckResults{"sensor": models.CheckNG},
	}
	record, repoErr := repo.CreateChecklist(draft)
	if repoErr != nil {
		t.Fatalf("CreateChecklist: %v", repoErr)
	}
	if record.Condition != models.ConditionMinor {
		t.Errorf("condition = %q, want derived %q", record.Condition, models.ConditionMinor)
	}

	draft.Item = "Slitter Knife"
	draft.Checks = nil
	record, repoErr = repo.CreateChecklist(draft)
	if repoErr != nil {
		t.Fatalf("CreateChecklist: %v", repoErr)
	}
	if record.Condition != models.ConditionGood {
		t.Errorf("condition = %q, want derived %q", record.Condition, models.ConditionGood)
	}
}

func TestApproveChecklistBindsAllFields(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "operator1", models.RoleOperator)
	record, _ := repo.CreateChecklist(pendingChecklistDraft(user.ID, "2025-01-10"))

	sig := []byte("signature-image-bytes")
	approved, repoErr := repo.ApproveChecklist(record.ID, "Budi Manager", sig)
	if repoErr != nil {
		t.Fatalf("ApproveChecklist: %v", repoErr)
	}
	if approved.Status != models.StatusApproved {
		t.Errorf("status = %q, want %q", approved.Status, models.StatusApproved)
	}

	got, _ := repo.GetChecklist(record.ID)
	if got.Status != models.StatusApproved {
		t.Errorf("persisted status = %q, want %q", got.Status, models.StatusApproved)
	}
	if got.ApprovedBy == nil || *got.ApprovedBy != "Budi Manager" {
		t.Errorf("approved_by = %v, want Budi Manager", got.ApprovedBy)
	}
	if got.ApprovedAt == nil {
		t.Error("approved_at not set")
	}
	if string(got.Signature) != string(sig) {
		t.Errorf("signature = %q, want %q", got.Signature, sig)
	}
}

func TestApproveChecklistRejectsReapproval(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "operator1", models.RoleOperator)
	record, _ := repo.CreateChecklist(pendingChecklistDraft(user.ID, "2025-01-10"))

	first, repoErr := repo.ApproveChecklist(record.ID, "Budi Manager", []byte("sig-1"))
	if repoErr != nil {
		t.Fatalf("first approval: %v", repoErr)
	}

	_, repoErr = repo.ApproveChecklist(record.ID, "Citra Manager", []byte("sig-2"))
	if repoErr == nil {
		t.Fatal("expected second approval to fail")
	}
	if repoErr.Code != ErrCodeAlreadyApproved {
		t.Errorf("code = %q, want %q", repoErr.Code, ErrCodeAlreadyApproved)
	}

	// The original approval is untouched.
	got, _ := repo.GetChecklist(record.ID)
	if *got.ApprovedBy != "Budi Manager" {
		t.Errorf("approved_by = %q, want the first approver", *got.ApprovedBy)
	}
	if string(got.Signature) != "sig-1" {
		t.Errorf("signature = %q, want the first snapshot", got.Signature)
	}
	if !got.ApprovedAt.Equal(*first.ApprovedAt) {
		t.Errorf("approved_at changed: %v -> %v", first.ApprovedAt, got.ApprovedAt)
	}
}

func TestApproveChecklistRejectsEmptySignature(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "operator1", models.RoleOperator)
	record, _ := repo.CreateChecklist(pendingChecklistDraft(user.ID, "2025-01-10"))

	_, repoErr := repo.ApproveChecklist(record.ID, "Budi Manager", nil)
	if repoErr == nil {
		t.Fatal("expected empty signature to be rejected")
	}
	if repoErr.Code != ErrCodeInvalidSignature {
		t.Errorf("code = %q, want %q", repoErr.Code, ErrCodeInvalidSignature)
	}

	got, _ := repo.GetChecklist(record.ID)
	if got.Status != models.StatusPending {
		t.Errorf("status = %q, record must stay pending", got.Status)
	}
}

func TestApproveChecklistNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, repoErr := repo.ApproveChecklist(9999, "Budi Manager", []byte("sig"))
	if repoErr == nil || repoErr.Code != ErrCodeNotFound {
		t.Fatalf("expected %s, got %v", ErrCodeNotFound, repoErr)
	}
}

func TestCreateChecklistBatchSharesSessionKey(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "operator1", models.RoleOperator)

	drafts := detailedDrafts(user.ID, "WRAPPING & REWINDER", "2025-01-10", "Pagi")
	records, repoErr := repo.CreateChecklistBatch(drafts)
	if repoErr != nil {
		t.Fatalf("CreateChecklistBatch: %v", repoErr)
	}
	if len(records) != len(models.DetailedAreaParts["WRAPPING & REWINDER"]) {
		t.Fatalf("got %d records, want one per part", len(records))
	}
	for _, rec := range records {
		if rec.Status != models.StatusPending {
			t.Errorf("record %d status = %q, want Pending", rec.ID, rec.Status)
		}
	}
}

func TestCreateChecklistBatchRejectsMixedSessions(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "operator1", models.RoleOperator)

	drafts := detailedDrafts(user.ID, "WRAPPING & REWINDER", "2025-01-10", "Pagi")
	drafts[2].Shift = "Sore"
	_, repoErr := repo.CreateChecklistBatch(drafts)
	if repoErr == nil || repoErr.Code != ErrCodeValidation {
		t.Fatalf("expected %s for mixed shifts, got %v", ErrCodeValidation, repoErr)
	}

	// Nothing was written.
	records, _ := repo.ListChecklists(RecordFilter{})
	if len(records) != 0 {
		t.Errorf("expected no records after failed batch, got %d", len(records))
	}
}

func TestCreateChecklistBatchRejectsFreeFormArea(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "operator1", models.RoleOperator)

	drafts := []*ChecklistDraft{pendingChecklistDraft(user.ID, "2025-01-10")}
	_, repoErr := repo.CreateChecklistBatch(drafts)
	if repoErr == nil || repoErr.Code != ErrCodeValidation {
		t.Fatalf("expected %s for non-detailed area, got %v", ErrCodeValidation, repoErr)
	}
}

func TestPendingBatchSessionsGroupsBySessionKey(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "operator1", models.RoleOperator)

	// Target session: 11 sub-parts of one detailed area.
	target, repoErr := repo.CreateChecklistBatch(
		detailedDrafts(user.ID, "WRAPPING & REWINDER", "2025-01-10", "Pagi"))
	if repoErr != nil {
		t.Fatalf("target batch: %v", repoErr)
	}

	// Noise that must not bleed into the target session: same area different
	// shift, same area different date, a different detailed area, and a
	// free-form record.
	if _, repoErr := repo.CreateChecklistBatch(
		detailedDrafts(user.ID, "WRAPPING & REWINDER", "2025-01-10", "Sore")); repoErr != nil {
		t.Fatalf("noise batch: %v", repoErr)
	}
	if _, repoErr := repo.CreateChecklistBatch(
		detailedDrafts(user.ID, "WRAPPING & REWINDER", "2025-01-11", "Pagi")); repoErr != nil {
		t.Fatalf("noise batch: %v", repoErr)
	}
	if _, repoErr := repo.CreateChecklistBatch(
		detailedDrafts(user.ID, "STOCK PREPARATION", "2025-01-10", "Pagi")); repoErr != nil {
		t.Fatalf("noise batch: %v", repoErr)
	}
	if _, repoErr := repo.CreateChecklist(pendingChecklistDraft(user.ID, "2025-01-10")); repoErr != nil {
		t.Fatalf("noise record: %v", repoErr)
	}

	sessions, repoErr := repo.PendingBatchSessions()
	if repoErr != nil {
		t.Fatalf("PendingBatchSessions: %v", repoErr)
	}
	if len(sessions) != 4 {
		t.Fatalf("got %d sessions, want 4", len(sessions))
	}

	var found *BatchSession
	for i := range sessions {
		s := &sessions[i]
		if s.SubArea == "WRAPPING & REWINDER" && s.Date == "2025-01-10" && s.Shift == "Pagi" {
			found = s
			break
		}
	}
	if found == nil {
		t.Fatal("target session missing")
	}

	want := make(map[uint]bool, len(target))
	for _, rec := range target {
		want[rec.ID] = true
	}
	if len(found.RecordIDs) != len(target) {
		t.Fatalf("session has %d records, want %d", len(found.RecordIDs), len(target))
	}
	for _, id := range found.RecordIDs {
		if !want[id] {
			t.Errorf("session contains foreign record %d", id)
		}
	}
}

func TestPendingBatchSessionsExcludesApproved(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "operator1", models.RoleOperator)

	records, _ := repo.CreateChecklistBatch(
		detailedDrafts(user.ID, "WRAPPING & REWINDER", "2025-01-10", "Pagi"))
	if _, repoErr := repo.ApproveChecklistBatch(
		checklistIDs(records), "Budi Manager", []byte("sig")); repoErr != nil {
		t.Fatalf("ApproveChecklistBatch: %v", repoErr)
	}

	sessions, repoErr := repo.PendingBatchSessions()
	if repoErr != nil {
		t.Fatalf("PendingBatchSessions: %v", repoErr)
	}
	if len(sessions) != 0 {
		t.Errorf("approved session still offered: %+v", sessions)
	}
}

func TestApproveChecklistBatchSharesOneApproval(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "operator1", models.RoleOperator)

	records, _ := repo.CreateChecklistBatch(
		detailedDrafts(user.ID, "WRAPPING & REWINDER", "2025-01-10", "Pagi"))
	ids := checklistIDs(records)

	sig := []byte("batch-signature")
	approved, repoErr := repo.ApproveChecklistBatch(ids, "Budi Manager", sig)
	if repoErr != nil {
		t.Fatalf("ApproveChecklistBatch: %v", repoErr)
	}
	if len(approved) != len(ids) {
		t.Fatalf("approved %d records, want %d", len(approved), len(ids))
	}

	var sharedAt string
	for _, id := range ids {
		got, _ := repo.GetChecklist(id)
		if got.Status != models.StatusApproved {
			t.Errorf("record %d status = %q, want Approved", id, got.Status)
		}
		if got.ApprovedBy == nil || *got.ApprovedBy != "Budi Manager" {
			t.Errorf("record %d approved_by = %v", id, got.ApprovedBy)
		}
		if string(got.Signature) != string(sig) {
			t.Errorf("record %d signature differs from the shared snapshot", id)
		}
		at := got.ApprovedAt.UTC().String()
		if sharedAt == "" {
			sharedAt = at
		} else if at != sharedAt {
			t.Errorf("record %d timestamp %s differs from shared %s", id, at, sharedAt)
		}
	}
}

func TestApproveChecklistBatchAllOrNothing(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "operator1", models.RoleOperator)

	records, _ := repo.CreateChecklistBatch(
		detailedDrafts(user.ID, "WRAPPING & REWINDER", "2025-01-10", "Pagi"))
	ids := checklistIDs(records)

	// Pre-approve one member so the batch precondition fails.
	if _, repoErr := repo.ApproveChecklist(ids[3], "Citra Manager", []byte("pre")); repoErr != nil {
		t.Fatalf("pre-approval: %v", repoErr)
	}

	_, repoErr := repo.ApproveChecklistBatch(ids, "Budi Manager", []byte("batch-sig"))
	if repoErr == nil || repoErr.Code != ErrCodeAlreadyApproved {
		t.Fatalf("expected %s, got %v", ErrCodeAlreadyApproved, repoErr)
	}

	// No other record was touched.
	for i, id := range ids {
		got, _ := repo.GetChecklist(id)
		if i == 3 {
			if *got.ApprovedBy != "Citra Manager" {
				t.Errorf("pre-approved record rewritten: %v", got.ApprovedBy)
			}
			continue
		}
		if got.Status != models.StatusPending {
			t.Errorf("record %d status = %q, failed batch must leave it Pending", id, got.Status)
		}
	}
}

func TestApproveChecklistBatchMissingID(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "operator1", models.RoleOperator)

	records, _ := repo.CreateChecklistBatch(
		detailedDrafts(user.ID, "WRAPPING & REWINDER", "2025-01-10", "Pagi"))
	ids := append(checklistIDs(records), 9999)

	_, repoErr := repo.ApproveChecklistBatch(ids, "Budi Manager", []byte("sig"))
	if repoErr == nil || repoErr.Code != ErrCodeNotFound {
		t.Fatalf("expected %s, got %v", ErrCodeNotFound, repoErr)
	}
	for _, rec := range records {
		got, _ := repo.GetChecklist(rec.ID)
		if got.Status != models.StatusPending {
			t.Errorf("record %d mutated by failed batch", rec.ID)
		}
	}
}

func TestListChecklistsOrdering(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "operator1", models.RoleOperator)

	// Insert out of date order; listing is date DESC, then id DESC.
	dates := []string{"2025-01-01", "2025-01-03", "2025-01-02", "2025-01-03"}
	var ids []uint
	for _, date := range dates {
		rec, repoErr := repo.CreateChecklist(pendingChecklistDraft(user.ID, date))
		if repoErr != nil {
			t.Fatalf("CreateChecklist(%s): %v", date, repoErr)
		}
		ids = append(ids, rec.ID)
	}

	records, repoErr := repo.ListChecklists(RecordFilter{})
	if repoErr != nil {
		t.Fatalf("ListChecklists: %v", repoErr)
	}
	want := []uint{ids[3], ids[1], ids[2], ids[0]}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i, rec := range records {
		if rec.ID != want[i] {
			t.Errorf("position %d: got id %d, want %d", i, rec.ID, want[i])
		}
	}
}

func TestListChecklistsFilter(t *testing.T) {
	repo := newTestRepository(t)
	alice := createTestUser(t, repo, "alice", models.RoleOperator)
	bob := createTestUser(t, repo, "bob", models.RoleOperator)

	aliceRec, _ := repo.CreateChecklist(pendingChecklistDraft(alice.ID, "2025-01-10"))
	repo.CreateChecklist(pendingChecklistDraft(bob.ID, "2025-01-10"))
	repo.ApproveChecklist(aliceRec.ID, "Budi Manager", []byte("sig"))

	byCreator, _ := repo.ListChecklists(RecordFilter{CreatorID: alice.ID})
	if len(byCreator) != 1 || byCreator[0].CreatorID != alice.ID {
		t.Errorf("creator filter returned %d records", len(byCreator))
	}

	byStatus, _ := repo.ListChecklists(RecordFilter{Status: models.StatusPending})
	if len(byStatus) != 1 || byStatus[0].CreatorID != bob.ID {
		t.Errorf("status filter returned %d records", len(byStatus))
	}
}

func TestSessionRecords(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "operator1", models.RoleOperator)

	records, _ := repo.CreateChecklistBatch(
		detailedDrafts(user.ID, "STOCK PREPARATION", "2025-01-10", "Pagi"))

	got, repoErr := repo.SessionRecords("STOCK PREPARATION", "2025-01-10", "Pagi")
	if repoErr != nil {
		t.Fatalf("SessionRecords: %v", repoErr)
	}
	if len(got) != len(records) {
		t.Errorf("got %d records, want %d", len(got), len(records))
	}

	_, repoErr = repo.SessionRecords("STOCK PREPARATION", "2025-01-11", "Pagi")
	if repoErr == nil || repoErr.Code != ErrCodeNotFound {
		t.Errorf("expected %s for empty session, got %v", ErrCodeNotFound, repoErr)
	}
}

// detailedDrafts builds one draft per sub-part of the given detailed area, all
// sharing the session key.
func detailedDrafts(creatorID uint, subArea, date, shift string) []*ChecklistDraft {
	parts := models.DetailedAreaParts[subArea]
	drafts := make([]*ChecklistDraft, len(parts))
	for i, part := range parts {
		drafts[i] = &ChecklistDraft{
			CreatorID: creatorID,
			Date:      date,
			SubArea:   subArea,
			Shift:     shift,
			Item:      part,
		}
	}
	return drafts
}
