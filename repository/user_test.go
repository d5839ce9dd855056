package repository

import (
	"testing"

	"github.com/rizqinugroho/equipcheck/repository/models"
)

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newTestRepository(t)

	user, repoErr := repo.CreateUser("siti", "rahasia99", "Siti Operator", models.RoleOperator)
	if repoErr != nil {
		t.Fatalf("CreateUser: %v", repoErr)
	}
	if user.PasswordHash == "rahasia99" || user.PasswordHash == "" {
		t.Error("password stored without hashing")
	}
	if !user.CheckPassword("rahasia99") {
		t.Error("stored hash does not verify the original password")
	}
	if user.CheckPassword("wrong") {
		t.Error("wrong password verified")
	}
}

func TestCreateUserValidation(t *testing.T) {
	repo := newTestRepository(t)

	tests := []struct {
		name                               string
		username, password, fullname, role string
	}{
		{"missing username", "", "pw", "Full Name", models.RoleOperator},
		{"missing password", "u", "", "Full Name", models.RoleOperator},
		{"missing full name", "u", "pw", "", models.RoleOperator},
		{"unknown role", "u", "pw", "Full Name", "superuser"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, repoErr := repo.CreateUser(tt.username, tt.password, tt.fullname, tt.role)
			if repoErr == nil || repoErr.Code != ErrCodeValidation {
				t.Fatalf("expected %s, got %v", ErrCodeValidation, repoErr)
			}
		})
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	repo := newTestRepository(t)
	createTestUser(t, repo, "siti", models.RoleOperator)

	_, repoErr := repo.CreateUser("siti", "other", "Other Siti", models.RoleManager)
	if repoErr == nil || repoErr.Code != ErrCodeConflict {
		t.Fatalf("expected %s, got %v", ErrCodeConflict, repoErr)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := newTestRepository(t)
	createTestUser(t, repo, "siti", models.RoleOperator)

	user, repoErr := repo.Authenticate("siti", "secret123")
	if repoErr != nil {
		t.Fatalf("Authenticate: %v", repoErr)
	}
	if user.Username != "siti" {
		t.Errorf("got %q", user.Username)
	}

	// Unknown username and wrong password are indistinguishable.
	_, unknownErr := repo.Authenticate("nobody", "secret123")
	_, wrongErr := repo.Authenticate("siti", "wrong")
	for _, repoErr := range []*RepositoryError{unknownErr, wrongErr} {
		if repoErr == nil || repoErr.Code != ErrCodeUnauthorized {
			t.Fatalf("expected %s, got %v", ErrCodeUnauthorized, repoErr)
		}
	}
	if unknownErr.Detail != wrongErr.Detail {
		t.Error("auth failures must not reveal which credential was wrong")
	}
}

func TestUpdateSignature(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "budi", models.RoleManager)

	sig := []byte("png-bytes")
	updated, repoErr := repo.UpdateSignature(user.ID, sig)
	if repoErr != nil {
		t.Fatalf("UpdateSignature: %v", repoErr)
	}
	if string(updated.Signature) != string(sig) {
		t.Errorf("signature = %q", updated.Signature)
	}

	// The stored copy must not alias the caller's buffer.
	sig[0] = 'X'
	got, _ := repo.GetUser(user.ID)
	if string(got.Signature) != "png-bytes" {
		t.Errorf("stored signature aliased caller buffer: %q", got.Signature)
	}

	_, repoErr = repo.UpdateSignature(user.ID, nil)
	if repoErr == nil || repoErr.Code != ErrCodeInvalidSignature {
		t.Fatalf("expected %s, got %v", ErrCodeInvalidSignature, repoErr)
	}

	_, repoErr = repo.UpdateSignature(9999, sig)
	if repoErr == nil || repoErr.Code != ErrCodeNotFound {
		t.Fatalf("expected %s, got %v", ErrCodeNotFound, repoErr)
	}
}

func TestProfileSignatureUpdateDoesNotRewriteApprovals(t *testing.T) {
	repo := newTestRepository(t)
	operator := createTestUser(t, repo, "siti", models.RoleOperator)
	manager := createTestUser(t, repo, "budi", models.RoleManager)

	repo.UpdateSignature(manager.ID, []byte("old-signature"))
	record, _ := repo.CreateChecklist(pendingChecklistDraft(operator.ID, "2025-01-10"))

	mgr, _ := repo.GetUser(manager.ID)
	approved, repoErr := repo.ApproveChecklist(record.ID, mgr.FullName, mgr.Signature)
	if repoErr != nil {
		t.Fatalf("ApproveChecklist: %v", repoErr)
	}

	// A later profile change leaves the record's snapshot alone.
	repo.UpdateSignature(manager.ID, []byte("new-signature"))
	got, _ := repo.GetChecklist(approved.ID)
	if string(got.Signature) != "old-signature" {
		t.Errorf("approval snapshot rewritten: %q", got.Signature)
	}
}
