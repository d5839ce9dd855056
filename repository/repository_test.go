package repository

import (
	"path/filepath"
	"testing"

	"github.com/rizqinugroho/equipcheck/logger"
	"github.com/rizqinugroho/equipcheck/repository/models"
)

// newTestRepository opens a repository on a throwaway database file. A file
// under t.TempDir() rather than :memory: keeps every pooled connection on the
// same database.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo := NewRepository(logger.NewNop())
	path := filepath.Join(t.TempDir(), "test.db")
	if err := repo.ConnectDB(path); err != nil {
		t.Fatalf("ConnectDB: %v", err)
	}
	if err := repo.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return repo
}

func createTestUser(t *testing.T, repo *Repository, username, role string) *models.UserAccount {
	t.Helper()
	user, repoErr := repo.CreateUser(username, "secret123", "Test "+username, role)
	if repoErr != nil {
		t.Fatalf("CreateUser(%s): %v", username, repoErr)
	}
	return user
}

func pendingChecklistDraft(creatorID uint, date string) *ChecklistDraft {
	return &ChecklistDraft{
		CreatorID: creatorID,
		Date:      date,
		Machine:   "PM-2",
		SubArea:   "PRESS SECTION",
		Shift:     "Pagi",
		Item:      "Felt Roll",
		Condition: models.ConditionGood,
	}
}
