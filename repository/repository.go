// Package repository owns the record store and the approval state machine.
// Every operation acquires the database within its own scope, validates
// before writing, and reports failures as typed *RepositoryError values the
// presentation layer can distinguish.
package repository

import (
	"fmt"
	"strconv"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rizqinugroho/equipcheck/audit"
	"github.com/rizqinugroho/equipcheck/logger"
	"github.com/rizqinugroho/equipcheck/repository/models"
)

// Repository error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "ENTITY_NOT_FOUND"
	ErrCodeInvalidSignature = "INVALID_SIGNATURE"
	ErrCodeAlreadyApproved  = "ALREADY_APPROVED"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeDatabase         = "DATABASE_ERROR"
)

// RepositoryError represents an error in the repository layer.
type RepositoryError struct {
	Code    string
	Message string
	Detail  string
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
}

func validationError(detail string) *RepositoryError {
	return &RepositoryError{Code: ErrCodeValidation, Message: "Invalid record draft", Detail: detail}
}

func notFoundError(kind string, id uint) *RepositoryError {
	return &RepositoryError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s does not exist", kind),
		Detail:  fmt.Sprintf("%s with id %d does not exist", kind, id),
	}
}

func databaseError(err error) *RepositoryError {
	return &RepositoryError{Code: ErrCodeDatabase, Message: "A database error occurred", Detail: err.Error()}
}

// RecordFilter narrows list queries. Zero values mean "no filter".
type RecordFilter struct {
	CreatorID uint
	Status    string
}

// Repository provides durable access to checklists, calibrations and user
// accounts over one embedded database file. It is designed for a single
// writer at a time: there is no optimistic-concurrency versioning, only a
// single-row compare-and-set on the approval status so that racing approvals
// resolve deterministically.
type Repository struct {
	db            *gorm.DB
	logger        logger.Logger
	journal       *audit.Journal
	detailedAreas map[string]bool
	now           func() time.Time
}

// NewRepository creates an unconnected repository. The detailed-area set
// defaults to models.DetailedAreaParts.
func NewRepository(log logger.Logger) *Repository {
	areas := make(map[string]bool, len(models.DetailedAreaParts))
	for name := range models.DetailedAreaParts {
		areas[name] = true
	}
	return &Repository{
		logger:        log,
		detailedAreas: areas,
		now:           models.Now,
	}
}

// ConnectDB opens the embedded database file at path.
func (r *Repository) ConnectDB(path string) error {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("opening database %s: %w", path, err)
	}
	r.db = db
	r.logger.Info("Connected to database", "path", path)
	return nil
}

// SetJournal attaches the append-only audit journal. Journal writes happen
// after a successful commit and are best-effort: a journal failure is logged,
// never turned into a failed operation.
func (r *Repository) SetJournal(j *audit.Journal) {
	r.journal = j
}

// SetDetailedAreas overrides the configured detailed-area set.
func (r *Repository) SetDetailedAreas(names []string) {
	areas := make(map[string]bool, len(names))
	for _, name := range names {
		areas[name] = true
	}
	r.detailedAreas = areas
}

func (r *Repository) isDetailedArea(subArea string) bool {
	return r.detailedAreas[subArea]
}

func (r *Repository) appendAudit(e audit.Entry) {
	if r.journal == nil {
		return
	}
	if err := r.journal.Append(e); err != nil {
		r.logger.Error("Failed to append audit entry", "event", e.Event, "err", err)
	}
}

func recordID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// copyBytes snapshots an image payload so the stored value stays independent
// of the caller's buffer.
func copyBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func validDate(date string) bool {
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}
