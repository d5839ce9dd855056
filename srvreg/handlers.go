package srvreg

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rizqinugroho/equipcheck/repository"
	"github.com/rizqinugroho/equipcheck/repository/models"
)

func jsonResponse(statusCode int, v interface{}) *Response {
	body, err := json.Marshal(v)
	if err != nil {
		return &Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    defaultHeaders,
			Body:       `{"error":"Failed to encode response"}`,
		}
	}
	return &Response{
		StatusCode: statusCode,
		Headers:    defaultHeaders,
		Body:       string(body),
	}
}

func errorResponse(statusCode int, msg string) *Response {
	return jsonResponse(statusCode, map[string]string{"error": msg})
}

// repoErrorResponse maps a repository error code onto an HTTP status. The
// approval-workflow failures stay distinguishable for the form layer:
// "already approved" must never read like "not found".
func repoErrorResponse(dbErr *repository.RepositoryError) (*Response, error) {
	status := http.StatusInternalServerError
	msg := "Internal server error"
	switch dbErr.Code {
	case repository.ErrCodeValidation:
		status, msg = http.StatusBadRequest, dbErr.Detail
	case repository.ErrCodeNotFound:
		status, msg = http.StatusNotFound, dbErr.Message
	case repository.ErrCodeInvalidSignature:
		status, msg = http.StatusBadRequest, dbErr.Message
	case repository.ErrCodeAlreadyApproved:
		status, msg = http.StatusConflict, dbErr.Message
	case repository.ErrCodeConflict:
		status, msg = http.StatusConflict, dbErr.Detail
	case repository.ErrCodeUnauthorized:
		status, msg = http.StatusUnauthorized, dbErr.Message
	}
	return errorResponse(status, msg), fmt.Errorf("%s: %s", strings.ToLower(dbErr.Code), dbErr.Message)
}

// pathID extracts the numeric id at position index of the request path
// ("/checklist/42/approve" -> index 2 -> 42).
func pathID(path string, index int) (uint, bool) {
	parts := strings.Split(path, "/")
	if len(parts) <= index {
		return 0, false
	}
	id, err := strconv.ParseUint(parts[index], 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// approvalRequestBody carries the approver identity and an optional explicit
// signature image. When the signature is omitted the approver's stored
// profile signature is used, matching the form's "use saved signature" flow.
type approvalRequestBody struct {
	ApproverID uint   `json:"approver_id"`
	Signature  []byte `json:"signature,omitempty"`
}

// resolveApprover loads the approver account, enforces the manager role, and
// picks the signature image to snapshot. A nil *Response means proceed.
func (sr *ServiceRegistry) resolveApprover(body approvalRequestBody) (string, []byte, *Response, error) {
	if body.ApproverID == 0 {
		return "", nil, errorResponse(http.StatusBadRequest, "approver_id is required"), fmt.Errorf("approver_id missing")
	}
	user, dbErr := sr.repository.GetUser(body.ApproverID)
	if dbErr != nil {
		resp, err := repoErrorResponse(dbErr)
		return "", nil, resp, err
	}
	if user.Role != models.RoleManager {
		return "", nil, errorResponse(http.StatusForbidden, "only managers can approve records"),
			fmt.Errorf("approver %d is not a manager", body.ApproverID)
	}
	signature := body.Signature
	if len(signature) == 0 {
		signature = user.Signature
	}
	return user.FullName, signature, nil, nil
}

func listFilter(req *Request) (repository.RecordFilter, *Response) {
	var filter repository.RecordFilter
	if raw, ok := req.Query["creator"]; ok && raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return filter, errorResponse(http.StatusBadRequest, "creator must be a numeric id")
		}
		filter.CreatorID = uint(id)
	}
	if raw, ok := req.Query["status"]; ok && raw != "" {
		if raw != models.StatusPending && raw != models.StatusApproved {
			return filter, errorResponse(http.StatusBadRequest, "status must be Pending or Approved")
		}
		filter.Status = raw
	}
	return filter, nil
}

// CreateChecklistHandler creates one checklist record.
func (sr *ServiceRegistry) CreateChecklistHandler(req *Request) (*Response, error) {
	var draft repository.ChecklistDraft
	if err := json.Unmarshal([]byte(req.Body), &draft); err != nil {
		sr.logger.Info("Failed to parse body", "error", err.Error())
		return errorResponse(http.StatusUnprocessableEntity, "Invalid body format: "+err.Error()),
			fmt.Errorf("invalid body format")
	}

	record, dbErr := sr.repository.CreateChecklist(&draft)
	if dbErr != nil {
		return repoErrorResponse(dbErr)
	}
	return jsonResponse(http.StatusCreated, record), nil
}

type checklistBatchBody struct {
	Drafts []*repository.ChecklistDraft `json:"drafts"`
}

// CreateChecklistBatchHandler creates one detailed-area submission, one
// record per sub-part, all-or-nothing.
func (sr *ServiceRegistry) CreateChecklistBatchHandler(req *Request) (*Response, error) {
	var body checklistBatchBody
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		sr.logger.Info("Failed to parse body", "error", err.Error())
		return errorResponse(http.StatusUnprocessableEntity, "Invalid body format: "+err.Error()),
			fmt.Errorf("invalid body format")
	}
	if len(body.Drafts) == 0 {
		return errorResponse(http.StatusBadRequest, "drafts is required"), fmt.Errorf("drafts missing")
	}

	records, dbErr := sr.repository.CreateChecklistBatch(body.Drafts)
	if dbErr != nil {
		return repoErrorResponse(dbErr)
	}
	return jsonResponse(http.StatusCreated, records), nil
}

// ListChecklistsHandler lists checklist records, optionally filtered by
// ?creator= and ?status=.
func (sr *ServiceRegistry) ListChecklistsHandler(req *Request) (*Response, error) {
	filter, badReq := listFilter(req)
	if badReq != nil {
		return badReq, fmt.Errorf("invalid list filter")
	}
	records, dbErr := sr.repository.ListChecklists(filter)
	if dbErr != nil {
		return repoErrorResponse(dbErr)
	}
	return jsonResponse(http.StatusOK, records), nil
}

// GetChecklistHandler returns one checklist record.
func (sr *ServiceRegistry) GetChecklistHandler(req *Request) (*Response, error) {
	id, ok := pathID(req.Path, 2)
	if !ok {
		return errorResponse(http.StatusBadRequest, "Invalid checklist id"), fmt.Errorf("invalid path id")
	}
	record, dbErr := sr.repository.GetChecklist(id)
	if dbErr != nil {
		return repoErrorResponse(dbErr)
	}
	return jsonResponse(http.StatusOK, record), nil
}

// ApproveChecklistHandler transitions one checklist record to Approved.
func (sr *ServiceRegistry) ApproveChecklistHandler(req *Request) (*Response, error) {
	id, ok := pathID(req.Path, 2)
	if !ok {
		return errorResponse(http.StatusBadRequest, "Invalid checklist id"), fmt.Errorf("invalid path id")
	}

	var body approvalRequestBody
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		sr.logger.Info("Failed to parse body", "error", err.Error())
		return errorResponse(http.StatusUnprocessableEntity, "Invalid body format: "+err.Error()),
			fmt.Errorf("invalid body format")
	}

	approver, signature, resp, err := sr.resolveApprover(body)
	if resp != nil {
		return resp, err
	}

	record, dbErr := sr.repository.ApproveChecklist(id, approver, signature)
	if dbErr != nil {
		return repoErrorResponse(dbErr)
	}
	return jsonResponse(http.StatusOK, record), nil
}

// PendingBatchSessionsHandler returns the batch-session candidates: pending
// detailed-area records grouped by (sub_area, date, shift).
func (sr *ServiceRegistry) PendingBatchSessionsHandler(req *Request) (*Response, error) {
	sessions, dbErr := sr.repository.PendingBatchSessions()
	if dbErr != nil {
		return repoErrorResponse(dbErr)
	}
	return jsonResponse(http.StatusOK, sessions), nil
}

type batchApprovalBody struct {
	RecordIDs  []uint `json:"record_ids"`
	ApproverID uint   `json:"approver_id"`
	Signature  []byte `json:"signature,omitempty"`
}

// ApproveBatchHandler approves a whole batch session with one shared
// approver, timestamp and signature.
func (sr *ServiceRegistry) ApproveBatchHandler(req *Request) (*Response, error) {
	var body batchApprovalBody
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		sr.logger.Info("Failed to parse body", "error", err.Error())
		return errorResponse(http.StatusUnprocessableEntity, "Invalid body format: "+err.Error()),
			fmt.Errorf("invalid body format")
	}
	if len(body.RecordIDs) == 0 {
		return errorResponse(http.StatusBadRequest, "record_ids is required"), fmt.Errorf("record_ids missing")
	}

	approver, signature, resp, err := sr.resolveApprover(approvalRequestBody{
		ApproverID: body.ApproverID,
		Signature:  body.Signature,
	})
	if resp != nil {
		return resp, err
	}

	records, dbErr := sr.repository.ApproveChecklistBatch(body.RecordIDs, approver, signature)
	if dbErr != nil {
		return repoErrorResponse(dbErr)
	}
	return jsonResponse(http.StatusOK, records), nil
}
