package srvreg

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rizqinugroho/equipcheck/repository"
)

// CreateCalibrationHandler creates one calibration report.
func (sr *ServiceRegistry) CreateCalibrationHandler(req *Request) (*Response, error) {
	var draft repository.CalibrationDraft
	if err := json.Unmarshal([]byte(req.Body), &draft); err != nil {
		sr.logger.Info("Failed to parse body", "error", err.Error())
		return errorResponse(http.StatusUnprocessableEntity, "Invalid body format: "+err.Error()),
			fmt.Errorf("invalid body format")
	}

	record, dbErr := sr.repository.CreateCalibration(&draft)
	if dbErr != nil {
		return repoErrorResponse(dbErr)
	}
	return jsonResponse(http.StatusCreated, record), nil
}

// ListCalibrationsHandler lists calibration reports, optionally filtered by
// ?creator= and ?status=.
func (sr *ServiceRegistry) ListCalibrationsHandler(req *Request) (*Response, error) {
	filter, badReq := listFilter(req)
	if badReq != nil {
		return badReq, fmt.Errorf("invalid list filter")
	}
	records, dbErr := sr.repository.ListCalibrations(filter)
	if dbErr != nil {
		return repoErrorResponse(dbErr)
	}
	return jsonResponse(http.StatusOK, records), nil
}

// GetCalibrationHandler returns one calibration report.
func (sr *ServiceRegistry) GetCalibrationHandler(req *Request) (*Response, error) {
	id, ok := pathID(req.Path, 2)
	if !ok {
		return errorResponse(http.StatusBadRequest, "Invalid calibration id"), fmt.Errorf("invalid path id")
	}
	record, dbErr := sr.repository.GetCalibration(id)
	if dbErr != nil {
		return repoErrorResponse(dbErr)
	}
	return jsonResponse(http.StatusOK, record), nil
}

// ApproveCalibrationHandler transitions one calibration report to Approved.
func (sr *ServiceRegistry) ApproveCalibrationHandler(req *Request) (*Response, error) {
	id, ok := pathID(req.Path, 2)
	if !ok {
		return errorResponse(http.StatusBadRequest, "Invalid calibration id"), fmt.Errorf("invalid path id")
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

	record, dbErr := sr.repository.ApproveCalibration(id, approver, signature)
	if dbErr != nil {
		return repoErrorResponse(dbErr)
	}
	return jsonResponse(http.StatusOK, record), nil
}
