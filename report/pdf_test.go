package report

import (
	"strings"
	"testing"
	"time"

	"github.com/rizqinugroho/equipcheck/repository"
	"github.com/rizqinugroho/equipcheck/repository/models"
)

func approvedStamp() models.Approval {
	by := "Budi Manager"
	at := time.Date(2025, 1, 10, 15, 30, 0, 0, models.RefZone)
	return models.Approval{
		Status:     models.StatusApproved,
		ApprovedBy: &by,
		ApprovedAt: &at,
		Signature:  []byte("not-a-real-image"),
	}
}

func assertPDF(t *testing.T, data []byte, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Fatalf("output does not look like a PDF (starts %q)", data[:min(8, len(data))])
	}
}

func TestChecklistReport(t *testing.T) {
	renderer := NewRenderer()

	pending := &models.ChecklistRecord{
		ID:        42,
		Date:      "2025-01-10",
		Machine:   "PM-2",
		SubArea:   "PRESS SECTION",
		Shift:     "Pagi",
		Item:      "Felt Roll",
		Condition: models.ConditionGood,
		Approval:  models.Approval{Status: models.StatusPending},
	}
	data, err := renderer.Checklist(pending)
	assertPDF(t, data, err)

	approved := *pending
	approved.Checks = models.CheckResults{"sensor": models.CheckNG}
	approved.Approval = approvedStamp()
	data, err = renderer.Checklist(&approved)
	assertPDF(t, data, err)
}

func TestCalibrationReport(t *testing.T) {
	renderer := NewRenderer()
	record := &models.CalibrationRecord{
		ID:             7,
		DocumentNumber: "CAL-2025-017",
		Date:           "2025-01-10",
		Instrument:     "Pressure Transmitter",
		Manufacturer:   "Yokogawa",
		Model:          "EJA110E",
		SerialNumber:   "91K523877",
		RangeInput:     "0-10 bar",
		RangeOutput:    "4-20 mA",
		Approval:       approvedStamp(),
	}
	record.Rows = append(record.Rows, models.CalibrationRow{
		PercentSpan: 50, NominalInput: 5, NominalOutput: 12,
		AsFound: 12.05, AsLeft: 12.01, AsFoundError: 0.3125, AsLeftError: 0.0625,
	})
	data, err := renderer.Calibration(record)
	assertPDF(t, data, err)
}

func TestBatchSessionReport(t *testing.T) {
	renderer := NewRenderer()

	session := &repository.BatchSession{
		SubArea: "WRAPPING & REWINDER",
		Date:    "2025-01-10",
		Shift:   "Pagi",
	}
	for i, part := range models.DetailedAreaParts["WRAPPING & REWINDER"] {
		checks := models.CheckResults{}
		if i == 0 {
			checks["sensor"] = models.CheckNG
			checks["pump"] = models.CheckNG
		}
		session.Records = append(session.Records, models.ChecklistRecord{
			ID:        uint(i + 1),
			Date:      session.Date,
			SubArea:   session.SubArea,
			Shift:     session.Shift,
			Item:      part,
			Condition: checks.DeriveCondition(),
			Checks:    checks,
			Approval:  approvedStamp(),
		})
	}
	data, err := renderer.BatchSession(session)
	assertPDF(t, data, err)
}
