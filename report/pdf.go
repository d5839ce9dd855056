// Package report renders approved or pending records to PDF. It consumes a
// complete record snapshot from the repository and owns nothing but layout.
package report

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-pdf/fpdf"

	"github.com/rizqinugroho/equipcheck/repository"
	"github.com/rizqinugroho/equipcheck/repository/models"
)

// Renderer produces PDF documents for single records and batch sessions.
type Renderer struct{}

// NewRenderer creates a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

func newDoc(title string) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.Ln(4)
	return pdf
}

func fieldRow(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(50, 7, label, "1", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 7, value, "1", 1, "L", false, 0, "")
}

// approvalBlock renders the approval footer. Pending records get a plain
// status line; approved records get approver, timestamp and the signature
// image snapshot stored on the record itself.
func approvalBlock(pdf *fpdf.Fpdf, a models.Approval) {
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, "Approval", "", 1, "L", false, 0, "")
	fieldRow(pdf, "Status", a.Status)
	if !a.IsApproved() {
		return
	}
	if a.ApprovedBy != nil {
		fieldRow(pdf, "Approved By", *a.ApprovedBy)
	}
	if a.ApprovedAt != nil {
		fieldRow(pdf, "Approved At", a.ApprovedAt.In(models.RefZone).Format("2006-01-02 15:04:05 -0700"))
	}
	embedSignature(pdf, a.Signature)
}

func embedSignature(pdf *fpdf.Fpdf, sig []byte) {
	if len(sig) == 0 {
		return
	}
	var imageType string
	switch http.DetectContentType(sig) {
	case "image/png":
		imageType = "PNG"
	case "image/jpeg":
		imageType = "JPG"
	default:
		// Unknown image payloads are skipped rather than failing the report.
		return
	}
	opts := fpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader("signature", opts, bytes.NewReader(sig))
	pdf.ImageOptions("signature", 15, pdf.GetY()+4, 50, 0, false, opts, 0, "")
	pdf.Ln(30)
}

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Checklist renders one checklist record.
func (rn *Renderer) Checklist(rec *models.ChecklistRecord) ([]byte, error) {
	pdf := newDoc("Checklist Maintenance")
	fieldRow(pdf, "Record ID", fmt.Sprintf("%d", rec.ID))
	fieldRow(pdf, "Date", rec.Date)
	fieldRow(pdf, "Machine", rec.Machine)
	fieldRow(pdf, "Sub Area", rec.SubArea)
	fieldRow(pdf, "Shift", rec.Shift)
	fieldRow(pdf, "Item", rec.Item)
	fieldRow(pdf, "Condition", rec.Condition)
	if rec.Note != "" {
		fieldRow(pdf, "Note", rec.Note)
	}
	if len(rec.Checks) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 8, "Inspection Checks", "", 1, "L", false, 0, "")
		for _, check := range models.Checks {
			fieldRow(pdf, check, rec.Checks.Get(check))
		}
	}
	approvalBlock(pdf, rec.Approval)
	return output(pdf)
}

// Calibration renders one calibration report, including the numeric result
// table.
func (rn *Renderer) Calibration(rec *models.CalibrationRecord) ([]byte, error) {
	pdf := newDoc("Calibration Report")
	fieldRow(pdf, "Record ID", fmt.Sprintf("%d", rec.ID))
	fieldRow(pdf, "Document No", rec.DocumentNumber)
	fieldRow(pdf, "Date", rec.Date)
	fieldRow(pdf, "Instrument", rec.Instrument)
	fieldRow(pdf, "Manufacturer", rec.Manufacturer)
	fieldRow(pdf, "Model", rec.Model)
	fieldRow(pdf, "Serial No", rec.SerialNumber)
	fieldRow(pdf, "Input Range", rec.RangeInput)
	fieldRow(pdf, "Output Range", rec.RangeOutput)
	if rec.Note != "" {
		fieldRow(pdf, "Note", rec.Note)
	}

	if len(rec.Rows) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 8, "Calibration Results", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 8)
		headers := []string{"% Span", "Input", "Output", "As Found", "As Left", "AF Error", "AL Error"}
		for _, h := range headers {
			pdf.CellFormat(26, 6, h, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
		for _, row := range rec.Rows {
			cells := []float64{
				row.PercentSpan, row.NominalInput, row.NominalOutput,
				row.AsFound, row.AsLeft, row.AsFoundError, row.AsLeftError,
			}
			for _, v := range cells {
				pdf.CellFormat(26, 6, fmt.Sprintf("%.2f", v), "1", 0, "R", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	approvalBlock(pdf, rec.Approval)
	return output(pdf)
}

// BatchSession renders one batch session: every sub-part row of a detailed
// area submission on one report, with the shared approval footer.
func (rn *Renderer) BatchSession(session *repository.BatchSession) ([]byte, error) {
	pdf := newDoc("Checklist Maintenance - Detailed Area")
	fieldRow(pdf, "Sub Area", session.SubArea)
	fieldRow(pdf, "Date", session.Date)
	fieldRow(pdf, "Shift", session.Shift)

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(15, 6, "ID", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, "Part", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 6, "Condition", "1", 0, "C", false, 0, "")
	pdf.CellFormat(0, 6, "NG Checks", "1", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, rec := range session.Records {
		var ng []byte
		for _, check := range models.Checks {
			if rec.Checks.Get(check) == models.CheckNG {
				if len(ng) > 0 {
					ng = append(ng, ", "...)
				}
				ng = append(ng, check...)
			}
		}
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", rec.ID), "1", 0, "C", false, 0, "")
		pdf.CellFormat(60, 6, rec.Item, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, rec.Condition, "1", 0, "C", false, 0, "")
		pdf.CellFormat(0, 6, string(ng), "1", 1, "L", false, 0, "")
	}

	if len(session.Records) > 0 {
		approvalBlock(pdf, session.Records[0].Approval)
	}
	return output(pdf)
}
