package models

import (
	"time"

	"gorm.io/datatypes"
)

// CalibrationRow is one numeric result row of a calibration report.
type CalibrationRow struct {
	PercentSpan   float64 `json:"percent_span"`
	NominalInput  float64 `json:"nominal_input"`
	NominalOutput float64 `json:"nominal_output"`
	AsFound       float64 `json:"as_found"`
	AsLeft        float64 `json:"as_left"`
	AsFoundError  float64 `json:"as_found_error"`
	AsLeftError   float64 `json:"as_left_error"`
}

// CalibrationRecord represents one calibration report for a named instrument.
type CalibrationRecord struct {
	ID             uint                                 `gorm:"column:calibration_id;primaryKey;autoIncrement" json:"id"`
	CreatorID      uint                                 `gorm:"column:creator_id;index;not null" json:"creator_id"`
	Creator        *UserAccount                         `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	DocumentNumber string                               `gorm:"column:document_number;type:varchar(50)" json:"document_number"`
	Date           string                               `gorm:"column:date;type:varchar(10);not null;index" json:"date"` // YYYY-MM-DD
	Instrument     string                               `gorm:"column:instrument;type:varchar(100);not null" json:"instrument"`
	Manufacturer   string                               `gorm:"column:manufacturer;type:varchar(100)" json:"manufacturer"`
	Model          string                               `gorm:"column:model;type:varchar(100)" json:"model"`
	SerialNumber   string                               `gorm:"column:serial_number;type:varchar(100)" json:"serial_number"`
	RangeInput     string                               `gorm:"column:range_input;type:varchar(50)" json:"range_input"`
	RangeOutput    string                               `gorm:"column:range_output;type:varchar(50)" json:"range_output"`
	Rows           datatypes.JSONSlice[CalibrationRow]  `gorm:"column:result_rows" json:"rows"`
	Note           string                               `gorm:"column:note;type:text" json:"note"`
	CreatedAt      time.Time                            `gorm:"column:created_at;not null" json:"created_at"`

	Approval `gorm:"embedded"`
}

func (CalibrationRecord) TableName() string {
	return "calibrations"
}
