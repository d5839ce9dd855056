package models

import "time"

// Condition classifications for a checklist line item.
const (
	ConditionGood  = "Good"
	ConditionMinor = "Minor"
	ConditionBad   = "Bad"
)

// ValidCondition reports whether c is a known condition classification.
func ValidCondition(c string) bool {
	switch c {
	case ConditionGood, ConditionMinor, ConditionBad:
		return true
	}
	return false
}

// ChecklistRecord represents one maintenance checklist line item. Detailed
// areas submit one record per inspected sub-part, all sharing (sub_area,
// date, shift); those rows form one batch session and are approved together.
type ChecklistRecord struct {
	ID          uint         `gorm:"column:checklist_id;primaryKey;autoIncrement" json:"id"`
	CreatorID   uint         `gorm:"column:creator_id;index;not null" json:"creator_id"`
	Creator     *UserAccount `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Date        string       `gorm:"column:date;type:varchar(10);not null;index" json:"date"` // YYYY-MM-DD
	Machine     string       `gorm:"column:machine;type:varchar(100);not null" json:"machine"`
	SubArea     string       `gorm:"column:sub_area;type:varchar(100);index" json:"sub_area"`
	Shift       string       `gorm:"column:shift;type:varchar(20)" json:"shift"`
	Item        string       `gorm:"column:item;type:varchar(100);not null" json:"item"`
	Condition   string       `gorm:"column:condition;type:varchar(20);not null" json:"condition"`
	Note        string       `gorm:"column:note;type:text" json:"note"`
	PhotoBefore []byte       `gorm:"column:photo_before;type:blob" json:"-"`
	PhotoAfter  []byte       `gorm:"column:photo_after;type:blob" json:"-"`
	Checks      CheckResults `gorm:"column:checks;type:text" json:"checks,omitempty"`
	CreatedAt   time.Time    `gorm:"column:created_at;not null" json:"created_at"`

	Approval `gorm:"embedded"`
}

func (ChecklistRecord) TableName() string {
	return "checklists"
}
