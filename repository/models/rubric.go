package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Per-check states. There is no partial/unknown state; a check that was never
// recorded reads back as OK.
const (
	CheckOK = "OK"
	CheckNG = "NG"
)

// Checks is the fixed scoring rubric applied to every sub-part of a detailed
// area. Each sub-part record carries one result per check.
var Checks = []string{
	"pneumatic",
	"hydraulic",
	"pressure",
	"connector",
	"sensor",
	"pump",
	"packing",
	"display",
	"accuracy",
}

// DetailedAreaParts maps each detailed sub-area to its fixed set of named
// sub-parts. A detailed submission produces one ChecklistRecord per part.
var DetailedAreaParts = map[string][]string{
	"WRAPPING & REWINDER": {
		"Rewinder Drum",
		"Slitter Knife",
		"Core Chuck",
		"Wrapping Roller",
		"Kraft Unwind Stand",
		"Glue Unit",
		"Label Applicator",
		"Roll Conveyor",
		"Roll Scale",
		"Ejector Arm",
		"Roll Kicker",
	},
	"STOCK PREPARATION": {
		"Pulper",
		"HD Cleaner",
		"Deflaker",
		"Refiner",
		"Pressure Screen",
		"Stock Pump",
		"Agitator",
		"Consistency Transmitter",
		"Dump Chest",
		"Broke Tower",
	},
}

// IsDetailedArea reports whether subArea requires itemized per-part inspection.
func IsDetailedArea(subArea string) bool {
	_, ok := DetailedAreaParts[subArea]
	return ok
}

// DetailedAreas returns the names of all detailed sub-areas.
func DetailedAreas() []string {
	names := make([]string, 0, len(DetailedAreaParts))
	for name := range DetailedAreaParts {
		names = append(names, name)
	}
	return names
}

// CheckResults is the per-check detail map of a detailed sub-part record,
// stored as a JSON column. Missing keys deliberately default to OK.
type CheckResults map[string]string

// Get returns the recorded state of one check, defaulting to OK when the key
// was never written.
func (c CheckResults) Get(check string) string {
	if v, ok := c[check]; ok {
		return v
	}
	return CheckOK
}

// Validate rejects any state other than OK or NG.
func (c CheckResults) Validate() error {
	for check, v := range c {
		if v != CheckOK && v != CheckNG {
			return fmt.Errorf("check %q has invalid state %q", check, v)
		}
	}
	return nil
}

// DeriveCondition computes the condition of a detailed sub-part record from
// its rubric results: Good when every check is OK, Minor otherwise. Detailed
// items never derive Bad; that classification is reserved for free-form
// checklist entries.
func (c CheckResults) DeriveCondition() string {
	for _, check := range Checks {
		if c.Get(check) == CheckNG {
			return ConditionMinor
		}
	}
	return ConditionGood
}

// Value implements driver.Valuer, serializing the map as JSON.
func (c CheckResults) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (c *CheckResults) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into CheckResults", value)
	}
	if len(data) == 0 {
		*c = nil
		return nil
	}
	return json.Unmarshal(data, c)
}
