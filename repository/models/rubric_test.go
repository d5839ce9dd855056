package models

import "testing"

func TestCheckResultsDefaultsToOK(t *testing.T) {
	var c CheckResults
	if got := c.Get("pump"); got != CheckOK {
		t.Errorf("nil map Get = %q, want OK", got)
	}
	c = CheckResults{"sensor": CheckNG}
	if got := c.Get("sensor"); got != CheckNG {
		t.Errorf("Get(sensor) = %q, want NG", got)
	}
	if got := c.Get("pump"); got != CheckOK {
		t.Errorf("missing key Get = %q, want OK", got)
	}
}

func TestCheckResultsValidate(t *testing.T) {
	if err := (CheckResults{"pump": CheckOK, "sensor": CheckNG}).Validate(); err != nil {
		t.Errorf("valid map rejected: %v", err)
	}
	if err := (CheckResults{"pump": "BROKEN"}).Validate(); err == nil {
		t.Error("invalid state accepted")
	}
}

func TestDeriveCondition(t *testing.T) {
	tests := []struct {
		name   string
		checks CheckResults
		want   string
	}{
		{"nil map", nil, ConditionGood},
		{"all ok", CheckResults{"pump": CheckOK, "sensor": CheckOK}, ConditionGood},
		{"one ng", CheckResults{"sensor": CheckNG}, ConditionMinor},
		{"all ng stays minor", allNG(), ConditionMinor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.checks.DeriveCondition(); got != tt.want {
				t.Errorf("DeriveCondition() = %q, want %q", got, tt.want)
			}
		})
	}
}

func allNG() CheckResults {
	c := make(CheckResults, len(Checks))
	for _, check := range Checks {
		c[check] = CheckNG
	}
	return c
}

func TestIsDetailedArea(t *testing.T) {
	if !IsDetailedArea("WRAPPING & REWINDER") {
		t.Error("WRAPPING & REWINDER should be detailed")
	}
	if IsDetailedArea("PRESS SECTION") {
		t.Error("PRESS SECTION should be free-form")
	}
}
