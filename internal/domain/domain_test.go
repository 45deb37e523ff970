package domain_test

import (
	"testing"

	"fieldline/internal/domain"
)

func TestNextStepSkipsIrrelevantScreens(t *testing.T) {
	cases := []struct {
		reportType string
		step       string
		want       string
	}{
		{domain.ReportTypeBait, domain.StepSetup, domain.StepStations},
		{domain.ReportTypeBait, domain.StepStations, domain.StepSummary},
		{domain.ReportTypeFumigation, domain.StepSetup, domain.StepFumigation},
		{domain.ReportTypeBoth, domain.StepSetup, domain.StepStations},
		{domain.ReportTypeBoth, domain.StepStations, domain.StepFumigation},
		{domain.ReportTypeBoth, domain.StepFumigation, domain.StepSummary},
		{domain.ReportTypeBoth, domain.StepSummary, domain.StepSignature},
		{domain.ReportTypeBoth, domain.StepSignature, domain.StepSubmit},
	}
	for _, tc := range cases {
		if got := domain.NextStep(tc.step, tc.reportType); got != tc.want {
			t.Errorf("NextStep(%s, %s) = %s, want %s", tc.step, tc.reportType, got, tc.want)
		}
	}
}

func TestValidateStationRejectsUnknownEnumValues(t *testing.T) {
	base := domain.StationEntry{
		ID: "s1", Location: domain.LocationInside, StationNumber: 1,
		Accessible: true, BaitStatus: "eaten", StationCondition: "good",
	}
	if err := domain.ValidateStation(base); err != nil {
		t.Fatalf("valid station: %v", err)
	}

	s := base
	s.BaitStatus = "spoiled"
	if err := domain.ValidateStation(s); err == nil {
		t.Fatalf("unknown bait status must be rejected before any network call")
	}
	s = base
	s.BaitStatus = ""
	if err := domain.ValidateStation(s); err == nil {
		t.Fatalf("empty bait status must be rejected")
	}
	s = base
	s.StationCondition = "bent"
	if err := domain.ValidateStation(s); err == nil {
		t.Fatalf("unknown station condition must be rejected")
	}
}

func TestValidateMonitorRejectsUnknownEnumValues(t *testing.T) {
	base := domain.MonitorEntry{
		ID: "m1", Type: domain.MonitorTypeLight, MonitorNumber: 1, Condition: "good",
	}
	if err := domain.ValidateMonitor(base); err != nil {
		t.Fatalf("valid monitor: %v", err)
	}

	m := base
	m.Condition = "bent"
	if err := domain.ValidateMonitor(m); err == nil {
		t.Fatalf("unknown condition must be rejected before any network call")
	}
	m = base
	m.LightCondition = "flickering"
	if err := domain.ValidateMonitor(m); err == nil {
		t.Fatalf("unknown light condition must be rejected")
	}
	m = base
	m.LightCondition = "faulty"
	m.LightFaultyType = "bulb"
	if err := domain.ValidateMonitor(m); err == nil {
		t.Fatalf("unknown faulty type must be rejected")
	}
	m = base
	m.GlueBoard = "missing"
	if err := domain.ValidateMonitor(m); err == nil {
		t.Fatalf("glue board outside good/replaced must be rejected")
	}
	// empty light fields stay legal for box monitors
	box := domain.MonitorEntry{ID: "m2", Type: domain.MonitorTypeBox, MonitorNumber: 2, Condition: "good"}
	if err := domain.ValidateMonitor(box); err != nil {
		t.Fatalf("box monitor without light fields: %v", err)
	}
}

func TestStationLookup(t *testing.T) {
	d := domain.ReportDraft{BaitStations: []domain.StationEntry{
		{ID: "a", Location: domain.LocationInside, StationNumber: 1},
		{ID: "b", Location: domain.LocationOutside, StationNumber: 1},
	}}
	if s, ok := d.Station(domain.LocationOutside, 1); !ok || s.ID != "b" {
		t.Fatalf("lookup = %+v %v", s, ok)
	}
	if _, ok := d.Station(domain.LocationInside, 2); ok {
		t.Fatalf("missing station must not match")
	}
}

func TestMonitorLookup(t *testing.T) {
	d := domain.ReportDraft{Fumigation: &domain.FumigationEntry{Monitors: []domain.MonitorEntry{
		{ID: "m", Type: domain.MonitorTypeLight, MonitorNumber: 2},
	}}}
	if m, ok := d.Monitor(domain.MonitorTypeLight, 2); !ok || m.ID != "m" {
		t.Fatalf("lookup = %+v %v", m, ok)
	}
	if _, ok := d.Monitor(domain.MonitorTypeBox, 2); ok {
		t.Fatalf("type must be part of the key")
	}
	var empty domain.ReportDraft
	if _, ok := empty.Monitor(domain.MonitorTypeBox, 1); ok {
		t.Fatalf("nil fumigation must not match")
	}
}
