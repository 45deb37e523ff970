package payload_test

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"fieldline/internal/domain"
	"fieldline/internal/payload"
)

func bothDraft() domain.ReportDraft {
	return domain.ReportDraft{
		ClientID:        7,
		ReportType:      domain.ReportTypeBoth,
		ServiceDate:     "2026-03-01",
		NextServiceDate: "2026-04-01",
		ClientName:      "J. Oboya",
		ClientSignature: "sig-client",
		PCOSignature:    "sig-pco",
		GeneralRemarks:  "All stations serviced.",
		BaitStations: []domain.StationEntry{{
			ID:               "s1",
			Location:         domain.LocationInside,
			StationNumber:    1,
			Accessible:       true,
			ActivityDetected: true,
			ActivityTypes:    []string{"droppings", "gnawing"},
			BaitStatus:       "eaten",
			StationCondition: "good",
			ChemicalsUsed: []domain.ChemicalUse{
				{ChemicalID: 3, ChemicalName: "Brodifacoum", Quantity: 2.5, BatchNumber: "B-2044"},
			},
		}},
		Fumigation: &domain.FumigationEntry{
			Areas:     []string{"Kitchen", "Storage"},
			Pests:     []string{"Cockroaches"},
			Chemicals: []domain.ChemicalUse{{ChemicalID: 9, Quantity: 1, BatchNumber: "F-9"}},
			Remarks:   "Ventilated after treatment.",
			Monitors: []domain.MonitorEntry{
				{ID: "m1", Type: domain.MonitorTypeBox, MonitorNumber: 1, Condition: "good"},
				{ID: "m2", Type: domain.MonitorTypeLight, MonitorNumber: 2, Condition: "needs_repair",
					LightCondition: "faulty", LightFaultyType: "tube", GlueBoard: "replaced", TubesCondition: "replaced"},
			},
		},
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	d := bothDraft()
	a, err := payload.Build(d).MarshalBody()
	if err != nil {
		t.Fatal(err)
	}
	b, err := payload.Build(d).MarshalBody()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("same draft must produce byte-identical payloads:\n%s\n%s", a, b)
	}
}

func TestBuildMethodAndEndpoint(t *testing.T) {
	d := bothDraft()
	req := payload.Build(d)
	if req.Method != http.MethodPost || req.Endpoint != "reports" {
		t.Fatalf("new report: %s %s", req.Method, req.Endpoint)
	}
	d.EditMode = true
	d.ReportID = 42
	req = payload.Build(d)
	if req.Method != http.MethodPut || req.Endpoint != "reports/42" {
		t.Fatalf("edit mode: %s %s", req.Method, req.Endpoint)
	}
}

func TestBuildReportTypeWireValues(t *testing.T) {
	cases := map[string]string{
		domain.ReportTypeBait:       "bait_inspection",
		domain.ReportTypeFumigation: "fumigation",
		domain.ReportTypeBoth:       "both",
	}
	for in, want := range cases {
		d := bothDraft()
		d.ReportType = in
		if got := payload.Build(d).Body.ReportType; got != want {
			t.Fatalf("report type %q -> %q, want %q", in, got, want)
		}
	}
}

func TestBuildStationWire(t *testing.T) {
	body := payload.Build(bothDraft()).Body
	if len(body.BaitStations) != 1 {
		t.Fatalf("stations: %+v", body.BaitStations)
	}
	s := body.BaitStations[0]
	if !s.ActivityDroppings || !s.ActivityGnawing || s.ActivityTracks || s.ActivityOther {
		t.Fatalf("activity booleans wrong: %+v", s)
	}
	if len(s.Chemicals) != 1 || s.Chemicals[0].BatchNumber != "B-2044" {
		t.Fatalf("chemicals wrong: %+v", s.Chemicals)
	}
}

func TestBuildMonitorConditionCompression(t *testing.T) {
	cases := map[string]string{
		"good":         "good",
		"needs_repair": "repaired",
		"damaged":      "other",
		"missing":      "replaced",
		"other":        "other",
	}
	for in, want := range cases {
		d := bothDraft()
		d.Fumigation.Monitors = []domain.MonitorEntry{
			{Type: domain.MonitorTypeBox, MonitorNumber: 1, Condition: in},
		}
		got := payload.Build(d).Body.Fumigation.InsectMonitors[0].Condition
		if got != want {
			t.Fatalf("condition %q -> %q, want %q", in, got, want)
		}
	}
}

func TestBuildBoxMonitorLightFieldsAreNA(t *testing.T) {
	body := payload.Build(bothDraft()).Body
	box := body.Fumigation.InsectMonitors[0]
	if box.LightCondition != payload.NA || box.LightFaultyType != payload.NA ||
		box.GlueBoardReplaced != payload.NA || box.TubesReplaced != payload.NA {
		t.Fatalf("box monitor light fields must be %q: %+v", payload.NA, box)
	}
	light := body.Fumigation.InsectMonitors[1]
	if light.LightCondition != "faulty" || light.LightFaultyType != "tube" ||
		light.GlueBoardReplaced != "replaced" || light.TubesReplaced != "replaced" {
		t.Fatalf("light monitor fields wrong: %+v", light)
	}
}

func TestBuildJoinsRemarks(t *testing.T) {
	d := bothDraft()
	body := payload.Build(d).Body
	want := "All stations serviced." + payload.RemarksSeparator + "Ventilated after treatment."
	if body.GeneralRemarks != want {
		t.Fatalf("joined remarks = %q", body.GeneralRemarks)
	}

	d.GeneralRemarks = ""
	if got := payload.Build(d).Body.GeneralRemarks; got != "Ventilated after treatment." {
		t.Fatalf("fumigation-only remarks = %q", got)
	}

	d = bothDraft()
	d.Fumigation.Remarks = ""
	if got := payload.Build(d).Body.GeneralRemarks; got != "All stations serviced." {
		t.Fatalf("general-only remarks = %q", got)
	}
	if strings.Contains(payload.Build(d).Body.GeneralRemarks, "---") {
		t.Fatalf("separator must not appear with a single remark")
	}
}

func TestBuildDoesNotMutateDraft(t *testing.T) {
	d := bothDraft()
	before := d.Fumigation.Remarks
	_ = payload.Build(d)
	if d.Fumigation.Remarks != before || d.GeneralRemarks != "All stations serviced." {
		t.Fatalf("build mutated the draft")
	}
}

func TestBuildBaitOnlyOmitsFumigation(t *testing.T) {
	d := bothDraft()
	d.ReportType = domain.ReportTypeBait
	d.Fumigation = nil
	body := payload.Build(d).Body
	if body.Fumigation != nil {
		t.Fatalf("bait-only payload must not carry fumigation")
	}
	raw, err := payload.Build(d).MarshalBody()
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(raw, []byte("fumigation")) {
		t.Fatalf("fumigation key leaked into bait-only payload: %s", raw)
	}
}
