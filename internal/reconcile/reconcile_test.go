package reconcile_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"fieldline/internal/api"
	"fieldline/internal/domain"
	"fieldline/internal/reconcile"
)

// scripted answers prompts in order and records the messages shown.
type scripted struct {
	answers  []bool
	messages []string
}

func (s *scripted) Confirm(_ context.Context, message string) (bool, error) {
	s.messages = append(s.messages, message)
	if len(s.answers) == 0 {
		return false, fmt.Errorf("unexpected prompt: %s", message)
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

type fakeCounts struct {
	calls int
	last  api.CountsWire
	err   error
}

func (f *fakeCounts) UpdateClientCounts(_ context.Context, _ int64, counts api.CountsWire) error {
	f.calls++
	f.last = counts
	return f.err
}

func stationDraft(inside, outside int) domain.ReportDraft {
	d := domain.ReportDraft{
		ClientID:   7,
		ReportType: domain.ReportTypeBait,
		Step:       domain.StepStations,
		Client: domain.Client{
			ID:                      7,
			Name:                    "Harbor Foods",
			ExpectedInsideStations:  10,
			ExpectedOutsideStations: 5,
		},
	}
	for i := 0; i < inside; i++ {
		d.BaitStations = append(d.BaitStations, domain.StationEntry{Location: domain.LocationInside, StationNumber: i + 1})
	}
	for i := 0; i < outside; i++ {
		d.BaitStations = append(d.BaitStations, domain.StationEntry{Location: domain.LocationOutside, StationNumber: i + 1})
	}
	return d
}

func TestAdvanceExactMatchNoPrompts(t *testing.T) {
	prompts := &scripted{}
	counts := &fakeCounts{}
	eng := reconcile.Engine{Counts: counts, Prompt: prompts}

	d := stationDraft(10, 5)
	out, err := eng.Advance(context.Background(), &d)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !out.Advanced || out.UpdatedExpected || len(prompts.messages) != 0 || counts.calls != 0 {
		t.Fatalf("exact match must advance silently: %+v prompts=%v calls=%d", out, prompts.messages, counts.calls)
	}
	if d.Step != domain.StepSummary {
		t.Fatalf("bait report should skip fumigation, step = %q", d.Step)
	}
}

func TestAdvanceOverageAcceptedUpdatesCounts(t *testing.T) {
	prompts := &scripted{answers: []bool{true}}
	counts := &fakeCounts{}
	eng := reconcile.Engine{Counts: counts, Prompt: prompts}

	d := stationDraft(12, 5)
	out, err := eng.Advance(context.Background(), &d)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Advanced || !out.UpdatedExpected {
		t.Fatalf("accepted overage should update and advance: %+v", out)
	}
	if counts.calls != 1 {
		t.Fatalf("want one count update, got %d", counts.calls)
	}
	// update raises to actual for over categories, leaves the rest alone
	if counts.last.TotalStationsInside != 12 || counts.last.TotalStationsOutside != 5 {
		t.Fatalf("wrong counts sent: %+v", counts.last)
	}
	if d.Client.ExpectedInsideStations != 12 {
		t.Fatalf("client snapshot not refreshed: %+v", d.Client)
	}
}

func TestAdvanceOverageDeclinedStillAdvances(t *testing.T) {
	prompts := &scripted{answers: []bool{false}}
	counts := &fakeCounts{}
	eng := reconcile.Engine{Counts: counts, Prompt: prompts}

	d := stationDraft(12, 5)
	out, err := eng.Advance(context.Background(), &d)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Advanced || out.UpdatedExpected || counts.calls != 0 {
		t.Fatalf("declined overage must still advance without an update: %+v calls=%d", out, counts.calls)
	}
	if d.Client.ExpectedInsideStations != 10 {
		t.Fatalf("declined update must not touch the snapshot: %+v", d.Client)
	}
}

func TestAdvanceOverageUpdateFailureDegrades(t *testing.T) {
	prompts := &scripted{answers: []bool{true}}
	counts := &fakeCounts{err: fmt.Errorf("connection refused")}
	eng := reconcile.Engine{Counts: counts, Prompt: prompts}

	d := stationDraft(12, 5)
	out, err := eng.Advance(context.Background(), &d)
	if err != nil {
		t.Fatalf("a failed count update must never block: %v", err)
	}
	if !out.Advanced || out.UpdatedExpected {
		t.Fatalf("failed update should degrade but advance: %+v", out)
	}
	if d.Client.ExpectedInsideStations != 10 {
		t.Fatalf("failed update must not touch the snapshot: %+v", d.Client)
	}
}

func TestAdvanceShortfallMessageAndDecline(t *testing.T) {
	prompts := &scripted{answers: []bool{false}}
	eng := reconcile.Engine{Counts: &fakeCounts{}, Prompt: prompts}

	d := stationDraft(7, 5)
	out, err := eng.Advance(context.Background(), &d)
	if err != nil {
		t.Fatal(err)
	}
	if out.Advanced {
		t.Fatalf("declined shortfall must not advance")
	}
	if d.Step != domain.StepStations {
		t.Fatalf("step must not move on decline, got %q", d.Step)
	}
	want := "3 Inside stations missing. Continue anyway?"
	if len(prompts.messages) != 1 || prompts.messages[0] != want {
		t.Fatalf("shortfall message = %v, want %q", prompts.messages, want)
	}
}

func TestAdvanceShortfallConfirmed(t *testing.T) {
	prompts := &scripted{answers: []bool{true}}
	eng := reconcile.Engine{Counts: &fakeCounts{}, Prompt: prompts}

	d := stationDraft(7, 5)
	out, err := eng.Advance(context.Background(), &d)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Advanced || d.Step != domain.StepSummary {
		t.Fatalf("confirmed shortfall should advance: %+v step=%q", out, d.Step)
	}
}

func TestAdvanceMixedOverageAndShortfall(t *testing.T) {
	// 12 inside (over), 3 outside (short): accept the update, confirm the
	// shortfall. Both prompts fire, in that order.
	prompts := &scripted{answers: []bool{true, true}}
	counts := &fakeCounts{}
	eng := reconcile.Engine{Counts: counts, Prompt: prompts}

	d := stationDraft(12, 3)
	out, err := eng.Advance(context.Background(), &d)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Advanced || !out.UpdatedExpected {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(prompts.messages) != 2 {
		t.Fatalf("want overage then shortfall prompt, got %v", prompts.messages)
	}
	if !strings.Contains(prompts.messages[0], "Update the client's expected counts?") {
		t.Fatalf("first prompt should be the overage offer: %q", prompts.messages[0])
	}
	if prompts.messages[1] != "2 Outside stations missing. Continue anyway?" {
		t.Fatalf("shortfall prompt = %q", prompts.messages[1])
	}
	// outside is short, so the update only raises inside
	if counts.last.TotalStationsOutside != 5 {
		t.Fatalf("update must not lower outside below the record: %+v", counts.last)
	}
}

func TestAdvanceFumigationStepUsesMonitorCategories(t *testing.T) {
	prompts := &scripted{answers: []bool{true}}
	eng := reconcile.Engine{Counts: &fakeCounts{}, Prompt: prompts}

	d := domain.ReportDraft{
		ClientID:   7,
		ReportType: domain.ReportTypeBoth,
		Step:       domain.StepFumigation,
		Client: domain.Client{
			ID: 7, Name: "Harbor Foods",
			ExpectedLightMonitors: 4, ExpectedBoxMonitors: 2,
		},
		Fumigation: &domain.FumigationEntry{
			Monitors: []domain.MonitorEntry{
				{Type: domain.MonitorTypeLight, MonitorNumber: 1},
				{Type: domain.MonitorTypeLight, MonitorNumber: 2},
				{Type: domain.MonitorTypeBox, MonitorNumber: 1},
				{Type: domain.MonitorTypeBox, MonitorNumber: 2},
			},
		},
	}
	out, err := eng.Advance(context.Background(), &d)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Advanced {
		t.Fatalf("confirmed monitor shortfall should advance: %+v", out)
	}
	if prompts.messages[0] != "2 Light monitors missing. Continue anyway?" {
		t.Fatalf("prompt = %q", prompts.messages[0])
	}
	if d.Step != domain.StepSummary {
		t.Fatalf("step = %q", d.Step)
	}
}

func TestActualCounts(t *testing.T) {
	d := stationDraft(2, 3)
	d.Fumigation = &domain.FumigationEntry{Monitors: []domain.MonitorEntry{
		{Type: domain.MonitorTypeLight, MonitorNumber: 1},
		{Type: domain.MonitorTypeBox, MonitorNumber: 1},
		{Type: domain.MonitorTypeBox, MonitorNumber: 2},
	}}
	got := reconcile.Actual(d)
	want := reconcile.Counts{Inside: 2, Outside: 3, Light: 1, Box: 2}
	if got != want {
		t.Fatalf("actual = %+v, want %+v", got, want)
	}
}
