// Package reconcile compares the equipment the operator actually found
// against the client's on-record expected counts, and gates advancement
// past the station and monitor entry screens.
package reconcile

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"fieldline/internal/api"
	"fieldline/internal/domain"
	"fieldline/internal/prompt"
)

// Category labels used in operator-facing messages.
const (
	CategoryInsideStations  = "Inside stations"
	CategoryOutsideStations = "Outside stations"
	CategoryLightMonitors   = "Light monitors"
	CategoryBoxMonitors     = "Box monitors"
)

// CountUpdater persists new expected counts for a client. *api.Client
// satisfies it.
type CountUpdater interface {
	UpdateClientCounts(ctx context.Context, clientID int64, counts api.CountsWire) error
}

// Counts are per-category equipment totals.
type Counts struct {
	Inside  int
	Outside int
	Light   int
	Box     int
}

// Difference is one category where actual and expected diverge.
type Difference struct {
	Category string
	Expected int
	Actual   int
}

// Outcome reports what the engine decided.
type Outcome struct {
	Advanced        bool
	UpdatedExpected bool
	Overages        []Difference
	Shortfalls      []Difference
}

// Engine runs the three-way count decision table. It has no retries; a
// declined or failed count update degrades to the shortfall check against
// the original expected counts.
type Engine struct {
	Counts CountUpdater
	Prompt prompt.Prompter
	Log    *zap.SugaredLogger
}

// Actual derives found equipment totals from the draft.
func Actual(d domain.ReportDraft) Counts {
	var c Counts
	for _, s := range d.BaitStations {
		if s.Location == domain.LocationInside {
			c.Inside++
		} else {
			c.Outside++
		}
	}
	if d.Fumigation != nil {
		for _, m := range d.Fumigation.Monitors {
			if m.Type == domain.MonitorTypeLight {
				c.Light++
			} else {
				c.Box++
			}
		}
	}
	return c
}

// Expected reads the client snapshot's on-record totals.
func Expected(c domain.Client) Counts {
	return Counts{
		Inside:  c.ExpectedInsideStations,
		Outside: c.ExpectedOutsideStations,
		Light:   c.ExpectedLightMonitors,
		Box:     c.ExpectedBoxMonitors,
	}
}

// Advance runs the decision table for the draft's current screen and, when
// the operator may proceed, moves the draft to the next wizard step. The
// shortfall check always uses the expected counts as they stood at the
// start of the visit, even after an accepted update.
func (e Engine) Advance(ctx context.Context, d *domain.ReportDraft) (Outcome, error) {
	actual := Actual(*d)
	original := Expected(d.Client)
	categories := categoriesForStep(d.Step)

	var out Outcome
	out.Overages = diff(categories, original, actual, func(exp, act int) bool { return act > exp })
	if len(out.Overages) > 0 {
		accepted, err := e.Prompt.Confirm(ctx, overageMessage(out.Overages, d.Client.Name))
		if err != nil {
			return out, err
		}
		if accepted {
			if err := e.updateExpected(ctx, d, actual, original); err != nil {
				e.log().Warnw("expected count update failed, continuing with original counts",
					"client_id", d.ClientID, "error", err)
			} else {
				out.UpdatedExpected = true
			}
		}
	}

	// Missing equipment is judged against what was expected at the start
	// of the visit, not the just-updated number.
	out.Shortfalls = diff(categories, original, actual, func(exp, act int) bool { return act < exp })
	if len(out.Shortfalls) > 0 {
		confirmed, err := e.Prompt.Confirm(ctx, shortfallMessage(out.Shortfalls))
		if err != nil {
			return out, err
		}
		if !confirmed {
			return out, nil
		}
	}

	d.Step = domain.NextStep(d.Step, d.ReportType)
	out.Advanced = true
	return out, nil
}

// updateExpected persists actual counts for the over categories and
// refreshes the draft's client snapshot on success.
func (e Engine) updateExpected(ctx context.Context, d *domain.ReportDraft, actual, original Counts) error {
	next := domain.Client{
		ExpectedInsideStations:  max(original.Inside, actual.Inside),
		ExpectedOutsideStations: max(original.Outside, actual.Outside),
		ExpectedLightMonitors:   max(original.Light, actual.Light),
		ExpectedBoxMonitors:     max(original.Box, actual.Box),
	}
	counts := api.CountsWire{
		TotalStationsInside:      next.ExpectedInsideStations,
		TotalStationsOutside:     next.ExpectedOutsideStations,
		TotalInsectMonitorsLight: next.ExpectedLightMonitors,
		TotalInsectMonitorsBox:   next.ExpectedBoxMonitors,
	}
	if err := e.Counts.UpdateClientCounts(ctx, d.ClientID, counts); err != nil {
		return err
	}
	d.Client.ExpectedInsideStations = next.ExpectedInsideStations
	d.Client.ExpectedOutsideStations = next.ExpectedOutsideStations
	d.Client.ExpectedLightMonitors = next.ExpectedLightMonitors
	d.Client.ExpectedBoxMonitors = next.ExpectedBoxMonitors
	return nil
}

func categoriesForStep(step string) []string {
	if step == domain.StepFumigation {
		return []string{CategoryLightMonitors, CategoryBoxMonitors}
	}
	return []string{CategoryInsideStations, CategoryOutsideStations}
}

func diff(categories []string, expected, actual Counts, include func(exp, act int) bool) []Difference {
	var out []Difference
	for _, cat := range categories {
		exp, act := pick(cat, expected), pick(cat, actual)
		if include(exp, act) {
			out = append(out, Difference{Category: cat, Expected: exp, Actual: act})
		}
	}
	return out
}

func pick(category string, c Counts) int {
	switch category {
	case CategoryInsideStations:
		return c.Inside
	case CategoryOutsideStations:
		return c.Outside
	case CategoryLightMonitors:
		return c.Light
	case CategoryBoxMonitors:
		return c.Box
	}
	return 0
}

func overageMessage(overages []Difference, clientName string) string {
	var parts []string
	for _, o := range overages {
		parts = append(parts, fmt.Sprintf("%d %s (expected %d)", o.Actual, strings.ToLower(o.Category), o.Expected))
	}
	return fmt.Sprintf("Found more equipment than on record for %s: %s. Update the client's expected counts?",
		clientName, strings.Join(parts, ", "))
}

func shortfallMessage(shortfalls []Difference) string {
	var parts []string
	for _, s := range shortfalls {
		parts = append(parts, fmt.Sprintf("%d %s missing", s.Expected-s.Actual, s.Category))
	}
	return fmt.Sprintf("%s. Continue anyway?", strings.Join(parts, ", "))
}

func (e Engine) log() *zap.SugaredLogger {
	if e.Log != nil {
		return e.Log
	}
	return zap.NewNop().Sugar()
}
