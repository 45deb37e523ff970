// Package prefill suggests values for a newly entered station or monitor
// from the client's last completed report. Chemical batch data is never
// carried forward; batches are lot-specific and must be re-verified on
// site.
package prefill

import (
	"context"
	"fmt"

	"fieldline/internal/domain"
	"fieldline/internal/prompt"
)

// Reconciler matches new entries against the previous-report snapshot and
// asks the operator whether to merge the historical data in.
type Reconciler struct {
	Previous *domain.PreviousReport
	Prompt   prompt.Prompter
}

// Station reconciles a newly entered station. If the previous report holds
// an entry at the same (location, number) and the current entry is not
// already prefilled, the operator is offered the merge; declining keeps the
// entry exactly as entered. Entries being edited never reach this path.
func (r Reconciler) Station(ctx context.Context, entered domain.StationEntry) (domain.StationEntry, error) {
	if r.Previous == nil || entered.Prefilled {
		return entered, nil
	}
	match, ok := matchStation(r.Previous.BaitStations, entered.Location, entered.StationNumber)
	if !ok {
		return entered, nil
	}
	accepted, err := r.Prompt.Confirm(ctx, fmt.Sprintf(
		"Station %s %d was serviced last visit. Pre-fill from the previous report?",
		entered.Location, entered.StationNumber))
	if err != nil {
		return domain.StationEntry{}, err
	}
	if !accepted {
		return entered, nil
	}
	return MergeStation(entered, match), nil
}

// Monitor reconciles a newly entered insect monitor the same way.
func (r Reconciler) Monitor(ctx context.Context, entered domain.MonitorEntry) (domain.MonitorEntry, error) {
	if r.Previous == nil {
		return entered, nil
	}
	match, ok := matchMonitor(r.Previous.Monitors, entered.Type, entered.MonitorNumber)
	if !ok {
		return entered, nil
	}
	accepted, err := r.Prompt.Confirm(ctx, fmt.Sprintf(
		"Monitor %s %d was serviced last visit. Pre-fill from the previous report?",
		entered.Type, entered.MonitorNumber))
	if err != nil {
		return domain.MonitorEntry{}, err
	}
	if !accepted {
		return entered, nil
	}
	return MergeMonitor(entered, match), nil
}

// MergeStation copies accessibility, activity, condition, and remarks
// fields from the historical entry onto the entered one. ChemicalsUsed is
// explicitly reset: batch numbers never survive a merge.
func MergeStation(entered, historical domain.StationEntry) domain.StationEntry {
	merged := entered
	merged.Accessible = historical.Accessible
	merged.AccessReason = historical.AccessReason
	merged.ActivityDetected = historical.ActivityDetected
	merged.ActivityTypes = append([]string{}, historical.ActivityTypes...)
	merged.ActivityOther = historical.ActivityOther
	merged.BaitStatus = historical.BaitStatus
	merged.StationCondition = historical.StationCondition
	merged.ActionTaken = historical.ActionTaken
	merged.WarningSignCondition = historical.WarningSignCondition
	merged.Remarks = historical.Remarks
	merged.ChemicalsUsed = []domain.ChemicalUse{}
	merged.Prefilled = true
	return merged
}

// MergeMonitor mirrors MergeStation for insect monitors.
func MergeMonitor(entered, historical domain.MonitorEntry) domain.MonitorEntry {
	merged := entered
	merged.Location = historical.Location
	merged.Condition = historical.Condition
	merged.ConditionOther = historical.ConditionOther
	merged.ActionTaken = historical.ActionTaken
	merged.WarningSignCondition = historical.WarningSignCondition
	merged.LightCondition = historical.LightCondition
	merged.LightFaultyType = historical.LightFaultyType
	merged.LightFaultyOther = historical.LightFaultyOther
	merged.GlueBoard = historical.GlueBoard
	merged.TubesCondition = historical.TubesCondition
	return merged
}

func matchStation(stations []domain.StationEntry, location string, number int) (domain.StationEntry, bool) {
	for _, s := range stations {
		if s.Location == location && s.StationNumber == number {
			return s, true
		}
	}
	return domain.StationEntry{}, false
}

func matchMonitor(monitors []domain.MonitorEntry, monitorType string, number int) (domain.MonitorEntry, bool) {
	for _, m := range monitors {
		if m.Type == monitorType && m.MonitorNumber == number {
			return m, true
		}
	}
	return domain.MonitorEntry{}, false
}
