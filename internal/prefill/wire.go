package prefill

import (
	"fieldline/internal/domain"
	"fieldline/internal/payload"
)

// wire condition values folded back into the wizard vocabulary. The wire
// mapping is many-to-one, so this is a best-effort suggestion the operator
// still confirms.
var monitorConditionUI = map[string]string{
	"repaired": "needs_repair",
	"replaced": "missing",
	"other":    "other",
	"good":     "good",
}

// FromWire translates a previous-report payload into the domain snapshot
// cached on the draft.
func FromWire(stations []payload.StationWire, monitors []payload.MonitorWire) *domain.PreviousReport {
	prev := &domain.PreviousReport{
		BaitStations: make([]domain.StationEntry, 0, len(stations)),
		Monitors:     make([]domain.MonitorEntry, 0, len(monitors)),
	}
	for _, s := range stations {
		entry := domain.StationEntry{
			Location:             s.Location,
			StationNumber:        s.StationNumber,
			Accessible:           s.Accessible,
			AccessReason:         s.AccessReason,
			ActivityDetected:     s.ActivityDroppings || s.ActivityGnawing || s.ActivityTracks || s.ActivityOther,
			ActivityOther:        s.ActivityOtherDetail,
			BaitStatus:           s.BaitStatus,
			StationCondition:     s.StationCondition,
			ActionTaken:          s.ActionTaken,
			WarningSignCondition: s.WarningSignCondition,
			Remarks:              s.Remarks,
			ChemicalsUsed:        []domain.ChemicalUse{},
		}
		if s.ActivityDroppings {
			entry.ActivityTypes = append(entry.ActivityTypes, "droppings")
		}
		if s.ActivityGnawing {
			entry.ActivityTypes = append(entry.ActivityTypes, "gnawing")
		}
		if s.ActivityTracks {
			entry.ActivityTypes = append(entry.ActivityTypes, "tracks")
		}
		if s.ActivityOther {
			entry.ActivityTypes = append(entry.ActivityTypes, domain.ActivityOther)
		}
		prev.BaitStations = append(prev.BaitStations, entry)
	}
	for _, m := range monitors {
		entry := domain.MonitorEntry{
			Type:                 m.Type,
			Location:             m.Location,
			MonitorNumber:        m.MonitorNumber,
			Condition:            monitorConditionUI[m.Condition],
			ConditionOther:       m.ConditionOther,
			ActionTaken:          m.ActionTaken,
			WarningSignCondition: m.WarningSignCondition,
		}
		if m.Type == domain.MonitorTypeLight {
			entry.LightCondition = sanitizeNA(m.LightCondition)
			entry.LightFaultyType = sanitizeNA(m.LightFaultyType)
			entry.GlueBoard = sanitizeNA(m.GlueBoardReplaced)
			entry.TubesCondition = sanitizeNA(m.TubesReplaced)
		}
		prev.Monitors = append(prev.Monitors, entry)
	}
	return prev
}

func sanitizeNA(v string) string {
	if v == payload.NA {
		return ""
	}
	return v
}
