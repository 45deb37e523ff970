package domain

import (
	"fmt"
	"strings"
)

// BaitStatusClean marks a station that was found untouched; clean stations
// never carry chemical applications.
const BaitStatusClean = "clean"

// ActivityOther is the free-text bucket in ActivityTypes.
const ActivityOther = "other"

// OtherOption is the free-text bucket in fumigation area/pest lists.
const OtherOption = "Other"

// Closed value sets for the entry enums. Membership is checked locally so
// a bad value never reaches the wire.
var (
	baitStatuses      = []string{BaitStatusClean, "eaten", "partially_eaten", "moldy", "wet"}
	stationConditions = []string{"good", "needs_repair", "damaged", "missing"}
	monitorConditions = []string{"good", "needs_repair", "damaged", "missing", "other"}
	lightConditions   = []string{"working", "faulty"}
	lightFaultyTypes  = []string{"tube", "starter", "ballast", "other"}
	replaceableStates = []string{"good", "replaced"}
)

// ValidateStation checks a station entry's field-level invariants. These
// are resolved locally, before any network call.
func ValidateStation(s StationEntry) error {
	if s.Location != LocationInside && s.Location != LocationOutside {
		return fmt.Errorf("location must be inside or outside, got %q", s.Location)
	}
	if s.StationNumber <= 0 {
		return fmt.Errorf("station number must be positive, got %d", s.StationNumber)
	}
	if !hasString(baitStatuses, s.BaitStatus) {
		return fmt.Errorf("station %s %d: unknown bait status %q", s.Location, s.StationNumber, s.BaitStatus)
	}
	if !hasString(stationConditions, s.StationCondition) {
		return fmt.Errorf("station %s %d: unknown station condition %q", s.Location, s.StationNumber, s.StationCondition)
	}
	if !s.Accessible && strings.TrimSpace(s.AccessReason) == "" {
		return fmt.Errorf("station %s %d: access reason required when not accessible", s.Location, s.StationNumber)
	}
	if s.ActivityDetected && len(s.ActivityTypes) == 0 {
		return fmt.Errorf("station %s %d: activity types required when activity detected", s.Location, s.StationNumber)
	}
	if hasString(s.ActivityTypes, ActivityOther) && strings.TrimSpace(s.ActivityOther) == "" {
		return fmt.Errorf("station %s %d: description required for activity type other", s.Location, s.StationNumber)
	}
	if (s.StationCondition == "needs_repair" || s.StationCondition == "damaged") && strings.TrimSpace(s.ActionTaken) == "" {
		return fmt.Errorf("station %s %d: action taken required for condition %s", s.Location, s.StationNumber, s.StationCondition)
	}
	return nil
}

// ValidateMonitor checks an insect monitor entry's invariants.
func ValidateMonitor(m MonitorEntry) error {
	if m.Type != MonitorTypeBox && m.Type != MonitorTypeLight {
		return fmt.Errorf("monitor type must be box or light, got %q", m.Type)
	}
	if m.MonitorNumber <= 0 {
		return fmt.Errorf("monitor number must be positive, got %d", m.MonitorNumber)
	}
	if !hasString(monitorConditions, m.Condition) {
		return fmt.Errorf("monitor %s %d: unknown condition %q", m.Type, m.MonitorNumber, m.Condition)
	}
	if m.Condition == "other" && strings.TrimSpace(m.ConditionOther) == "" {
		return fmt.Errorf("monitor %s %d: description required for condition other", m.Type, m.MonitorNumber)
	}
	if m.Type == MonitorTypeLight {
		if m.LightCondition != "" && !hasString(lightConditions, m.LightCondition) {
			return fmt.Errorf("monitor light %d: unknown light condition %q", m.MonitorNumber, m.LightCondition)
		}
		if m.LightFaultyType != "" && !hasString(lightFaultyTypes, m.LightFaultyType) {
			return fmt.Errorf("monitor light %d: unknown faulty type %q", m.MonitorNumber, m.LightFaultyType)
		}
		if m.GlueBoard != "" && !hasString(replaceableStates, m.GlueBoard) {
			return fmt.Errorf("monitor light %d: glue board must be good or replaced, got %q", m.MonitorNumber, m.GlueBoard)
		}
		if m.TubesCondition != "" && !hasString(replaceableStates, m.TubesCondition) {
			return fmt.Errorf("monitor light %d: tubes must be good or replaced, got %q", m.MonitorNumber, m.TubesCondition)
		}
		if m.LightCondition == "faulty" && m.LightFaultyType == "" {
			return fmt.Errorf("monitor light %d: faulty type required when light is faulty", m.MonitorNumber)
		}
		if m.LightFaultyType == "other" && strings.TrimSpace(m.LightFaultyOther) == "" {
			return fmt.Errorf("monitor light %d: description required for faulty type other", m.MonitorNumber)
		}
	}
	return nil
}

// ValidateFumigation checks the fumigation slice before it is stored on
// the draft.
func ValidateFumigation(f FumigationEntry) error {
	if len(f.Areas) == 0 {
		return fmt.Errorf("at least one treated area is required")
	}
	if len(f.Pests) == 0 {
		return fmt.Errorf("at least one target pest is required")
	}
	if hasString(f.Areas, OtherOption) && strings.TrimSpace(f.AreaOther) == "" {
		return fmt.Errorf("description required for area Other")
	}
	if hasString(f.Pests, OtherOption) && strings.TrimSpace(f.PestOther) == "" {
		return fmt.Errorf("description required for pest Other")
	}
	for _, m := range f.Monitors {
		if err := ValidateMonitor(m); err != nil {
			return err
		}
	}
	return nil
}

func hasString(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
