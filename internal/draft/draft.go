// Package draft holds the current report draft and the mutations wizard
// screens apply to it. Every mutation validates its entry before the caller
// persists the whole aggregate back through the Store.
package draft

import (
	"fmt"

	"fieldline/internal/domain"
)

// New creates a fresh draft for a client visit, overwriting semantics are
// the Store's concern. A device holds at most one draft at a time.
func New(client domain.Client, reportType, serviceDate string) domain.ReportDraft {
	return domain.ReportDraft{
		ClientID:     client.ID,
		Client:       client,
		ReportType:   reportType,
		ServiceDate:  serviceDate,
		BaitStations: []domain.StationEntry{},
		Step:         domain.StepSetup,
	}
}

// NewEdit creates a draft for resubmitting a previously rejected report.
// Pre-fill is never attempted in edit mode.
func NewEdit(client domain.Client, reportType, serviceDate string, reportID int64) domain.ReportDraft {
	d := New(client, reportType, serviceDate)
	d.EditMode = true
	d.ReportID = reportID
	return d
}

// AddStation validates and appends a station entry. (location, number)
// must be unique within the draft. Clean stations have their chemical list
// forced empty regardless of prior content.
func AddStation(d *domain.ReportDraft, s domain.StationEntry) error {
	if err := domain.ValidateStation(s); err != nil {
		return err
	}
	if _, exists := d.Station(s.Location, s.StationNumber); exists {
		return fmt.Errorf("station %s %d already recorded", s.Location, s.StationNumber)
	}
	d.BaitStations = append(d.BaitStations, normalizeStation(s))
	return nil
}

// ReplaceStation swaps an existing entry by id, keeping the uniqueness
// invariant against all other entries.
func ReplaceStation(d *domain.ReportDraft, s domain.StationEntry) error {
	if err := domain.ValidateStation(s); err != nil {
		return err
	}
	idx := -1
	for i, cur := range d.BaitStations {
		if cur.ID == s.ID {
			idx = i
			continue
		}
		if cur.Location == s.Location && cur.StationNumber == s.StationNumber {
			return fmt.Errorf("station %s %d already recorded", s.Location, s.StationNumber)
		}
	}
	if idx < 0 {
		return fmt.Errorf("station entry %s not found", s.ID)
	}
	d.BaitStations[idx] = normalizeStation(s)
	return nil
}

// SetFumigation validates and stores the fumigation slice.
func SetFumigation(d *domain.ReportDraft, f domain.FumigationEntry) error {
	if err := domain.ValidateFumigation(f); err != nil {
		return err
	}
	if f.Chemicals == nil {
		f.Chemicals = []domain.ChemicalUse{}
	}
	if f.Monitors == nil {
		f.Monitors = []domain.MonitorEntry{}
	}
	d.Fumigation = &f
	return nil
}

// AddMonitor validates and appends an insect monitor to the fumigation
// slice. (type, number) must be unique within the draft.
func AddMonitor(d *domain.ReportDraft, m domain.MonitorEntry) error {
	if err := domain.ValidateMonitor(m); err != nil {
		return err
	}
	if _, exists := d.Monitor(m.Type, m.MonitorNumber); exists {
		return fmt.Errorf("monitor %s %d already recorded", m.Type, m.MonitorNumber)
	}
	if d.Fumigation == nil {
		d.Fumigation = &domain.FumigationEntry{
			Areas:     []string{},
			Pests:     []string{},
			Chemicals: []domain.ChemicalUse{},
		}
	}
	d.Fumigation.Monitors = append(d.Fumigation.Monitors, m)
	return nil
}

// ReplaceMonitor swaps an existing fumigation monitor by id.
func ReplaceMonitor(d *domain.ReportDraft, m domain.MonitorEntry) error {
	if err := domain.ValidateMonitor(m); err != nil {
		return err
	}
	if d.Fumigation == nil {
		return fmt.Errorf("monitor entry %s not found", m.ID)
	}
	idx := -1
	for i, cur := range d.Fumigation.Monitors {
		if cur.ID == m.ID {
			idx = i
			continue
		}
		if cur.Type == m.Type && cur.MonitorNumber == m.MonitorNumber {
			return fmt.Errorf("monitor %s %d already recorded", m.Type, m.MonitorNumber)
		}
	}
	if idx < 0 {
		return fmt.Errorf("monitor entry %s not found", m.ID)
	}
	d.Fumigation.Monitors[idx] = m
	return nil
}

// Sign records the signature step. Both signatures and the client name are
// required before submission.
func Sign(d *domain.ReportDraft, clientName, clientSignature, pcoSignature string) error {
	if clientName == "" {
		return fmt.Errorf("client name is required")
	}
	if clientSignature == "" || pcoSignature == "" {
		return fmt.Errorf("both signatures are required")
	}
	d.ClientName = clientName
	d.ClientSignature = clientSignature
	d.PCOSignature = pcoSignature
	return nil
}

// ReadyForSubmit checks the draft is complete enough to build a payload.
func ReadyForSubmit(d domain.ReportDraft) error {
	switch d.ReportType {
	case domain.ReportTypeBait, domain.ReportTypeFumigation, domain.ReportTypeBoth:
	default:
		return fmt.Errorf("unknown report type %q", d.ReportType)
	}
	if d.ReportType != domain.ReportTypeFumigation && len(d.BaitStations) == 0 {
		return fmt.Errorf("no bait stations recorded")
	}
	if d.ReportType != domain.ReportTypeBait && d.Fumigation == nil {
		return fmt.Errorf("fumigation details missing")
	}
	if d.ClientSignature == "" || d.PCOSignature == "" {
		return fmt.Errorf("report not signed")
	}
	return nil
}

func normalizeStation(s domain.StationEntry) domain.StationEntry {
	if s.BaitStatus == domain.BaitStatusClean || s.ChemicalsUsed == nil {
		s.ChemicalsUsed = []domain.ChemicalUse{}
	}
	return s
}
