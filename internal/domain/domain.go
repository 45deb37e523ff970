package domain

import "encoding/json"

// Report types as entered in the wizard. The wire values differ, see
// internal/payload.
const (
	ReportTypeBait       = "bait"
	ReportTypeFumigation = "fumigation"
	ReportTypeBoth       = "both"
)

// Station locations.
const (
	LocationInside  = "inside"
	LocationOutside = "outside"
)

// Insect monitor types.
const (
	MonitorTypeBox   = "box"
	MonitorTypeLight = "light"
)

// Wizard steps, in order.
const (
	StepSetup      = "setup"
	StepStations   = "stations"
	StepFumigation = "fumigation"
	StepSummary    = "summary"
	StepSignature  = "signature"
	StepSubmit     = "submit"
)

// Client is the denormalized client snapshot carried on the draft. Expected
// counts are the client's on-record equipment totals at the start of the
// visit.
type Client struct {
	ID                      int64  `json:"id"`
	Name                    string `json:"name"`
	Address                 string `json:"address,omitempty"`
	ExpectedInsideStations  int    `json:"expected_inside_stations"`
	ExpectedOutsideStations int    `json:"expected_outside_stations"`
	ExpectedLightMonitors   int    `json:"expected_light_monitors"`
	ExpectedBoxMonitors     int    `json:"expected_box_monitors"`
}

// ChemicalUse records one chemical application. Batch numbers are
// lot-specific and must be physically verified on site.
type ChemicalUse struct {
	ChemicalID   int64   `json:"chemical_id"`
	ChemicalName string  `json:"chemical_name"`
	Quantity     float64 `json:"quantity"`
	BatchNumber  string  `json:"batch_number"`
}

// StationEntry is one inspected bait station. ID is client-generated; the
// server assigns its own ids on submit.
type StationEntry struct {
	ID                   string        `json:"id"`
	Location             string        `json:"location" enum:"inside,outside"`
	StationNumber        int           `json:"station_number"`
	Accessible           bool          `json:"accessible"`
	AccessReason         string        `json:"access_reason,omitempty"`
	ActivityDetected     bool          `json:"activity_detected"`
	ActivityTypes        []string      `json:"activity_types,omitempty"`
	ActivityOther        string        `json:"activity_other,omitempty"`
	BaitStatus           string        `json:"bait_status" enum:"clean,eaten,partially_eaten,moldy,wet"`
	StationCondition     string        `json:"station_condition" enum:"good,needs_repair,damaged,missing"`
	ActionTaken          string        `json:"action_taken,omitempty"`
	WarningSignCondition string        `json:"warning_sign_condition,omitempty"`
	ChemicalsUsed        []ChemicalUse `json:"chemicals_used"`
	Remarks              string        `json:"remarks,omitempty"`
	Prefilled            bool          `json:"prefilled,omitempty"`
}

// MonitorEntry is one inspected insect monitor. Light-trap fields only
// apply when Type is "light".
type MonitorEntry struct {
	ID                   string `json:"id"`
	Type                 string `json:"type" enum:"box,light"`
	Location             string `json:"location"`
	MonitorNumber        int    `json:"monitor_number"`
	Condition            string `json:"condition" enum:"good,needs_repair,damaged,missing,other"`
	ConditionOther       string `json:"condition_other,omitempty"`
	ActionTaken          string `json:"action_taken,omitempty"`
	WarningSignCondition string `json:"warning_sign_condition,omitempty"`
	LightCondition       string `json:"light_condition,omitempty" enum:"working,faulty"`
	LightFaultyType      string `json:"light_faulty_type,omitempty" enum:"tube,starter,ballast,other"`
	LightFaultyOther     string `json:"light_faulty_other,omitempty"`
	GlueBoard            string `json:"glue_board,omitempty" enum:"good,replaced"`
	TubesCondition       string `json:"tubes_condition,omitempty" enum:"good,replaced"`
}

// FumigationEntry holds the fumigation slice of the report.
type FumigationEntry struct {
	Areas     []string       `json:"areas"`
	AreaOther string         `json:"area_other,omitempty"`
	Pests     []string       `json:"pests"`
	PestOther string         `json:"pest_other,omitempty"`
	Chemicals []ChemicalUse  `json:"chemicals"`
	Monitors  []MonitorEntry `json:"monitors"`
	Remarks   string         `json:"remarks,omitempty"`
}

// ReportDraft is the single persisted aggregate. It is the sole source of
// truth between wizard screens: every screen loads it, mutates its slice,
// and writes it back whole.
type ReportDraft struct {
	ClientID        int64            `json:"client_id"`
	Client          Client           `json:"client"`
	ReportType      string           `json:"report_type" enum:"bait,fumigation,both"`
	ServiceDate     string           `json:"service_date" format:"date"`
	NextServiceDate string           `json:"next_service_date,omitempty" format:"date"`
	BaitStations    []StationEntry   `json:"bait_stations"`
	Fumigation      *FumigationEntry `json:"fumigation,omitempty"`
	ClientSignature string           `json:"client_signature,omitempty"`
	ClientName      string           `json:"client_name,omitempty"`
	PCOSignature    string           `json:"pco_signature,omitempty"`
	GeneralRemarks  string           `json:"general_remarks,omitempty"`
	Step            string           `json:"step"`
	EditMode        bool             `json:"edit_mode,omitempty"`
	ReportID        int64            `json:"report_id,omitempty"`
	Previous        *PreviousReport  `json:"previous,omitempty"`
	LastSaved       string           `json:"last_saved,omitempty" format:"date-time"`
}

// PreviousReport caches the client's last completed report, fetched once
// when a new report is started. Absence is tolerated (offline start).
type PreviousReport struct {
	BaitStations []StationEntry `json:"bait_stations"`
	Monitors     []MonitorEntry `json:"monitors"`
}

// QueuedSubmission is one deferred request in the durable offline queue.
// Body is the exact wire payload the submission attempt would have sent.
type QueuedSubmission struct {
	ID         int64           `json:"id"`
	Endpoint   string          `json:"endpoint"`
	Method     string          `json:"method"`
	Body       json.RawMessage `json:"body"`
	Priority   int             `json:"priority"`
	Type       string          `json:"type"`
	EnqueuedAt string          `json:"enqueued_at" format:"date-time"`
	Attempts   int             `json:"attempts"`
	LastError  string          `json:"last_error,omitempty"`
}

// Station returns the station entry matching (location, number), if any.
func (d ReportDraft) Station(location string, number int) (StationEntry, bool) {
	for _, s := range d.BaitStations {
		if s.Location == location && s.StationNumber == number {
			return s, true
		}
	}
	return StationEntry{}, false
}

// Monitor returns the fumigation monitor matching (type, number), if any.
func (d ReportDraft) Monitor(monitorType string, number int) (MonitorEntry, bool) {
	if d.Fumigation == nil {
		return MonitorEntry{}, false
	}
	for _, m := range d.Fumigation.Monitors {
		if m.Type == monitorType && m.MonitorNumber == number {
			return m, true
		}
	}
	return MonitorEntry{}, false
}

// NextStep returns the wizard step after the given one, accounting for
// report types that skip the stations or fumigation screens.
func NextStep(step, reportType string) string {
	switch step {
	case StepSetup:
		if reportType == ReportTypeFumigation {
			return StepFumigation
		}
		return StepStations
	case StepStations:
		if reportType == ReportTypeBait {
			return StepSummary
		}
		return StepFumigation
	case StepFumigation:
		return StepSummary
	case StepSummary:
		return StepSignature
	case StepSignature:
		return StepSubmit
	default:
		return StepSubmit
	}
}
