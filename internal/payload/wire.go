package payload

// Wire DTOs for report creation/update. Field names are the API contract
// and must not drift; the server builds on them.

type ChemicalWire struct {
	ChemicalID  int64   `json:"chemical_id"`
	Quantity    float64 `json:"quantity"`
	BatchNumber string  `json:"batch_number"`
}

type StationWire struct {
	Location             string         `json:"location"`
	StationNumber        int            `json:"station_number"`
	Accessible           bool           `json:"accessible"`
	AccessReason         string         `json:"access_reason,omitempty"`
	ActivityDroppings    bool           `json:"activity_droppings"`
	ActivityGnawing      bool           `json:"activity_gnawing"`
	ActivityTracks       bool           `json:"activity_tracks"`
	ActivityOther        bool           `json:"activity_other"`
	ActivityOtherDetail  string         `json:"activity_other_description,omitempty"`
	BaitStatus           string         `json:"bait_status"`
	StationCondition     string         `json:"station_condition"`
	ActionTaken          string         `json:"action_taken,omitempty"`
	WarningSignCondition string         `json:"warning_sign_condition,omitempty"`
	Chemicals            []ChemicalWire `json:"chemicals"`
	Remarks              string         `json:"remarks,omitempty"`
}

type MonitorWire struct {
	Type                 string `json:"type"`
	Location             string `json:"location"`
	MonitorNumber        int    `json:"monitor_number"`
	Condition            string `json:"condition"`
	ConditionOther       string `json:"condition_other,omitempty"`
	ActionTaken          string `json:"action_taken,omitempty"`
	WarningSignCondition string `json:"warning_sign_condition,omitempty"`
	LightCondition       string `json:"light_condition"`
	LightFaultyType      string `json:"light_faulty_type"`
	GlueBoardReplaced    string `json:"glue_board_replaced"`
	TubesReplaced        string `json:"tubes_replaced"`
}

type FumigationWire struct {
	TreatedAreas   []string       `json:"treated_areas"`
	TargetPests    []string       `json:"target_pests"`
	AreaOther      string         `json:"area_other,omitempty"`
	PestOther      string         `json:"pest_other,omitempty"`
	Chemicals      []ChemicalWire `json:"chemicals"`
	InsectMonitors []MonitorWire  `json:"insect_monitors"`
}

type ReportWire struct {
	ClientID        int64           `json:"client_id"`
	ReportType      string          `json:"report_type"`
	ServiceDate     string          `json:"service_date"`
	NextServiceDate string          `json:"next_service_date,omitempty"`
	BaitStations    []StationWire   `json:"bait_stations"`
	Fumigation      *FumigationWire `json:"fumigation,omitempty"`
	ClientName      string          `json:"client_name"`
	ClientSignature string          `json:"client_signature"`
	PCOSignature    string          `json:"pco_signature"`
	GeneralRemarks  string          `json:"general_remarks,omitempty"`
}
