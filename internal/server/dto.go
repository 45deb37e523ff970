package server

import (
	"encoding/json"

	"fieldline/internal/payload"
	"fieldline/internal/repo"
)

// Request payloads

type CreateClientRequest struct {
	Name                     string `json:"name"`
	Address                  string `json:"address,omitempty"`
	TotalStationsInside      int    `json:"total_stations_inside"`
	TotalStationsOutside     int    `json:"total_stations_outside"`
	TotalInsectMonitorsLight int    `json:"total_insect_monitors_light"`
	TotalInsectMonitorsBox   int    `json:"total_insect_monitors_box"`
}

type UpdateCountsRequest struct {
	TotalStationsInside      int `json:"total_stations_inside"`
	TotalStationsOutside     int `json:"total_stations_outside"`
	TotalInsectMonitorsLight int `json:"total_insect_monitors_light"`
	TotalInsectMonitorsBox   int `json:"total_insect_monitors_box"`
}

// Response payloads

type ClientResponse struct {
	ID                       int64  `json:"id"`
	Name                     string `json:"name"`
	Address                  string `json:"address,omitempty"`
	TotalStationsInside      int    `json:"total_stations_inside"`
	TotalStationsOutside     int    `json:"total_stations_outside"`
	TotalInsectMonitorsLight int    `json:"total_insect_monitors_light"`
	TotalInsectMonitorsBox   int    `json:"total_insect_monitors_box"`
}

type SubmitResponse struct {
	Success  bool  `json:"success"`
	ReportID int64 `json:"report_id"`
}

type ReportResponse struct {
	ID          int64           `json:"id"`
	ClientID    int64           `json:"client_id"`
	ReportType  string          `json:"report_type"`
	ServiceDate string          `json:"service_date"`
	Body        json.RawMessage `json:"body"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

type PreviousReportResponse struct {
	ReportID       int64                 `json:"report_id"`
	BaitStations   []payload.StationWire `json:"bait_stations"`
	InsectMonitors []payload.MonitorWire `json:"insect_monitors"`
}

func clientResponse(row repo.ClientRow) ClientResponse {
	return ClientResponse{
		ID:                       row.ID,
		Name:                     row.Name,
		Address:                  row.Address,
		TotalStationsInside:      row.TotalStationsInside,
		TotalStationsOutside:     row.TotalStationsOutside,
		TotalInsectMonitorsLight: row.TotalInsectMonitorsLight,
		TotalInsectMonitorsBox:   row.TotalInsectMonitorsBox,
	}
}

func reportResponse(row repo.ReportRow) ReportResponse {
	return ReportResponse{
		ID:          row.ID,
		ClientID:    row.ClientID,
		ReportType:  row.ReportType,
		ServiceDate: row.ServiceDate,
		Body:        json.RawMessage(row.Body),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

// previousReportResponse re-reads the stored wire body and exposes the
// slices pre-fill consumes.
func previousReportResponse(row repo.ReportRow) (PreviousReportResponse, error) {
	var stored payload.ReportWire
	if err := json.Unmarshal([]byte(row.Body), &stored); err != nil {
		return PreviousReportResponse{}, err
	}
	resp := PreviousReportResponse{
		ReportID:     row.ID,
		BaitStations: stored.BaitStations,
	}
	if resp.BaitStations == nil {
		resp.BaitStations = []payload.StationWire{}
	}
	if stored.Fumigation != nil {
		resp.InsectMonitors = stored.Fumigation.InsectMonitors
	}
	if resp.InsectMonitors == nil {
		resp.InsectMonitors = []payload.MonitorWire{}
	}
	return resp, nil
}
