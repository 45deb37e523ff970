// Package payload turns a report draft into the exact request the field
// API expects. Build is pure: the same draft always yields byte-identical
// JSON.
package payload

import (
	"encoding/json"
	"fmt"
	"net/http"

	"fieldline/internal/domain"
)

// NA is the neutral sentinel for light-trap fields on box monitors.
const NA = "na"

// RemarksSeparator joins general and fumigation remarks on the wire.
const RemarksSeparator = "\n\n--- Fumigation Remarks ---\n"

// reportTypeWire maps wizard report types to wire values.
var reportTypeWire = map[string]string{
	domain.ReportTypeBait:       "bait_inspection",
	domain.ReportTypeFumigation: "fumigation",
	domain.ReportTypeBoth:       "both",
}

// monitorConditionWire is a deliberate many-to-one compression; the server
// only distinguishes repaired, replaced, other, and good. Changing it would
// silently break server-side assumptions.
var monitorConditionWire = map[string]string{
	"needs_repair": "repaired",
	"damaged":      "other",
	"missing":      "replaced",
	"other":        "other",
	"good":         "good",
}

// Request is a built submission: method and endpoint are chosen by edit
// mode, body is the wire payload.
type Request struct {
	Method   string
	Endpoint string
	Body     ReportWire
}

// MarshalBody encodes the wire payload.
func (r Request) MarshalBody() (json.RawMessage, error) {
	b, err := json.Marshal(r.Body)
	if err != nil {
		return nil, fmt.Errorf("encode report payload: %w", err)
	}
	return b, nil
}

// Build transforms a draft into its API request. It never mutates the
// draft and performs no I/O.
func Build(d domain.ReportDraft) Request {
	body := ReportWire{
		ClientID:        d.ClientID,
		ReportType:      reportTypeWire[d.ReportType],
		ServiceDate:     d.ServiceDate,
		NextServiceDate: d.NextServiceDate,
		BaitStations:    buildStations(d.BaitStations),
		ClientName:      d.ClientName,
		ClientSignature: d.ClientSignature,
		PCOSignature:    d.PCOSignature,
		GeneralRemarks:  d.GeneralRemarks,
	}
	if d.Fumigation != nil {
		body.Fumigation = buildFumigation(*d.Fumigation)
		body.GeneralRemarks = joinRemarks(d.GeneralRemarks, d.Fumigation.Remarks)
	}
	method := http.MethodPost
	endpoint := "reports"
	if d.EditMode {
		method = http.MethodPut
		endpoint = fmt.Sprintf("reports/%d", d.ReportID)
	}
	return Request{Method: method, Endpoint: endpoint, Body: body}
}

func buildStations(stations []domain.StationEntry) []StationWire {
	out := make([]StationWire, 0, len(stations))
	for _, s := range stations {
		w := StationWire{
			Location:             s.Location,
			StationNumber:        s.StationNumber,
			Accessible:           s.Accessible,
			AccessReason:         s.AccessReason,
			BaitStatus:           s.BaitStatus,
			StationCondition:     s.StationCondition,
			ActionTaken:          s.ActionTaken,
			WarningSignCondition: s.WarningSignCondition,
			Chemicals:            buildChemicals(s.ChemicalsUsed),
			Remarks:              s.Remarks,
		}
		for _, a := range s.ActivityTypes {
			switch a {
			case "droppings":
				w.ActivityDroppings = true
			case "gnawing":
				w.ActivityGnawing = true
			case "tracks":
				w.ActivityTracks = true
			case domain.ActivityOther:
				w.ActivityOther = true
				w.ActivityOtherDetail = s.ActivityOther
			}
		}
		out = append(out, w)
	}
	return out
}

func buildFumigation(f domain.FumigationEntry) *FumigationWire {
	w := &FumigationWire{
		TreatedAreas:   append([]string{}, f.Areas...),
		TargetPests:    append([]string{}, f.Pests...),
		AreaOther:      f.AreaOther,
		PestOther:      f.PestOther,
		Chemicals:      buildChemicals(f.Chemicals),
		InsectMonitors: buildMonitors(f.Monitors),
	}
	return w
}

func buildMonitors(monitors []domain.MonitorEntry) []MonitorWire {
	out := make([]MonitorWire, 0, len(monitors))
	for _, m := range monitors {
		w := MonitorWire{
			Type:                 m.Type,
			Location:             m.Location,
			MonitorNumber:        m.MonitorNumber,
			Condition:            monitorConditionWire[m.Condition],
			ConditionOther:       m.ConditionOther,
			ActionTaken:          m.ActionTaken,
			WarningSignCondition: m.WarningSignCondition,
			LightCondition:       NA,
			LightFaultyType:      NA,
			GlueBoardReplaced:    NA,
			TubesReplaced:        NA,
		}
		if m.Type == domain.MonitorTypeLight {
			w.LightCondition = orNA(m.LightCondition)
			w.LightFaultyType = lightFaultyWire(m)
			w.GlueBoardReplaced = orNA(m.GlueBoard)
			w.TubesReplaced = orNA(m.TubesCondition)
		}
		out = append(out, w)
	}
	return out
}

func buildChemicals(chemicals []domain.ChemicalUse) []ChemicalWire {
	out := make([]ChemicalWire, 0, len(chemicals))
	for _, c := range chemicals {
		out = append(out, ChemicalWire{
			ChemicalID:  c.ChemicalID,
			Quantity:    c.Quantity,
			BatchNumber: c.BatchNumber,
		})
	}
	return out
}

func lightFaultyWire(m domain.MonitorEntry) string {
	if m.LightFaultyType == "" {
		return NA
	}
	if m.LightFaultyType == "other" && m.LightFaultyOther != "" {
		return m.LightFaultyOther
	}
	return m.LightFaultyType
}

func joinRemarks(general, fumigation string) string {
	switch {
	case general == "":
		return fumigation
	case fumigation == "":
		return general
	default:
		return general + RemarksSeparator + fumigation
	}
}

func orNA(v string) string {
	if v == "" {
		return NA
	}
	return v
}
