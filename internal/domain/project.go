package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidProject is returned when input is not a project object.
var ErrInvalidProject = errors.New("invalid project record")

// DefaultSlotWidthMM is the slot width assumed when a slot canopy omits it.
const DefaultSlotWidthMM = 85.0

// Project is one commissioning report's raw input as captured by the form layer.
// Unknown JSON keys are ignored; optional values are pointers and collections
// are always written, so absent and empty fields survive a portable-link
// round trip.
type Project struct {
	ReportType    string `json:"report_type,omitempty"`
	ClientName    string `json:"client_name,omitempty"`
	ProjectName   string `json:"project_name,omitempty"`
	ProjectNumber string `json:"project_number,omitempty"`
	DateOfVisit   string `json:"date_of_visit,omitempty"`
	EngineerName  string `json:"engineer_name,omitempty"`
	NumCanopies   int    `json:"num_canopies,omitempty"`

	Canopies []CanopyRecord `json:"canopies"`

	UVChecklist        Checklist `json:"uv_checklist"`
	WaterWashChecklist Checklist `json:"water_wash_checklist"`
	EdgeBox            *EdgeBox  `json:"edge_box,omitempty"`

	AdditionalNotes string   `json:"additional_notes,omitempty"`
	NotesList       []string `json:"notes_list"`
	SignatureData   string   `json:"signature_data,omitempty"`
	SignatureDate   string   `json:"signature_date,omitempty"`
	PrintName       string   `json:"print_name,omitempty"`
	HasSignature    bool     `json:"has_signature,omitempty"`

	decodeIssues []Warning
}

// CanopyRecord is one physical canopy as entered in the form.
type CanopyRecord struct {
	DrawingNumber       string  `json:"drawing_number"`
	Location            string  `json:"canopy_location"`
	ModelCode           string  `json:"canopy_model"`
	DesignAirflowM3s    float64 `json:"design_airflow"`
	SupplyAirflowM3s    float64 `json:"supply_airflow"`
	WithMarvel          bool    `json:"with_marvel"`
	WithUVChecks        bool    `json:"with_uv_checks,omitempty"`
	WithWaterWashChecks bool    `json:"with_water_wash_checks,omitempty"`
	NumberOfSections    int     `json:"number_of_sections"`

	// Length-based geometry and readings for the single implicit unit.
	CanopyLengthMM     *int     `json:"canopy_length,omitempty"`
	ExtractTabReading  *Reading `json:"extract_tab_reading,omitempty"`
	SupplyPlenumLength *int     `json:"supply_plenum_length,omitempty"`
	SupplyTabReading   *Reading `json:"supply_tab_reading,omitempty"`

	// Anemometer geometry.
	GrillSize    *string  `json:"grill_size,omitempty"`
	SlotLengthMM *float64 `json:"slot_length,omitempty"`
	SlotWidthMM  *float64 `json:"slot_width,omitempty"`

	UVChecklist        Checklist `json:"uv_checklist"`
	WaterWashChecklist Checklist `json:"water_wash_checklist"`

	Sections []SectionRecord `json:"sections"`
}

// SectionRecord is the raw input of one section or grill. Which fields apply
// depends on the parent canopy's classification; see ShapeSections.
type SectionRecord struct {
	ExtractKSA         *int     `json:"extract_ksa,omitempty"`
	ExtractTabReading  *Reading `json:"extract_tab_reading,omitempty"`
	SupplyPlenumLength *int     `json:"supply_plenum_length,omitempty"`
	SupplyTabReading   *Reading `json:"supply_tab_reading,omitempty"`

	AnemometerReading       *Reading `json:"anemometer_reading,omitempty"`
	SupplyAnemometerReading *Reading `json:"supply_anemometer_reading,omitempty"`

	MinPercent  *float64 `json:"min_percent,omitempty"`
	IdlePercent *float64 `json:"idle_percent,omitempty"`
	DesignM3s   *float64 `json:"design_m3s,omitempty"`
}

// EdgeBox captures the Edge monitoring box checks.
type EdgeBox struct {
	EdgeInstalled   bool     `json:"edge_installed,omitempty"`
	EdgeID          string   `json:"edge_id,omitempty"`
	Edge4GStatus    string   `json:"edge_4g_status,omitempty"`
	LANConnection   bool     `json:"lan_connection,omitempty"`
	ModbusOperation bool     `json:"modbus_operation,omitempty"`
	ModbusValue     *float64 `json:"modbus_value,omitempty"`
}

// SlotWidth returns the slot width, falling back to DefaultSlotWidthMM.
func (c CanopyRecord) SlotWidth() float64 {
	if c.SlotWidthMM == nil {
		return DefaultSlotWidthMM
	}
	return *c.SlotWidthMM
}

// ParseProject decodes a project snapshot from JSON. Input that is not a JSON
// object, or whose "canopies" value is not a list, fails with
// ErrInvalidProject. A canopy with a mistyped field is kept with whatever
// decoded cleanly and reported as a warning when the report is built.
func ParseProject(data []byte) (Project, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Project{}, fmt.Errorf("%w: expected a JSON object", ErrInvalidProject)
	}

	type projectFields Project
	var envelope struct {
		projectFields
		Canopies []json.RawMessage `json:"canopies"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) || typeErr.Field == "canopies" {
			return Project{}, fmt.Errorf("%w: %w", ErrInvalidProject, err)
		}
	}

	p := Project(envelope.projectFields)
	p.Canopies = nil
	if envelope.Canopies != nil {
		p.Canopies = make([]CanopyRecord, 0, len(envelope.Canopies))
	}
	for i, raw := range envelope.Canopies {
		var c CanopyRecord
		if err := json.Unmarshal(raw, &c); err != nil {
			p.decodeIssues = append(p.decodeIssues, Warning{
				Canopy:  i + 1,
				Reason:  ReasonMalformedRecord,
				Message: err.Error(),
			})
		}
		p.Canopies = append(p.Canopies, c)
	}
	return p, nil
}

// Reading is a field measurement carried as entered. The form layer sends
// pressure readings as strings and velocity readings as numbers; both decode.
type Reading string

// NewReading formats a numeric measurement as a Reading.
func NewReading(v float64) *Reading {
	r := Reading(strconv.FormatFloat(v, 'f', -1, 64))
	return &r
}

// ReadingOf wraps entered text as a Reading.
func ReadingOf(s string) *Reading {
	r := Reading(s)
	return &r
}

// UnmarshalJSON accepts strings and numbers. Any other JSON value is kept as
// its literal text and fails later in Value.
func (r *Reading) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*r = Reading(s)
			return nil
		}
	}
	*r = Reading(data)
	return nil
}

func (r Reading) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(r))
}

// Value parses the reading. Blank readings return ErrMissingReading;
// non-numeric, negative or non-finite readings return ErrUnparsableReading.
func (r *Reading) Value() (float64, error) {
	if r == nil || strings.TrimSpace(string(*r)) == "" {
		return 0, ErrMissingReading
	}
	s := strings.TrimSpace(string(*r))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || isNonFinite(v) {
		return 0, fmt.Errorf("%w: %q", ErrUnparsableReading, s)
	}
	return v, nil
}

// Text returns the reading as entered, or "" when absent.
func (r *Reading) Text() string {
	if r == nil {
		return ""
	}
	return string(*r)
}
