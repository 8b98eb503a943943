package domain

import "time"

// Degradation reasons attached to report warnings.
const (
	ReasonUnknownModel       = "unknown_model"
	ReasonUnparsableGeometry = "unparsable_geometry"
	ReasonUnparsableReading  = "unparsable_reading"
	ReasonMalformedRecord    = "malformed_record"
	ReasonDivisionGuard      = "division_guard"
	ReasonSectionLimit       = "section_limit"
)

// Warning records an input that was degraded to zero instead of failing the
// report. Canopy and Section are 1-based; Section is 0 for canopy-level issues.
type Warning struct {
	Canopy  int    `json:"canopy"`
	Section int    `json:"section,omitempty"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// SectionContext is one section row of the report: raw inputs plus computed
// flows. Pointer fields are present only for the classifications that use them.
type SectionContext struct {
	Index int `json:"index"`

	ExtractKSA        *int     `json:"extract_ksa,omitempty"`
	CanopyLengthMM    *int     `json:"canopy_length,omitempty"`
	ExtractTabReading *string  `json:"extract_tab_reading,omitempty"`
	ExtractKFactor    *float64 `json:"extract_k_factor,omitempty"`

	AnemometerReading       *string  `json:"anemometer_reading,omitempty"`
	SupplyAnemometerReading *string  `json:"supply_anemometer_reading,omitempty"`
	FreeAreaM2              *float64 `json:"free_area_m2,omitempty"`

	ExtractFlowrateM3h float64 `json:"extract_flowrate_m3h"`
	ExtractFlowrateM3s float64 `json:"extract_flowrate_m3s"`

	SupplyPlenumLength *int     `json:"supply_plenum_length,omitempty"`
	SupplyTabReading   *string  `json:"supply_tab_reading,omitempty"`
	SupplyKFactor      *float64 `json:"supply_k_factor,omitempty"`
	SupplyFlowrateM3h  *float64 `json:"supply_flowrate_m3h,omitempty"`
	SupplyFlowrateM3s  *float64 `json:"supply_flowrate_m3s,omitempty"`

	*Marvel
}

// CanopyContext is one canopy of the report.
type CanopyContext struct {
	Index               int            `json:"index"`
	DrawingNumber       string         `json:"drawing_number"`
	Location            string         `json:"canopy_location"`
	ModelCode           string         `json:"canopy_model"`
	Family              string         `json:"family,omitempty"`
	Classification      Classification `json:"classification"`
	KnownModel          bool           `json:"known_model"`
	WithMarvel          bool           `json:"with_marvel"`
	WithUVChecks        bool           `json:"with_uv_checks"`
	WithWaterWashChecks bool           `json:"with_water_wash_checks"`
	DesignAirflowM3s    float64        `json:"design_airflow"`
	SupplyAirflowM3s    float64        `json:"supply_airflow"`
	NumberOfSections    int            `json:"number_of_sections"`

	CanopyLengthMM *int     `json:"canopy_length,omitempty"`
	GrillSize      string   `json:"grill_size,omitempty"`
	SlotLengthMM   *float64 `json:"slot_length,omitempty"`
	SlotWidthMM    *float64 `json:"slot_width,omitempty"`
	FreeAreaM2     *float64 `json:"free_area_m2,omitempty"`

	IsSectionBased bool `json:"is_section_based"`
	IsLengthBased  bool `json:"is_length_based"`
	IsCXW          bool `json:"is_cxw"`
	IsCMWF         bool `json:"is_cmwf"`
	IsCMWI         bool `json:"is_cmwi"`
	IsUV           bool `json:"is_uv"`
	HasUVInName    bool `json:"has_uv_in_name"`
	IsCMW          bool `json:"is_cmw"`
	HasFInName     bool `json:"has_f_in_name"`
	SuppliesAir    bool `json:"supplies_air"`

	UVChecklist        *ChecklistSummary `json:"uv_checklist"`
	WaterWashChecklist *ChecklistSummary `json:"water_wash_checklist"`

	Sections []SectionContext `json:"sections"`

	ExtractTotalM3s        float64 `json:"extract_total_flowrate_m3s"`
	SupplyTotalM3s         float64 `json:"supply_total_flowrate_m3s"`
	ExtractPercentOfDesign float64 `json:"extract_percent_of_design"`
	SupplyPercentOfDesign  float64 `json:"supply_percent_of_design"`
}

// ResultRow is one preformatted row of the results summary tables.
type ResultRow struct {
	DrawingNumber  string `json:"drawing_number"`
	DesignFlowRate string `json:"design_flow_rate"`
	ActualFlowrate string `json:"actual_flowrate"`
	Percentage     string `json:"percentage"`
}

// EdgeBoxContext is the Edge box block of the report.
type EdgeBoxContext struct {
	EdgeInstalled   bool     `json:"edge_installed"`
	EdgeID          string   `json:"edge_id"`
	Edge4GStatus    string   `json:"edge_4g_status"`
	LANConnection   bool     `json:"lan_connection"`
	ModbusOperation bool     `json:"modbus_operation"`
	ModbusValue     *float64 `json:"modbus_value"`
	HasEdgeData     bool     `json:"has_edge_data"`
}

// ReportContext is the fully computed tree handed to the document renderer.
type ReportContext struct {
	ReportID      string `json:"report_id"`
	ReportType    string `json:"report_type"`
	ClientName    string `json:"client_name"`
	ProjectName   string `json:"project_name"`
	ProjectNumber string `json:"project_number"`
	DateOfVisit   string `json:"date_of_visit"`
	EngineerName  string `json:"engineer_name"`

	GeneratedAt    time.Time `json:"generated_at"`
	GenerationDate string    `json:"generation_date"`
	GenerationTime string    `json:"generation_time"`

	NumCanopies      int             `json:"num_canopies"`
	Canopies         []CanopyContext `json:"canopies"`
	MarvelCanopies   []CanopyContext `json:"marvel_canopies"`
	StandardCanopies []CanopyContext `json:"standard_canopies"`

	HasMarvelTechnology bool `json:"has_marvel_technology"`
	HasUVTechnology     bool `json:"has_uv_technology"`
	HasCMWTechnology    bool `json:"has_cmw_technology"`

	UVChecklist        *ChecklistSummary `json:"uv_checklist"`
	WaterWashChecklist *ChecklistSummary `json:"water_wash_checklist"`

	ExtractResults         []ResultRow   `json:"extract_results"`
	SupplyResults          []ResultRow   `json:"supply_results"`
	ExtractTotalDesign     string        `json:"extract_total_design"`
	ExtractTotalActual     string        `json:"extract_total_actual"`
	ExtractTotalPercentage string        `json:"extract_total_percentage"`
	SupplyTotalDesign      string        `json:"supply_total_design"`
	SupplyTotalActual      string        `json:"supply_total_actual"`
	SupplyTotalPercentage  string        `json:"supply_total_percentage"`
	Totals                 ProjectTotals `json:"totals"`

	EdgeBox EdgeBoxContext `json:"edge_box"`

	AdditionalNotes      string   `json:"additional_notes"`
	NotesList            []string `json:"notes_list"`
	HasNotes             bool     `json:"has_notes"`
	SignatureData        string   `json:"signature_data"`
	SignatureDate        string   `json:"signature_date"`
	PrintName            string   `json:"print_name"`
	HasSignature         bool     `json:"has_signature"`
	SignatureImageBase64 string   `json:"signature_image_base64"`

	Filename string    `json:"filename"`
	Progress Progress  `json:"progress"`
	Warnings []Warning `json:"warnings"`
}
