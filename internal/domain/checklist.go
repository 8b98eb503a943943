package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// UVSystemChecklist lists the UV system checks in report order.
var UVSystemChecklist = []string{
	"Quantity of Slaves per System",
	"Airflow Proved on Each Controller",
	"UV Pressure Setpoint (Pa)",
	"All UV Safety Switches Tested",
	"All Filter Safety Switches Tested",
	"Communication To All Canopy Controllers",
	"UV System Tested and Fully Operational",
	"Capture Jet operational",
	"MUS Auxiliary Module Installed and Tested",
	"Capture Jet average pressure reading (Pa)",
}

// WaterWashChecklist lists the cold mist / water wash checks in report order.
var WaterWashChecklist = []string{
	"Airflow switch set up and tested",
	"Drain plugs removed to flush hot/cold water",
	"Detergent connected and bled into hot water system",
	"Cold mist nozzles aligned correctly",
	"Cold mist operation tested",
	"Cold water pressure (BAR)",
	"Hot wash operation tested",
	"Hot water pressure (BAR)",
	"Hot water temperature (°C)",
	"Capture Jet operational",
	"Capture Jet average Pressure (Pa)",
}

// Checklist maps a checklist item to the value the engineer entered.
type Checklist map[string]ChecklistValue

// ChecklistValue is a tick box, a number or free text. Exactly one field is
// set for a decoded value.
type ChecklistValue struct {
	Bool   *bool
	Number *float64
	Text   *string
}

// Checked returns a tick-box value.
func Checked(v bool) ChecklistValue { return ChecklistValue{Bool: &v} }

// Numeric returns a numeric value.
func Numeric(v float64) ChecklistValue { return ChecklistValue{Number: &v} }

// TextValue returns a free-text value.
func TextValue(v string) ChecklistValue { return ChecklistValue{Text: &v} }

func (v ChecklistValue) MarshalJSON() ([]byte, error) {
	switch {
	case v.Bool != nil:
		return json.Marshal(*v.Bool)
	case v.Number != nil:
		return json.Marshal(*v.Number)
	case v.Text != nil:
		return json.Marshal(*v.Text)
	}
	return []byte("null"), nil
}

func (v *ChecklistValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ChecklistValue{}
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*v = Checked(data[0] == 't')
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			*v = TextValue(string(data))
			return nil
		}
		*v = Numeric(n)
	}
	return nil
}

// display returns the text shown in the report and whether the item counts
// as completed.
func (v ChecklistValue) display() (string, bool) {
	switch {
	case v.Bool != nil:
		if *v.Bool {
			return "✓", true
		}
		return "", false
	case v.Number != nil:
		if *v.Number > 0 {
			return strconv.FormatFloat(*v.Number, 'f', -1, 64), true
		}
		return "", false
	case v.Text != nil:
		s := strings.TrimSpace(*v.Text)
		return s, s != ""
	}
	return "", false
}

// ChecklistItem is one rendered checklist row.
type ChecklistItem struct {
	Item      string `json:"item"`
	Value     string `json:"value"`
	Completed bool   `json:"completed"`
}

// ChecklistSummary is a checklist ready for the report template.
type ChecklistSummary struct {
	TotalItems           int             `json:"total_items"`
	CompletedItems       int             `json:"completed_items"`
	CompletionPercentage float64         `json:"completion_percentage"`
	ChecklistItems       []ChecklistItem `json:"checklist_items"`
}

// SummarizeChecklist renders entered values against the given item list.
// Entries for items not in the list are ignored.
func SummarizeChecklist(items []string, values Checklist) *ChecklistSummary {
	s := &ChecklistSummary{
		TotalItems:     len(items),
		ChecklistItems: make([]ChecklistItem, 0, len(items)),
	}
	for _, item := range items {
		text, done := values[item].display()
		if done {
			s.CompletedItems++
		}
		s.ChecklistItems = append(s.ChecklistItems, ChecklistItem{Item: item, Value: text, Completed: done})
	}
	if s.TotalItems > 0 {
		s.CompletionPercentage = float64(s.CompletedItems) / float64(s.TotalItems) * 100
	}
	return s
}
