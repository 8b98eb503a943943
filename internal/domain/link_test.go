package domain

import (
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullProject() Project {
	modbus := 12.5
	p := sampleProject()
	p.UVChecklist = Checklist{
		"Quantity of Slaves per System": Numeric(4),
		"All UV Safety Switches Tested": Checked(true),
		"UV Pressure Setpoint (Pa)":     TextValue("150 Pa"),
	}
	p.WaterWashChecklist = Checklist{"Cold mist operation tested": Checked(false)}
	p.EdgeBox = &EdgeBox{EdgeInstalled: true, EdgeID: "E-1", Edge4GStatus: "connected", LANConnection: true, ModbusOperation: true, ModbusValue: &modbus}
	p.AdditionalNotes = "Café extract fan serviced; 100% OK?"
	p.NotesList = []string{"first", "second & third"}
	p.SignatureData = "aGVsbG8="
	p.SignatureDate = "2025-03-14"
	p.PrintName = "J. Smith"
	p.HasSignature = true
	p.Canopies = append(p.Canopies,
		CanopyRecord{
			DrawingNumber: "D-5", ModelCode: "CMWF", WithMarvel: true, WithWaterWashChecks: true,
			SlotLengthMM: floatPtr(1200), SlotWidthMM: floatPtr(90),
			WaterWashChecklist: Checklist{"Hot water pressure (BAR)": Numeric(2.5)},
			Sections: []SectionRecord{{
				AnemometerReading: NewReading(1.25), SupplyAnemometerReading: ReadingOf(""),
				MinPercent: floatPtr(20), IdlePercent: floatPtr(35), DesignM3s: floatPtr(0.3),
			}},
		},
		CanopyRecord{DrawingNumber: "D-6", ModelCode: "UVI", WithUVChecks: true, UVChecklist: Checklist{"Capture Jet operational": Checked(true)}},
		CanopyRecord{DrawingNumber: "D-7", ModelCode: "CMWI"},
	)
	return p
}

func TestLink_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		project Project
	}{
		{"every classification and optional", fullProject()},
		{"sample project", sampleProject()},
		{"empty project", Project{}},
		{"no canopies list", Project{ClientName: "Acme"}},
		{"empty canopies list", Project{Canopies: []CanopyRecord{}}},
		{"absent optionals", Project{Canopies: []CanopyRecord{{ModelCode: "KVF", Sections: []SectionRecord{{}}}}}},
		{"empty collections", Project{
			UVChecklist:        Checklist{},
			WaterWashChecklist: Checklist{},
			NotesList:          []string{},
			Canopies: []CanopyRecord{{
				ModelCode:          "CMW-F",
				UVChecklist:        Checklist{},
				WaterWashChecklist: Checklist{},
				Sections:           []SectionRecord{},
			}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := EncodeLink(tt.project)
			require.NoError(t, err)

			decoded, err := DecodeLink(encoded)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.project, decoded, cmpopts.IgnoreUnexported(Project{})); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeLink_IsQuerySafe(t *testing.T) {
	encoded, err := EncodeLink(fullProject())
	require.NoError(t, err)
	assert.NotContains(t, encoded, "+")
	assert.NotContains(t, encoded, "/")
	assert.NotContains(t, encoded, "=")
}

func TestDecodeLink_AcceptsUnescapedInput(t *testing.T) {
	p := fullProject()
	encoded, err := EncodeLink(p)
	require.NoError(t, err)

	unescaped, err := url.QueryUnescape(encoded)
	require.NoError(t, err)
	decoded, err := DecodeLink(unescaped)
	require.NoError(t, err)
	assert.Equal(t, p.ClientName, decoded.ClientName)
	assert.Len(t, decoded.Canopies, len(p.Canopies))
}

func TestDecodeLink_Errors(t *testing.T) {
	for _, in := range []string{"", "%zz", "!!!not-base64", "WzEsMiwzXQ%3D%3D"} {
		t.Run(in, func(t *testing.T) {
			_, err := DecodeLink(in)
			assert.ErrorIs(t, err, ErrInvalidLink)
		})
	}
}

func TestShareURL(t *testing.T) {
	p := Project{ClientName: "Acme"}
	got, err := ShareURL("https://reports.example.com/", p)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "https://reports.example.com/?data="))

	decoded, err := DecodeLink(LinkFromShareURL(got))
	require.NoError(t, err)
	assert.Equal(t, "Acme", decoded.ClientName)

	assert.Equal(t, "abc", LinkFromShareURL("abc"))
}
