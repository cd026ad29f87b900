package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/estconvert/internal/models"
)

func TestCanonicalGroup(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want models.TestGroup
	}{
		{"protective earth", "Protective Earth Resistance", models.GroupEarthBond},
		{"earth bond lowercase", "earth bond", models.GroupEarthBond},
		{"earth bond mixed case", "Earth BOND test", models.GroupEarthBond},
		{"earth continuity", "Earth Continuity", models.GroupEarthBond},
		{"mains voltage L-N", "Mains Voltage L-N", models.GroupMainsVoltageLN},
		{"mains voltage LN compact", "Mains LN Voltage", models.GroupMainsVoltageLN},
		{"mains voltage N-E", "Mains Voltage N-E", models.GroupMainsVoltageNE},
		{"insulation", "Insulation Resistance", models.GroupInsulation},
		{"earth leakage", "Earth Leakage Current", models.GroupEarthLeakage},
		{"enclosure leakage not earth leakage", "Enclosure Earth Leakage", models.GroupEnclosureLeakage},
		{"enclosure leakage", "Enclosure Leakage", models.GroupEnclosureLeakage},
		{"patient leakage", "Patient Leakage", models.GroupPatientLeakage},
		{"applied part leakage", "Applied Part Leakage", models.GroupPatientLeakage},
		{"mains on applied part", "Mains on Applied Part", models.GroupMainsOnAppliedPart},
		{"unrecognized", "Power Cord Inspection", models.GroupUnknown},
		{"empty", "", models.GroupUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalGroup(tt.raw))
		})
	}
}

// Earth bond wins over leakage rules because its rule is evaluated first.
func TestCanonicalGroupPrecedence(t *testing.T) {
	assert.Equal(t, models.GroupEarthBond, CanonicalGroup("Earth Bond Leakage"))
}

func TestNormalizeCondition(t *testing.T) {
	tests := []struct {
		raw  string
		want models.Condition
	}{
		{"Open Neutral", models.ConditionOpenNeutral},
		{"OPEN N", models.ConditionOpenNeutral},
		{"o/n", models.ConditionOpenNeutral},
		{"Open Earth", models.ConditionOpenEarth},
		{"open e", models.ConditionOpenEarth},
		{"O/E", models.ConditionOpenEarth},
		{"Normal Condition", models.ConditionNormal},
		{"anything else", models.ConditionNormal},
		{"", models.ConditionNormal},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCondition(tt.raw))
		})
	}
}

func TestInferStandard(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     models.Standard
		ok       bool
	}{
		{"explicit 3760", "TEST_3760_5D", models.Standard3760, true},
		{"explicit 3551", "_0001 - 3551 TYPE BF", models.Standard3551, true},
		{"explicit 3760 beats no earth", "3760 NO EARTH", models.Standard3760, true},
		{"no earth domestic", "NO EARTH DOMESTIC", models.Standard3760, true},
		{"no earth alone", "NO EARTH TYPE BF", models.Standard3551, true},
		{"token 1D", "CLASS 1D ROUTINE", models.Standard3760, true},
		{"token 2D", "2D APPLIANCE", models.Standard3760, true},
		{"token 5BF", "MEDICAL 5BF", models.Standard3551, true},
		{"type BF", "TYPE BF MONITOR", models.Standard3551, true},
		{"bare BF token without TYPE fails", "BF MONITOR", models.StandardUnknown, false},
		{"no match", "random template", models.StandardUnknown, false},
		{"empty", "", models.StandardUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := InferStandard(tt.template)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInferClassType(t *testing.T) {
	tests := []struct {
		name     string
		template string
		standard models.Standard
		want     string
	}{
		{"no earth domestic", "NO EARTH DOMESTIC", models.Standard3760, "5D"},
		{"no earth dual applied part", "NO EARTH 5CF 5BF", models.Standard3551, "5CF&5BF"},
		{"no earth no applied parts", "NO EARTH NO AP", models.Standard3551, "5"},
		{"no earth type CF", "NO EARTH TYPE CF", models.Standard3551, "5CF"},
		{"no earth type BF", "NO EARTH TYPE BF", models.Standard3551, "5BF"},
		{"no earth type B", "NO EARTH TYPE B", models.Standard3551, "5B"},
		{"no earth default", "NO EARTH MISC", models.Standard3551, "5"},
		{"3760 bare digit", "3760 CLASS 2 KETTLE", models.Standard3760, "2D"},
		{"3760 combined token", "TEST 1D ROUTINE", models.Standard3760, "1D"},
		{"3760 default digit", "3760 ROUTINE", models.Standard3760, "1D"},
		{"3551 type CF", "3551 TYPE CF", models.Standard3551, "1CF"},
		{"3551 type BF with digit", "3551 CLASS 1 TYPE BF", models.Standard3551, "1BF"},
		{"3551 type B", "3551 TYPE B", models.Standard3551, "1B"},
		{"3551 default BF", "3551 PUMP", models.Standard3551, "1BF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferClassType(tt.template, tt.standard))
		})
	}
}

func TestEarthed(t *testing.T) {
	tests := []struct {
		classType string
		standard  models.Standard
		want      bool
	}{
		{"1BF", models.Standard3551, true},
		{"2D", models.Standard3760, true},
		{"5BF", models.Standard3551, false},
		{"5CF&5BF", models.Standard3551, false},
		{"5", models.Standard3551, false},
		{"5D", models.Standard3760, true},
	}

	for _, tt := range tests {
		t.Run(tt.classType+" "+string(tt.standard), func(t *testing.T) {
			assert.Equal(t, tt.want, Earthed(tt.classType, tt.standard))
		})
	}
}
