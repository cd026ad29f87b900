// Package models defines the data types flowing through the conversion
// pipeline: parsed measurements, per-file parse results, and the fixed
// 22-column interface record appended to the results store.
package models

import (
	"errors"
	"time"
)

// TestGroup is a canonical test category. Raw group text from an export is
// mapped onto one of these by the rules engine; the zero value marks an
// unrecognized group whose measurement is dropped.
type TestGroup string

const (
	GroupUnknown            TestGroup = ""
	GroupEarthBond          TestGroup = "earth_bond"
	GroupMainsVoltageLN     TestGroup = "mains_voltage_ln"
	GroupMainsVoltageNE     TestGroup = "mains_voltage_ne"
	GroupInsulation         TestGroup = "insulation"
	GroupEarthLeakage       TestGroup = "earth_leakage"
	GroupEnclosureLeakage   TestGroup = "enclosure_leakage"
	GroupPatientLeakage     TestGroup = "patient_leakage"
	GroupMainsOnAppliedPart TestGroup = "mains_on_applied_part"
)

// Condition is the normalized electrical condition a measurement was taken
// under. Anything not recognized as open neutral or open earth is treated
// as the normal condition, never as an error.
type Condition string

const (
	ConditionNormal      Condition = "normal"
	ConditionOpenNeutral Condition = "open_neutral"
	ConditionOpenEarth   Condition = "open_earth"
)

// Standard is the governing safety standard inferred from a template name.
type Standard string

const (
	StandardUnknown Standard = ""
	Standard3551    Standard = "AS/NZS 3551"
	Standard3760    Standard = "AS/NZS 3760"
)

// Measurement is a single canonicalized measurement extracted from the
// results table of an export. Immutable once created.
type Measurement struct {
	Group     TestGroup // canonical test category
	Condition Condition // normalized electrical condition
	Subtest   string    // raw subtest label from the test name
	Value     float64   // cleaned numeric value
	Passed    bool      // status cell started with "P"
}

// ParsedRecord is the result of parsing one export file. It owns its
// measurement slice exclusively; measurements appear in file order.
type ParsedRecord struct {
	Operator     string
	Equipment    string
	TesterSerial string
	Template     string
	TestedAt     time.Time
	Measurements []Measurement
}

// Validate checks that the mandatory metadata fields are present.
func (r *ParsedRecord) Validate() error {
	if r.Equipment == "" {
		return errors.New("equipment number is required")
	}
	if r.TesterSerial == "" {
		return errors.New("tester serial is required")
	}
	if r.Template == "" {
		return errors.New("template name is required")
	}
	return nil
}

// FieldNA is the sentinel for a measurement channel that has no value.
const FieldNA = "NA"

// InterfaceRow is the fixed 22-column output record. Each measurement
// channel holds either FieldNA or a "value,label,limit,unit" string.
// Rows are built once per successfully parsed file and never mutated.
type InterfaceRow struct {
	Operator             string
	EquipmentNumber      string
	AssetNumber          string
	Standard             string
	TestType             string
	ClassType            string
	TestSequence         string
	TestDate             string
	VisualPassFail       string
	LineLoad             string
	EarthBond            string
	Insulation           string
	EarthLeakageNC       string
	EarthLeakageON       string
	EnclosureLeakageNC   string
	EnclosureLeakageON   string
	EnclosureLeakageOE   string
	AppliedPartLeakageNC string
	AppliedPartLeakageON string
	AppliedPartLeakageOE string
	MainsContact         string
	OverallPassFail      string
}

// NewInterfaceRow returns a row with every measurement channel at the
// sentinel and an overall pass verdict, ready for the builder to fill in.
func NewInterfaceRow() *InterfaceRow {
	return &InterfaceRow{
		LineLoad:             FieldNA,
		EarthBond:            FieldNA,
		Insulation:           FieldNA,
		EarthLeakageNC:       FieldNA,
		EarthLeakageON:       FieldNA,
		EnclosureLeakageNC:   FieldNA,
		EnclosureLeakageON:   FieldNA,
		EnclosureLeakageOE:   FieldNA,
		AppliedPartLeakageNC: FieldNA,
		AppliedPartLeakageON: FieldNA,
		AppliedPartLeakageOE: FieldNA,
		MainsContact:         FieldNA,
		OverallPassFail:      "P",
	}
}

// ColumnHeaders lists the 22 column names in the exact order the results
// store expects them.
var ColumnHeaders = []string{
	"Operator",
	"Equipment Number",
	"Asset Number",
	"Standard",
	"Test Type",
	"Class Type",
	"Test Sequence",
	"Test Date",
	"Visual Pass/Fail",
	"Line/Load",
	"Earth Bond",
	"Insulation",
	"Earth Leakage NC",
	"Earth Leakage ON",
	"Enclosure Leakage NC",
	"Enclosure Leakage ON",
	"Enclosure Leakage OE",
	"Applied Part Leakage NC",
	"Applied Part Leakage ON",
	"Applied Part Leakage OE",
	"Mains Contact",
	"Overall Pass/Fail",
}

// Columns returns the row's 22 values in store column order.
func (r *InterfaceRow) Columns() []string {
	return []string{
		r.Operator,
		r.EquipmentNumber,
		r.AssetNumber,
		r.Standard,
		r.TestType,
		r.ClassType,
		r.TestSequence,
		r.TestDate,
		r.VisualPassFail,
		r.LineLoad,
		r.EarthBond,
		r.Insulation,
		r.EarthLeakageNC,
		r.EarthLeakageON,
		r.EnclosureLeakageNC,
		r.EnclosureLeakageON,
		r.EnclosureLeakageOE,
		r.AppliedPartLeakageNC,
		r.AppliedPartLeakageON,
		r.AppliedPartLeakageOE,
		r.MainsContact,
		r.OverallPassFail,
	}
}
