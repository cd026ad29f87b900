// Package mapper builds the fixed 22-column interface row from a parsed
// export, the limits resolver, and the tester asset map.
package mapper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/harrison/estconvert/internal/limits"
	"github.com/harrison/estconvert/internal/models"
	"github.com/harrison/estconvert/internal/rules"
)

// StandardInferenceError reports a template name no inference rule
// matched. The file produces no output row.
type StandardInferenceError struct {
	Template string
}

func (e *StandardInferenceError) Error() string {
	return fmt.Sprintf("could not infer standard from template: %s", e.Template)
}

// Builder assembles interface rows. It holds the per-batch limits resolver
// and is safe for reuse across files.
type Builder struct {
	limits *limits.Resolver
}

// NewBuilder returns a Builder using the given resolver.
func NewBuilder(r *limits.Resolver) *Builder {
	return &Builder{limits: r}
}

// sequencePrefix matches the template-management prefix ("_0001 - ")
// stripped from template names to form the test-sequence label.
var sequencePrefix = regexp.MustCompile(`^_\d+\s*-\s*`)

// measurementKey indexes measurements by canonical group and condition.
type measurementKey struct {
	group models.TestGroup
	cond  models.Condition
}

// Build assembles the interface row for one parsed record. Returns a
// *StandardInferenceError when the template matches no standard; every
// other gap (unmapped serial, missing measurements, missing limits) is
// absorbed into fallbacks rather than failing the file.
func (b *Builder) Build(record *models.ParsedRecord, testerMap map[string]string) (*models.InterfaceRow, error) {
	standard, ok := rules.InferStandard(record.Template)
	if !ok {
		return nil, &StandardInferenceError{Template: record.Template}
	}
	classType := rules.InferClassType(record.Template, standard)
	earthed := rules.Earthed(classType, standard)

	assetNumber := record.TesterSerial
	if mapped, ok := testerMap[record.TesterSerial]; ok {
		assetNumber = mapped
	}

	row := models.NewInterfaceRow()
	row.Operator = record.Operator
	row.EquipmentNumber = record.Equipment
	row.AssetNumber = assetNumber
	row.Standard = string(standard)
	row.TestType = "Routine"
	row.ClassType = classType
	row.TestSequence = sequencePrefix.ReplaceAllString(record.Template, "")
	row.TestDate = record.TestedAt.Format("02/01/2006")
	row.VisualPassFail = "P"

	byKey := make(map[measurementKey][]models.Measurement)
	for _, m := range record.Measurements {
		k := measurementKey{m.Group, m.Condition}
		byKey[k] = append(byKey[k], m)
	}
	// Duplicate measurements for a key keep file order; the first wins.
	first := func(group models.TestGroup, cond models.Condition) *models.Measurement {
		if ms := byKey[measurementKey{group, cond}]; len(ms) > 0 {
			return &ms[0]
		}
		return nil
	}

	// Line/load is a composite: only populated when both mains voltage
	// measurements are present under normal condition.
	if ln, ne := first(models.GroupMainsVoltageLN, models.ConditionNormal), first(models.GroupMainsVoltageNE, models.ConditionNormal); ln != nil && ne != nil {
		row.LineLoad = fmt.Sprintf("%sV [L-N=%sV][Load=0.0kVA]", formatNumber(ln.Value), formatNumber(ne.Value))
	}

	// Earth bond only applies to earthed classes.
	if earthed {
		if m := first(models.GroupEarthBond, models.ConditionNormal); m != nil {
			row.EarthBond = b.formatChannel(m, standard, classType, "earth_bond", "Ohms")
		}
	}

	if m := first(models.GroupInsulation, models.ConditionNormal); m != nil {
		unit := "MOhms" + insulationVoltageTag(m.Subtest)
		row.Insulation = b.formatChannel(m, standard, classType, "insulation", unit)
	}

	// Earth leakage applies under 3760, and under 3551 only for earthed
	// classes.
	if standard == models.Standard3760 || (standard == models.Standard3551 && earthed) {
		if m := first(models.GroupEarthLeakage, models.ConditionNormal); m != nil {
			row.EarthLeakageNC = b.formatChannel(m, standard, classType, "earth_leakage_nc", "uA")
		}
		if m := first(models.GroupEarthLeakage, models.ConditionOpenNeutral); m != nil {
			row.EarthLeakageON = b.formatChannel(m, standard, classType, "earth_leakage_no", "uA")
		}
	}

	if m := first(models.GroupEnclosureLeakage, models.ConditionNormal); m != nil {
		row.EnclosureLeakageNC = b.formatChannel(m, standard, classType, "enclosure_leakage_nc", "uA")
	}
	if m := first(models.GroupEnclosureLeakage, models.ConditionOpenNeutral); m != nil {
		row.EnclosureLeakageON = b.formatChannel(m, standard, classType, "enclosure_leakage_no", "uA")
	}
	if m := first(models.GroupEnclosureLeakage, models.ConditionOpenEarth); m != nil {
		row.EnclosureLeakageOE = b.formatChannel(m, standard, classType, "enclosure_leakage_eo", "uA")
	}

	// Patient leakage and mains contact channels exist under 3551 only.
	if standard == models.Standard3551 {
		if m := first(models.GroupPatientLeakage, models.ConditionNormal); m != nil {
			row.AppliedPartLeakageNC = b.formatChannel(m, standard, classType, "patient_leakage_nc", "uA")
		}
		if m := first(models.GroupPatientLeakage, models.ConditionOpenNeutral); m != nil {
			row.AppliedPartLeakageON = b.formatChannel(m, standard, classType, "patient_leakage_no", "uA")
		}
		if m := first(models.GroupPatientLeakage, models.ConditionOpenEarth); m != nil {
			row.AppliedPartLeakageOE = b.formatChannel(m, standard, classType, "patient_leakage_eo", "uA")
		}
		if m := first(models.GroupMainsOnAppliedPart, models.ConditionNormal); m != nil {
			row.MainsContact = b.formatChannel(m, standard, classType, "mains_contact", "uA")
		}
	}

	for _, m := range record.Measurements {
		if !m.Passed {
			row.OverallPassFail = "F"
			break
		}
	}

	return row, nil
}

// formatChannel renders one measurement channel as
// "value,PassLabel,limit,unit".
func (b *Builder) formatChannel(m *models.Measurement, standard models.Standard, classType, field, unit string) string {
	label := "Failed"
	if m.Passed {
		label = "Pass"
	}
	limit := b.limits.Limit(standard, classType, field)
	return fmt.Sprintf("%s,%s,%s,%s", formatNumber(m.Value), label, limit, unit)
}

// insulationVoltageTag extracts the test-voltage tag from an insulation
// subtest label, when the label names one of the two instrument voltages.
func insulationVoltageTag(subtest string) string {
	switch {
	case strings.Contains(subtest, "250"):
		return " [250V]"
	case strings.Contains(subtest, "500"):
		return " [500V]"
	}
	return ""
}

// formatNumber renders a measurement value with the shortest decimal
// representation, keeping a trailing ".0" on whole numbers so 230 volts
// reads as "230.0".
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
