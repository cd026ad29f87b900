// Package rules implements the canonicalization rules engine: pure
// functions mapping raw group text, condition text, and template names onto
// the closed tag sets in internal/models.
//
// Every precedence list is an explicitly ordered slice of (predicate,
// result) pairs evaluated in sequence; the first match wins. The order is
// load-bearing and must not be rearranged.
package rules

import (
	"regexp"
	"strings"

	"github.com/harrison/estconvert/internal/models"
)

// groupRule pairs a predicate over the uppercased raw group text with the
// canonical group it selects.
type groupRule struct {
	match func(s string) bool
	group models.TestGroup
}

func has(s, sub string) bool { return strings.Contains(s, sub) }

// groupRules is evaluated top to bottom; first match wins.
var groupRules = []groupRule{
	{
		match: func(s string) bool {
			return has(s, "PROTECTIVE EARTH") || has(s, "EARTH BOND") || has(s, "EARTH CONTINUITY")
		},
		group: models.GroupEarthBond,
	},
	{
		match: func(s string) bool {
			return has(s, "MAINS") && (has(s, "L-N") || has(s, "LN")) && has(s, "VOLTAGE")
		},
		group: models.GroupMainsVoltageLN,
	},
	{
		match: func(s string) bool {
			return has(s, "MAINS") && (has(s, "N-E") || has(s, "NE")) && has(s, "VOLTAGE")
		},
		group: models.GroupMainsVoltageNE,
	},
	{
		match: func(s string) bool { return has(s, "INSULATION") },
		group: models.GroupInsulation,
	},
	{
		match: func(s string) bool {
			return has(s, "EARTH") && has(s, "LEAKAGE") && !has(s, "ENCLOSURE")
		},
		group: models.GroupEarthLeakage,
	},
	{
		match: func(s string) bool { return has(s, "ENCLOSURE") && has(s, "LEAKAGE") },
		group: models.GroupEnclosureLeakage,
	},
	{
		match: func(s string) bool {
			return (has(s, "PATIENT") || has(s, "APPLIED PART")) && has(s, "LEAKAGE")
		},
		group: models.GroupPatientLeakage,
	},
	{
		match: func(s string) bool {
			return has(s, "MAINS") && (has(s, "APPLIED") || has(s, "PATIENT")) &&
				(has(s, "CONTACT") || has(s, "ON"))
		},
		group: models.GroupMainsOnAppliedPart,
	},
}

// CanonicalGroup maps raw group text onto a canonical test category.
// Returns GroupUnknown when no rule matches; the caller drops the
// measurement, since exports legitimately contain rows outside the tested
// taxonomy.
func CanonicalGroup(raw string) models.TestGroup {
	upper := strings.ToUpper(raw)
	for _, r := range groupRules {
		if r.match(upper) {
			return r.group
		}
	}
	return models.GroupUnknown
}

// NormalizeCondition maps raw condition text onto one of the three
// canonical electrical conditions. Normal condition is the default for any
// unrecognized text, not a failure.
func NormalizeCondition(raw string) models.Condition {
	upper := strings.ToUpper(raw)
	if has(upper, "OPEN NEUTRAL") || has(upper, "OPEN N") || has(upper, "O/N") {
		return models.ConditionOpenNeutral
	}
	if has(upper, "OPEN EARTH") || has(upper, "OPEN E") || has(upper, "O/E") {
		return models.ConditionOpenEarth
	}
	return models.ConditionNormal
}

var tokenPattern = regexp.MustCompile(`\b\w+\b`)

// tokenize splits an uppercased template name into word tokens.
func tokenize(upper string) []string {
	return tokenPattern.FindAllString(upper, -1)
}

func tokensContain(tokens []string, want ...string) bool {
	for _, tok := range tokens {
		for _, w := range want {
			if tok == w {
				return true
			}
		}
	}
	return false
}

// InferStandard infers the governing safety standard from a template name.
// Rules, in order:
//  1. explicit "3760" text
//  2. explicit "3551" text
//  3. "NO EARTH" together with "DOMESTIC" -> 3760
//  4. "NO EARTH" alone -> 3551
//  5. a token exactly 1D, 2D or 5D -> 3760
//  6. a token exactly 5B, 5BF, 5CF or 5C, or "TYPE" present with a token
//     exactly BF, CF or B -> 3551
//
// Returns (StandardUnknown, false) when no rule matches; the file produces
// no output row in that case.
func InferStandard(template string) (models.Standard, bool) {
	upper := strings.ToUpper(template)
	tokens := tokenize(upper)

	if has(upper, "3760") {
		return models.Standard3760, true
	}
	if has(upper, "3551") {
		return models.Standard3551, true
	}
	if has(upper, "NO EARTH") && has(upper, "DOMESTIC") {
		return models.Standard3760, true
	}
	if has(upper, "NO EARTH") {
		return models.Standard3551, true
	}
	if tokensContain(tokens, "1D", "2D", "5D") {
		return models.Standard3760, true
	}
	if tokensContain(tokens, "5B", "5BF", "5CF", "5C") ||
		(has(upper, "TYPE") && tokensContain(tokens, "BF", "CF", "B")) {
		return models.Standard3551, true
	}
	return models.StandardUnknown, false
}

var baseClassPattern = regexp.MustCompile(`^[125][A-Z]+$`)

// baseClassDigit extracts the leading class digit from the template tokens:
// a bare 1, 2 or 5 token, or the first character of a digit-plus-letters
// token such as 1D or 2D. Defaults to "1".
func baseClassDigit(tokens []string) string {
	for _, tok := range tokens {
		if tok == "1" || tok == "2" || tok == "5" {
			return tok
		}
		if baseClassPattern.MatchString(tok) {
			return tok[:1]
		}
	}
	return "1"
}

// InferClassType infers the equipment class from a template name and the
// already-inferred standard.
func InferClassType(template string, standard models.Standard) string {
	upper := strings.ToUpper(template)
	tokens := tokenize(upper)

	if has(upper, "NO EARTH") {
		if has(upper, "DOMESTIC") {
			return "5D"
		}
		if tokensContain(tokens, "5CF") && tokensContain(tokens, "5BF", "BF") {
			return "5CF&5BF"
		}
		if has(upper, "NO AP") || has(upper, "NO APPLIED") {
			return "5"
		}
		if has(upper, "TYPE CF") || tokensContain(tokens, "CF") {
			return "5CF"
		}
		if has(upper, "TYPE BF") || tokensContain(tokens, "BF") {
			return "5BF"
		}
		if has(upper, "TYPE B") || tokensContain(tokens, "B") {
			return "5B"
		}
		return "5"
	}

	base := baseClassDigit(tokens)

	if standard == models.Standard3760 {
		return base + "D"
	}

	// Earthed under 3551: pick the applied-part type, defaulting to BF.
	if has(upper, "TYPE CF") || tokensContain(tokens, "CF") {
		return base + "CF"
	}
	if has(upper, "TYPE BF") || tokensContain(tokens, "BF") {
		return base + "BF"
	}
	if has(upper, "TYPE B") {
		return base + "B"
	}
	return base + "BF"
}

// Earthed reports whether the class requires an earth bond. Class 5
// variants under 3551 are the non-earthed set.
func Earthed(classType string, standard models.Standard) bool {
	if strings.HasPrefix(classType, "5") && standard == models.Standard3551 {
		return false
	}
	return true
}
