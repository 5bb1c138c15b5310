package vat

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Tolerance for the additive box identities. Box sums are accumulated
// in decimals, but upstream sources may deliver float-derived amounts.
var complianceEpsilon = decimal.New(5, -3)

// ValidateReturn checks the structural invariants of a computed return.
// A violation indicates a calculator defect; the result is returned as
// data and never raised as an error.
func ValidateReturn(b Boxes) ComplianceResult {
	var violations []string

	if b.Box3.Sub(b.Box1.Add(b.Box2)).Abs().GreaterThan(complianceEpsilon) {
		violations = append(violations, fmt.Sprintf("box3 (%s) must equal box1 + box2 (%s)",
			b.Box3.StringFixed(2), b.Box1.Add(b.Box2).StringFixed(2)))
	}
	if b.Box5.Sub(b.Box3.Sub(b.Box4)).Abs().GreaterThan(complianceEpsilon) {
		violations = append(violations, fmt.Sprintf("box5 (%s) must equal box3 - box4 (%s)",
			b.Box5.StringFixed(2), b.Box3.Sub(b.Box4).StringFixed(2)))
	}

	for _, tagged := range b.Tagged() {
		switch tagged.Precision {
		case PrecisionCurrency:
			if !tagged.Value.Equal(tagged.Value.Round(2)) {
				violations = append(violations, fmt.Sprintf("box%d (%s) exceeds two-decimal currency precision",
					tagged.Box, tagged.Value.String()))
			}
		case PrecisionInteger:
			if !tagged.Value.Equal(tagged.Value.Truncate(0)) {
				violations = append(violations, fmt.Sprintf("box%d (%s) must be a whole unit",
					tagged.Box, tagged.Value.String()))
			}
		}
	}

	return ComplianceResult{Valid: len(violations) == 0, Violations: violations}
}
