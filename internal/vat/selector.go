package vat

import (
	"fmt"

	"github.com/fiscus-erp/fiscus/internal/ledger"
	"github.com/fiscus-erp/fiscus/internal/settings"
)

// Jurisdictions the engine has calculators for. Anything else fails
// fast before a single ledger row is read.
var supportedJurisdictions = map[string]struct{}{
	"GB": {},
	"UK": {},
}

// SelectCalculator maps the owner's configuration to a calculator and
// the period framing its data must be fetched under.
func SelectCalculator(cfg settings.SchemeConfig) (Calculator, Scheme, ledger.Framing, error) {
	if _, ok := supportedJurisdictions[cfg.Jurisdiction]; !ok {
		return nil, "", "", fmt.Errorf("%w: unsupported jurisdiction %q", ErrConfiguration, cfg.Jurisdiction)
	}

	scheme, err := ParseScheme(cfg.Scheme)
	if err != nil {
		return nil, "", "", err
	}

	if scheme == SchemeFlatRate && !cfg.FlatRatePercentage.Valid {
		return nil, "", "", fmt.Errorf("%w: flat rate scheme configured without a percentage", ErrConfiguration)
	}

	framing := ledger.FrameInvoiceDate
	if scheme == SchemeCashBasis {
		framing = ledger.FrameSettlementDate
	}

	return forScheme(scheme), scheme, framing, nil
}
