// Package settings reads per-owner tax configuration. The settings
// store is owned by the configuration module; this package is read-only
// apart from cache invalidation on updates.
package settings

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// SchemeConfig carries the accounting scheme selection for one owner.
// The scheme value is parsed and validated by the vat package; the
// jurisdiction tag gates which calculators may run at all.
type SchemeConfig struct {
	OwnerID                       int64               `json:"ownerId"`
	Scheme                        string              `json:"scheme"`
	FlatRatePercentage            decimal.NullDecimal `json:"flatRatePercentage"`
	LimitedCostOverridePercentage decimal.Decimal     `json:"limitedCostOverridePercentage"`
	Jurisdiction                  string              `json:"jurisdiction"`
	UpdatedAt                     time.Time           `json:"updatedAt"`
}

// ErrNotFound indicates no tax settings exist for the owner.
var ErrNotFound = errors.New("settings: not found")
