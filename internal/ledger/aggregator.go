package ledger

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fiscus-erp/fiscus/internal/shared"
)

// StorePort defines the ledger store reads the aggregator depends on.
type StorePort interface {
	ListSales(ctx context.Context, ownerID int64, period shared.Period, framing Framing) ([]Entry, error)
	ListPurchases(ctx context.Context, ownerID int64, period shared.Period) ([]Entry, error)
	ListCreditNotes(ctx context.Context, ownerID int64, period shared.Period) ([]Entry, error)
}

// Aggregator fetches all ledger collections for a period. Pure read,
// no side effects; a failure on any collection aborts the whole fetch.
type Aggregator struct {
	store        StorePort
	fetchTimeout time.Duration
}

// NewAggregator constructs an Aggregator. A zero timeout disables the
// per-fetch bound.
func NewAggregator(store StorePort, fetchTimeout time.Duration) *Aggregator {
	return &Aggregator{store: store, fetchTimeout: fetchTimeout}
}

// Fetch loads sales, purchases, and credit notes concurrently. Each
// read gets one retry; any persistent failure surfaces as ErrFetch and
// no partial data is returned.
func (a *Aggregator) Fetch(ctx context.Context, ownerID int64, period shared.Period, framing Framing) (PeriodData, error) {
	if err := period.Validate(); err != nil {
		return PeriodData{}, err
	}

	data := PeriodData{OwnerID: ownerID, Period: period, Framing: framing}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sales, err := a.fetchWithRetry(gctx, func(ctx context.Context) ([]Entry, error) {
			return a.store.ListSales(ctx, ownerID, period, framing)
		})
		if err != nil {
			return fmt.Errorf("%w: sales for %s: %v", ErrFetch, period, err)
		}
		data.Sales = sales
		return nil
	})
	g.Go(func() error {
		purchases, err := a.fetchWithRetry(gctx, func(ctx context.Context) ([]Entry, error) {
			return a.store.ListPurchases(ctx, ownerID, period)
		})
		if err != nil {
			return fmt.Errorf("%w: purchases for %s: %v", ErrFetch, period, err)
		}
		data.Purchases = purchases
		return nil
	})
	g.Go(func() error {
		notes, err := a.fetchWithRetry(gctx, func(ctx context.Context) ([]Entry, error) {
			return a.store.ListCreditNotes(ctx, ownerID, period)
		})
		if err != nil {
			return fmt.Errorf("%w: credit notes for %s: %v", ErrFetch, period, err)
		}
		data.CreditNotes = notes
		return nil
	})

	if err := g.Wait(); err != nil {
		return PeriodData{}, err
	}
	return data, nil
}

func (a *Aggregator) fetchWithRetry(ctx context.Context, fetch func(context.Context) ([]Entry, error)) ([]Entry, error) {
	entries, err := a.fetchOnce(ctx, fetch)
	if err == nil || ctx.Err() != nil {
		return entries, err
	}
	return a.fetchOnce(ctx, fetch)
}

func (a *Aggregator) fetchOnce(ctx context.Context, fetch func(context.Context) ([]Entry, error)) ([]Entry, error) {
	if a.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.fetchTimeout)
		defer cancel()
	}
	return fetch(ctx)
}
