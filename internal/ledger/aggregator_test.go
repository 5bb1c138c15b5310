package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fiscus-erp/fiscus/internal/shared"
)

type fakeStore struct {
	mu          sync.Mutex
	sales       []Entry
	purchases   []Entry
	creditNotes []Entry

	salesErr      error
	salesFailures int

	lastFraming Framing
}

func (f *fakeStore) ListSales(_ context.Context, _ int64, _ shared.Period, framing Framing) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFraming = framing
	if f.salesFailures > 0 {
		f.salesFailures--
		return nil, errors.New("connection reset")
	}
	if f.salesErr != nil {
		return nil, f.salesErr
	}
	return f.sales, nil
}

func (f *fakeStore) ListPurchases(context.Context, int64, shared.Period) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.purchases, nil
}

func (f *fakeStore) ListCreditNotes(context.Context, int64, shared.Period) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creditNotes, nil
}

func testEntry(kind EntryKind) Entry {
	return Entry{
		ID:          uuid.New(),
		OwnerID:     1,
		Kind:        kind,
		Date:        time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		NetAmount:   decimal.NewFromInt(100),
		VATAmount:   decimal.NewFromInt(20),
		GrossAmount: decimal.NewFromInt(120),
		Status:      StatusPosted,
	}
}

func quarter(t *testing.T) shared.Period {
	t.Helper()
	p, err := shared.NewPeriod(
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return p
}

func TestAggregatorFetchAllCollections(t *testing.T) {
	store := &fakeStore{
		sales:       []Entry{testEntry(KindSale)},
		purchases:   []Entry{testEntry(KindPurchase), testEntry(KindPurchase)},
		creditNotes: []Entry{testEntry(KindCreditNote)},
	}
	agg := NewAggregator(store, time.Second)

	data, err := agg.Fetch(context.Background(), 1, quarter(t), FrameInvoiceDate)
	require.NoError(t, err)

	require.Len(t, data.Sales, 1)
	require.Len(t, data.Purchases, 2)
	require.Len(t, data.CreditNotes, 1)
	require.Equal(t, FrameInvoiceDate, data.Framing)
	require.EqualValues(t, 1, data.OwnerID)
}

func TestAggregatorPassesFramingToStore(t *testing.T) {
	store := &fakeStore{}
	agg := NewAggregator(store, time.Second)

	_, err := agg.Fetch(context.Background(), 1, quarter(t), FrameSettlementDate)
	require.NoError(t, err)
	require.Equal(t, FrameSettlementDate, store.lastFraming)
}

func TestAggregatorAbortsOnStoreFailure(t *testing.T) {
	store := &fakeStore{
		salesErr:  errors.New("store down"),
		purchases: []Entry{testEntry(KindPurchase)},
	}
	agg := NewAggregator(store, time.Second)

	data, err := agg.Fetch(context.Background(), 1, quarter(t), FrameInvoiceDate)
	require.ErrorIs(t, err, ErrFetch)
	require.Empty(t, data.Purchases, "no partial data on failure")
}

func TestAggregatorRetriesTransientFailureOnce(t *testing.T) {
	store := &fakeStore{
		sales:         []Entry{testEntry(KindSale)},
		salesFailures: 1,
	}
	agg := NewAggregator(store, time.Second)

	data, err := agg.Fetch(context.Background(), 1, quarter(t), FrameInvoiceDate)
	require.NoError(t, err)
	require.Len(t, data.Sales, 1)
}

func TestAggregatorDoesNotRetryTwice(t *testing.T) {
	store := &fakeStore{salesFailures: 2}
	agg := NewAggregator(store, time.Second)

	_, err := agg.Fetch(context.Background(), 1, quarter(t), FrameInvoiceDate)
	require.ErrorIs(t, err, ErrFetch)
}

func TestAggregatorRejectsInvalidPeriod(t *testing.T) {
	agg := NewAggregator(&fakeStore{}, time.Second)

	_, err := agg.Fetch(context.Background(), 1, shared.Period{
		Start: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}, FrameInvoiceDate)
	require.ErrorIs(t, err, shared.ErrInvalidPeriod)
}

func TestEntryBaseAmountFallback(t *testing.T) {
	e := testEntry(KindSale)
	require.True(t, e.BaseNet().Equal(decimal.NewFromInt(100)))
	require.True(t, e.BaseGross().Equal(decimal.NewFromInt(120)))

	e.BaseNetAmount = decimal.NullDecimal{Decimal: decimal.NewFromInt(80), Valid: true}
	e.BaseGrossAmount = decimal.NullDecimal{Decimal: decimal.NewFromInt(96), Valid: true}
	require.True(t, e.BaseNet().Equal(decimal.NewFromInt(80)))
	require.True(t, e.BaseGross().Equal(decimal.NewFromInt(96)))
}
