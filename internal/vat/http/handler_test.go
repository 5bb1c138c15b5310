package vathttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fiscus-erp/fiscus/internal/ledger"
	"github.com/fiscus-erp/fiscus/internal/shared"
	"github.com/fiscus-erp/fiscus/internal/vat"
)

type fakeVATService struct {
	computed       vat.ComputedReturn
	calcErr        error
	submission     vat.SubmissionResult
	submitErr      error
	ret            vat.Return
	getErr         error
	list           []vat.Return
	recommendation vat.Recommendation

	submittedReturn vat.Return
}

func (f *fakeVATService) CalculateReturn(context.Context, int64, shared.Period) (vat.ComputedReturn, error) {
	if f.calcErr != nil {
		return vat.ComputedReturn{}, f.calcErr
	}
	return f.computed, nil
}

func (f *fakeVATService) SubmitReturn(_ context.Context, _ int64, ret vat.Return) (vat.SubmissionResult, error) {
	f.submittedReturn = ret
	if f.submitErr != nil {
		return vat.SubmissionResult{}, f.submitErr
	}
	return f.submission, nil
}

func (f *fakeVATService) GetReturn(context.Context, uuid.UUID) (vat.Return, error) {
	if f.getErr != nil {
		return vat.Return{}, f.getErr
	}
	return f.ret, nil
}

func (f *fakeVATService) ListReturns(context.Context, int64) ([]vat.Return, error) {
	return f.list, nil
}

func (f *fakeVATService) RecommendScheme(context.Context, int64, shared.Period) (vat.Recommendation, error) {
	return f.recommendation, nil
}

func newTestRouter(t *testing.T, svc *fakeVATService) http.Handler {
	t.Helper()
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	r.Route("/vat", h.MountRoutes)
	return r
}

func draftReturn(t *testing.T) vat.Return {
	t.Helper()
	period, err := shared.NewPeriod(
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return vat.Return{
		ID:      uuid.New(),
		OwnerID: 1,
		Period:  period,
		Scheme:  vat.SchemeStandard,
		Boxes: vat.Boxes{
			Box1: decimal.RequireFromString("240.00"),
			Box3: decimal.RequireFromString("240.00"),
			Box4: decimal.RequireFromString("90.00"),
			Box5: decimal.RequireFromString("150.00"),
			Box6: decimal.NewFromInt(1200),
			Box7: decimal.NewFromInt(450),
		},
		Status: vat.StatusDraft,
	}
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCalculateReturnEndpoint(t *testing.T) {
	ret := draftReturn(t)
	svc := &fakeVATService{computed: vat.ComputedReturn{
		Return:     ret,
		Compliance: vat.ComplianceResult{Valid: true, Violations: []string{}},
		SchemeUsed: vat.SchemeStandard,
	}}
	router := newTestRouter(t, svc)

	rec := doJSON(t, router, http.MethodPost, "/vat/returns/calculate", map[string]any{
		"ownerId":     1,
		"periodStart": "2025-01-01",
		"periodEnd":   "2025-03-31",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Return struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"return"`
		Boxes      []map[string]any `json:"boxes"`
		SchemeUsed string           `json:"schemeUsed"`
		Compliance struct {
			Valid bool `json:"valid"`
		} `json:"compliance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, ret.ID.String(), resp.Return.ID)
	require.Equal(t, "DRAFT", resp.Return.Status)
	require.Equal(t, "STANDARD", resp.SchemeUsed)
	require.True(t, resp.Compliance.Valid)
	require.Len(t, resp.Boxes, 9)
}

func TestCalculateReturnRejectsBadBody(t *testing.T) {
	router := newTestRouter(t, &fakeVATService{})

	req := httptest.NewRequest(http.MethodPost, "/vat/returns/calculate", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalculateReturnRejectsReversedPeriod(t *testing.T) {
	router := newTestRouter(t, &fakeVATService{})

	rec := doJSON(t, router, http.MethodPost, "/vat/returns/calculate", map[string]any{
		"ownerId":     1,
		"periodStart": "2025-03-31",
		"periodEnd":   "2025-01-01",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalculateReturnMapsConfigurationError(t *testing.T) {
	router := newTestRouter(t, &fakeVATService{calcErr: vat.ErrConfiguration})

	rec := doJSON(t, router, http.MethodPost, "/vat/returns/calculate", map[string]any{
		"ownerId":     1,
		"periodStart": "2025-01-01",
		"periodEnd":   "2025-03-31",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCalculateReturnMapsFetchError(t *testing.T) {
	router := newTestRouter(t, &fakeVATService{calcErr: fmt.Errorf("%w: sales unavailable", ledger.ErrFetch)})

	rec := doJSON(t, router, http.MethodPost, "/vat/returns/calculate", map[string]any{
		"ownerId":     1,
		"periodStart": "2025-01-01",
		"periodEnd":   "2025-03-31",
	})
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func submitBody(ret vat.Return) map[string]any {
	return map[string]any{
		"ownerId": ret.OwnerID,
		"return": map[string]any{
			"id":          ret.ID.String(),
			"periodStart": ret.Period.Start.Format("2006-01-02"),
			"periodEnd":   ret.Period.End.Format("2006-01-02"),
			"scheme":      string(ret.Scheme),
			"boxes": map[string]string{
				"box1": ret.Boxes.Box1.String(),
				"box2": ret.Boxes.Box2.String(),
				"box3": ret.Boxes.Box3.String(),
				"box4": ret.Boxes.Box4.String(),
				"box5": ret.Boxes.Box5.String(),
				"box6": ret.Boxes.Box6.String(),
				"box7": ret.Boxes.Box7.String(),
				"box8": ret.Boxes.Box8.String(),
				"box9": ret.Boxes.Box9.String(),
			},
		},
	}
}

func TestSubmitReturnEndpoint(t *testing.T) {
	ret := draftReturn(t)
	svc := &fakeVATService{submission: vat.SubmissionResult{
		ReturnID:    ret.ID,
		LockedCount: 3,
		FailedLocks: []uuid.UUID{},
	}}
	router := newTestRouter(t, svc)

	rec := doJSON(t, router, http.MethodPost, "/vat/returns/submit", submitBody(ret))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp vat.SubmissionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, ret.ID, resp.ReturnID)
	require.EqualValues(t, 3, resp.LockedCount)
	require.Empty(t, resp.FailedLocks)

	require.Equal(t, ret.ID, svc.submittedReturn.ID)
	require.Equal(t, vat.StatusDraft, svc.submittedReturn.Status)
	require.True(t, svc.submittedReturn.Boxes.Box1.Equal(ret.Boxes.Box1))
}

func TestSubmitReturnRequiresAllBoxes(t *testing.T) {
	ret := draftReturn(t)
	body := submitBody(ret)
	boxes := body["return"].(map[string]any)["boxes"].(map[string]string)
	delete(boxes, "box9")
	router := newTestRouter(t, &fakeVATService{})

	rec := doJSON(t, router, http.MethodPost, "/vat/returns/submit", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitReturnRejectsUnknownScheme(t *testing.T) {
	ret := draftReturn(t)
	body := submitBody(ret)
	body["return"].(map[string]any)["scheme"] = "RETAIL"
	router := newTestRouter(t, &fakeVATService{})

	rec := doJSON(t, router, http.MethodPost, "/vat/returns/submit", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitReturnMapsLockConflict(t *testing.T) {
	ret := draftReturn(t)
	router := newTestRouter(t, &fakeVATService{submitErr: vat.ErrAlreadyLocked})

	rec := doJSON(t, router, http.MethodPost, "/vat/returns/submit", submitBody(ret))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmitReturnMapsDuplicate(t *testing.T) {
	ret := draftReturn(t)
	router := newTestRouter(t, &fakeVATService{submitErr: vat.ErrDuplicateSubmission})

	rec := doJSON(t, router, http.MethodPost, "/vat/returns/submit", submitBody(ret))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetReturnEndpoint(t *testing.T) {
	ret := draftReturn(t)
	router := newTestRouter(t, &fakeVATService{ret: ret})

	rec := doJSON(t, router, http.MethodGet, "/vat/returns/"+ret.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		ID     string `json:"id"`
		Scheme string `json:"scheme"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, ret.ID.String(), view.ID)
	require.Equal(t, "STANDARD", view.Scheme)
}

func TestGetReturnNotFound(t *testing.T) {
	router := newTestRouter(t, &fakeVATService{getErr: vat.ErrReturnNotFound})

	rec := doJSON(t, router, http.MethodGet, "/vat/returns/"+uuid.New().String(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetReturnRejectsMalformedID(t *testing.T) {
	router := newTestRouter(t, &fakeVATService{})

	rec := doJSON(t, router, http.MethodGet, "/vat/returns/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListReturnsRequiresOwner(t *testing.T) {
	router := newTestRouter(t, &fakeVATService{})

	rec := doJSON(t, router, http.MethodGet, "/vat/returns", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListReturnsEndpoint(t *testing.T) {
	ret := draftReturn(t)
	router := newTestRouter(t, &fakeVATService{list: []vat.Return{ret}})

	rec := doJSON(t, router, http.MethodGet, "/vat/returns?ownerId=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var views []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
}

func TestRecommendSchemeEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeVATService{recommendation: vat.Recommendation{
		Scheme: vat.SchemeCashBasis,
		Reason: "35% of turnover is unpaid; cash basis defers VAT until invoices are settled",
	}})

	rec := doJSON(t, router, http.MethodGet, "/vat/schemes/recommendation?ownerId=1&periodStart=2025-01-01&periodEnd=2025-03-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp vat.Recommendation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, vat.SchemeCashBasis, resp.Scheme)
	require.NotEmpty(t, resp.Reason)
}

func TestRecommendSchemeRequiresPeriod(t *testing.T) {
	router := newTestRouter(t, &fakeVATService{})

	rec := doJSON(t, router, http.MethodGet, "/vat/schemes/recommendation?ownerId=1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
