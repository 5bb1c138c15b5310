// Package vathttp exposes the VAT return engine over HTTP.
package vathttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fiscus-erp/fiscus/internal/ledger"
	"github.com/fiscus-erp/fiscus/internal/platform/httpx"
	"github.com/fiscus-erp/fiscus/internal/shared"
	"github.com/fiscus-erp/fiscus/internal/vat"
)

const dateLayout = "2006-01-02"

type vatService interface {
	CalculateReturn(ctx context.Context, ownerID int64, period shared.Period) (vat.ComputedReturn, error)
	SubmitReturn(ctx context.Context, ownerID int64, ret vat.Return) (vat.SubmissionResult, error)
	GetReturn(ctx context.Context, id uuid.UUID) (vat.Return, error)
	ListReturns(ctx context.Context, ownerID int64) ([]vat.Return, error)
	RecommendScheme(ctx context.Context, ownerID int64, period shared.Period) (vat.Recommendation, error)
}

// Handler wires HTTP endpoints for calculating and submitting returns.
type Handler struct {
	logger   *slog.Logger
	service  vatService
	validate *validator.Validate
}

// NewHandler constructs a VAT HTTP handler.
func NewHandler(logger *slog.Logger, service vatService) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers the handler's routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/returns/calculate", h.calculateReturn)
	r.Post("/returns/submit", h.submitReturn)
	r.Get("/returns/{id}", h.getReturn)
	r.Get("/returns", h.listReturns)
	r.Get("/schemes/recommendation", h.recommendScheme)
}

type periodRequest struct {
	OwnerID     int64  `json:"ownerId" validate:"required,gt=0"`
	PeriodStart string `json:"periodStart" validate:"required,datetime=2006-01-02"`
	PeriodEnd   string `json:"periodEnd" validate:"required,datetime=2006-01-02"`
}

type returnPayload struct {
	ID             string            `json:"id" validate:"required,uuid4"`
	PeriodStart    string            `json:"periodStart" validate:"required,datetime=2006-01-02"`
	PeriodEnd      string            `json:"periodEnd" validate:"required,datetime=2006-01-02"`
	Scheme         string            `json:"scheme" validate:"required"`
	PercentageUsed *decimal.Decimal  `json:"percentageUsed,omitempty"`
	Boxes          map[string]string `json:"boxes" validate:"required"`
}

type submitRequest struct {
	OwnerID int64         `json:"ownerId" validate:"required,gt=0"`
	Return  returnPayload `json:"return" validate:"required"`
}

type calculateResponse struct {
	Return         returnView           `json:"return"`
	Boxes          []vat.TaggedBox      `json:"boxes"`
	Compliance     vat.ComplianceResult `json:"compliance"`
	SchemeUsed     vat.Scheme           `json:"schemeUsed"`
	PercentageUsed *decimal.Decimal     `json:"percentageUsed,omitempty"`
	LimitedCost    bool                 `json:"limitedCostTrader"`
}

type returnView struct {
	ID             string           `json:"id"`
	OwnerID        int64            `json:"ownerId"`
	PeriodStart    string           `json:"periodStart"`
	PeriodEnd      string           `json:"periodEnd"`
	Scheme         vat.Scheme       `json:"scheme"`
	PercentageUsed *decimal.Decimal `json:"percentageUsed,omitempty"`
	Boxes          []vat.TaggedBox  `json:"boxes"`
	Status         vat.ReturnStatus `json:"status"`
	SubmittedAt    *time.Time       `json:"submittedAt,omitempty"`
}

func (h *Handler) calculateReturn(w http.ResponseWriter, r *http.Request) {
	var req periodRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	period, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	computed, err := h.service.CalculateReturn(r.Context(), req.OwnerID, period)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, calculateResponse{
		Return:         toReturnView(computed.Return),
		Boxes:          computed.Return.Boxes.Tagged(),
		Compliance:     computed.Compliance,
		SchemeUsed:     computed.SchemeUsed,
		PercentageUsed: nullDecimalPtr(computed.PercentageUsed),
		LimitedCost:    computed.LimitedCost,
	})
}

func (h *Handler) submitReturn(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ret, err := fromReturnPayload(req.OwnerID, req.Return)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result, err := h.service.SubmitReturn(r.Context(), req.OwnerID, ret)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) getReturn(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid return id")
		return
	}
	ret, err := h.service.GetReturn(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toReturnView(ret))
}

func (h *Handler) listReturns(w http.ResponseWriter, r *http.Request) {
	ownerID, err := strconv.ParseInt(r.URL.Query().Get("ownerId"), 10, 64)
	if err != nil || ownerID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "ownerId query parameter required")
		return
	}
	returns, err := h.service.ListReturns(r.Context(), ownerID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	views := make([]returnView, 0, len(returns))
	for _, ret := range returns {
		views = append(views, toReturnView(ret))
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) recommendScheme(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	ownerID, err := strconv.ParseInt(query.Get("ownerId"), 10, 64)
	if err != nil || ownerID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "ownerId query parameter required")
		return
	}
	period, err := parsePeriod(query.Get("periodStart"), query.Get("periodEnd"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	recommendation, err := h.service.RecommendScheme(r.Context(), ownerID, period)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, recommendation)
}

// respondError translates domain errors to the shared HTTP sentinels
// and lets httpx.RespondError pick the status. Unrecognized errors are
// logged and surface as a bare 500.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, vat.ErrReturnNotFound):
		err = fmt.Errorf("%w: %s", httpx.ErrNotFound, err)
	case errors.Is(err, vat.ErrAlreadyLocked), errors.Is(err, vat.ErrDuplicateSubmission):
		err = fmt.Errorf("%w: %s", httpx.ErrDuplicate, err)
	case errors.Is(err, vat.ErrConfiguration), errors.Is(err, vat.ErrNotSubmittable):
		err = fmt.Errorf("%w: %s", httpx.ErrUnprocessable, err)
	case errors.Is(err, ledger.ErrFetch):
		err = fmt.Errorf("%w: %s", httpx.ErrUpstream, err)
	case errors.Is(err, shared.ErrInvalidPeriod):
		err = fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	default:
		h.logger.Error("vat handler", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func parsePeriod(start, end string) (shared.Period, error) {
	startDate, err := time.Parse(dateLayout, start)
	if err != nil {
		return shared.Period{}, errors.New("periodStart must be a YYYY-MM-DD date")
	}
	endDate, err := time.Parse(dateLayout, end)
	if err != nil {
		return shared.Period{}, errors.New("periodEnd must be a YYYY-MM-DD date")
	}
	return shared.NewPeriod(startDate, endDate)
}

func toReturnView(ret vat.Return) returnView {
	return returnView{
		ID:             ret.ID.String(),
		OwnerID:        ret.OwnerID,
		PeriodStart:    ret.Period.Start.Format(dateLayout),
		PeriodEnd:      ret.Period.End.Format(dateLayout),
		Scheme:         ret.Scheme,
		PercentageUsed: nullDecimalPtr(ret.PercentageUsed),
		Boxes:          ret.Boxes.Tagged(),
		Status:         ret.Status,
		SubmittedAt:    ret.SubmittedAt,
	}
}

func fromReturnPayload(ownerID int64, payload returnPayload) (vat.Return, error) {
	id, err := uuid.Parse(payload.ID)
	if err != nil {
		return vat.Return{}, errors.New("return id must be a UUID")
	}
	period, err := parsePeriod(payload.PeriodStart, payload.PeriodEnd)
	if err != nil {
		return vat.Return{}, err
	}
	scheme, err := vat.ParseScheme(payload.Scheme)
	if err != nil {
		return vat.Return{}, errors.New("unknown scheme")
	}

	var boxes vat.Boxes
	targets := map[string]*decimal.Decimal{
		"box1": &boxes.Box1, "box2": &boxes.Box2, "box3": &boxes.Box3,
		"box4": &boxes.Box4, "box5": &boxes.Box5, "box6": &boxes.Box6,
		"box7": &boxes.Box7, "box8": &boxes.Box8, "box9": &boxes.Box9,
	}
	for name, target := range targets {
		raw, ok := payload.Boxes[name]
		if !ok {
			return vat.Return{}, errors.New("all nine boxes are required")
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return vat.Return{}, errors.New(name + " is not a valid amount")
		}
		*target = value
	}

	ret := vat.Return{
		ID:      id,
		OwnerID: ownerID,
		Period:  period,
		Scheme:  scheme,
		Boxes:   boxes,
		Status:  vat.StatusDraft,
	}
	if payload.PercentageUsed != nil {
		ret.PercentageUsed = decimal.NullDecimal{Decimal: *payload.PercentageUsed, Valid: true}
	}
	return ret, nil
}

func nullDecimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	value := d.Decimal
	return &value
}
