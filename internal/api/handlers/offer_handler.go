package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/offer-engine/internal/models"
	"github.com/Cheertaboi/offer-engine/internal/service"
)

// --- Request / Response DTOs ---

type EvaluateRequestBody struct {
	CustomerID string                  `json:"customer_id"`
	Customer   *models.CustomerContext `json:"customer,omitempty"`
	Items      []models.CartItem       `json:"items" validate:"dive"`
}

type CodeEvaluateRequestBody struct {
	Code string `json:"code" validate:"required"`
	EvaluateRequestBody
}

type RecordUsageRequestBody struct {
	OfferID        int64           `json:"offer_id" validate:"required,gt=0"`
	CustomerID     string          `json:"customer_id"`
	OrderID        string          `json:"order_id" validate:"required"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Code           string          `json:"code,omitempty"`
}

type IssueCodeRequestBody struct {
	Prefix             string     `json:"prefix" validate:"omitempty,alphanum,max=16"`
	AssignedCustomerID *string    `json:"assigned_customer_id"`
	MaxUses            *int       `json:"max_uses" validate:"omitempty,gte=1"`
	MaxUsesPerCustomer *int       `json:"max_uses_per_customer" validate:"omitempty,gte=1"`
	ValidFrom          *time.Time `json:"valid_from"`
	ValidTo            *time.Time `json:"valid_to"`
}

type EvaluationsResponse struct {
	Offers []models.OfferEvaluation `json:"offers"`
}

type OfferCodeResponse struct {
	ID                 int64      `json:"id"`
	Code               string     `json:"code"`
	OfferID            int64      `json:"offer_id"`
	MaxUses            *int       `json:"max_uses,omitempty"`
	AssignedCustomerID *string    `json:"assigned_customer_id,omitempty"`
	MaxUsesPerCustomer *int       `json:"max_uses_per_customer,omitempty"`
	ValidFrom          *time.Time `json:"valid_from,omitempty"`
	ValidTo            *time.Time `json:"valid_to,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// --- Handler struct & constructor ---

type OfferHandler struct {
	service  *service.OfferService
	validate *validator.Validate
}

func NewOfferHandler(svc *service.OfferService) *OfferHandler {
	return &OfferHandler{
		service:  svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps business failures to 4xx and everything else to 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var oe *service.OfferError
	if !errors.As(err, &oe) {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
		return
	}
	writeJSON(w, statusFor(oe.Kind), ErrorResponse{Error: string(oe.Kind), Reason: oe.Reason})
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindCodeNotFound, service.KindOfferNotFound:
		return http.StatusNotFound
	case service.KindUsageLimitExceeded, service.KindCodeGenerationCollision:
		return http.StatusConflict
	case service.KindInvalidRequest:
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}

func badRequest(w http.ResponseWriter, reason string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: string(service.KindInvalidRequest), Reason: reason})
}

// decode reads and validates a JSON body into dst, writing a 400 on failure.
func (h *OfferHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		badRequest(w, "invalid_body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		badRequest(w, err.Error())
		return false
	}
	return true
}

func (b EvaluateRequestBody) toRequest() (service.EvaluateRequest, bool) {
	for _, it := range b.Items {
		if it.UnitPrice.IsNegative() {
			return service.EvaluateRequest{}, false
		}
	}
	return service.EvaluateRequest{
		Cart:       models.Cart{Items: b.Items},
		CustomerID: b.CustomerID,
		Customer:   b.Customer,
	}, true
}

func (h *OfferHandler) evaluateRequest(w http.ResponseWriter, r *http.Request) (service.EvaluateRequest, bool) {
	var body EvaluateRequestBody
	if !h.decode(w, r, &body) {
		return service.EvaluateRequest{}, false
	}
	req, ok := body.toRequest()
	if !ok {
		badRequest(w, "unit_price must not be negative")
	}
	return req, ok
}

// --- Handlers ---

// EvaluateOffers handles POST /offers/evaluate
func (h *OfferHandler) EvaluateOffers(w http.ResponseWriter, r *http.Request) {
	req, ok := h.evaluateRequest(w, r)
	if !ok {
		return
	}
	evals, err := h.service.EvaluateAll(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EvaluationsResponse{Offers: evals})
}

// BestOffer handles POST /offers/best. No content means nothing applies.
func (h *OfferHandler) BestOffer(w http.ResponseWriter, r *http.Request) {
	req, ok := h.evaluateRequest(w, r)
	if !ok {
		return
	}
	best, err := h.service.PickBest(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if best == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, best)
}

// ExplainOffers handles POST /offers/explain
func (h *OfferHandler) ExplainOffers(w http.ResponseWriter, r *http.Request) {
	req, ok := h.evaluateRequest(w, r)
	if !ok {
		return
	}
	evals, err := h.service.Explain(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EvaluationsResponse{Offers: evals})
}

// EvaluateCode handles POST /codes/evaluate
func (h *OfferHandler) EvaluateCode(w http.ResponseWriter, r *http.Request) {
	var body CodeEvaluateRequestBody
	if !h.decode(w, r, &body) {
		return
	}
	req, ok := body.toRequest()
	if !ok {
		badRequest(w, "unit_price must not be negative")
		return
	}
	ev, err := h.service.EvaluateByCode(r.Context(), service.CodeEvaluateRequest{Code: body.Code, EvaluateRequest: req})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// RecordUsage handles POST /usages. Retrying with the same order returns the
// original usage.
func (h *OfferHandler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	var body RecordUsageRequestBody
	if !h.decode(w, r, &body) {
		return
	}
	usage, err := h.service.RecordUsage(r.Context(), service.RecordUsageRequest{
		OfferID:        body.OfferID,
		CustomerID:     body.CustomerID,
		OrderID:        body.OrderID,
		DiscountAmount: body.DiscountAmount,
		Code:           body.Code,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

// IssueCode handles POST /admin/offers/{offerID}/codes
func (h *OfferHandler) IssueCode(w http.ResponseWriter, r *http.Request) {
	offerID, err := strconv.ParseInt(chi.URLParam(r, "offerID"), 10, 64)
	if err != nil || offerID <= 0 {
		badRequest(w, "invalid offer id")
		return
	}
	var body IssueCodeRequestBody
	if !h.decode(w, r, &body) {
		return
	}
	oc, err := h.service.IssueCode(r.Context(), offerID, service.IssueCodeOptions{
		AssignedCustomerID: body.AssignedCustomerID,
		MaxUses:            body.MaxUses,
		MaxUsesPerCustomer: body.MaxUsesPerCustomer,
		ValidFrom:          body.ValidFrom,
		ValidTo:            body.ValidTo,
		Prefix:             body.Prefix,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, OfferCodeResponse{
		ID:                 oc.ID,
		Code:               oc.Code,
		OfferID:            oc.OfferID,
		MaxUses:            oc.MaxUses,
		AssignedCustomerID: oc.AssignedCustomerID,
		MaxUsesPerCustomer: oc.MaxUsesPerCustomer,
		ValidFrom:          oc.ValidFrom,
		ValidTo:            oc.ValidTo,
		CreatedAt:          oc.CreatedAt,
	})
}
