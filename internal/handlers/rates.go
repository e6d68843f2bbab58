package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/veldpost/api/internal/domain"
	"github.com/veldpost/api/internal/platform/httpx"
	"github.com/veldpost/api/internal/services"
)

const maxQuoteRequestBody = 64 * 1024

var (
	errEmptyBody    = errors.New("request body is required")
	errBodyTooLarge = errors.New("request body exceeds allowed size")
)

// RateQuoter quotes carrier rate candidates for a cart.
type RateQuoter interface {
	QuoteRates(ctx context.Context, cmd services.QuoteRatesCommand) ([]domain.RateCandidate, error)
}

// RateHandlers exposes the rate quoting endpoint.
type RateHandlers struct {
	rates RateQuoter
}

// NewRateHandlers constructs a rate handler set.
func NewRateHandlers(rates RateQuoter) *RateHandlers {
	return &RateHandlers{rates: rates}
}

// Routes registers the rate endpoints at the API root.
func (h *RateHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/rates:quote", h.quote)
}

type quoteRatesRequest struct {
	Carrier            string          `json:"carrier"`
	Method             string          `json:"method"`
	Price              float64         `json:"price"`
	DestinationCountry string          `json:"destinationCountry"`
	Items              []quoteRateItem `json:"items"`
}

type quoteRateItem struct {
	ProductID       string  `json:"productId"`
	SKU             string  `json:"sku,omitempty"`
	Name            string  `json:"name,omitempty"`
	Quantity        int     `json:"quantity"`
	UnitWeightGrams float64 `json:"unitWeightGrams"`
	UnitPrice       float64 `json:"unitPrice"`
}

type rateCandidatePayload struct {
	Method     string  `json:"method"`
	Title      string  `json:"title"`
	Price      float64 `json:"price"`
	BaseMethod string  `json:"baseMethod"`
}

func (h *RateHandlers) quote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.rates == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "rate service not available", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxQuoteRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req quoteRatesRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	cmd := services.QuoteRatesCommand{
		BaseRate: domain.BaseRate{
			Carrier: req.Carrier,
			Method:  req.Method,
			Price:   req.Price,
		},
		DestinationCountry: req.DestinationCountry,
	}
	for _, item := range req.Items {
		cmd.Items = append(cmd.Items, domain.LineItem{
			ProductID:       item.ProductID,
			SKU:             item.SKU,
			Name:            item.Name,
			Quantity:        item.Quantity,
			UnitWeightGrams: item.UnitWeightGrams,
			UnitPrice:       item.UnitPrice,
		})
	}

	candidates, err := h.rates.QuoteRates(ctx, cmd)
	if err != nil {
		writeRateQuoteError(ctx, w, err)
		return
	}

	payload := make([]rateCandidatePayload, 0, len(candidates))
	for _, candidate := range candidates {
		payload = append(payload, rateCandidatePayload{
			Method:     candidate.Method,
			Title:      candidate.Title,
			Price:      candidate.Price,
			BaseMethod: candidate.BaseMethod,
		})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"rates": payload})
}

func writeRateQuoteError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrQuoteInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to quote rates", http.StatusInternalServerError))
	}
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", errBodyTooLarge.Error(), http.StatusRequestEntityTooLarge))
	case errors.Is(err, errEmptyBody):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", errEmptyBody.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = maxQuoteRequestBody
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
