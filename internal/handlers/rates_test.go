package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domain "github.com/veldpost/api/internal/domain"
	"github.com/veldpost/api/internal/services"
)

type stubRateQuoter struct {
	cmd        services.QuoteRatesCommand
	candidates []domain.RateCandidate
	err        error
}

func (s *stubRateQuoter) QuoteRates(_ context.Context, cmd services.QuoteRatesCommand) ([]domain.RateCandidate, error) {
	s.cmd = cmd
	return s.candidates, s.err
}

func TestRateHandlersQuote(t *testing.T) {
	quoter := &stubRateQuoter{
		candidates: []domain.RateCandidate{
			{Method: "postnl_settings/mailbox", Title: "Mailbox", Price: 3.95, BaseMethod: "flatrate"},
		},
	}
	router := NewRouter(WithRateRoutes(NewRateHandlers(quoter).Routes))

	body := `{
		"carrier": "flatrate",
		"method": "flatrate/flatrate",
		"price": 5.0,
		"destinationCountry": "NL",
		"items": [
			{"productId": "p42", "quantity": 2, "unitWeightGrams": 300, "unitPrice": 9.95}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rates:quote", strings.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var payload struct {
		Rates []rateCandidatePayload `json:"rates"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(payload.Rates) != 1 {
		t.Fatalf("expected 1 rate, got %d", len(payload.Rates))
	}
	if payload.Rates[0].Method != "postnl_settings/mailbox" || payload.Rates[0].Price != 3.95 {
		t.Fatalf("unexpected rate payload %+v", payload.Rates[0])
	}

	if quoter.cmd.BaseRate.Carrier != "flatrate" || quoter.cmd.BaseRate.Price != 5.0 {
		t.Fatalf("unexpected base rate %+v", quoter.cmd.BaseRate)
	}
	if quoter.cmd.DestinationCountry != "NL" {
		t.Fatalf("expected destination NL, got %q", quoter.cmd.DestinationCountry)
	}
	if len(quoter.cmd.Items) != 1 || quoter.cmd.Items[0].ProductID != "p42" {
		t.Fatalf("unexpected items %+v", quoter.cmd.Items)
	}
}

func TestRateHandlersQuoteNoCandidates(t *testing.T) {
	router := NewRouter(WithRateRoutes(NewRateHandlers(&stubRateQuoter{}).Routes))

	body := `{"carrier": "ups", "method": "ups/ground", "price": 9, "destinationCountry": "NL"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rates:quote", strings.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var payload struct {
		Rates []rateCandidatePayload `json:"rates"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload.Rates == nil || len(payload.Rates) != 0 {
		t.Fatalf("expected empty rates array, got %v", payload.Rates)
	}
}

func TestRateHandlersQuoteInvalidInput(t *testing.T) {
	quoter := &stubRateQuoter{err: fmt.Errorf("%w: destination country is required", services.ErrQuoteInvalidInput)}
	router := NewRouter(WithRateRoutes(NewRateHandlers(quoter).Routes))

	body := `{"carrier": "flatrate", "method": "flatrate/flatrate", "price": 5}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rates:quote", strings.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload["error"] != "invalid_request" {
		t.Fatalf("expected invalid_request, got %v", payload["error"])
	}
}

func TestRateHandlersQuoteEmptyBody(t *testing.T) {
	router := NewRouter(WithRateRoutes(NewRateHandlers(&stubRateQuoter{}).Routes))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rates:quote", strings.NewReader(""))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
