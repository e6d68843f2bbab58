package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/veldpost/api/internal/domain"
	"github.com/veldpost/api/internal/platform/httpx"
)

// ConfigInspector loads the settings snapshot the decision components read.
type ConfigInspector interface {
	ConfigTree(ctx context.Context) (domain.ConfigTree, error)
}

// DiagnosticsHandlers exposes back-office inspection endpoints under the
// internal route group: the resolved settings tree and the carrier registry.
type DiagnosticsHandlers struct {
	config ConfigInspector
}

// NewDiagnosticsHandlers constructs the diagnostics handler set.
func NewDiagnosticsHandlers(config ConfigInspector) *DiagnosticsHandlers {
	return &DiagnosticsHandlers{config: config}
}

// Routes registers the diagnostics endpoints on the internal group.
func (h *DiagnosticsHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/config", h.configDump)
	r.Get("/carriers", h.carriers)
}

type carrierPayload struct {
	Name           string   `json:"name"`
	SettingsRoot   string   `json:"settingsRoot"`
	HomeCountry    string   `json:"homeCountry"`
	QuoteCountries []string `json:"quoteCountries"`
}

// configDump returns the flattened settings tree so merchants can see exactly
// which values the classifier and rate builder will read.
func (h *DiagnosticsHandlers) configDump(w http.ResponseWriter, r *http.Request) {
	if h.config == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("config_unavailable", "configuration source not configured", http.StatusServiceUnavailable))
		return
	}
	tree, err := h.config.ConfigTree(r.Context())
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("config_unavailable", "configuration could not be loaded", http.StatusServiceUnavailable))
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"settings": tree.Values()})
}

func (h *DiagnosticsHandlers) carriers(w http.ResponseWriter, _ *http.Request) {
	registry := domain.Carriers()
	payload := make([]carrierPayload, 0, len(registry))
	for _, c := range registry {
		payload = append(payload, carrierPayload{
			Name:           c.Name,
			SettingsRoot:   c.SettingsRoot,
			HomeCountry:    c.HomeCountry,
			QuoteCountries: c.QuoteCountries,
		})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"carriers": payload})
}
