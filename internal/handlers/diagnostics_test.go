package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	domain "github.com/veldpost/api/internal/domain"
)

type stubConfigInspector struct {
	tree domain.ConfigTree
	err  error
}

func (s *stubConfigInspector) ConfigTree(context.Context) (domain.ConfigTree, error) {
	return s.tree, s.err
}

func TestDiagnosticsConfigDump(t *testing.T) {
	inspector := &stubConfigInspector{tree: domain.NewConfigTree(map[string]string{
		"postnl_settings/mailbox/active": "1",
		"postnl_settings/mailbox/weight": "2000",
	})}
	router := NewRouter(WithInternalRoutes(NewDiagnosticsHandlers(inspector).Routes))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/internal/config", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var body struct {
		Settings map[string]string `json:"settings"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Settings["postnl_settings/mailbox/weight"] != "2000" {
		t.Fatalf("expected mailbox weight in dump, got %#v", body.Settings)
	}
}

func TestDiagnosticsConfigDumpUnavailable(t *testing.T) {
	inspector := &stubConfigInspector{err: errors.New("backend down")}
	router := NewRouter(WithInternalRoutes(NewDiagnosticsHandlers(inspector).Routes))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/internal/config", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["error"] != "config_unavailable" {
		t.Fatalf("expected config_unavailable, got %v", body["error"])
	}
}

func TestDiagnosticsCarrierRegistry(t *testing.T) {
	inspector := &stubConfigInspector{}
	router := NewRouter(
		WithInternalRoutes(NewDiagnosticsHandlers(inspector).Routes),
		WithInternalMiddlewares(noStoreMiddleware),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/internal/carriers", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("expected internal middleware applied, got Cache-Control %q", got)
	}
	var body struct {
		Carriers []struct {
			Name        string `json:"name"`
			HomeCountry string `json:"homeCountry"`
		} `json:"carriers"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(body.Carriers) == 0 || body.Carriers[0].Name != "postnl" {
		t.Fatalf("expected postnl first in registry, got %#v", body.Carriers)
	}
}

func noStoreMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
