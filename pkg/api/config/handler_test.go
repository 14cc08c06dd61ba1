package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"financial_forecast/pkg/core/agent"
)

func newTestHandler() *Handler {
	return NewHandler(agent.NewManager(agent.Config{ActiveProvider: "gemini"}))
}

func TestHandleConfigReportsActiveProvider(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	h.HandleConfig(rec, httptest.NewRequest(http.MethodGet, "/config", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ActiveProvider != "gemini" {
		t.Errorf("active_provider = %q", resp.ActiveProvider)
	}
}

func TestHandleSwitchChangesProvider(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/config/switch", strings.NewReader(`{"provider": "deepseek"}`))
	h.HandleSwitch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if h.AgentMgr.GetActiveProvider() != "deepseek" {
		t.Errorf("active provider = %q after switch", h.AgentMgr.GetActiveProvider())
	}
}

func TestHandleSwitchRejectsUnknownProvider(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/config/switch", strings.NewReader(`{"provider": "mistral"}`))
	h.HandleSwitch(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if h.AgentMgr.GetActiveProvider() != "gemini" {
		t.Errorf("active provider changed to %q", h.AgentMgr.GetActiveProvider())
	}
}

func TestHandleSwitchMethodGuard(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	h.HandleSwitch(rec, httptest.NewRequest(http.MethodGet, "/config/switch", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}
