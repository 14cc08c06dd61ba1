// Package forecast exposes the HTTP boundary for the forecast pipeline:
// request validation, status codes and JSON encoding only. The pipeline
// itself lives in pkg/core/pipeline.
package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"financial_forecast/pkg/core/pipeline"
	"financial_forecast/pkg/core/store"
)

// requestTimeout bounds one forecast request end to end.
const requestTimeout = 5 * time.Minute

type Handler struct {
	orchestrator *pipeline.Orchestrator
	repo         *store.ForecastRepo
	logger       *zap.Logger
}

func NewHandler(orchestrator *pipeline.Orchestrator, repo *store.ForecastRepo, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{orchestrator: orchestrator, repo: repo, logger: logger}
}

type ForecastRequest struct {
	Company  string `json:"company"`
	Quarters int    `json:"quarters"`
}

// HandleForecast runs the full pipeline for one company.
func (h *Handler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := ForecastRequest{Company: "TCS", Quarters: 2}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Company == "" {
		http.Error(w, "company is required", http.StatusBadRequest)
		return
	}
	if req.Quarters <= 0 {
		req.Quarters = 2
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := h.orchestrator.GenerateForecast(ctx, req.Company, req.Quarters)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrForecastUnavailable) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleHistory returns recent forecasts from the persistence store.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	records, err := h.repo.RecentForecasts(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"forecasts": records})
}

// HandleHealth reports service configuration state.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "healthy",
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
		"gemini_configured": os.Getenv("GEMINI_API_KEY") != "",
		"database":          store.GetPool() != nil,
	})
}

// HandleRoot is the basic liveness endpoint.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "online",
		"service": "Financial Forecasting Agent",
		"version": "1.0.0",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
