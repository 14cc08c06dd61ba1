package forecast

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerMethodGuards(t *testing.T) {
	h := NewHandler(nil, nil, nil)
	cases := []struct {
		name    string
		method  string
		handler http.HandlerFunc
	}{
		{"forecast rejects GET", http.MethodGet, h.HandleForecast},
		{"history rejects POST", http.MethodPost, h.HandleHistory},
		{"health rejects DELETE", http.MethodDelete, h.HandleHealth},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c.handler(rec, httptest.NewRequest(c.method, "/", nil))
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
			}
		})
	}
}

func TestHandleForecastRejectsEmptyCompany(t *testing.T) {
	h := NewHandler(nil, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/forecast", strings.NewReader(`{"company": "", "quarters": 2}`))
	h.HandleForecast(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleForecastOptionsPreflight(t *testing.T) {
	h := NewHandler(nil, nil, nil)
	rec := httptest.NewRecorder()
	h.HandleForecast(rec, httptest.NewRequest(http.MethodOptions, "/forecast", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing")
	}
}
