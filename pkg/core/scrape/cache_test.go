package scrape

import (
	"bytes"
	"testing"

	"financial_forecast/pkg/core/document"
)

func TestDownloadCacheRoundTrip(t *testing.T) {
	cache := NewDownloadCache(t.TempDir())
	url := "https://www.screener.in/doc/q1.pdf"
	body := []byte("%PDF-1.4 cached body")

	if _, _, ok := cache.Get(url); ok {
		t.Fatal("cold cache reported a hit")
	}

	if err := cache.Set(url, body, document.FormatPDF); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, format, ok := cache.Get(url)
	if !ok {
		t.Fatal("warm cache reported a miss")
	}
	if format != document.FormatPDF {
		t.Errorf("format = %q, want pdf", format)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("body = %q, want %q", got, body)
	}

	if _, _, ok := cache.Get("https://www.screener.in/doc/other.pdf"); ok {
		t.Error("different url reported a hit")
	}
}
