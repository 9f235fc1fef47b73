package telemetry

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/redditdig/config"
)

func TestTelemetryCostTracking(t *testing.T) {
	tel := NewTelemetry(config.TelemetryConfig{Enabled: true, CostTracking: true})
	tel.RecordLLMUsage("gpt-4o-mini", 100, 50, 0.002)
	tel.RecordLLMUsage("gpt-4o-mini", 200, 100, 0.004)

	if got := tel.TotalTokens(); got != 450 {
		t.Fatalf("TotalTokens = %d, want 450", got)
	}
	if got := tel.TotalCost(); got < 0.0059 || got > 0.0061 {
		t.Fatalf("TotalCost = %v, want ~0.006", got)
	}
}

func TestTelemetryDisabledIsNoop(t *testing.T) {
	tel := NewTelemetry(config.TelemetryConfig{Enabled: false})
	tel.RecordRequest("/chat", "200")
	tel.RecordToolCall("searchReddit", true)
	tel.RecordLLMUsage("m", 10, 10, 1)
	if tel.TotalCost() != 0 || tel.TotalTokens() != 0 {
		t.Fatal("disabled telemetry must not accumulate")
	}
}

func TestTelemetryNilReceiverSafe(t *testing.T) {
	var tel *Telemetry
	tel.RecordRequest("/chat", "200")
	tel.RecordToolCall("searchReddit", false)
	if tel.TotalCost() != 0 {
		t.Fatal("nil telemetry must report zero cost")
	}
}

func TestTelemetryHandlerServesMetrics(t *testing.T) {
	tel := NewTelemetry(config.TelemetryConfig{Enabled: true})
	tel.RecordToolCall("searchReddit", true)

	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "redditdig_tool_calls_total") {
		t.Fatalf("metrics output missing counter:\n%s", rec.Body.String())
	}
}

func TestTwoInstancesDoNotCollide(t *testing.T) {
	a := NewTelemetry(config.TelemetryConfig{Enabled: true})
	b := NewTelemetry(config.TelemetryConfig{Enabled: true})
	a.RecordToolCall("searchReddit", true)
	b.RecordToolCall("searchReddit", true)
}
