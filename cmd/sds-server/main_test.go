package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/sds/sds/internal/config"
	"github.com/sds/sds/internal/platform/fhir"
	"github.com/sds/sds/internal/platform/metrics"
)

func mockConfig() *config.Config {
	return &config.Config{
		Env:                   "test",
		LogLevel:              "info",
		SpineCoreODSCode:      "YES",
		MockLDAPResponse:      true,
		MockLDAPMode:          "STRICT",
		LDAPSearchTimeoutSecs: 3,
		RequestTimeoutSecs:    30,
	}
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	return newTracedTestServer(t, nil)
}

func newTracedTestServer(t *testing.T, tp trace.TracerProvider) http.Handler {
	t.Helper()
	cfg := mockConfig()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	dir, closeDir, err := newDirectory(context.Background(), cfg, zerolog.Nop(), m, tp)
	if err != nil {
		t.Fatalf("newDirectory: %v", err)
	}
	t.Cleanup(closeDir)
	return newServer(cfg, zerolog.Nop(), dir, reg, m, tp)
}

func serve(h http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_EndpointForwardReliable(t *testing.T) {
	h := newTestServer(t)
	q := url.Values{
		"organization": {fhir.ODSOrganizationCodeSystem + "|X26"},
		"identifier":   {fhir.ServiceInteractionSystem + "|urn:nhs:names:services:gp2gp:COPC_IN000001UK01"},
	}
	rec := serve(h, "/Endpoint?"+q.Encode())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var bundle struct {
		Total int `json:"total"`
		Entry []struct {
			Resource fhir.Endpoint `json:"resource"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &bundle); err != nil {
		t.Fatal(err)
	}
	if bundle.Total != 1 {
		t.Fatalf("total = %d, want 1", bundle.Total)
	}
	if got := bundle.Entry[0].Resource.Address; got != "https://msg.int.spine2.ncrs.nhs.uk/reliablemessaging/intermediary" {
		t.Errorf("address = %q, want intermediary address", got)
	}
}

func TestServer_DeviceSearch(t *testing.T) {
	h := newTestServer(t)
	q := url.Values{
		"organization":               {fhir.ODSOrganizationCodeSystem + "|YES"},
		"identifier":                 {fhir.ServiceInteractionSystem + "|urn:nhs:names:services:psis:REPC_IN150016UK05"},
		"manufacturing-organization": {fhir.ODSOrganizationCodeSystem + "|YES"},
	}
	rec := serve(h, "/Device?"+q.Encode())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var bundle struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &bundle); err != nil {
		t.Fatal(err)
	}
	if bundle.Total != 1 {
		t.Errorf("total = %d, want 1", bundle.Total)
	}
}

func TestServer_HealthChecks(t *testing.T) {
	h := newTestServer(t)
	for _, path := range []string{"/healthcheck", "/healthcheck/deep"} {
		rec := serve(h, path)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"status":"pass"`) {
			t.Errorf("%s: unexpected body %s", path, rec.Body.String())
		}
	}
}

func TestServer_NotFound(t *testing.T) {
	rec := serve(newTestServer(t), "/Patient")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != fhir.FHIRContentType {
		t.Errorf("content type = %q", ct)
	}
	if rec.Header().Get("X-Correlation-ID") == "" {
		t.Error("expected correlation id on 404")
	}
}

func TestServer_Metrics(t *testing.T) {
	h := newTestServer(t)
	serve(h, "/healthcheck")

	rec := serve(h, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `sds_request_duration_seconds_count{route="/healthcheck",status="200"} 1`) {
		t.Errorf("request metric missing from:\n%s", rec.Body.String())
	}
}

func TestServer_TracesRequests(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	h := newTracedTestServer(t, tp)

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	q := url.Values{
		"organization": {fhir.ODSOrganizationCodeSystem + "|YES"},
		"identifier":   {fhir.ServiceInteractionSystem + "|urn:nhs:names:services:psis:REPC_IN150016UK05"},
	}
	req := httptest.NewRequest(http.MethodGet, "/Endpoint?"+q.Encode(), nil)
	req.Header.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	serve(h, "/metrics")

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one request span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "/Endpoint" {
		t.Errorf("span name = %q, want /Endpoint", span.Name())
	}
	if span.SpanKind() != trace.SpanKindServer {
		t.Errorf("span kind = %v, want server", span.SpanKind())
	}
	if got := span.SpanContext().TraceID().String(); got != traceID {
		t.Errorf("trace id = %s, want the caller's %s", got, traceID)
	}
}
