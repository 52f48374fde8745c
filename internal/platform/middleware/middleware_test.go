package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/sds/sds/internal/platform/metrics"
)

const validID = "5A8E3D2C-1B4F-4C6D-9E7A-0F1B2C3D4E5F"

func TestCorrelationID_GeneratesNew(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		if id := CorrelationIDFrom(c); !ValidCorrelationID(id) || id != strings.ToUpper(id) {
			t.Errorf("expected generated upper-case id, got %q", id)
		}
		return c.String(http.StatusOK, "ok")
	}

	if err := CorrelationID(zerolog.Nop())(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(CorrelationIDHeader) == "" {
		t.Error("expected X-Correlation-ID response header")
	}
}

func TestCorrelationID_PreservesValid(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationIDHeader, strings.ToLower(validID))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		if id := CorrelationIDFrom(c); id != strings.ToLower(validID) {
			t.Errorf("expected caller id, got %s", id)
		}
		return c.String(http.StatusOK, "ok")
	}

	_ = CorrelationID(zerolog.Nop())(handler)(c)
	if got := rec.Header().Get(CorrelationIDHeader); got != strings.ToLower(validID) {
		t.Errorf("expected caller id in response header, got %s", got)
	}
}

func TestCorrelationID_LoggerInContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationIDHeader, validID)
	c := e.NewContext(req, httptest.NewRecorder())

	handler := func(c echo.Context) error {
		zerolog.Ctx(c.Request().Context()).Info().Msg("inside")
		return nil
	}
	_ = CorrelationID(logger)(handler)(c)

	if !strings.Contains(buf.String(), `"correlation_id":"`+validID+`"`) {
		t.Errorf("expected correlation id on request logger, got %s", buf.String())
	}
}

func TestRequireCorrelationID(t *testing.T) {
	tests := []struct {
		header string
		status int
	}{
		{"", http.StatusOK},
		{validID, http.StatusOK},
		{"my-custom-id", http.StatusBadRequest},
		{"5A8E3D2C-1B4F-1C6D-9E7A-0F1B2C3D4E5F", http.StatusBadRequest}, // version 1
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			e := echo.New()
			e.Use(CorrelationID(zerolog.Nop()))
			e.GET("/Endpoint", func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			}, RequireCorrelationID())

			req := httptest.NewRequest(http.MethodGet, "/Endpoint", nil)
			if tt.header != "" {
				req.Header.Set(CorrelationIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
			if got := rec.Header().Get(CorrelationIDHeader); !ValidCorrelationID(got) {
				t.Errorf("expected a valid correlation id on the response, got %q", got)
			}
		})
	}
}

func TestLogger_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/Device", nil)
	req = req.WithContext(logger.WithContext(req.Context()))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "bad")
	}

	if err := Logger()(handler)(c); err != nil {
		t.Fatalf("expected error to be handled, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 written by the error handler, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), `"status":400`) {
		t.Errorf("expected logged status 400, got %s", buf.String())
	}
}

func TestLogger_ServerErrorBehindMetrics(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(CorrelationID(zerolog.New(&buf)))
	e.Use(Logger())
	e.Use(Metrics(metrics.New(prometheus.NewRegistry())))
	e.GET("/Endpoint", func(c echo.Context) error {
		return errors.New("directory exploded")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/Endpoint", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var line string
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.Contains(l, `"message":"request"`) {
			line = l
		}
	}
	if line == "" {
		t.Fatalf("expected an access log line, got %s", buf.String())
	}
	if !strings.Contains(line, `"level":"error"`) || !strings.Contains(line, `"error":"directory exploded"`) {
		t.Errorf("expected access line to carry the handler error, got %s", line)
	}
	if strings.Count(buf.String(), `"message":"request"`) != 1 {
		t.Errorf("expected exactly one access line, got %s", buf.String())
	}
}

func TestRecovery_CatchesPanic(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	handler := func(c echo.Context) error {
		panic("test panic")
	}

	err := Recovery()(handler)(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", httpErr.Code)
	}
}

func TestRecovery_PassesThrough(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	if err := Recovery()(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMetrics_ObservesRoute(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	e := echo.New()
	e.Use(Metrics(m))
	e.GET("/Endpoint", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, path := range []string{"/Endpoint", "/missing"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	if n := testutil.CollectAndCount(m.RequestLatency); n != 2 {
		t.Errorf("expected 2 series (route and unmatched), got %d", n)
	}
}
