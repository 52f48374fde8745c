package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/sds/sds/internal/config"
	"github.com/sds/sds/internal/domain/accredited"
	"github.com/sds/sds/internal/domain/routing"
	"github.com/sds/sds/internal/platform/directory"
	"github.com/sds/sds/internal/platform/fhir"
	"github.com/sds/sds/internal/platform/metrics"
	"github.com/sds/sds/internal/platform/middleware"
	"github.com/sds/sds/internal/platform/tracing"
)

const serviceName = "sds-api"

// backend is the directory as the server uses it.
type backend interface {
	directory.Searcher
	directory.HealthChecker
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "sds-server",
		Short:        "Spine Directory Service FHIR API",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(healthcheckCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the directory lookup API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func healthcheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "healthcheck",
		Short: "Check that the directory is reachable and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			dir, closeDir, err := newDirectory(cmd.Context(), cfg, logger, nil, nil)
			if err != nil {
				return err
			}
			defer closeDir()

			status := directory.Check(cmd.Context(), dir)
			if err := json.NewEncoder(cmd.OutOrStdout()).Encode(status); err != nil {
				return err
			}
			if !status.Healthy() {
				return errors.New("directory health check failed")
			}
			return nil
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	var logger zerolog.Logger
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	logger = logger.Level(cfg.ZerologLevel())
	if cfg.ZerologLevel() < zerolog.InfoLevel {
		logger.Warn().Str("level", cfg.ZerologLevel().String()).Msg("log level below info, sensitive directory data may be logged")
	}
	return logger
}

// newDirectory returns the mock directory when MOCK_LDAP_RESPONSE is set and
// a live client otherwise. The returned func releases the connection. A nil
// tp traces through the global provider.
func newDirectory(ctx context.Context, cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics, tp trace.TracerProvider) (backend, func(), error) {
	if cfg.MockLDAPResponse {
		pause := time.Duration(cfg.MockLDAPPauseMillis) * time.Millisecond
		mock, err := directory.NewMockDirectory(cfg.MockLDAPMode, pause, cfg.MockLDAPDataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("mock directory: %w", err)
		}
		logger.Warn().Str("mode", cfg.MockLDAPMode).Dur("pause", pause).Msg("using mock directory responses")
		return mock, func() {}, nil
	}

	dial, err := directory.NewDialer(directory.DialConfig{
		URL:            cfg.LDAPURL,
		UseTLS:         cfg.UseTLS(),
		ClientKey:      cfg.ClientKey,
		ClientCert:     cfg.ClientCert,
		CACerts:        cfg.CACerts,
		Retries:        cfg.LDAPConnectionRetries,
		ConnectTimeout: cfg.ConnectionTimeout(),
		RequestTimeout: cfg.SearchTimeout(),
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("directory dialer: %w", err)
	}

	client, err := directory.NewClient(dial, directory.ClientConfig{
		SearchBase:     cfg.LDAPSearchBase,
		Timeout:        cfg.SearchTimeout(),
		Metrics:        m,
		TracerProvider: tp,
	})
	if err != nil {
		return nil, nil, err
	}
	if !cfg.LDAPLazyConnection {
		if err := client.Connect(ctx); err != nil {
			return nil, nil, fmt.Errorf("connect to directory: %w", err)
		}
	}
	return client, client.Close, nil
}

// newServer wires routes and middleware onto a fresh echo instance.
func newServer(cfg *config.Config, logger zerolog.Logger, dir backend, reg *prometheus.Registry, m *metrics.Metrics, tp trace.TracerProvider) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = fhir.ErrorHandler(logger)

	// Global middleware
	e.Use(otelecho.Middleware(serviceName,
		otelecho.WithTracerProvider(tp),
		otelecho.WithPropagators(propagation.TraceContext{}),
		otelecho.WithSkipper(func(c echo.Context) bool { return c.Path() == "/metrics" }),
	))
	e.Use(middleware.CorrelationID(logger))
	e.Use(middleware.Logger())
	e.Use(middleware.Metrics(m))
	if t := cfg.RequestTimeout(); t > 0 {
		e.Use(middleware.RequestTimeout(t))
	}
	e.Use(middleware.Recovery())

	routingSvc := routing.NewService(routing.NewMessageHandlingServiceRepoLDAP(dir), cfg.SpineCoreODSCode, m)
	routing.NewHandler(routingSvc).RegisterRoutes(e)

	accreditedSvc := accredited.NewService(accredited.NewAccreditedSystemRepoLDAP(dir, cfg.DisableManufacturerSearch))
	accredited.NewHandler(accreditedSvc).RegisterRoutes(e)

	e.GET("/healthcheck", directory.HealthHandler())
	e.GET("/healthcheck/deep", directory.DeepHealthHandler(dir))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return e
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not configured yet.
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Error().Err(err).Msg("failed to load config")
		return err
	}
	logger := newLogger(cfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	tp, err := tracing.NewProvider(serviceName, cfg.TraceExporter, os.Stdout)
	if err != nil {
		logger.Error().Err(err).Msg("failed to set up tracing")
		return err
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(ctx, tp); err != nil {
			logger.Error().Err(err).Msg("failed to flush traces")
		}
	}()

	ctx := context.Background()
	dir, closeDir, err := newDirectory(ctx, cfg, logger, m, tp)
	if err != nil {
		logger.Error().Err(err).Msg("failed to set up directory")
		return err
	}
	defer closeDir()

	e := newServer(cfg, logger, dir, reg, m, tp)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
