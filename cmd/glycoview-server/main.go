package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/glycoview/glycoview/internal/analytics"
	"github.com/glycoview/glycoview/internal/config"
	"github.com/glycoview/glycoview/internal/domain/anomaly"
	"github.com/glycoview/glycoview/internal/domain/dashboard"
	"github.com/glycoview/glycoview/internal/domain/modeleval"
	"github.com/glycoview/glycoview/internal/platform/auth"
	"github.com/glycoview/glycoview/internal/platform/cache"
	"github.com/glycoview/glycoview/internal/platform/dataset"
	"github.com/glycoview/glycoview/internal/platform/metrics"
	"github.com/glycoview/glycoview/internal/platform/middleware"
	"github.com/glycoview/glycoview/internal/platform/source"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "glycoview-server",
		Short: "Diabetes analytics dashboard API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(checkCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load the dataset and start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the input tables without serving",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			tables, err := loadTables(ctx, cfg)
			if err != nil {
				return err
			}
			if _, err := dataset.New(tables.Patients, tables.Anomalies); err != nil {
				return err
			}
			if err := dataset.ValidateModelEvaluations(tables.Evaluations); err != nil {
				return err
			}

			logger.Info().
				Int("patients", len(tables.Patients)).
				Int("evaluations", len(tables.Evaluations)).
				Int("anomalies", len(tables.Anomalies)).
				Msg("input tables valid")
			return nil
		},
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

// loadTables reads the three input tables from the configured backend.
func loadTables(ctx context.Context, cfg *config.Config) (*source.Tables, error) {
	var src source.Source
	switch cfg.DataSource {
	case config.SourcePostgres:
		poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		poolCfg.MaxConns = cfg.DBMaxConns
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, err
		}
		defer pool.Close()
		src = source.NewPostgresSource(pool)
	default:
		src = source.NewCSVSource(cfg.PatientsCSV, cfg.ModelsCSV, cfg.AnomaliesCSV)
	}
	return src.Load(ctx)
}

func runServer() error {
	logger := newLogger()

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	metrics.Init()

	// The dataset is loaded and joined exactly once; any LoadError here
	// is fatal and nothing is served.
	ctx := context.Background()
	tables, err := loadTables(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load input tables")
	}
	store, err := dataset.New(tables.Patients, tables.Anomalies)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build dataset store")
	}
	metrics.DatasetRows.Set(float64(store.Len()))
	logger.Info().
		Int("patients", store.Len()).
		Int("evaluations", len(tables.Evaluations)).
		Int("anomalies", len(tables.Anomalies)).
		Msg("dataset loaded")

	engine := analytics.NewEngine(store)
	modelSvc, err := modeleval.NewService(tables.Evaluations)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load model evaluations")
	}
	anomalySvc, err := anomaly.NewService(engine, tables.Anomalies)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load anomaly results")
	}
	memo := cache.New(cfg.CacheSize, cfg.CacheTTL)
	dashboardSvc := dashboard.NewService(engine, modelSvc, anomalySvc, memo)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// API group
	api := e.Group("/api/v1")
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	if cfg.AuthEnabled {
		api.Use(auth.RequireToken(cfg.AuthSecret))
	}

	dashboard.NewHandler(dashboardSvc).RegisterRoutes(api)
	modeleval.NewHandler(modelSvc).RegisterRoutes(api)
	anomaly.NewHandler(anomalySvc).RegisterRoutes(api)

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info().Str("addr", addr).Msg("starting server")
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server stopped")
	}
	return nil
}
