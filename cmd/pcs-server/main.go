package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pcs/pcs/internal/config"
	"github.com/pcs/pcs/internal/domain/resolver"
	"github.com/pcs/pcs/internal/domain/synonyms"
	"github.com/pcs/pcs/internal/domain/tables"
	"github.com/pcs/pcs/internal/domain/termindex"
	"github.com/pcs/pcs/internal/platform/analytics"
	"github.com/pcs/pcs/internal/platform/auth"
	"github.com/pcs/pcs/internal/platform/db"
	"github.com/pcs/pcs/internal/platform/middleware"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "pcs-server",
		Short: "Procedure code resolution API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(assetsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the resolution API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// resolveCmd resolves one code from the command line and prints the ranked
// candidates as JSON. Useful for smoke-testing an asset drop without
// standing up the server.
func resolveCmd() *cobra.Command {
	var req resolver.Request

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a single code from flags and print candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			svc, cleanup, err := loadEngine(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			candidates, err := svc.Resolve(cmd.Context(), req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(candidates)
		},
	}

	cmd.Flags().StringVar(&req.Section, "section", "0", "section code")
	cmd.Flags().StringVar(&req.BodySystem, "body-system", "", "body system name")
	cmd.Flags().StringVar(&req.RootOperation, "operation", "", "root operation name")
	cmd.Flags().StringVar(&req.BodyPart, "body-part", "", "body part name")
	cmd.Flags().StringVar(&req.Approach, "approach", "", "approach name")
	cmd.Flags().StringVar(&req.Device, "device", "", "device name")
	cmd.Flags().StringVar(&req.Qualifier, "qualifier", "", "qualifier name")
	cmd.Flags().StringVar(&req.NoteText, "note", "", "free-text note for index fallback")
	return cmd
}

func assetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Manage reference data assets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Load all configured assets and report problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			store, err := tables.Load(cfg.TablesPath())
			if err != nil {
				return fmt.Errorf("tables: %w", err)
			}
			report := store.Report()
			fmt.Printf("tables: %d loaded, %d tables skipped, %d rows skipped, %d duplicate roots\n",
				store.Len(), report.SkippedTables, report.SkippedRows, len(report.DuplicateRoots))

			if _, err := termindex.Load(cfg.IndexPath()); err != nil {
				fmt.Printf("index: %v\n", err)
			} else {
				fmt.Println("index: ok")
			}

			for _, asset := range []struct {
				name string
				load func() error
			}{
				{"body part key", func() error { _, err := synonyms.LoadBodyPartKey(cfg.BodyPartKeyPath()); return err }},
				{"device key", func() error { _, err := synonyms.LoadDeviceKey(cfg.DeviceKeyPath()); return err }},
				{"device aggregation", func() error { _, err := synonyms.LoadDeviceAggregation(cfg.DeviceAggPath()); return err }},
			} {
				if err := asset.load(); err != nil {
					fmt.Printf("%s: %v\n", asset.name, err)
				} else {
					fmt.Printf("%s: ok\n", asset.name)
				}
			}
			return nil
		},
	})
	return cmd
}

// loadEngine builds the resolver service from the configured assets. The
// tables file is mandatory; the index and synonym dictionaries degrade to
// nil with a warning. The returned cleanup closes the database pool when
// the synonym source is postgres.
func loadEngine(cfg *config.Config, logger zerolog.Logger) (*resolver.Service, func(), error) {
	cleanup := func() {}

	store, err := tables.Load(cfg.TablesPath())
	if err != nil {
		return nil, cleanup, fmt.Errorf("load tables: %w", err)
	}
	report := store.Report()
	logger.Info().
		Int("tables", store.Len()).
		Int("skipped_tables", report.SkippedTables).
		Int("skipped_rows", report.SkippedRows).
		Int("duplicate_roots", len(report.DuplicateRoots)).
		Msg("tables loaded")
	for _, key := range report.DuplicateRoots {
		logger.Warn().Str("root", key).Msg("duplicate root key, first definition kept")
	}

	index, err := termindex.Load(cfg.IndexPath())
	if err != nil {
		logger.Warn().Err(err).Msg("term index unavailable, note-text fallback disabled")
		index = nil
	}

	var bp *synonyms.BodyPartKey
	var dev *synonyms.DeviceKey
	var agg *synonyms.DeviceAggregation

	switch cfg.KeySource {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect synonym database: %w", err)
		}
		cleanup = pool.Close
		if bp, err = synonyms.LoadBodyPartKeyPG(ctx, pool); err != nil {
			return nil, cleanup, fmt.Errorf("load body part key: %w", err)
		}
		if dev, err = synonyms.LoadDeviceKeyPG(ctx, pool); err != nil {
			return nil, cleanup, fmt.Errorf("load device key: %w", err)
		}
		if agg, err = synonyms.LoadDeviceAggregationPG(ctx, pool); err != nil {
			return nil, cleanup, fmt.Errorf("load device aggregation: %w", err)
		}
	default:
		if bp, err = synonyms.LoadBodyPartKey(cfg.BodyPartKeyPath()); err != nil {
			logger.Warn().Err(err).Msg("body part key unavailable")
			bp = nil
		}
		if dev, err = synonyms.LoadDeviceKey(cfg.DeviceKeyPath()); err != nil {
			logger.Warn().Err(err).Msg("device key unavailable")
			dev = nil
		}
		if agg, err = synonyms.LoadDeviceAggregation(cfg.DeviceAggPath()); err != nil {
			logger.Warn().Err(err).Msg("device aggregation unavailable")
			agg = nil
		}
	}

	svc := resolver.NewService(store, index, synonyms.NewResolver(bp, dev, agg), logger)
	return svc, cleanup, nil
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Resolution engine
	svc, cleanup, err := loadEngine(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load reference data")
	}
	defer cleanup()

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.ResolvedAuthMode() == "jwt" {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Secret:   []byte(cfg.AuthSecret),
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
		}))
	} else {
		e.Use(auth.DevMiddleware())
	}

	// Usage analytics
	tracker := analytics.NewUsageTracker(0)
	e.Use(analytics.UsageMiddleware(tracker))

	// API group with rate limiting
	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	resolver.NewHandler(svc).RegisterRoutes(apiV1)

	// Admin surface
	adminGroup := e.Group("/api/v1/admin", auth.RequireRole("admin"))
	analytics.NewUsageHandler(tracker).RegisterRoutes(adminGroup)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		status := "ok"
		code := http.StatusOK
		if !svc.Loaded() {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, map[string]interface{}{
			"status":  status,
			"version": version,
			"tables":  svc.TableCount(),
		})
	})

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
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
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
