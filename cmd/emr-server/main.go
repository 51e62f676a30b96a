package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicemr/api/internal/config"
	"github.com/clinicemr/api/internal/domain/clinic"
	"github.com/clinicemr/api/internal/domain/doctor"
	"github.com/clinicemr/api/internal/domain/encounter"
	"github.com/clinicemr/api/internal/domain/fileasset"
	"github.com/clinicemr/api/internal/domain/labresult"
	"github.com/clinicemr/api/internal/domain/medrep"
	"github.com/clinicemr/api/internal/domain/patient"
	"github.com/clinicemr/api/internal/domain/prescription"
	"github.com/clinicemr/api/internal/domain/refs"
	"github.com/clinicemr/api/internal/domain/setting"
	"github.com/clinicemr/api/internal/domain/user"
	"github.com/clinicemr/api/internal/platform/access"
	"github.com/clinicemr/api/internal/platform/audit"
	"github.com/clinicemr/api/internal/platform/auth"
	"github.com/clinicemr/api/internal/platform/blobstore"
	"github.com/clinicemr/api/internal/platform/db"
	"github.com/clinicemr/api/internal/platform/middleware"
	"github.com/clinicemr/api/internal/platform/response"
	"github.com/clinicemr/api/internal/platform/telemetry"
	"github.com/clinicemr/api/internal/platform/validate"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "emr-server",
		Short: "Clinic EMR API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(actorCmd())
	rootCmd.AddCommand(rolesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the EMR API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

// services bundles the long-lived dependencies the router needs.
type services struct {
	pool        *pgxpool.Pool
	store       *user.Store
	tokens      *auth.Tokens
	revocations auth.RevocationStore
	blobs       blobstore.Store
	metrics     *telemetry.Provider
	audit       middleware.AuditRecorder
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := newLogger(cfg)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	store := user.NewStore(pool)
	roles, err := store.ListRoles(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("role catalogue is invalid; run \"emr-server roles verify\"")
	}
	logger.Info().Int("roles", len(roles)).Msg("role catalogue verified")

	svc := services{
		pool:    pool,
		store:   store,
		tokens:  auth.NewTokens(auth.TokenConfig{SigningKey: cfg.SigningKey(), Issuer: cfg.JWTIssuer, TTL: cfg.JWTTTL}),
		metrics: telemetry.NewProvider(),
		audit:   audit.NewLogger(pool),
	}

	if cfg.RedisURL != "" {
		client, err := auth.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		svc.revocations = auth.NewRedisRevocations(client)
		logger.Info().Msg("token revocations stored in redis")
	} else {
		mem := auth.NewMemoryRevocations(time.Minute)
		defer mem.Close()
		svc.revocations = mem
		logger.Warn().Msg("REDIS_URL not set; token revocations kept in memory")
	}

	switch cfg.StorageDriver {
	case "minio":
		ms, err := blobstore.NewMinioStore(ctx, blobstore.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize object storage")
		}
		svc.blobs = ms
	default:
		svc.blobs = blobstore.NewMemoryStore()
		logger.Warn().Msg("file contents kept in memory")
	}

	svc.metrics.ObservePool(func() db.PoolStats { return db.GetPoolStats(pool) })

	e := newServer(cfg, logger, svc)

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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// streamsBody exempts file uploads and downloads from the request deadline.
func streamsBody(c echo.Context) bool {
	path := c.Path()
	if strings.HasSuffix(path, "/download") {
		return true
	}
	return c.Request().Method == http.MethodPost && strings.HasSuffix(path, "/files")
}

// newServer builds the echo instance with every route mounted.
func newServer(cfg *config.Config, logger zerolog.Logger, svc services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = response.JSONSerializer{}
	e.Validator = validate.EchoValidator{}
	e.HTTPErrorHandler = response.ErrorHandler(logger)

	e.Use(middleware.RequestID())
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.Logger(logger))
	e.Use(svc.metrics.MetricsMiddleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Request-ID", access.HeaderClinicID},
		ExposeHeaders: []string{"X-Request-ID"},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit, fmt.Sprintf("%d", cfg.MaxUploadSize+1<<20)))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           10 * time.Minute,
	}))
	e.Use(middleware.RequestTimeout(30*time.Second, streamsBody))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(svc.pool, func() db.PoolStats { return db.GetPoolStats(svc.pool) }))
	e.GET("/metrics", svc.metrics.Handler())

	resolver := refs.NewResolver(svc.pool)

	authHandler := auth.NewHandler(svc.tokens, svc.store, svc.revocations)
	clinicHandler := clinic.NewHandler(clinic.NewService(clinic.NewRepo(svc.pool)))

	public := e.Group("/api/v1")
	authHandler.RegisterPublicRoutes(public)
	clinicHandler.RegisterPublicRoutes(public)

	api := e.Group("/api/v1",
		auth.Authenticate(svc.tokens, svc.store, svc.revocations),
		access.Attach(svc.store, svc.metrics),
		middleware.Audit(logger, svc.audit),
	)
	authHandler.RegisterRoutes(api)

	// list routes resolve the clinic from the request; record routes only
	// narrow to it when one was sent.
	list := api.Group("", access.RequireClinic())
	record := api.Group("", access.ScopeRecordClinic())

	clinicHandler.RegisterRoutes(api, record)

	patient.NewHandler(patient.NewService(patient.NewRepo(svc.pool))).RegisterRoutes(list, record)
	doctor.NewHandler(doctor.NewService(doctor.NewRepo(svc.pool), svc.store)).RegisterRoutes(list, record)
	encounter.NewHandler(encounter.NewService(encounter.NewRepo(svc.pool), resolver)).RegisterRoutes(list, record)
	prescription.NewHandler(prescription.NewService(prescription.NewRepo(svc.pool), resolver)).RegisterRoutes(list, record)
	labresult.NewHandler(labresult.NewService(labresult.NewRepo(svc.pool), resolver)).RegisterRoutes(list, record)
	medrep.NewHandler(medrep.NewService(medrep.NewRepo(svc.pool), resolver)).RegisterRoutes(list, record)
	fileasset.NewHandler(
		fileasset.NewService(fileasset.NewRepo(svc.pool), svc.blobs, resolver, cfg.FileURLTTL),
		cfg.MaxUploadSize,
	).RegisterRoutes(list, record)
	setting.NewHandler(setting.NewService(setting.NewRepo(svc.pool))).RegisterRoutes(list)
	user.NewHandler(user.NewService(svc.store)).RegisterRoutes(list)

	return e
}
