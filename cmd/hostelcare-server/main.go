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
	"go.opentelemetry.io/otel"

	"github.com/hostelcare/hostelcare/internal/config"
	"github.com/hostelcare/hostelcare/internal/domain/complaint"
	"github.com/hostelcare/hostelcare/internal/domain/dashboard"
	"github.com/hostelcare/hostelcare/internal/domain/entryexit"
	"github.com/hostelcare/hostelcare/internal/domain/facility"
	"github.com/hostelcare/hostelcare/internal/domain/identity"
	"github.com/hostelcare/hostelcare/internal/domain/medical"
	"github.com/hostelcare/hostelcare/internal/domain/medicine"
	"github.com/hostelcare/hostelcare/internal/domain/notification"
	"github.com/hostelcare/hostelcare/internal/domain/scheduling"
	"github.com/hostelcare/hostelcare/internal/platform/auth"
	"github.com/hostelcare/hostelcare/internal/platform/blobstore"
	"github.com/hostelcare/hostelcare/internal/platform/db"
	"github.com/hostelcare/hostelcare/internal/platform/middleware"
	"github.com/hostelcare/hostelcare/internal/platform/telemetry"
	"github.com/hostelcare/hostelcare/migrations"
)

const (
	version        = "0.1.0"
	uploadsPrefix  = "/uploads"
	jsonBodyLimit  = 1 << 20
	requestTimeout = 30 * time.Second
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hostelcare-server",
		Short: "Hostel and medical facility complaint API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			fmt.Printf("Running migrations on schema: %s\n", cfg.DBSchema)
			count, err := db.NewMigrator(pool, migrations.FS, cfg.DBSchema).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrations.FS, cfg.DBSchema).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", cfg.DBSchema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default users, facilities and a sample complaint",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := newLogger(cfg.Env)
			users := identity.NewUserRepoPG(pool)
			identitySvc := identity.NewService(users, nil, nil, cfg.BcryptCost)
			facilitySvc := facility.NewService(facility.NewRepoPG(pool))
			notificationSvc := notification.NewService(notification.NewRepoPG(pool), logger)
			complaintSvc := complaint.NewService(
				complaint.NewRepoPG(pool), db.NewTxManager(pool),
				facilitySvc, identitySvc, notificationSvc,
				blobstore.NewInMemoryStore(cfg.MaxUploadBytes), nil, logger,
			)

			s := &seeder{
				users:      identitySvc,
				lookup:     users,
				facilities: facilitySvc,
				complaints: complaintSvc,
				logger:     logger,
			}
			report, err := s.run(ctx)
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			fmt.Printf("Seed completed: %d user(s), %d facilit(ies), %d complaint(s) created.\n",
				report.Users, report.Facilities, report.Complaints)
			return nil
		},
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// connect loads the configuration and opens a pool for the one-shot
// commands. Token settings are not checked here.
func connect(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, cfg.DBSchema)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rl.RequestsPerSecond <= 0 || rl.BurstSize <= 0 {
		return middleware.DefaultRateLimitConfig()
	}
	return rl
}

// skipTimeout exempts attachment uploads and workbook exports from the
// request deadline.
func skipTimeout(c echo.Context) bool {
	req := c.Request()
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return true
	}
	return strings.HasSuffix(req.URL.Path, "/export")
}

func runServer() error {
	logger := newLogger(os.Getenv("ENV"))

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()

	// Telemetry
	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    "hostelcare-server",
		ServiceVersion: version,
		Environment:    cfg.Env,
		Endpoint:       cfg.OTLPEndpoint,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up telemetry")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			logger.Error().Err(err).Msg("telemetry shutdown failed")
		}
	}()
	metrics, err := telemetry.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create metrics")
	}

	// Database
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, cfg.DBSchema)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Str("schema", cfg.DBSchema).Msg("connected to database")

	// Refresh token revocation
	var (
		revoked auth.RevocationStore
		checks  []db.Check
	)
	if cfg.RedisURL != "" {
		client, err := auth.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		store := auth.NewRedisRevocationStore(client)
		revoked = store
		checks = append(checks, db.Check{Name: "redis", Ping: store.Ping})
		logger.Info().Msg("using redis revocation store")
	} else {
		store := auth.NewMemoryRevocationStore(time.Minute)
		defer store.Close()
		revoked = store
	}

	files, err := blobstore.NewDiskStore(cfg.UploadDir, uploadsPrefix, cfg.MaxUploadBytes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare upload directory")
	}

	issuer := auth.NewTokenIssuer(auth.TokenConfig{
		AccessSecret:  []byte(cfg.JWTSecret),
		RefreshSecret: []byte(cfg.JWTRefreshSecret),
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.HTTPErrorHandler(logger, cfg.IsDev())

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(telemetry.Middleware(otel.GetTracerProvider(), metrics))
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(uploadsPrefix))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Total-Count", "X-Request-ID"},
		AllowCredentials: true,
	}))
	e.Use(middleware.Sanitize(logger))
	e.Use(middleware.BodyLimit(jsonBodyLimit, cfg.MaxUploadBytes))
	e.Use(middleware.RequestTimeout(requestTimeout, skipTimeout))

	// Health and static attachments
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool, checks...))
	e.Static(uploadsPrefix, cfg.UploadDir)

	// API groups
	public := e.Group("/api", middleware.RateLimit(middleware.AuthRateLimitConfig()))
	api := e.Group("/api", auth.JWTMiddleware(issuer), middleware.RateLimit(rateLimitConfig(cfg)))

	tx := db.NewTxManager(pool)

	// Identity
	identitySvc := identity.NewService(identity.NewUserRepoPG(pool), issuer, revoked, cfg.BcryptCost)
	identity.NewHandler(identitySvc).RegisterRoutes(public, api)

	// Facilities
	facilitySvc := facility.NewService(facility.NewRepoPG(pool))
	facility.NewHandler(facilitySvc).RegisterRoutes(api)

	// Notifications
	notificationSvc := notification.NewService(notification.NewRepoPG(pool), logger)
	notification.NewHandler(notificationSvc).RegisterRoutes(api)

	// Complaints
	complaintSvc := complaint.NewService(
		complaint.NewRepoPG(pool), tx,
		facilitySvc, identitySvc, notificationSvc,
		files, metrics, logger,
	)
	complaint.NewHandler(complaintSvc).RegisterRoutes(api)

	// Dashboard
	dashboard.NewHandler(dashboard.NewService(dashboard.NewRepoPG(pool))).RegisterRoutes(api)

	// Medicine inventory
	medicine.NewHandler(medicine.NewService(medicine.NewRepoPG(pool))).RegisterRoutes(api)

	// Entry/exit log
	entryexit.NewHandler(entryexit.NewService(entryexit.NewRepoPG(pool), logger)).RegisterRoutes(api)

	// Medical records
	medical.NewHandler(medical.NewService(medical.NewRepoPG(pool))).RegisterRoutes(api)

	// Appointment scheduling placeholder
	scheduling.NewHandler().RegisterRoutes(api)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
