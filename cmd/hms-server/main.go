package main

import (
	"context"
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

	"github.com/hms/hms/internal/config"
	"github.com/hms/hms/internal/domain/audit"
	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/discharge"
	"github.com/hms/hms/internal/domain/doctor"
	"github.com/hms/hms/internal/domain/ipd"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/domain/payment"
	"github.com/hms/hms/internal/domain/visit"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/idgen"
	"github.com/hms/hms/internal/platform/middleware"
)

// chargeOwnerDirectory adapts the visit and inpatient services to the
// billing package's owner checks, avoiding an import cycle between
// billing and the owning domains.
type chargeOwnerDirectory struct {
	visits     *visit.Service
	admissions *ipd.Service
}

func (d *chargeOwnerDirectory) VisitExists(ctx context.Context, visitID string) error {
	_, err := d.visits.Get(ctx, visitID)
	return err
}

func (d *chargeOwnerDirectory) AdmissionExists(ctx context.Context, admissionID string) error {
	_, err := d.admissions.Get(ctx, admissionID)
	return err
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "hms-server",
		Short: "Hospital billing and sequencing API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

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

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
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
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health checks stay outside auth so probes need no token.
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	authMW := auth.JWTMiddleware(auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		SigningKey: []byte(cfg.JWTSecret),
	})
	if cfg.IsDev() {
		authMW = auth.DevAuthMiddleware()
	}

	apiV1 := e.Group("/api/v1", authMW)

	// Shared platform pieces
	tx := db.NewPgTransactor(pool)
	ids := idgen.NewAllocator(idgen.NewPgCounterStore(pool))

	// -- Register Domain Handlers --

	// Audit ledger (wired first; billing writes to it)
	auditRepo := audit.NewRepoPG(pool)
	auditSvc := audit.NewService(auditRepo, ids)
	audit.NewHandler(auditSvc).RegisterRoutes(apiV1)

	// Patient registry
	patientRepo := patient.NewRepoPG(pool)
	patientSvc := patient.NewService(patientRepo, ids)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)

	// Doctor roster
	doctorRepo := doctor.NewRepoPG(pool)
	doctorSvc := doctor.NewService(doctorRepo, ids)
	doctor.NewHandler(doctorSvc).RegisterRoutes(apiV1)

	// Outpatient visits
	visitRepo := visit.NewRepoPG(pool)
	visitSvc := visit.NewService(visitRepo, patientSvc, doctorSvc, ids, tx)
	visit.NewHandler(visitSvc).RegisterRoutes(apiV1)

	// Inpatient stays
	bedRepo := ipd.NewBedRepoPG(pool)
	admissionRepo := ipd.NewAdmissionRepoPG(pool)
	ipdSvc := ipd.NewService(bedRepo, admissionRepo, patientSvc, doctorSvc, ids, tx)
	ipd.NewHandler(ipdSvc).RegisterRoutes(apiV1)

	// Charge ledger
	chargeRepo := billing.NewRepoPG(pool)
	owners := &chargeOwnerDirectory{visits: visitSvc, admissions: ipdSvc}
	billingSvc := billing.NewService(chargeRepo, owners, auditSvc, ids, tx)
	billing.NewHandler(billingSvc).RegisterRoutes(apiV1)

	// Payments
	paymentRepo := payment.NewRepoPG(pool)
	paymentSvc := payment.NewService(paymentRepo, ids)
	payment.NewHandler(paymentSvc).RegisterRoutes(apiV1)

	// Discharge settlement
	billRepo := discharge.NewRepoPG(pool)
	dischargeSvc := discharge.NewService(billRepo, ipdSvc, visitSvc, billingSvc, paymentSvc, tx)
	discharge.NewHandler(dischargeSvc).RegisterRoutes(apiV1)

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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
