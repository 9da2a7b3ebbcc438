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

	"github.com/ctmonitor/ctmonitor/internal/config"
	"github.com/ctmonitor/ctmonitor/internal/domain/clarification"
	"github.com/ctmonitor/ctmonitor/internal/domain/quality"
	"github.com/ctmonitor/ctmonitor/internal/domain/trial"
	"github.com/ctmonitor/ctmonitor/internal/platform/db"
	"github.com/ctmonitor/ctmonitor/internal/platform/middleware"
	"github.com/ctmonitor/ctmonitor/internal/platform/nlquery"
	"github.com/ctmonitor/ctmonitor/internal/platform/reporting"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ctmonitor-server",
		Short: "Clinical Trial Data Quality Monitor",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(scanCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the monitoring API server",
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
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run quality checks and generate clarification queries",
		RunE: func(cmd *cobra.Command, args []string) error {
			exportDir, _ := cmd.Flags().GetString("export-dir")
			reportDir, _ := cmd.Flags().GetString("report-dir")
			siteID, _ := cmd.Flags().GetString("site")

			logger := newLogger()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if siteID == "" {
				siteID = cfg.SiteID
			}
			if exportDir == "" {
				exportDir = cfg.ExportDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			checker := quality.NewChecker(quality.NewRepoPG(pool))
			results, err := checker.RunAllChecks(ctx)
			if err != nil {
				return fmt.Errorf("quality checks failed: %w", err)
			}

			summary := quality.BuildSummary(results)
			fmt.Printf("Findings: %d\n", summary.TotalFindings)
			for _, cs := range summary.Categories {
				fmt.Printf("  %-20s %d\n", cs.Category, cs.Total)
			}

			if reportDir != "" {
				files, err := quality.WriteCSVReport(results, reportDir)
				if err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				fmt.Printf("Wrote %d report file(s) to %s\n", len(files), reportDir)
			}

			svc := clarification.NewService(
				checker,
				clarification.NewGenerator(),
				clarification.NewRepoPG(pool),
				logger,
			)
			res, err := svc.Scan(ctx, siteID)
			if err != nil {
				return fmt.Errorf("generate queries: %w", err)
			}
			fmt.Printf("Generated %d clarification query(ies), %d finding(s) skipped\n",
				len(res.Queries), res.SkippedCount)

			written, err := clarification.ExportToFiles(res.Queries, exportDir)
			if err != nil {
				return fmt.Errorf("export queries: %w", err)
			}
			fmt.Printf("Exported %d query file(s) to %s\n", written, exportDir)
			return nil
		},
	}
	cmd.Flags().String("export-dir", "", "Directory for exported query files (defaults to EXPORT_DIR)")
	cmd.Flags().String("report-dir", "", "Directory for CSV summary reports (omit to skip)")
	cmd.Flags().String("site", "", "Site identifier used in generated queries (defaults to SITE_ID)")
	return cmd
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	apiV1 := e.Group("/api/v1")

	// Trial data CRUD
	trialSvc := trial.NewService(
		trial.NewPatientRepoPG(pool),
		trial.NewAdverseEventRepoPG(pool),
		trial.NewLabResultRepoPG(pool),
		trial.NewVisitRepoPG(pool),
	)
	trial.NewHandler(trialSvc).RegisterRoutes(apiV1)

	// Quality checks
	checker := quality.NewChecker(quality.NewRepoPG(pool))
	quality.NewHandler(checker).RegisterRoutes(apiV1)

	// Clarification workflow
	clarSvc := clarification.NewService(
		checker,
		clarification.NewGenerator(),
		clarification.NewRepoPG(pool),
		logger,
	)
	clarification.NewHandler(clarSvc, cfg.SiteID, cfg.ExportDir).RegisterRoutes(apiV1)

	// Ad-hoc read-only queries. No translation backend is wired yet, so the
	// endpoint accepts validated raw SQL only.
	nlquery.NewHandler(nil, nlquery.NewExecutor(pool)).RegisterRoutes(apiV1)

	// Reporting measures
	reporting.NewHandler(pool).RegisterRoutes(apiV1)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

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
