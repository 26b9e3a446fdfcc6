package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/dmi-forecast/internal/api/http"
	"github.com/i474232898/dmi-forecast/internal/config"
	applog "github.com/i474232898/dmi-forecast/internal/log"
	"github.com/i474232898/dmi-forecast/internal/scheduler"
	"github.com/i474232898/dmi-forecast/internal/store"
	"github.com/i474232898/dmi-forecast/internal/weather"
	"github.com/i474232898/dmi-forecast/internal/weather/dmi"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:          "dmi-forecast",
		Short:        "DMI hourly forecast service",
		Long:         "Fetches the DMI 48-hour point forecast and serves range queries and slices over it",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sliceCmd())
	rootCmd.AddCommand(pointsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles what every subcommand needs.
type app struct {
	cfg     *config.AppConfig
	log     *zap.SugaredLogger
	service *weather.Service
}

func setup() (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := applog.New(cfg.Debug)
	if err != nil {
		return nil, err
	}

	// Shared HTTP client for the feed.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider := dmi.NewClient(httpClient, dmi.Config{
		BaseURL: cfg.BaseURL,
		AreaID:  cfg.AreaID,
		Parser:  cfg.Parser(),
	})

	memStore := store.NewMemoryStore(cfg.MaxAge)

	return &app{
		cfg:     cfg,
		log:     log,
		service: weather.NewService(memStore, provider, log),
	}, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the forecast API",
		Long:  "Refresh the forecast periodically and serve it over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.log.Sync()

			// Scheduler that periodically refreshes the forecast.
			sched := scheduler.New(a.cfg.FetchInterval, a.service, a.log)
			if err := sched.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			defer sched.Stop()

			server := fiber.New(fiber.Config{
				AppName:               "dmi-forecast",
				DisableStartupMessage: true,
				ReadTimeout:           10 * time.Second,
				WriteTimeout:          10 * time.Second,
				ErrorHandler: func(c *fiber.Ctx, err error) error {
					// Centralized error response
					code := fiber.StatusInternalServerError
					if e, ok := err.(*fiber.Error); ok {
						code = e.Code
					}
					return c.Status(code).JSON(fiber.Map{
						"error":   true,
						"message": err.Error(),
					})
				},
			})

			server.Use(logger.New())
			server.Use(recover.New())

			server.Get("/health", func(c *fiber.Ctx) error {
				return c.JSON(fiber.Map{
					"status":  "ok",
					"service": "dmi-forecast",
				})
			})

			httpapi.RegisterRoutes(server, a.service)

			a.log.Infow("listening", "port", a.cfg.Port, "area", a.cfg.AreaID, "band", a.cfg.PrecipitationBand)

			// Wait for termination signal
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return listen(ctx, server, ":"+a.cfg.Port, a.log)
		},
	}
}

// listen serves until ctx is done or the listener fails, then shuts the
// server down. A listener failure is returned instead of waiting for a signal.
func listen(ctx context.Context, server *fiber.App, addr string, log *zap.SugaredLogger) error {
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- server.Listen(addr)
	}()

	select {
	case <-ctx.Done():
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("fiber server stopped: %w", err)
		}
	}
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorw("error during shutdown", "error", err)
	}
	return nil
}
