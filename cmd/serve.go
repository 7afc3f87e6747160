package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"spx-premium-scanner/controllers"
	"spx-premium-scanner/services"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and, when enabled, the scan alert scheduler",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			a.cfg.HTTPAddr = addr
		}
		if cmd.Flags().Changed("scheduler") {
			a.cfg.SchedulerEnabled, _ = cmd.Flags().GetBool("scheduler")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := a.scans.Logger()

		if a.cfg.SchedulerEnabled {
			scheduler := services.NewAlertScheduler(a.scans, a.calendar, a.cfg.MarketTimezone, services.DefaultAlertSlots)
			a.setLogLevel(scheduler.Logger())
			go scheduler.Run(ctx)
		}

		if a.cfg.LogLevel < logrus.DebugLevel {
			gin.SetMode(gin.ReleaseMode)
		}

		scanController := controllers.NewScanController(a.scans, a.quotes, a.storage)
		orderController := controllers.NewOrderController(a.orders, a.scans)
		a.setLogLevel(scanController.Logger(), orderController.Logger())

		srv := &http.Server{
			Addr: a.cfg.HTTPAddr,
			Handler: controllers.SetupRouter(
				scanController,
				orderController,
				controllers.NewJournalController(a.journal),
			),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		}

		go func() {
			<-ctx.Done()
			logger.Info("Shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Error during shutdown")
			}
		}()

		logger.WithFields(logrus.Fields{
			"addr":      a.cfg.HTTPAddr,
			"provider":  a.cfg.DataProvider,
			"scheduler": a.cfg.SchedulerEnabled,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}),
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides HTTP_ADDR)")
	serveCmd.Flags().Bool("scheduler", false, "Run the scan alert scheduler (overrides SCHEDULER_ENABLED)")
}
