package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/accordhq/backend/internal/database"
	"github.com/accordhq/backend/internal/di"
	"github.com/accordhq/backend/internal/handler"
	"github.com/accordhq/backend/internal/server"
)

const sessionSweepInterval = 1 * time.Hour

func main() {
	_ = godotenv.Load()

	app, cleanup, err := di.InitializeApplication()
	if err != nil {
		panic(err)
	}
	defer cleanup()

	app.Logger.Info("Starting Accord API", "version", di.Version)

	migrationsPath := getMigrationsPath()
	if err := database.RunMigrations(app.DB, migrationsPath, app.Logger); err != nil {
		app.Logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	app.HealthHandler.Register(app.Server.App())
	app.SwaggerHandler.Register(app.Server.App())

	api := app.Server.App().Group(handler.APIPrefix)
	app.AuthHandler.Register(api, server.AuthRateLimiter())
	app.Gateway.Register(api, "")

	protected := api.Group("", app.AuthMiddleware.Require())
	app.AuthHandler.RegisterProtected(protected)
	app.SettingsHandler.RegisterProtected(protected)
	app.NotificationHandler.RegisterProtected(protected)
	app.SupportHandler.RegisterProtected(protected)
	app.EventsHandler.RegisterProtected(protected)

	stopSweeper := make(chan struct{})
	go sweepExpiredSessions(app, stopSweeper)

	go func() {
		if err := app.Server.Start(); err != nil {
			app.Logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	close(stopSweeper)

	if err := app.Server.Shutdown(); err != nil {
		app.Logger.Error("Server forced to shutdown", "error", err)
	}

	app.Logger.Info("Server stopped")
}

// sweepExpiredSessions periodically purges session rows past their expiry.
// Expired sessions already fail authentication; this only keeps the table
// from growing without bound.
func sweepExpiredSessions(app *di.Application, stop <-chan struct{}) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			deleted, err := app.Sessions.DeleteExpired(ctx)
			cancel()
			if err != nil {
				app.Logger.Warn("Failed to sweep expired sessions", "error", err)
				continue
			}
			if deleted > 0 {
				app.Logger.Info("Swept expired sessions", "deleted", deleted)
			}
		}
	}
}

func getMigrationsPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return "migrations"
	}

	execDir := filepath.Dir(execPath)

	possiblePaths := []string{
		filepath.Join(execDir, "migrations"),
		filepath.Join(execDir, "..", "..", "migrations"),
		"migrations",
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "migrations"
}
