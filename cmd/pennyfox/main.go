package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/PennyFox/internal/pkg/bootstrap"
	"github.com/ManuelReschke/PennyFox/internal/pkg/constants"
	"github.com/ManuelReschke/PennyFox/internal/pkg/env"
	"github.com/ManuelReschke/PennyFox/internal/pkg/metrics"
	"github.com/ManuelReschke/PennyFox/internal/pkg/router"
)

func main() {
	env.SetupEnvFile()

	deps, err := bootstrap.New(context.Background())
	if err != nil {
		log.Fatalf("[Main] Startup failed: %v", err)
	}
	defer deps.Close()

	if deps.Queue != nil && env.GetEnvBool("JOBQUEUE_ENABLED", true) {
		if err := deps.Jobs.Start(); err != nil {
			log.Fatalf("[Main] Job manager failed to start: %v", err)
		}
	} else {
		log.Warn("[Main] Job queue disabled, loans are refreshed on load only")
	}

	app := NewApplication(deps)

	go func() {
		addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
		if err := app.Listen(addr); err != nil {
			log.Errorf("[Main] Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("[Main] Shutting down...")
	if err := app.ShutdownWithTimeout(15 * time.Second); err != nil {
		log.Errorf("[Main] Shutdown error: %v", err)
	}
}

func NewApplication(deps *bootstrap.Container) *fiber.App {
	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/pennyfox to project root
		"../../../", // Fallback
	}

	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public/docs/v1/openapi.yml"); err == nil {
			basePath = path
			break
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      "PennyFox",
		BodyLimit:    1 << 20, // 1 MiB, JSON only
		ReadTimeout:  env.GetEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: env.GetEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:  env.GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
	})

	// recovery, logging and request metrics
	app.Use(recover.New(), logger.New(), metrics.Middleware())

	// SWAGGER / OPENAPI
	if basePath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: constants.DocsRoute,
			FilePath: basePath + "public/docs/v1/openapi.yml",
			Path:     "v1",
		}))
	} else {
		log.Warn("[Main] public/docs/v1/openapi.yml not found, API docs disabled")
	}

	// ROUTER
	router.InstallRouter(app, deps)

	return app
}
