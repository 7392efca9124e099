package api

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"codeit-chatbot/docs"
	"codeit-chatbot/internal/api/handlers"
	"codeit-chatbot/internal/dto"
	"codeit-chatbot/pkg/config"
	"codeit-chatbot/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

const corsAllMethods = "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS"

func SetupRouter(
	chatHandler *handlers.ChatHandler,
	cfg *config.Config,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(dto.ErrorResponse{
				Detail: err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	// Any method and any header. An empty AllowHeaders echoes the preflight's
	// requested headers, which also works for credentialed requests where a
	// literal "*" does not.
	allowMethods := "*"
	if cfg.CORS.AllowCredentials {
		allowMethods = corsAllMethods
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.CORS.Origins, ","),
		AllowCredentials: cfg.CORS.AllowCredentials,
		AllowMethods:     allowMethods,
		AllowHeaders:     "",
	}))
	app.Use(middleware.RequestLogger(appLogger))

	// Importing docs registers the swagger document.
	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", handlers.Health)
	app.Post("/chat", chatHandler.Chat)

	// Optional web client
	if webStaticPath := findWebStaticPath(appLogger); webStaticPath != "" {
		appLogger.Info("Serving web client", zap.String("path", webStaticPath))
		app.Static("/", webStaticPath)
	}

	return app
}

// findWebStaticPath looks for a built web client next to the working directory.
func findWebStaticPath(logger *zap.Logger) string {
	paths := []string{
		"web/static",
		"../web/static",
		"../../web/static",
	}

	for _, path := range paths {
		if fileExists(filepath.Join(path, "index.html")) {
			return path
		}
		logger.Debug("Web client not found", zap.String("path", path))
	}

	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
