package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"matchmaking/internal/config"
	"matchmaking/internal/delivery/http/handler"
	"matchmaking/internal/delivery/http/middleware"
	"matchmaking/internal/delivery/http/routes"
	"matchmaking/internal/pkg/jwt"
	"matchmaking/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

// Bootstrap wires the container, applies pending migrations when enabled and
// starts the websocket hub. The cleanup func stops the hub and closes storage.
func Bootstrap(cfg config.Config) (*App, func() error, error) {
	logger := NewLogger()

	c, err := NewContainer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Database.RunMigrations {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err := c.Migrate(ctx)
		cancel()
		if err != nil {
			_ = c.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	go c.Hub.Run(hubCtx)

	app := New(c)
	cleanup := func() error {
		stopHub()
		return c.Close()
	}
	return app, cleanup, nil
}

func registerGlobalMiddleware(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	accessMw := middleware.NewAccessLogMiddleware(c.Logger)
	errMw := middleware.NewErrorMiddleware(c.Logger)
	app.Use(accessMw.Middleware())
	app.Use(errMw.Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	var auth *middleware.AuthMiddleware
	if secret := strings.TrimSpace(c.Config.JWT.AccessSecret); secret != "" {
		auth = middleware.NewAuthMiddleware(jwt.NewHMACService(secret, c.Config.JWT.AccessExpiresIn, c.Config.App.AppName))
	} else {
		c.Logger.Printf("[App] JWT_ACCESS_SECRET not set, API routes are unauthenticated")
	}

	var cachePinger handler.Pinger
	if c.Redis.Available() {
		cachePinger = c.Redis
	}

	routes.NewRegistry(routes.Deps{
		Schedule: c.Schedule,
		Auth:     auth,
		Health:   handler.NewHealthHandler(c.DB, cachePinger),
		WS:       ws.NewHandler(c.Hub, c.Logger),
	}).Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
