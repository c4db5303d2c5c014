package routes

import (
	"matchmaking/internal/delivery/http/handler"
	"matchmaking/internal/delivery/http/middleware"
	"matchmaking/internal/usecase"
	"matchmaking/internal/ws"

	"github.com/gofiber/fiber/v3"
)

// Deps are the handlers' collaborators. Auth may be nil, which leaves every
// route open.
type Deps struct {
	Schedule usecase.ScheduleUsecase
	Auth     *middleware.AuthMiddleware
	Health   *handler.HealthHandler
	WS       *ws.Handler
}

type Registry struct {
	deps Deps
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerWS(app)
	r.registerAPI(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	if r.deps.Health != nil {
		r.deps.Health.RegisterRoutes(app)
	}
}

func (r *Registry) registerWS(app *fiber.App) {
	if r.deps.WS == nil {
		return
	}
	var grp fiber.Router
	if r.deps.Auth != nil {
		grp = app.Group("/ws", r.deps.Auth.Middleware())
	} else {
		grp = app.Group("/ws")
	}
	grp.Get("/events/:event_id", r.deps.WS.HandleEventWS)
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api")
	RegisterV1(api.Group("/v1"), r.deps.Schedule, r.deps.Auth)
}
