package v1

import (
	"matchmaking/internal/delivery/http/handler"
	"matchmaking/internal/delivery/http/middleware"
	"matchmaking/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

func Register(r fiber.Router, uc usecase.ScheduleUsecase, auth *middleware.AuthMiddleware) {
	if r == nil {
		return
	}

	matchmakingHandler := handler.NewMatchmakingHandler(uc)
	eventHandler := handler.NewEventHandler(uc)

	protected := r
	var writeGuard fiber.Handler
	if auth != nil {
		protected = r.Group("", auth.Middleware())
		writeGuard = auth.RequireOrganizer()
	}

	// stateless endpoints touch no event data, so viewers may call them
	matchmakingHandler.RegisterRoutes(protected)
	eventHandler.RegisterRoutes(protected.Group("/events"), writeGuard)
}
