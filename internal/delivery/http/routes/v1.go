package routes

import (
	"matchmaking/internal/delivery/http/middleware"
	v1 "matchmaking/internal/delivery/http/routes/v1"
	"matchmaking/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

func RegisterV1(r fiber.Router, uc usecase.ScheduleUsecase, auth *middleware.AuthMiddleware) {
	if r == nil || uc == nil {
		return
	}

	v1.Register(r, uc, auth)
}
