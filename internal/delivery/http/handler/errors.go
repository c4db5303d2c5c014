package handler

import (
	"errors"

	"matchmaking/internal/delivery/http/middleware"
	"matchmaking/internal/pkg/response"
	"matchmaking/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type errorDetail struct {
	Detail string `json:"detail"`
}

func mapScheduleUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusUnprocessableEntity, "Invalid schedule input", errorDetail{Detail: err.Error()}, err)
	case errors.Is(err, usecase.ErrEventNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Event not found", nil, err)
	case errors.Is(err, usecase.ErrMatchNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Match not found", nil, err)
	case errors.Is(err, usecase.ErrSlotNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Slot not found", nil, err)
	case errors.Is(err, usecase.ErrMatchFixed):
		return middleware.NewAppError(fiber.StatusConflict, "Match is locked or completed", nil, err)
	case errors.Is(err, usecase.ErrEventBusy):
		return middleware.NewAppError(fiber.StatusConflict, "Event schedule is being updated, retry shortly", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}

func badRequest(err error) error {
	return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", errorDetail{Detail: err.Error()}, err)
}

func uuidParam(c fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, middleware.NewAppError(fiber.StatusBadRequest, "Invalid "+name, nil, err)
	}
	return id, nil
}
