package handler

import (
	"matchmaking/internal/delivery/http/dto"
	"matchmaking/internal/pkg/response"
	"matchmaking/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

// MatchmakingHandler exposes the engine on caller supplied snapshots. Nothing
// is read from or written to storage.
type MatchmakingHandler struct {
	uc usecase.ScheduleUsecase
}

func NewMatchmakingHandler(uc usecase.ScheduleUsecase) *MatchmakingHandler {
	return &MatchmakingHandler{uc: uc}
}

func (h *MatchmakingHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	grp := r.Group("/matchmaking")
	grp.Post("/rematch", h.Rematch)
	grp.Post("/audit", h.Audit)
	grp.Post("/autofix", h.AutoFix)
}

func (h *MatchmakingHandler) Rematch(c fiber.Ctx) error {
	var req dto.SnapshotRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	in := req.ToInput()
	out, err := h.uc.Plan(in)
	if err != nil {
		return mapScheduleUsecaseError(err)
	}
	conflicts, err := h.uc.Inspect(toSchedule(in.Slots, out.Matches))
	if err != nil {
		return mapScheduleUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewOutcomeResponse(in.Slots, out, conflicts))
}

func (h *MatchmakingHandler) Audit(c fiber.Ctx) error {
	var req dto.SnapshotRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	conflicts, err := h.uc.Inspect(req.ToSchedule())
	if err != nil {
		return mapScheduleUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewConflictsResponse(conflicts))
}

func (h *MatchmakingHandler) AutoFix(c fiber.Ctx) error {
	var req dto.SnapshotRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	res, err := h.uc.Repair(req.ToSchedule())
	if err != nil {
		return mapScheduleUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewFixResponse(res))
}
