package handler

import (
	"matchmaking/internal/delivery/http/dto"
	"matchmaking/internal/domain/schedule"
	"matchmaking/internal/pkg/response"
	"matchmaking/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type EventHandler struct {
	uc usecase.ScheduleUsecase
}

func NewEventHandler(uc usecase.ScheduleUsecase) *EventHandler {
	return &EventHandler{uc: uc}
}

// RegisterRoutes mounts the event routes on r. writeGuard, when set, runs in
// front of every mutating route only; group middleware would cover reads too.
func (h *EventHandler) RegisterRoutes(r fiber.Router, writeGuard fiber.Handler) {
	if r == nil {
		return
	}
	write := func(method, path string, fn fiber.Handler) {
		if writeGuard != nil {
			r.Add([]string{method}, path, writeGuard, fn)
			return
		}
		r.Add([]string{method}, path, fn)
	}

	r.Get("/:event_id/schedule", h.GetSchedule)
	r.Get("/:event_id/conflicts", h.GetConflicts)

	write(fiber.MethodPost, "/rematch", h.RematchMany)
	write(fiber.MethodPut, "/:event_id/roster", h.SaveRoster)
	write(fiber.MethodPost, "/:event_id/rematch", h.Rematch)
	write(fiber.MethodPost, "/:event_id/autofix", h.AutoFix)
	write(fiber.MethodPatch, "/:event_id/matches/:match_id/lock", h.SetLocked)
	write(fiber.MethodPatch, "/:event_id/matches/:match_id/complete", h.SetCompleted)
	write(fiber.MethodPatch, "/:event_id/matches/:match_id/attendance", h.SetAttendance)
	write(fiber.MethodPut, "/:event_id/matches/:match_id/slot", h.MoveMatch)
	write(fiber.MethodPatch, "/:event_id/slots/:slot_id/done", h.SetSlotDone)
}

func (h *EventHandler) GetSchedule(c fiber.Ctx) error {
	eventID, err := uuidParam(c, "event_id")
	if err != nil {
		return err
	}
	view, err := h.uc.GetSchedule(c.Context(), eventID)
	if err != nil {
		return mapScheduleUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewEventScheduleResponse(view, 0))
}

func (h *EventHandler) GetConflicts(c fiber.Ctx) error {
	eventID, err := uuidParam(c, "event_id")
	if err != nil {
		return err
	}
	view, err := h.uc.GetSchedule(c.Context(), eventID)
	if err != nil {
		return mapScheduleUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewConflictsResponse(view.Conflicts))
}

func (h *EventHandler) SaveRoster(c fiber.Ctx) error {
	eventID, err := uuidParam(c, "event_id")
	if err != nil {
		return err
	}
	var req dto.RosterRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	if err := h.uc.SaveRoster(c.Context(), eventID, req.ToDomain()); err != nil {
		return mapScheduleUsecaseError(err)
	}
	view, err := h.uc.GetSchedule(c.Context(), eventID)
	if err != nil {
		return mapScheduleUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewEventScheduleResponse(view, 0))
}

func (h *EventHandler) Rematch(c fiber.Ctx) error {
	eventID, err := uuidParam(c, "event_id")
	if err != nil {
		return err
	}
	var req dto.RematchRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return badRequest(err)
		}
	}
	res, err := h.uc.Rematch(c.Context(), eventID, usecase.RematchParams{
		MaxMeetingsPerStartup: req.MaxMeetingsPerStartup,
		MemberNameFilter:      req.MemberNameFilter,
	})
	if err != nil {
		return mapScheduleUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewRematchResponse(res))
}

func (h *EventHandler) RematchMany(c fiber.Ctx) error {
	var req dto.BatchRematchRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return badRequest(err)
		}
	}
	results, err := h.uc.RematchMany(c.Context(), req.EventIDs, usecase.RematchParams{
		MaxMeetingsPerStartup: req.MaxMeetingsPerStartup,
		MemberNameFilter:      req.MemberNameFilter,
	})
	if err != nil {
		return mapScheduleUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewBatchRematchResponse(results))
}

func (h *EventHandler) AutoFix(c fiber.Ctx) error {
	eventID, err := uuidParam(c, "event_id")
	if err != nil {
		return err
	}
	res, err := h.uc.AutoFix(c.Context(), eventID)
	if err != nil {
		return mapScheduleUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewEventFixResponse(res))
}

func (h *EventHandler) matchIDs(c fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	eventID, err := uuidParam(c, "event_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	matchID, err := uuidParam(c, "match_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return eventID, matchID, nil
}

func (h *EventHandler) matchUpdated(c fiber.Ctx, upd usecase.MatchUpdate, err error) error {
	if err != nil {
		return mapScheduleUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewMatchUpdateResponse(upd))
}

func (h *EventHandler) SetLocked(c fiber.Ctx) error {
	eventID, matchID, err := h.matchIDs(c)
	if err != nil {
		return err
	}
	var req dto.LockRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	upd, err := h.uc.SetLocked(c.Context(), eventID, matchID, req.Locked)
	return h.matchUpdated(c, upd, err)
}

func (h *EventHandler) SetCompleted(c fiber.Ctx) error {
	eventID, matchID, err := h.matchIDs(c)
	if err != nil {
		return err
	}
	var req dto.CompleteRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	upd, err := h.uc.SetCompleted(c.Context(), eventID, matchID, req.Completed)
	return h.matchUpdated(c, upd, err)
}

func (h *EventHandler) SetAttendance(c fiber.Ctx) error {
	eventID, matchID, err := h.matchIDs(c)
	if err != nil {
		return err
	}
	var req dto.AttendanceRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	upd, err := h.uc.SetAttendance(c.Context(), eventID, matchID, usecase.AttendanceUpdate{
		StartupAttending: req.StartupAttending,
		TargetAttending:  req.TargetAttending,
	})
	return h.matchUpdated(c, upd, err)
}

func (h *EventHandler) MoveMatch(c fiber.Ctx) error {
	eventID, matchID, err := h.matchIDs(c)
	if err != nil {
		return err
	}
	var req dto.MoveRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	upd, err := h.uc.MoveMatch(c.Context(), eventID, matchID, req.SlotID)
	return h.matchUpdated(c, upd, err)
}

func (h *EventHandler) SetSlotDone(c fiber.Ctx) error {
	eventID, err := uuidParam(c, "event_id")
	if err != nil {
		return err
	}
	slotID, err := uuidParam(c, "slot_id")
	if err != nil {
		return err
	}
	var req dto.SlotDoneRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	if err := h.uc.SetSlotDone(c.Context(), eventID, slotID, req.IsDone); err != nil {
		return mapScheduleUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, fiber.Map{"slot_id": slotID, "is_done": req.IsDone})
}

func toSchedule(slots []schedule.TimeSlot, matches []schedule.Match) schedule.Schedule {
	return schedule.Schedule{Slots: slots, Matches: matches}
}
