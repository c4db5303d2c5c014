package dto

import (
	"fmt"
	"time"

	"matchmaking/internal/domain/matching"
	"matchmaking/internal/domain/schedule"
	"matchmaking/internal/usecase"

	"github.com/google/uuid"
)

type SlotResponse struct {
	ID        uuid.UUID `json:"id"`
	Ordinal   int       `json:"ordinal"`
	Label     string    `json:"label"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	IsDone    bool      `json:"is_done"`
	Conflicts int       `json:"conflicts"`
}

type MatchResponse struct {
	ID               uuid.UUID `json:"id"`
	StartupID        uuid.UUID `json:"startup_id"`
	TargetID         uuid.UUID `json:"target_id"`
	TargetKind       string    `json:"target_kind"`
	TargetMember     string    `json:"target_member"`
	SlotID           uuid.UUID `json:"slot_id"`
	SlotLabel        string    `json:"slot_label"`
	Score            int       `json:"score"`
	Breakdown        []string  `json:"breakdown"`
	Locked           bool      `json:"locked"`
	Completed        bool      `json:"completed"`
	StartupAttending bool      `json:"startup_attending"`
	TargetAttending  bool      `json:"target_attending"`
}

type ScheduleResponse struct {
	EventID       *uuid.UUID      `json:"event_id,omitempty"`
	EventName     string          `json:"event_name,omitempty"`
	Slots         []SlotResponse  `json:"slots"`
	Matches       []MatchResponse `json:"matches"`
	ConflictCount int             `json:"conflict_count"`
	Advisories    []string        `json:"advisories"`
}

type RematchResponse struct {
	ScheduleResponse
	Kept        int `json:"kept"`
	Created     int `json:"created"`
	Unscheduled int `json:"unscheduled"`
	Dropped     int `json:"dropped"`
}

type MoveResponse struct {
	MatchID  uuid.UUID `json:"match_id"`
	FromSlot uuid.UUID `json:"from_slot"`
	ToSlot   uuid.UUID `json:"to_slot"`
}

type AutoFixResponse struct {
	ScheduleResponse
	Moves      []MoveResponse `json:"moves"`
	Unresolved []uuid.UUID    `json:"unresolved"`
}

type ConflictsResponse struct {
	Slots         map[uuid.UUID]int `json:"slots"`
	ConflictCount int               `json:"conflict_count"`
	Advisories    []string          `json:"advisories"`
}

type MatchUpdateResponse struct {
	Match      MatchResponse `json:"match"`
	Conflicts  int           `json:"conflicts"`
	Advisories []string      `json:"advisories"`
}

type BatchRematchItem struct {
	EventID     uuid.UUID `json:"event_id"`
	Error       string    `json:"error,omitempty"`
	Matches     int       `json:"matches"`
	Created     int       `json:"created"`
	Unscheduled int       `json:"unscheduled"`
}

func NewMatchResponse(m schedule.Match) MatchResponse {
	breakdown := m.Breakdown
	if breakdown == nil {
		breakdown = []string{}
	}
	return MatchResponse{
		ID:               m.ID,
		StartupID:        m.StartupID,
		TargetID:         m.TargetID,
		TargetKind:       string(m.TargetKind),
		TargetMember:     m.TargetMember,
		SlotID:           m.SlotID,
		SlotLabel:        m.SlotLabel,
		Score:            m.Score,
		Breakdown:        breakdown,
		Locked:           m.Locked,
		Completed:        m.Completed,
		StartupAttending: m.StartupAttending,
		TargetAttending:  m.TargetAttending,
	}
}

func totalConflicts(conflicts map[uuid.UUID]int) int {
	n := 0
	for _, c := range conflicts {
		n += c
	}
	return n
}

// NewScheduleResponse renders slots in ordinal order with their conflict
// counts. unscheduled feeds the advisory line only.
func NewScheduleResponse(slots []schedule.TimeSlot, matches []schedule.Match, conflicts map[uuid.UUID]int, unscheduled int) ScheduleResponse {
	resp := ScheduleResponse{
		Slots:         make([]SlotResponse, 0, len(slots)),
		Matches:       make([]MatchResponse, 0, len(matches)),
		ConflictCount: totalConflicts(conflicts),
	}
	for _, s := range schedule.SortedSlots(slots) {
		resp.Slots = append(resp.Slots, SlotResponse{
			ID: s.ID, Ordinal: s.Ordinal, Label: s.Label,
			StartTime: s.StartTime, EndTime: s.EndTime, IsDone: s.IsDone,
			Conflicts: conflicts[s.ID],
		})
	}
	for _, m := range matches {
		resp.Matches = append(resp.Matches, NewMatchResponse(m))
	}
	resp.Advisories = Advisories(unscheduled, resp.ConflictCount)
	return resp
}

func Advisories(unscheduled, conflicts int) []string {
	out := []string{}
	if unscheduled > 0 {
		out = append(out, fmt.Sprintf("%d meetings could not be scheduled", unscheduled))
	}
	if conflicts > 0 {
		out = append(out, fmt.Sprintf("%d conflicts remain", conflicts))
	}
	return out
}

func NewEventScheduleResponse(v usecase.ScheduleView, unscheduled int) ScheduleResponse {
	resp := NewScheduleResponse(v.Slots, v.Matches, v.Conflicts, unscheduled)
	id := v.EventID
	resp.EventID = &id
	resp.EventName = v.EventName
	return resp
}

func NewRematchResponse(r usecase.RematchResult) RematchResponse {
	return RematchResponse{
		ScheduleResponse: NewEventScheduleResponse(r.Schedule, r.Unscheduled),
		Kept:             r.Kept,
		Created:          r.Created,
		Unscheduled:      r.Unscheduled,
		Dropped:          r.Dropped,
	}
}

func NewOutcomeResponse(slots []schedule.TimeSlot, out matching.Outcome, conflicts map[uuid.UUID]int) RematchResponse {
	return RematchResponse{
		ScheduleResponse: NewScheduleResponse(slots, out.Matches, conflicts, out.Unscheduled),
		Kept:             out.Kept,
		Created:          out.Created,
		Unscheduled:      out.Unscheduled,
		Dropped:          len(out.Dropped),
	}
}

func newMoves(moves []matching.Move) []MoveResponse {
	out := make([]MoveResponse, 0, len(moves))
	for _, m := range moves {
		out = append(out, MoveResponse{MatchID: m.MatchID, FromSlot: m.FromSlot, ToSlot: m.ToSlot})
	}
	return out
}

func unresolvedOrEmpty(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

func NewFixResponse(res matching.FixResult) AutoFixResponse {
	return AutoFixResponse{
		ScheduleResponse: NewScheduleResponse(res.Schedule.Slots, res.Schedule.Matches, res.Conflicts, 0),
		Moves:            newMoves(res.Moves),
		Unresolved:       unresolvedOrEmpty(res.Unresolved),
	}
}

func NewEventFixResponse(res usecase.AutoFixResult) AutoFixResponse {
	return AutoFixResponse{
		ScheduleResponse: NewEventScheduleResponse(res.Schedule, 0),
		Moves:            newMoves(res.Moves),
		Unresolved:       unresolvedOrEmpty(res.Unresolved),
	}
}

func NewConflictsResponse(conflicts map[uuid.UUID]int) ConflictsResponse {
	if conflicts == nil {
		conflicts = map[uuid.UUID]int{}
	}
	n := totalConflicts(conflicts)
	return ConflictsResponse{Slots: conflicts, ConflictCount: n, Advisories: Advisories(0, n)}
}

func NewMatchUpdateResponse(u usecase.MatchUpdate) MatchUpdateResponse {
	return MatchUpdateResponse{
		Match:      NewMatchResponse(u.Match),
		Conflicts:  u.Conflicts,
		Advisories: Advisories(0, u.Conflicts),
	}
}

func NewBatchRematchResponse(results []usecase.BatchResult) []BatchRematchItem {
	out := make([]BatchRematchItem, 0, len(results))
	for _, r := range results {
		item := BatchRematchItem{EventID: r.EventID}
		if r.Err != nil {
			item.Error = r.Err.Error()
		} else {
			item.Matches = len(r.Result.Schedule.Matches)
			item.Created = r.Result.Created
			item.Unscheduled = r.Result.Unscheduled
		}
		out = append(out, item)
	}
	return out
}
