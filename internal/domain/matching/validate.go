package matching

import (
	"errors"
	"fmt"

	"matchmaking/internal/domain/participant"
	"matchmaking/internal/domain/schedule"

	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func ValidateSlots(slots []schedule.TimeSlot) error {
	ids := make(map[uuid.UUID]struct{}, len(slots))
	ordinals := make(map[int]struct{}, len(slots))
	for i, s := range slots {
		if s.ID == uuid.Nil {
			return invalid("slot[%d]: missing id", i)
		}
		if _, dup := ids[s.ID]; dup {
			return invalid("slot %s: duplicate id", s.ID)
		}
		ids[s.ID] = struct{}{}
		if _, dup := ordinals[s.Ordinal]; dup {
			return invalid("slot %s: duplicate ordinal %d", s.ID, s.Ordinal)
		}
		ordinals[s.Ordinal] = struct{}{}
		if s.StartTime.IsZero() || s.EndTime.IsZero() {
			return invalid("slot %s: missing start/end time", s.ID)
		}
		if !s.EndTime.After(s.StartTime) {
			return invalid("slot %s: end time not after start time", s.ID)
		}
	}
	return nil
}

func ValidateStartups(startups []participant.Startup) error {
	ids := make(map[uuid.UUID]struct{}, len(startups))
	for i, s := range startups {
		if s.ID == uuid.Nil {
			return invalid("startup[%d]: missing id", i)
		}
		if _, dup := ids[s.ID]; dup {
			return invalid("startup %s: duplicate id", s.ID)
		}
		ids[s.ID] = struct{}{}
		if !s.Attendance.Valid() {
			return invalid("startup %s: unknown attendance %q", s.ID, s.Attendance)
		}
		if s.FundingTarget < 0 {
			return invalid("startup %s: negative funding target", s.ID)
		}
	}
	return nil
}

func ValidateTargets(targets []participant.Target) error {
	ids := make(map[uuid.UUID]struct{}, len(targets))
	for i, t := range targets {
		if t.ID == uuid.Nil {
			return invalid("target[%d]: missing id", i)
		}
		if _, dup := ids[t.ID]; dup {
			return invalid("target %s: duplicate id", t.ID)
		}
		ids[t.ID] = struct{}{}
		if !t.Kind.Valid() {
			return invalid("target %s: unknown kind %q", t.ID, t.Kind)
		}
		if t.Profile != nil && t.Profile.Kind() != t.Kind {
			return invalid("target %s: %s profile on %s target", t.ID, t.Profile.Kind(), t.Kind)
		}
		if t.TotalSlots < 0 {
			return invalid("target %s: negative capacity", t.ID)
		}
		if !t.Attendance.Valid() {
			return invalid("target %s: unknown attendance %q", t.ID, t.Attendance)
		}
		if inv, ok := t.Profile.(participant.InvestorProfile); ok {
			if inv.MinTicketSize < 0 || inv.MaxTicketSize < 0 {
				return invalid("target %s: negative ticket size", t.ID)
			}
			if inv.MaxTicketSize > 0 && inv.MinTicketSize > inv.MaxTicketSize {
				return invalid("target %s: min ticket size above max", t.ID)
			}
		}
	}
	return nil
}

// ValidateMatches checks matches against the slot list: every match needs a
// known slot, ids and (startup, target) pairs must be unique.
func ValidateMatches(matches []schedule.Match, slots []schedule.TimeSlot) error {
	bySlot := schedule.SlotIndex(slots)
	ids := make(map[uuid.UUID]struct{}, len(matches))
	pairs := make(map[schedule.PairKey]struct{}, len(matches))
	for i, m := range matches {
		if m.ID == uuid.Nil {
			return invalid("match[%d]: missing id", i)
		}
		if _, dup := ids[m.ID]; dup {
			return invalid("match %s: duplicate id", m.ID)
		}
		ids[m.ID] = struct{}{}
		if m.StartupID == uuid.Nil || m.TargetID == uuid.Nil {
			return invalid("match %s: missing participant reference", m.ID)
		}
		if _, ok := bySlot[m.SlotID]; !ok {
			return invalid("match %s: unknown slot %s", m.ID, m.SlotID)
		}
		if _, dup := pairs[m.Pair()]; dup {
			return invalid("match %s: startup %s already meets target %s", m.ID, m.StartupID, m.TargetID)
		}
		pairs[m.Pair()] = struct{}{}
		if m.Score < 0 || m.Score > 100 {
			return invalid("match %s: score %d out of range", m.ID, m.Score)
		}
	}
	return nil
}
