package schedule

import (
	"sort"
	"time"

	"matchmaking/internal/domain/participant"

	"github.com/google/uuid"
)

type TimeSlot struct {
	ID        uuid.UUID
	Ordinal   int
	Label     string
	StartTime time.Time
	EndTime   time.Time
	IsDone    bool
}

type Match struct {
	ID           uuid.UUID
	StartupID    uuid.UUID
	TargetID     uuid.UUID
	TargetKind   participant.TargetKind
	TargetMember string
	SlotID       uuid.UUID
	SlotLabel    string
	Score        int
	Breakdown    []string
	Locked       bool
	Completed    bool

	StartupAttending bool
	TargetAttending  bool
}

// Fixed reports whether no engine pass may alter the match.
func (m Match) Fixed() bool {
	return m.Locked || m.Completed
}

func (m Match) Pair() PairKey {
	return PairKey{StartupID: m.StartupID, TargetID: m.TargetID}
}

func (m Match) MemberKey() string {
	return participant.MemberKey(m.TargetID, m.TargetMember)
}

type PairKey struct {
	StartupID uuid.UUID
	TargetID  uuid.UUID
}

type Schedule struct {
	Slots   []TimeSlot
	Matches []Match
}

// SortedSlots returns a copy of slots ordered by ordinal.
func SortedSlots(slots []TimeSlot) []TimeSlot {
	out := make([]TimeSlot, len(slots))
	copy(out, slots)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out
}

func SlotIndex(slots []TimeSlot) map[uuid.UUID]TimeSlot {
	out := make(map[uuid.UUID]TimeSlot, len(slots))
	for _, s := range slots {
		out[s.ID] = s
	}
	return out
}

// CloneMatches deep-copies matches so callers can mutate the result without
// touching the input snapshot.
func CloneMatches(in []Match) []Match {
	out := make([]Match, len(in))
	for i, m := range in {
		out[i] = m
		if m.Breakdown != nil {
			out[i].Breakdown = append([]string(nil), m.Breakdown...)
		}
	}
	return out
}
