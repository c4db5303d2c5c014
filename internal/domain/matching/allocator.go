package matching

import (
	"bytes"
	"sort"

	"matchmaking/internal/domain/schedule"

	"github.com/google/uuid"
)

// matchNamespace derives stable match ids from the (startup, target) pair so
// identical inputs always produce identical output.
var matchNamespace = uuid.MustParse("6f1d7c8e-2a4b-4f8e-9c3d-5b7a1e0f2d64")

func MatchID(startupID, targetID uuid.UUID) uuid.UUID {
	name := make([]byte, 0, 32)
	name = append(name, startupID[:]...)
	name = append(name, targetID[:]...)
	return uuid.NewSHA1(matchNamespace, name)
}

// SortPairs orders pairs by score descending, then startup id and target id
// ascending.
func SortPairs(pairs []Pair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if a.Result.Score != b.Result.Score {
			return a.Result.Score > b.Result.Score
		}
		if c := bytes.Compare(a.Startup.ID[:], b.Startup.ID[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(a.Target.ID[:], b.Target.ID[:]) < 0
	})
}

// Allocate places eligible pairs into slots in one greedy, score-first pass.
// seed is left untouched; pairs with no admissible slot are skipped.
func Allocate(pairs []Pair, slots []schedule.TimeSlot, seed *Usage, opts Options) []schedule.Match {
	usage := NewUsage()
	if seed != nil {
		usage = seed.Clone()
	}

	ordered := make([]Pair, len(pairs))
	copy(ordered, pairs)
	SortPairs(ordered)

	open := make([]schedule.TimeSlot, 0, len(slots))
	for _, s := range schedule.SortedSlots(slots) {
		if !s.IsDone {
			open = append(open, s)
		}
	}

	out := make([]schedule.Match, 0)
	if len(open) == 0 {
		return out
	}

	for _, p := range ordered {
		if usage.HasPair(p.Startup.ID, p.Target.ID) {
			continue
		}
		if p.Target.Capacity()-usage.Committed(p.Target.ID) <= 0 {
			continue
		}
		if opts.MaxMeetingsPerStartup > 0 && usage.Meetings(p.Startup.ID) >= opts.MaxMeetingsPerStartup {
			continue
		}

		memberKey := p.Target.MemberKey()
		for _, slot := range open {
			if usage.StartupBusy(p.Startup.ID, slot.ID) || usage.TargetBusy(p.Target.ID, slot.ID) {
				continue
			}
			if usage.MemberBusy(memberKey, slot.ID) {
				continue
			}
			if !p.Startup.Availability.Allows(slot.ID) || !p.Target.Availability.Allows(slot.ID) {
				continue
			}

			m := schedule.Match{
				ID:               MatchID(p.Startup.ID, p.Target.ID),
				StartupID:        p.Startup.ID,
				TargetID:         p.Target.ID,
				TargetKind:       p.Target.Kind,
				TargetMember:     p.Target.MemberName,
				SlotID:           slot.ID,
				SlotLabel:        slot.Label,
				Score:            p.Result.Score,
				Breakdown:        append([]string(nil), p.Result.Breakdown...),
				StartupAttending: true,
				TargetAttending:  true,
			}
			usage.Reserve(m)
			out = append(out, m)
			break
		}
	}
	return out
}
