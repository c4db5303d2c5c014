package matching

import (
	"matchmaking/internal/domain/schedule"

	"github.com/google/uuid"
)

// DetectConflicts counts slot-exclusivity violations per slot: startups and
// targets booked more than once, plus members running meetings for more than
// one target at the same time. Slots without conflicts are omitted.
func DetectConflicts(s schedule.Schedule) (map[uuid.UUID]int, error) {
	if err := ValidateSlots(s.Slots); err != nil {
		return nil, err
	}
	bySlot := schedule.SlotIndex(s.Slots)
	for _, m := range s.Matches {
		if _, ok := bySlot[m.SlotID]; !ok {
			return nil, invalid("match %s: unknown slot %s", m.ID, m.SlotID)
		}
	}
	return countConflicts(s.Matches), nil
}

func countConflicts(matches []schedule.Match) map[uuid.UUID]int {
	type slotTally struct {
		startups map[uuid.UUID]int
		targets  map[uuid.UUID]int
		members  map[string]map[uuid.UUID]struct{}
	}
	tallies := map[uuid.UUID]*slotTally{}
	for _, m := range matches {
		t := tallies[m.SlotID]
		if t == nil {
			t = &slotTally{
				startups: map[uuid.UUID]int{},
				targets:  map[uuid.UUID]int{},
				members:  map[string]map[uuid.UUID]struct{}{},
			}
			tallies[m.SlotID] = t
		}
		t.startups[m.StartupID]++
		t.targets[m.TargetID]++
		k := m.MemberKey()
		if t.members[k] == nil {
			t.members[k] = map[uuid.UUID]struct{}{}
		}
		t.members[k][m.TargetID] = struct{}{}
	}

	out := map[uuid.UUID]int{}
	for slotID, t := range tallies {
		n := 0
		for _, c := range t.startups {
			if c > 1 {
				n++
			}
		}
		for _, c := range t.targets {
			if c > 1 {
				n++
			}
		}
		for _, targets := range t.members {
			if len(targets) > 1 {
				n++
			}
		}
		if n > 0 {
			out[slotID] = n
		}
	}
	return out
}

type Move struct {
	MatchID  uuid.UUID
	FromSlot uuid.UUID
	ToSlot   uuid.UUID
}

type FixResult struct {
	Schedule schedule.Schedule
	Moves    []Move
	// Unresolved lists matches still double-booked after the fix.
	Unresolved []uuid.UUID
	Conflicts  map[uuid.UUID]int
}

// AutoFix relocates movable double-booked matches to the nearest later slot
// where startup, target and member are all free. Locked and completed
// matches never move, and neither does anything already in a done slot.
// Passes repeat until nothing moves, which makes the result a fixed point.
func AutoFix(s schedule.Schedule) (FixResult, error) {
	if _, err := DetectConflicts(s); err != nil {
		return FixResult{}, err
	}

	slots := schedule.SortedSlots(s.Slots)
	matches := schedule.CloneMatches(s.Matches)

	var moves []Move
	var unresolved map[int]struct{}
	for {
		pass, stuck := fixPass(slots, matches)
		unresolved = stuck
		if len(pass) == 0 {
			break
		}
		moves = append(moves, pass...)
	}

	out := FixResult{
		Schedule:  schedule.Schedule{Slots: s.Slots, Matches: matches},
		Moves:     moves,
		Conflicts: countConflicts(matches),
	}
	for i := range matches {
		if _, ok := unresolved[i]; ok {
			out.Unresolved = append(out.Unresolved, matches[i].ID)
		}
	}
	return out, nil
}

type occupancy struct {
	startups map[uuid.UUID]map[uuid.UUID]int
	targets  map[uuid.UUID]map[uuid.UUID]int
	members  map[uuid.UUID]map[string]int
}

func newOccupancy(matches []schedule.Match) *occupancy {
	o := &occupancy{
		startups: map[uuid.UUID]map[uuid.UUID]int{},
		targets:  map[uuid.UUID]map[uuid.UUID]int{},
		members:  map[uuid.UUID]map[string]int{},
	}
	for _, m := range matches {
		o.add(m, 1)
	}
	return o
}

func (o *occupancy) add(m schedule.Match, d int) {
	if o.startups[m.SlotID] == nil {
		o.startups[m.SlotID] = map[uuid.UUID]int{}
		o.targets[m.SlotID] = map[uuid.UUID]int{}
		o.members[m.SlotID] = map[string]int{}
	}
	o.startups[m.SlotID][m.StartupID] += d
	o.targets[m.SlotID][m.TargetID] += d
	o.members[m.SlotID][m.MemberKey()] += d
}

func (o *occupancy) free(m schedule.Match, slotID uuid.UUID) bool {
	return o.startups[slotID][m.StartupID] == 0 &&
		o.targets[slotID][m.TargetID] == 0 &&
		o.members[slotID][m.MemberKey()] == 0
}

// fixPass walks slots in ordinal order once. It returns the moves made and
// the indexes of conflicting matches it could not relocate.
func fixPass(slots []schedule.TimeSlot, matches []schedule.Match) ([]Move, map[int]struct{}) {
	occ := newOccupancy(matches)

	perSlot := map[uuid.UUID][]int{}
	for i, m := range matches {
		perSlot[m.SlotID] = append(perSlot[m.SlotID], i)
	}

	var moves []Move
	stuck := map[int]struct{}{}
	for pos, slot := range slots {
		idxs := perSlot[slot.ID]

		// fixed matches claim the slot before movable ones get a say.
		ordered := make([]int, 0, len(idxs))
		for _, i := range idxs {
			if matches[i].Fixed() {
				ordered = append(ordered, i)
			}
		}
		for _, i := range idxs {
			if !matches[i].Fixed() {
				ordered = append(ordered, i)
			}
		}

		claimedS := map[uuid.UUID]bool{}
		claimedT := map[uuid.UUID]bool{}
		claimedM := map[string]bool{}
		for _, i := range ordered {
			m := matches[i]
			conflict := claimedS[m.StartupID] || claimedT[m.TargetID] || claimedM[m.MemberKey()]
			if !conflict {
				claimedS[m.StartupID] = true
				claimedT[m.TargetID] = true
				claimedM[m.MemberKey()] = true
				continue
			}
			if m.Fixed() || slot.IsDone {
				stuck[i] = struct{}{}
				continue
			}

			moved := false
			for _, later := range slots[pos+1:] {
				if later.IsDone || !occ.free(m, later.ID) {
					continue
				}
				occ.add(m, -1)
				matches[i].SlotID = later.ID
				matches[i].SlotLabel = later.Label
				occ.add(matches[i], 1)
				perSlot[later.ID] = append(perSlot[later.ID], i)
				moves = append(moves, Move{MatchID: m.ID, FromSlot: slot.ID, ToSlot: later.ID})
				moved = true
				break
			}
			if !moved {
				stuck[i] = struct{}{}
			}
		}
	}
	return moves, stuck
}
