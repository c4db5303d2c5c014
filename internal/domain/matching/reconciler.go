package matching

import (
	"bytes"
	"sort"

	"matchmaking/internal/domain/participant"
	"matchmaking/internal/domain/schedule"

	"github.com/google/uuid"
)

type Partitioned struct {
	Keep        []schedule.Match
	Discardable []schedule.Match
	// Dropped reference a participant that is no longer on the roster.
	Dropped []schedule.Match
}

// Partition splits a previous schedule into matches that survive a rematch
// and matches the allocator may replace. Matches sitting in a done slot are
// kept alongside locked and completed ones.
func Partition(previous []schedule.Match, startups []participant.Startup, targets []participant.Target, slots []schedule.TimeSlot) Partitioned {
	startupIDs := make(map[uuid.UUID]struct{}, len(startups))
	for _, s := range startups {
		startupIDs[s.ID] = struct{}{}
	}
	targetIDs := make(map[uuid.UUID]struct{}, len(targets))
	for _, t := range targets {
		targetIDs[t.ID] = struct{}{}
	}
	bySlot := schedule.SlotIndex(slots)

	var out Partitioned
	for _, m := range previous {
		_, okS := startupIDs[m.StartupID]
		_, okT := targetIDs[m.TargetID]
		if !okS || !okT {
			out.Dropped = append(out.Dropped, m)
			continue
		}
		if m.Fixed() || bySlot[m.SlotID].IsDone {
			out.Keep = append(out.Keep, m)
			continue
		}
		out.Discardable = append(out.Discardable, m)
	}
	return out
}

// Reconcile merges kept matches with a fresh allocation. Allocated matches
// whose pair already exists in keep are discarded.
func Reconcile(keep, allocated []schedule.Match) []schedule.Match {
	out := make([]schedule.Match, 0, len(keep)+len(allocated))
	seen := make(map[schedule.PairKey]struct{}, len(keep)+len(allocated))
	for _, m := range keep {
		seen[m.Pair()] = struct{}{}
		out = append(out, m)
	}
	for _, m := range allocated {
		if _, dup := seen[m.Pair()]; dup {
			continue
		}
		seen[m.Pair()] = struct{}{}
		out = append(out, m)
	}
	return out
}

type Input struct {
	Startups []participant.Startup
	Targets  []participant.Target
	Slots    []schedule.TimeSlot
	Previous []schedule.Match
	Options  Options
}

type Outcome struct {
	Matches []schedule.Match
	// Kept counts previous matches carried over untouched.
	Kept int
	// Created counts matches placed by this run.
	Created int
	// Unscheduled counts eligible pairs that found no admissible slot.
	Unscheduled int
	Dropped     []schedule.Match
}

// Engine runs a full rematch with a fixed scorer.
type Engine struct {
	scorer *Scorer
}

func NewEngine(w Weights) *Engine {
	return &Engine{scorer: NewScorer(w)}
}

// Rematch validates the snapshot, preserves fixed matches, allocates the rest
// and returns the whole new schedule. Invalid input aborts the run.
func (e *Engine) Rematch(in Input) (Outcome, error) {
	if err := ValidateSlots(in.Slots); err != nil {
		return Outcome{}, err
	}
	if err := ValidateStartups(in.Startups); err != nil {
		return Outcome{}, err
	}
	if err := ValidateTargets(in.Targets); err != nil {
		return Outcome{}, err
	}
	if err := ValidateMatches(in.Previous, in.Slots); err != nil {
		return Outcome{}, err
	}

	parts := Partition(schedule.CloneMatches(in.Previous), in.Startups, in.Targets, in.Slots)
	seed := UsageOf(parts.Keep)

	pairs := EligiblePairs(in.Startups, in.Targets, seed, in.Options, e.scorer)
	allocated := Allocate(pairs, in.Slots, seed, in.Options)

	matches := Reconcile(parts.Keep, allocated)
	SortSchedule(matches, in.Slots)

	return Outcome{
		Matches:     matches,
		Kept:        len(parts.Keep),
		Created:     len(allocated),
		Unscheduled: len(pairs) - len(allocated),
		Dropped:     parts.Dropped,
	}, nil
}

// SortSchedule orders matches by slot ordinal, then startup and target id.
func SortSchedule(matches []schedule.Match, slots []schedule.TimeSlot) {
	bySlot := schedule.SlotIndex(slots)
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		oa, ob := bySlot[a.SlotID].Ordinal, bySlot[b.SlotID].Ordinal
		if oa != ob {
			return oa < ob
		}
		if c := bytes.Compare(a.StartupID[:], b.StartupID[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(a.TargetID[:], b.TargetID[:]) < 0
	})
}
