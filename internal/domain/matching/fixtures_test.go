package matching

import (
	"fmt"
	"testing"
	"time"

	"matchmaking/internal/domain/participant"
	"matchmaking/internal/domain/schedule"

	"github.com/google/uuid"
)

var eventStart = time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)

func testID(prefix, n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("%08d-0000-0000-0000-%012d", prefix, n))
}

func startupID(n int) uuid.UUID { return testID(10000000, n) }
func targetID(n int) uuid.UUID  { return testID(20000000, n) }
func slotID(n int) uuid.UUID    { return testID(30000000, n) }

func makeSlots(n int) []schedule.TimeSlot {
	out := make([]schedule.TimeSlot, 0, n)
	for i := 1; i <= n; i++ {
		start := eventStart.Add(time.Duration(i-1) * 20 * time.Minute)
		out = append(out, schedule.TimeSlot{
			ID:        slotID(i),
			Ordinal:   i,
			Label:     fmt.Sprintf("Slot %d", i),
			StartTime: start,
			EndTime:   start.Add(15 * time.Minute),
		})
	}
	return out
}

func aiStartup(n int) participant.Startup {
	return participant.Startup{
		ID:            startupID(n),
		CompanyName:   fmt.Sprintf("Startup %d", n),
		Industry:      "AI/ML",
		FundingStage:  "Seed",
		FundingTarget: 500_000,
		GeoMarkets:    []string{"Europe"},
		Attendance:    participant.AttendancePresent,
	}
}

func aiInvestor(n, slots int) participant.Target {
	return participant.Target{
		ID:                  targetID(n),
		Kind:                participant.KindInvestor,
		DisplayName:         fmt.Sprintf("Fund %d", n),
		MemberName:          fmt.Sprintf("Partner %d", n),
		GeoFocus:            []string{"Europe", "North America"},
		IndustryPreferences: []string{"AI/ML"},
		TotalSlots:          slots,
		Attendance:          participant.AttendancePresent,
		Profile: participant.InvestorProfile{
			StagePreferences: []string{"Seed", "Series A"},
			MinTicketSize:    100_000,
			MaxTicketSize:    1_000_000,
		},
	}
}

func mentor(n, slots int) participant.Target {
	return participant.Target{
		ID:                  targetID(n),
		Kind:                participant.KindMentor,
		DisplayName:         fmt.Sprintf("Mentor %d", n),
		MemberName:          fmt.Sprintf("Mentor %d", n),
		GeoFocus:            []string{"Europe"},
		IndustryPreferences: []string{"AI/ML"},
		TotalSlots:          slots,
		Attendance:          participant.AttendancePresent,
		Profile:             participant.MentorProfile{ExpertiseAreas: []string{"Go-to-market"}},
	}
}

func assertInvariants(t *testing.T, matches []schedule.Match, targets []participant.Target, slots []schedule.TimeSlot) {
	t.Helper()

	capacity := map[uuid.UUID]int{}
	for _, tg := range targets {
		capacity[tg.ID] = tg.TotalSlots
	}
	perTarget := map[uuid.UUID]int{}
	pairs := map[schedule.PairKey]bool{}
	type slotKey struct {
		slot uuid.UUID
		id   uuid.UUID
	}
	startupInSlot := map[slotKey]bool{}
	targetInSlot := map[slotKey]bool{}

	for _, m := range matches {
		perTarget[m.TargetID]++
		if pairs[m.Pair()] {
			t.Fatalf("duplicate pairing startup=%s target=%s", m.StartupID, m.TargetID)
		}
		pairs[m.Pair()] = true

		sk := slotKey{slot: m.SlotID, id: m.StartupID}
		if startupInSlot[sk] {
			t.Fatalf("startup %s double-booked in slot %s", m.StartupID, m.SlotID)
		}
		startupInSlot[sk] = true

		tk := slotKey{slot: m.SlotID, id: m.TargetID}
		if targetInSlot[tk] {
			t.Fatalf("target %s double-booked in slot %s", m.TargetID, m.SlotID)
		}
		targetInSlot[tk] = true
	}
	for id, n := range perTarget {
		if c, ok := capacity[id]; ok && n > c {
			t.Fatalf("target %s over capacity: %d > %d", id, n, c)
		}
	}
	if conflicts, err := DetectConflicts(schedule.Schedule{Slots: slots, Matches: matches}); err != nil {
		t.Fatalf("detect conflicts: %v", err)
	} else if len(conflicts) != 0 {
		t.Fatalf("expected no conflicts, got %v", conflicts)
	}
}
