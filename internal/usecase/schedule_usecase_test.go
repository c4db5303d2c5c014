package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"matchmaking/internal/domain/matching"
	"matchmaking/internal/domain/participant"
	"matchmaking/internal/domain/schedule"
	"matchmaking/internal/infrastructure/cache"
	"matchmaking/internal/repository"
	"matchmaking/internal/ws"

	"github.com/google/uuid"
)

type mockEvents struct {
	mu        sync.Mutex
	snaps     map[uuid.UUID]repository.Snapshot
	loads     int
	replaced  int
	replaceEr error
}

func clone(s repository.Snapshot) repository.Snapshot {
	s.Startups = append([]participant.Startup(nil), s.Startups...)
	s.Targets = append([]participant.Target(nil), s.Targets...)
	s.Slots = append([]schedule.TimeSlot(nil), s.Slots...)
	s.Matches = schedule.CloneMatches(s.Matches)
	return s
}

func (m *mockEvents) ListEventIDs(context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uuid.UUID, 0, len(m.snaps))
	for id := range m.snaps {
		out = append(out, id)
	}
	return out, nil
}

func (m *mockEvents) LoadSnapshot(_ context.Context, id uuid.UUID) (repository.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	s, ok := m.snaps[id]
	if !ok {
		return repository.Snapshot{}, fmt.Errorf("%w: %s", repository.ErrEventNotFound, id)
	}
	return clone(s), nil
}

func (m *mockEvents) SaveRoster(_ context.Context, id uuid.UUID, r repository.Roster) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.snaps[id]
	s.EventID, s.EventName, s.Startups, s.Targets, s.Slots = id, r.EventName, r.Startups, r.Targets, r.Slots
	m.snaps[id] = s
	return nil
}

func (m *mockEvents) ReplaceMatches(_ context.Context, id uuid.UUID, matches []schedule.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceEr != nil {
		return m.replaceEr
	}
	s := m.snaps[id]
	s.Matches = schedule.CloneMatches(matches)
	m.snaps[id] = s
	m.replaced++
	return nil
}

func (m *mockEvents) UpdateMatch(_ context.Context, id uuid.UUID, match schedule.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.snaps[id]
	for i := range s.Matches {
		if s.Matches[i].ID == match.ID {
			s.Matches[i] = match
			return nil
		}
	}
	return repository.ErrMatchNotFound
}

func (m *mockEvents) SetSlotDone(_ context.Context, id, slotID uuid.UUID, done bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.snaps[id]
	for i := range s.Slots {
		if s.Slots[i].ID == slotID {
			s.Slots[i].IsDone = done
			return nil
		}
	}
	return repository.ErrSlotNotFound
}

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	dels int
}

func (c *mockCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *mockCache) SetJSON(_ context.Context, key string, v any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func (c *mockCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.dels++
	return nil
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, uuid.UUID) (func(), error) {
	return nil, cache.ErrLockHeld
}

type notification struct {
	eventID uuid.UUID
	reason  string
	sum     ws.ScheduleSummary
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) NotifyScheduleUpdated(id uuid.UUID, reason string, sum ws.ScheduleSummary) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{eventID: id, reason: reason, sum: sum})
}

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func demoSnapshot(eventID uuid.UUID) repository.Snapshot {
	slots := make([]schedule.TimeSlot, 3)
	for i := range slots {
		start := base.Add(time.Duration(i) * 20 * time.Minute)
		slots[i] = schedule.TimeSlot{ID: uuid.New(), Ordinal: i + 1, Label: fmt.Sprintf("Slot %d", i+1), StartTime: start, EndTime: start.Add(15 * time.Minute)}
	}
	startup := func(name string) participant.Startup {
		return participant.Startup{
			ID: uuid.New(), CompanyName: name, Industry: "AI/ML", FundingStage: "Seed",
			FundingTarget: 500000, GeoMarkets: []string{"Europe"}, Attendance: participant.AttendancePresent,
		}
	}
	investor := participant.Target{
		ID: uuid.New(), Kind: participant.KindInvestor, DisplayName: "Fund", MemberName: "Partner",
		GeoFocus: []string{"Europe"}, IndustryPreferences: []string{"AI/ML"}, TotalSlots: 2,
		Attendance: participant.AttendancePresent,
		Profile:    participant.InvestorProfile{StagePreferences: []string{"Seed"}, MinTicketSize: 100000, MaxTicketSize: 1000000},
	}
	return repository.Snapshot{
		EventID:   eventID,
		EventName: "Demo Day",
		Startups:  []participant.Startup{startup("Acme"), startup("Beta")},
		Targets:   []participant.Target{investor},
		Slots:     slots,
	}
}

func newTestUsecase(snaps ...repository.Snapshot) (*Schedule, *mockEvents, *mockCache, *recordingNotifier) {
	events := &mockEvents{snaps: map[uuid.UUID]repository.Snapshot{}}
	for _, s := range snaps {
		events.snaps[s.EventID] = s
	}
	c := &mockCache{data: map[string][]byte{}}
	n := &recordingNotifier{}
	uc := NewScheduleUsecase(events, c, cache.NewEventLocker(nil, 0, nil), n,
		ScheduleConfig{Weights: matching.DefaultWeights(), MinScore: 10, Workers: 2}, nil)
	return uc, events, c, n
}

func TestRematch_PersistsAndNotifies(t *testing.T) {
	eventID := uuid.New()
	uc, events, c, n := newTestUsecase(demoSnapshot(eventID))
	c.data[ScheduleCacheKey(eventID)] = []byte(`{}`)

	res, err := uc.Rematch(context.Background(), eventID, RematchParams{})
	if err != nil {
		t.Fatalf("rematch: %v", err)
	}
	if res.Created != 2 || res.Unscheduled != 0 || len(res.Schedule.Matches) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Schedule.ConflictCount() != 0 {
		t.Fatalf("fresh schedule must be conflict free")
	}
	if events.replaced != 1 || len(events.snaps[eventID].Matches) != 2 {
		t.Fatalf("schedule not persisted")
	}
	if _, cached := c.data[ScheduleCacheKey(eventID)]; cached {
		t.Fatalf("stale cache entry survived the rematch")
	}
	if len(n.sent) != 1 || n.sent[0].reason != "rematch" || n.sent[0].sum.Matches != 2 {
		t.Fatalf("unexpected notifications: %+v", n.sent)
	}
}

func TestRematch_RespectsMaxMeetingsOverride(t *testing.T) {
	eventID := uuid.New()
	snap := demoSnapshot(eventID)
	mentor := participant.Target{
		ID: uuid.New(), Kind: participant.KindMentor, DisplayName: "Mentor", MemberName: "Guide",
		GeoFocus: []string{"Europe"}, IndustryPreferences: []string{"AI/ML"}, TotalSlots: 2,
		Profile: participant.MentorProfile{},
	}
	snap.Targets = append(snap.Targets, mentor)
	uc, _, _, _ := newTestUsecase(snap)

	one := 1
	res, err := uc.Rematch(context.Background(), eventID, RematchParams{MaxMeetingsPerStartup: &one})
	if err != nil {
		t.Fatalf("rematch: %v", err)
	}
	per := map[uuid.UUID]int{}
	for _, m := range res.Schedule.Matches {
		per[m.StartupID]++
	}
	for id, n := range per {
		if n > 1 {
			t.Fatalf("startup %s has %d meetings, cap is 1", id, n)
		}
	}
}

func TestRematch_Errors(t *testing.T) {
	t.Run("event not found", func(t *testing.T) {
		uc, _, _, _ := newTestUsecase()
		_, err := uc.Rematch(context.Background(), uuid.New(), RematchParams{})
		if !errors.Is(err, ErrEventNotFound) {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
	})

	t.Run("event busy", func(t *testing.T) {
		eventID := uuid.New()
		uc, _, _, _ := newTestUsecase(demoSnapshot(eventID))
		uc.locker = busyLocker{}
		_, err := uc.Rematch(context.Background(), eventID, RematchParams{})
		if !errors.Is(err, ErrEventBusy) {
			t.Fatalf("expected ErrEventBusy, got %v", err)
		}
	})

	t.Run("invalid stored data aborts", func(t *testing.T) {
		eventID := uuid.New()
		snap := demoSnapshot(eventID)
		snap.Targets[0].TotalSlots = -1
		uc, events, _, _ := newTestUsecase(snap)
		_, err := uc.Rematch(context.Background(), eventID, RematchParams{})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if events.replaced != 0 {
			t.Fatalf("invalid run must not persist anything")
		}
	})

	t.Run("persist failure", func(t *testing.T) {
		eventID := uuid.New()
		uc, events, _, n := newTestUsecase(demoSnapshot(eventID))
		events.replaceEr = errors.New("connection reset")
		if _, err := uc.Rematch(context.Background(), eventID, RematchParams{}); err == nil {
			t.Fatalf("expected error")
		}
		if len(n.sent) != 0 {
			t.Fatalf("failed run must not notify")
		}
	})
}

func TestGetSchedule_UsesCache(t *testing.T) {
	eventID := uuid.New()
	uc, events, _, _ := newTestUsecase(demoSnapshot(eventID))
	if _, err := uc.Rematch(context.Background(), eventID, RematchParams{}); err != nil {
		t.Fatalf("rematch: %v", err)
	}
	loads := events.loads

	first, err := uc.GetSchedule(context.Background(), eventID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := uc.GetSchedule(context.Background(), eventID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if events.loads != loads+1 {
		t.Fatalf("expected a single load, got %d", events.loads-loads)
	}
	if len(second.Matches) != len(first.Matches) || second.Matches[0].ID != first.Matches[0].ID || second.EventName != "Demo Day" {
		t.Fatalf("cached view differs from loaded view")
	}
}

func TestMoveMatch(t *testing.T) {
	eventID := uuid.New()
	uc, events, _, _ := newTestUsecase(demoSnapshot(eventID))
	res, err := uc.Rematch(context.Background(), eventID, RematchParams{})
	if err != nil {
		t.Fatalf("rematch: %v", err)
	}
	first, second := res.Schedule.Matches[0], res.Schedule.Matches[1]
	slots := res.Schedule.Slots

	// both matches share the investor, so stacking them is a conflict
	upd, err := uc.MoveMatch(context.Background(), eventID, second.ID, first.SlotID)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if upd.Match.SlotID != first.SlotID || upd.Conflicts == 0 {
		t.Fatalf("expected move into a conflicting slot, got %+v", upd)
	}

	if _, err := uc.SetLocked(context.Background(), eventID, first.ID, true); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := uc.MoveMatch(context.Background(), eventID, first.ID, slots[2].ID); !errors.Is(err, ErrMatchFixed) {
		t.Fatalf("expected ErrMatchFixed, got %v", err)
	}

	if err := uc.SetSlotDone(context.Background(), eventID, slots[2].ID, true); err != nil {
		t.Fatalf("slot done: %v", err)
	}
	if _, err := uc.MoveMatch(context.Background(), eventID, second.ID, slots[2].ID); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for done slot, got %v", err)
	}
	if _, err := uc.MoveMatch(context.Background(), eventID, second.ID, uuid.New()); !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
	if _, err := uc.MoveMatch(context.Background(), eventID, uuid.New(), slots[0].ID); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound, got %v", err)
	}
	if !events.snaps[eventID].Slots[2].IsDone {
		t.Fatalf("slot done flag not stored")
	}
}

func TestAutoFix_ResolvesManualConflict(t *testing.T) {
	eventID := uuid.New()
	uc, events, _, n := newTestUsecase(demoSnapshot(eventID))
	res, err := uc.Rematch(context.Background(), eventID, RematchParams{})
	if err != nil {
		t.Fatalf("rematch: %v", err)
	}
	first, second := res.Schedule.Matches[0], res.Schedule.Matches[1]
	if _, err := uc.MoveMatch(context.Background(), eventID, second.ID, first.SlotID); err != nil {
		t.Fatalf("move: %v", err)
	}

	fix, err := uc.AutoFix(context.Background(), eventID)
	if err != nil {
		t.Fatalf("autofix: %v", err)
	}
	if len(fix.Moves) != 1 || len(fix.Unresolved) != 0 || fix.Schedule.ConflictCount() != 0 {
		t.Fatalf("unexpected fix: %+v", fix)
	}
	if events.replaced != 2 {
		t.Fatalf("expected autofix to persist, replaced=%d", events.replaced)
	}
	if last := n.sent[len(n.sent)-1]; last.reason != "autofix" {
		t.Fatalf("expected autofix notification, got %q", last.reason)
	}

	again, err := uc.AutoFix(context.Background(), eventID)
	if err != nil {
		t.Fatalf("autofix: %v", err)
	}
	if len(again.Moves) != 0 || events.replaced != 2 {
		t.Fatalf("second autofix should be a no-op")
	}
}

func TestSetAttendance(t *testing.T) {
	eventID := uuid.New()
	uc, _, _, _ := newTestUsecase(demoSnapshot(eventID))
	res, err := uc.Rematch(context.Background(), eventID, RematchParams{})
	if err != nil {
		t.Fatalf("rematch: %v", err)
	}
	id := res.Schedule.Matches[0].ID

	if _, err := uc.SetAttendance(context.Background(), eventID, id, AttendanceUpdate{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	no := false
	upd, err := uc.SetAttendance(context.Background(), eventID, id, AttendanceUpdate{TargetAttending: &no})
	if err != nil {
		t.Fatalf("attendance: %v", err)
	}
	if upd.Match.TargetAttending || !upd.Match.StartupAttending {
		t.Fatalf("unexpected flags: %+v", upd.Match)
	}
}

func TestRematchMany(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	missing := uuid.New()
	uc, events, _, _ := newTestUsecase(demoSnapshot(a), demoSnapshot(b))

	got, err := uc.RematchMany(context.Background(), []uuid.UUID{a, missing, b}, RematchParams{})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(got) != 3 || got[0].EventID != a || got[1].EventID != missing || got[2].EventID != b {
		t.Fatalf("results must follow input order: %+v", got)
	}
	if got[0].Err != nil || got[2].Err != nil || !errors.Is(got[1].Err, ErrEventNotFound) {
		t.Fatalf("unexpected errors: %v %v %v", got[0].Err, got[1].Err, got[2].Err)
	}
	if len(events.snaps[a].Matches) != 2 || len(events.snaps[b].Matches) != 2 {
		t.Fatalf("both events should be scheduled")
	}

	all, err := uc.RematchMany(context.Background(), nil, RematchParams{})
	if err != nil || len(all) != 2 {
		t.Fatalf("empty id list should rematch every stored event: %d %v", len(all), err)
	}
}

func TestSaveRoster_Validates(t *testing.T) {
	uc, events, _, _ := newTestUsecase()
	eventID := uuid.New()
	snap := demoSnapshot(eventID)
	roster := repository.Roster{EventName: "Demo Day", Startups: snap.Startups, Targets: snap.Targets, Slots: snap.Slots}

	if err := uc.SaveRoster(context.Background(), eventID, roster); err != nil {
		t.Fatalf("save: %v", err)
	}
	if events.snaps[eventID].EventName != "Demo Day" {
		t.Fatalf("roster not stored")
	}

	bad := roster
	bad.Slots = append([]schedule.TimeSlot(nil), roster.Slots...)
	bad.Slots[1].Ordinal = bad.Slots[0].Ordinal
	if err := uc.SaveRoster(context.Background(), eventID, bad); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := uc.SaveRoster(context.Background(), eventID, repository.Roster{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing name, got %v", err)
	}
}

func TestPlan_Stateless(t *testing.T) {
	uc, _, _, _ := newTestUsecase()
	snap := demoSnapshot(uuid.New())

	out, err := uc.Plan(matching.Input{Startups: snap.Startups, Targets: snap.Targets, Slots: snap.Slots})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(out.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(out.Matches))
	}

	snap.Slots[0].EndTime = snap.Slots[0].StartTime
	if _, err := uc.Plan(matching.Input{Startups: snap.Startups, Targets: snap.Targets, Slots: snap.Slots}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
