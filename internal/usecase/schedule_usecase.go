package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"matchmaking/internal/domain/matching"
	"matchmaking/internal/domain/schedule"
	"matchmaking/internal/infrastructure/cache"
	"matchmaking/internal/repository"
	"matchmaking/internal/worker"
	"matchmaking/internal/ws"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrEventNotFound = errors.New("event not found")
	ErrMatchNotFound = errors.New("match not found")
	ErrSlotNotFound  = errors.New("slot not found")
	ErrMatchFixed    = errors.New("match is locked or completed")
	ErrEventBusy     = errors.New("event schedule is being updated")

	errNotRun = errors.New("rematch not run")
)

type ScheduleNotifier interface {
	NotifyScheduleUpdated(eventID uuid.UUID, reason string, sum ws.ScheduleSummary)
}

type ScheduleConfig struct {
	Weights               matching.Weights
	MinScore              int
	MaxMeetingsPerStartup int
	Workers               int
	CacheTTL              time.Duration
}

// RematchParams overrides the configured options for a single run. Nil
// fields keep the configured value.
type RematchParams struct {
	MaxMeetingsPerStartup *int
	MemberNameFilter      []string
}

type ScheduleView struct {
	EventID   uuid.UUID
	EventName string
	Slots     []schedule.TimeSlot
	Matches   []schedule.Match
	Conflicts map[uuid.UUID]int
}

func (v ScheduleView) ConflictCount() int {
	n := 0
	for _, c := range v.Conflicts {
		n += c
	}
	return n
}

type RematchResult struct {
	Schedule    ScheduleView
	Kept        int
	Created     int
	Unscheduled int
	Dropped     int
}

type AutoFixResult struct {
	Schedule   ScheduleView
	Moves      []matching.Move
	Unresolved []uuid.UUID
}

type MatchUpdate struct {
	Match     schedule.Match
	Conflicts int
}

type AttendanceUpdate struct {
	StartupAttending *bool
	TargetAttending  *bool
}

type BatchResult struct {
	EventID uuid.UUID
	Result  RematchResult
	Err     error
}

type ScheduleUsecase interface {
	Plan(in matching.Input) (matching.Outcome, error)
	Inspect(s schedule.Schedule) (map[uuid.UUID]int, error)
	Repair(s schedule.Schedule) (matching.FixResult, error)

	GetSchedule(ctx context.Context, eventID uuid.UUID) (ScheduleView, error)
	SaveRoster(ctx context.Context, eventID uuid.UUID, roster repository.Roster) error
	Rematch(ctx context.Context, eventID uuid.UUID, params RematchParams) (RematchResult, error)
	RematchMany(ctx context.Context, eventIDs []uuid.UUID, params RematchParams) ([]BatchResult, error)
	AutoFix(ctx context.Context, eventID uuid.UUID) (AutoFixResult, error)
	SetLocked(ctx context.Context, eventID, matchID uuid.UUID, locked bool) (MatchUpdate, error)
	SetCompleted(ctx context.Context, eventID, matchID uuid.UUID, completed bool) (MatchUpdate, error)
	SetAttendance(ctx context.Context, eventID, matchID uuid.UUID, upd AttendanceUpdate) (MatchUpdate, error)
	MoveMatch(ctx context.Context, eventID, matchID, slotID uuid.UUID) (MatchUpdate, error)
	SetSlotDone(ctx context.Context, eventID, slotID uuid.UUID, done bool) error
}

type Schedule struct {
	events   repository.EventRepository
	engine   *matching.Engine
	cache    ScheduleCache
	locker   EventLocker
	notifier ScheduleNotifier
	cfg      ScheduleConfig
	logger   *log.Logger
}

func NewScheduleUsecase(events repository.EventRepository, c ScheduleCache, locker EventLocker, notifier ScheduleNotifier, cfg ScheduleConfig, logger *log.Logger) *Schedule {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Schedule{
		events:   events,
		engine:   matching.NewEngine(cfg.Weights),
		cache:    c,
		locker:   locker,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

func (u *Schedule) logf(format string, args ...any) {
	if u.logger != nil {
		u.logger.Printf(format, args...)
	}
}

func (u *Schedule) options(p RematchParams) matching.Options {
	opts := matching.Options{
		MaxMeetingsPerStartup: u.cfg.MaxMeetingsPerStartup,
		MinScore:              u.cfg.MinScore,
	}
	if p.MaxMeetingsPerStartup != nil {
		opts.MaxMeetingsPerStartup = *p.MaxMeetingsPerStartup
	}
	for _, name := range p.MemberNameFilter {
		if strings.TrimSpace(name) != "" {
			opts.MemberNameFilter = append(opts.MemberNameFilter, name)
		}
	}
	return opts
}

// Plan runs the engine on a caller supplied snapshot without touching storage.
func (u *Schedule) Plan(in matching.Input) (matching.Outcome, error) {
	if in.Options.MinScore == 0 {
		in.Options.MinScore = u.cfg.MinScore
	}
	out, err := u.engine.Rematch(in)
	if err != nil {
		return matching.Outcome{}, mapEngineErr(err)
	}
	return out, nil
}

func (u *Schedule) Inspect(s schedule.Schedule) (map[uuid.UUID]int, error) {
	c, err := matching.DetectConflicts(s)
	if err != nil {
		return nil, mapEngineErr(err)
	}
	return c, nil
}

func (u *Schedule) Repair(s schedule.Schedule) (matching.FixResult, error) {
	res, err := matching.AutoFix(s)
	if err != nil {
		return matching.FixResult{}, mapEngineErr(err)
	}
	return res, nil
}

func (u *Schedule) GetSchedule(ctx context.Context, eventID uuid.UUID) (ScheduleView, error) {
	key := ScheduleCacheKey(eventID)
	if u.cache != nil {
		var cached ScheduleView
		hit, err := u.cache.GetJSON(ctx, key, &cached)
		if err == nil && hit {
			u.logf("[Schedule] Cache HIT: %s", key)
			return cached, nil
		}
		u.logf("[Schedule] Cache MISS: %s", key)
	}

	snap, err := u.load(ctx, eventID)
	if err != nil {
		return ScheduleView{}, err
	}
	view, err := viewOf(snap)
	if err != nil {
		return ScheduleView{}, err
	}

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, key, view, u.cfg.CacheTTL); err != nil {
			u.logf("[Schedule] cache set failed key=%s err=%v", key, err)
		}
	}
	return view, nil
}

func (u *Schedule) SaveRoster(ctx context.Context, eventID uuid.UUID, roster repository.Roster) error {
	if eventID == uuid.Nil {
		return fmt.Errorf("%w: missing event id", ErrInvalidInput)
	}
	if strings.TrimSpace(roster.EventName) == "" {
		return fmt.Errorf("%w: event name is required", ErrInvalidInput)
	}
	if err := matching.ValidateSlots(roster.Slots); err != nil {
		return mapEngineErr(err)
	}
	if err := matching.ValidateStartups(roster.Startups); err != nil {
		return mapEngineErr(err)
	}
	if err := matching.ValidateTargets(roster.Targets); err != nil {
		return mapEngineErr(err)
	}

	return u.withEventLock(ctx, eventID, func() error {
		if err := u.events.SaveRoster(ctx, eventID, roster); err != nil {
			return err
		}
		u.invalidate(ctx, eventID)
		u.logf("[Schedule] roster saved event_id=%s startups=%d targets=%d slots=%d",
			eventID, len(roster.Startups), len(roster.Targets), len(roster.Slots))
		return nil
	})
}

// Rematch recomputes the schedule of an event and persists it atomically.
// Locked and completed matches survive unchanged.
func (u *Schedule) Rematch(ctx context.Context, eventID uuid.UUID, params RematchParams) (RematchResult, error) {
	var res RematchResult
	err := u.withEventLock(ctx, eventID, func() error {
		start := time.Now()
		snap, err := u.load(ctx, eventID)
		if err != nil {
			return err
		}

		out, err := u.engine.Rematch(matching.Input{
			Startups: snap.Startups,
			Targets:  snap.Targets,
			Slots:    snap.Slots,
			Previous: snap.Matches,
			Options:  u.options(params),
		})
		if err != nil {
			return mapEngineErr(err)
		}

		if err := u.events.ReplaceMatches(ctx, eventID, out.Matches); err != nil {
			return fmt.Errorf("persist schedule: %w", mapRepoErr(err))
		}
		u.invalidate(ctx, eventID)

		snap.Matches = out.Matches
		view, err := viewOf(snap)
		if err != nil {
			return err
		}
		res = RematchResult{
			Schedule:    view,
			Kept:        out.Kept,
			Created:     out.Created,
			Unscheduled: out.Unscheduled,
			Dropped:     len(out.Dropped),
		}
		u.logf("[Schedule] rematch event_id=%s matches=%d kept=%d created=%d unscheduled=%d dropped=%d took=%s",
			eventID, len(out.Matches), out.Kept, out.Created, out.Unscheduled, len(out.Dropped), time.Since(start))
		u.notify(eventID, "rematch", view, out.Unscheduled)
		return nil
	})
	return res, err
}

// RematchMany rematches several events in parallel on the worker pool. An
// empty id list selects every stored event. Per-event failures are reported
// in the results, not as the returned error.
func (u *Schedule) RematchMany(ctx context.Context, eventIDs []uuid.UUID, params RematchParams) ([]BatchResult, error) {
	if len(eventIDs) == 0 {
		ids, err := u.events.ListEventIDs(ctx)
		if err != nil {
			return nil, err
		}
		eventIDs = ids
	}
	if len(eventIDs) == 0 {
		return nil, nil
	}

	resultCh := make(chan BatchResult, len(eventIDs))

	pool := worker.NewPool(u.cfg.Workers, len(eventIDs))
	out := pool.Run(ctx)
	for _, id := range eventIDs {
		pool.Submit(id.String(), func(ctx context.Context) error {
			r, err := u.Rematch(ctx, id, params)
			resultCh <- BatchResult{EventID: id, Result: r, Err: err}
			return err
		})
	}
	pool.Close()

	for r := range out {
		if r.Err != nil {
			u.logf("[Schedule] batch rematch failed event_id=%s err=%v", r.Key, r.Err)
		}
	}
	close(resultCh)
	done := make(map[uuid.UUID]BatchResult, len(eventIDs))
	for r := range resultCh {
		done[r.EventID] = r
	}

	batch := make([]BatchResult, 0, len(eventIDs))
	for _, id := range eventIDs {
		r, ran := done[id]
		if !ran {
			r = BatchResult{EventID: id, Err: errNotRun}
			if ctx.Err() != nil {
				r.Err = ctx.Err()
			}
		}
		batch = append(batch, r)
	}
	return batch, nil
}

func (u *Schedule) AutoFix(ctx context.Context, eventID uuid.UUID) (AutoFixResult, error) {
	var res AutoFixResult
	err := u.withEventLock(ctx, eventID, func() error {
		snap, err := u.load(ctx, eventID)
		if err != nil {
			return err
		}
		fix, err := matching.AutoFix(schedule.Schedule{Slots: snap.Slots, Matches: snap.Matches})
		if err != nil {
			return mapEngineErr(err)
		}

		if len(fix.Moves) > 0 {
			if err := u.events.ReplaceMatches(ctx, eventID, fix.Schedule.Matches); err != nil {
				return fmt.Errorf("persist schedule: %w", mapRepoErr(err))
			}
			u.invalidate(ctx, eventID)
		}

		snap.Matches = fix.Schedule.Matches
		matching.SortSchedule(snap.Matches, snap.Slots)
		res = AutoFixResult{
			Schedule:   ScheduleView{EventID: eventID, EventName: snap.EventName, Slots: snap.Slots, Matches: snap.Matches, Conflicts: fix.Conflicts},
			Moves:      fix.Moves,
			Unresolved: fix.Unresolved,
		}
		u.logf("[Schedule] autofix event_id=%s moves=%d unresolved=%d", eventID, len(fix.Moves), len(fix.Unresolved))
		if len(fix.Moves) > 0 {
			u.notify(eventID, "autofix", res.Schedule, 0)
		}
		return nil
	})
	return res, err
}

func (u *Schedule) SetLocked(ctx context.Context, eventID, matchID uuid.UUID, locked bool) (MatchUpdate, error) {
	return u.mutateMatch(ctx, eventID, matchID, "lock", func(m *schedule.Match, _ []schedule.TimeSlot) error {
		m.Locked = locked
		return nil
	})
}

func (u *Schedule) SetCompleted(ctx context.Context, eventID, matchID uuid.UUID, completed bool) (MatchUpdate, error) {
	return u.mutateMatch(ctx, eventID, matchID, "complete", func(m *schedule.Match, _ []schedule.TimeSlot) error {
		m.Completed = completed
		return nil
	})
}

func (u *Schedule) SetAttendance(ctx context.Context, eventID, matchID uuid.UUID, upd AttendanceUpdate) (MatchUpdate, error) {
	if upd.StartupAttending == nil && upd.TargetAttending == nil {
		return MatchUpdate{}, fmt.Errorf("%w: no attendance flag given", ErrInvalidInput)
	}
	return u.mutateMatch(ctx, eventID, matchID, "attendance", func(m *schedule.Match, _ []schedule.TimeSlot) error {
		if upd.StartupAttending != nil {
			m.StartupAttending = *upd.StartupAttending
		}
		if upd.TargetAttending != nil {
			m.TargetAttending = *upd.TargetAttending
		}
		return nil
	})
}

// MoveMatch reassigns a match to another slot by hand. The move may create
// conflicts; their count is returned so the caller can run AutoFix.
func (u *Schedule) MoveMatch(ctx context.Context, eventID, matchID, slotID uuid.UUID) (MatchUpdate, error) {
	return u.mutateMatch(ctx, eventID, matchID, "move", func(m *schedule.Match, slots []schedule.TimeSlot) error {
		if m.Fixed() {
			return fmt.Errorf("%w: %s", ErrMatchFixed, m.ID)
		}
		slot, ok := schedule.SlotIndex(slots)[slotID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrSlotNotFound, slotID)
		}
		if slot.IsDone {
			return fmt.Errorf("%w: slot %s is done", ErrInvalidInput, slot.Label)
		}
		if cur, ok := schedule.SlotIndex(slots)[m.SlotID]; ok && cur.IsDone {
			return fmt.Errorf("%w: match sits in finished slot %s", ErrInvalidInput, cur.Label)
		}
		m.SlotID = slot.ID
		m.SlotLabel = slot.Label
		return nil
	})
}

func (u *Schedule) SetSlotDone(ctx context.Context, eventID, slotID uuid.UUID, done bool) error {
	return u.withEventLock(ctx, eventID, func() error {
		if err := u.events.SetSlotDone(ctx, eventID, slotID, done); err != nil {
			return mapRepoErr(err)
		}
		u.invalidate(ctx, eventID)
		u.logf("[Schedule] slot done event_id=%s slot_id=%s done=%t", eventID, slotID, done)
		if u.notifier != nil {
			u.notifier.NotifyScheduleUpdated(eventID, "slot_done", ws.ScheduleSummary{})
		}
		return nil
	})
}

func (u *Schedule) mutateMatch(ctx context.Context, eventID, matchID uuid.UUID, reason string, fn func(m *schedule.Match, slots []schedule.TimeSlot) error) (MatchUpdate, error) {
	var res MatchUpdate
	err := u.withEventLock(ctx, eventID, func() error {
		snap, err := u.load(ctx, eventID)
		if err != nil {
			return err
		}
		idx := -1
		for i := range snap.Matches {
			if snap.Matches[i].ID == matchID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
		}

		if err := fn(&snap.Matches[idx], snap.Slots); err != nil {
			return err
		}
		if err := u.events.UpdateMatch(ctx, eventID, snap.Matches[idx]); err != nil {
			return mapRepoErr(err)
		}
		u.invalidate(ctx, eventID)

		view, err := viewOf(snap)
		if err != nil {
			return err
		}
		res = MatchUpdate{Match: snap.Matches[idx], Conflicts: view.ConflictCount()}
		u.logf("[Schedule] match %s event_id=%s match_id=%s conflicts=%d", reason, eventID, matchID, res.Conflicts)
		u.notify(eventID, reason, view, 0)
		return nil
	})
	return res, err
}

func (u *Schedule) withEventLock(ctx context.Context, eventID uuid.UUID, fn func() error) error {
	if u.locker == nil {
		return fn()
	}
	release, err := u.locker.Acquire(ctx, eventID)
	if err != nil {
		if errors.Is(err, cache.ErrLockHeld) {
			return fmt.Errorf("%w: %s", ErrEventBusy, eventID)
		}
		return err
	}
	defer release()
	return fn()
}

func (u *Schedule) load(ctx context.Context, eventID uuid.UUID) (repository.Snapshot, error) {
	snap, err := u.events.LoadSnapshot(ctx, eventID)
	if err != nil {
		return repository.Snapshot{}, mapRepoErr(err)
	}
	return snap, nil
}

func (u *Schedule) invalidate(ctx context.Context, eventID uuid.UUID) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Delete(ctx, ScheduleCacheKey(eventID)); err != nil {
		u.logf("[Schedule] cache invalidate failed event_id=%s err=%v", eventID, err)
	}
}

func (u *Schedule) notify(eventID uuid.UUID, reason string, view ScheduleView, unscheduled int) {
	if u.notifier == nil {
		return
	}
	u.notifier.NotifyScheduleUpdated(eventID, reason, ws.ScheduleSummary{
		Matches:     len(view.Matches),
		Unscheduled: unscheduled,
		Conflicts:   view.ConflictCount(),
	})
}

func viewOf(snap repository.Snapshot) (ScheduleView, error) {
	conflicts, err := matching.DetectConflicts(schedule.Schedule{Slots: snap.Slots, Matches: snap.Matches})
	if err != nil {
		return ScheduleView{}, mapEngineErr(err)
	}
	return ScheduleView{
		EventID:   snap.EventID,
		EventName: snap.EventName,
		Slots:     snap.Slots,
		Matches:   snap.Matches,
		Conflicts: conflicts,
	}, nil
}

func mapEngineErr(err error) error {
	if errors.Is(err, matching.ErrInvalidInput) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return err
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrEventNotFound):
		return fmt.Errorf("%w: %v", ErrEventNotFound, err)
	case errors.Is(err, repository.ErrMatchNotFound):
		return fmt.Errorf("%w: %v", ErrMatchNotFound, err)
	case errors.Is(err, repository.ErrSlotNotFound):
		return fmt.Errorf("%w: %v", ErrSlotNotFound, err)
	case errors.Is(err, repository.ErrDuplicateMatch):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		return err
	}
}

var _ ScheduleUsecase = (*Schedule)(nil)
