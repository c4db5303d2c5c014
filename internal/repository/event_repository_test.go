package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"matchmaking/internal/database"
	"matchmaking/internal/domain/participant"
	"matchmaking/internal/domain/schedule"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRows struct {
	data [][]any
	i    int
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Next() bool {
	r.i++
	return r.i <= len(r.data)
}
func (r *fakeRows) Scan(dest ...any) error {
	return scanInto(r.data[r.i-1], dest)
}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanInto(r.vals, dest)
}

func scanInto(vals []any, dest []any) error {
	if len(vals) != len(dest) {
		return fmt.Errorf("scan: %d values into %d targets", len(vals), len(dest))
	}
	for i, v := range vals {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

type execCall struct {
	query string
	args  []any
}

type fakeDB struct {
	rows     map[string][][]any
	row      map[string]fakeRow
	execErr  func(query string) error
	affected int64

	execs      []execCall
	committed  bool
	rolledBack bool
}

func (f *fakeDB) match(query string) string {
	for k := range f.rows {
		if strings.Contains(query, k) {
			return k
		}
	}
	return ""
}

func (f *fakeDB) Ping(context.Context) error { return nil }
func (f *fakeDB) Close() error               { return nil }
func (f *fakeDB) SQLDB() *sql.DB             { return nil }

func (f *fakeDB) Exec(_ context.Context, query string, args ...any) (int64, error) {
	f.execs = append(f.execs, execCall{query: query, args: args})
	if f.execErr != nil {
		if err := f.execErr(query); err != nil {
			return 0, err
		}
	}
	return f.affected, nil
}

func (f *fakeDB) Query(_ context.Context, query string, _ ...any) (database.Rows, error) {
	k := f.match(query)
	if k == "" {
		return &fakeRows{}, nil
	}
	return &fakeRows{data: f.rows[k]}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, query string, _ ...any) database.Row {
	for k, r := range f.row {
		if strings.Contains(query, k) {
			return r
		}
	}
	return fakeRow{err: sql.ErrNoRows}
}

func (f *fakeDB) Begin(context.Context) (database.Tx, error) { return fakeTx{db: f}, nil }

type fakeTx struct{ db *fakeDB }

func (t fakeTx) Exec(ctx context.Context, q string, args ...any) (int64, error) {
	return t.db.Exec(ctx, q, args...)
}
func (t fakeTx) Query(ctx context.Context, q string, args ...any) (database.Rows, error) {
	return t.db.Query(ctx, q, args...)
}
func (t fakeTx) QueryRow(ctx context.Context, q string, args ...any) database.Row {
	return t.db.QueryRow(ctx, q, args...)
}
func (t fakeTx) Commit(context.Context) error   { t.db.committed = true; return nil }
func (t fakeTx) Rollback(context.Context) error { t.db.rolledBack = true; return nil }

func TestLoadSnapshot_DecodesRows(t *testing.T) {
	eventID := uuid.New()
	startupID := uuid.New()
	investorID := uuid.New()
	mentorID := uuid.New()
	slotID := uuid.New()
	matchID := uuid.New()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	db := &fakeDB{
		row: map[string]fakeRow{"FROM events": {vals: []any{"Demo Day"}}},
		rows: map[string][][]any{
			"FROM startups": {{startupID, "Acme", "AI/ML", "Seed", int64(500000), []string{"Europe"}, "present",
				[]byte(`{"` + slotID.String() + `":false}`)}},
			"FROM targets": {
				{investorID, "investor", "Fund", "Partner", []string{"Europe"}, []string{"AI/ML"}, 3, "present", []byte(`{}`),
					[]byte(`{"stage_preferences":["Seed"],"min_ticket_size":100000,"max_ticket_size":1000000,"table_number":"T4"}`)},
				{mentorID, "mentor", "Mentor", "", []string{}, []string{}, 2, "not-attending", []byte(nil),
					[]byte(`{"expertise_areas":["GTM"],"email":"m@example.com"}`)},
			},
			"FROM time_slots": {{slotID, 1, "Slot 1", start, start.Add(15 * time.Minute), false}},
			"FROM matches m":  {{matchID, startupID, investorID, "investor", "Partner", slotID, "Slot 1", 100, []string{"Geo match: +35 (Europe)"}, true, false, true, true}},
		},
	}

	snap, err := NewPostgresEventRepository(db).LoadSnapshot(context.Background(), eventID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.EventName != "Demo Day" || len(snap.Startups) != 1 || len(snap.Targets) != 2 || len(snap.Slots) != 1 || len(snap.Matches) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Startups[0].Availability.Allows(slotID) {
		t.Fatalf("availability override not decoded")
	}
	inv, ok := snap.Targets[0].Profile.(participant.InvestorProfile)
	if !ok || inv.MaxTicketSize != 1000000 || inv.TableNumber != "T4" || !reflect.DeepEqual(inv.StagePreferences, []string{"Seed"}) {
		t.Fatalf("investor profile not decoded: %+v", snap.Targets[0].Profile)
	}
	if _, ok := snap.Targets[1].Profile.(participant.MentorProfile); !ok {
		t.Fatalf("mentor profile not decoded: %T", snap.Targets[1].Profile)
	}
	if snap.Targets[1].Attendance.IsPresent() || snap.Targets[1].Availability != nil {
		t.Fatalf("unexpected mentor target: %+v", snap.Targets[1])
	}
	if !snap.Matches[0].Locked || snap.Matches[0].TargetKind != participant.KindInvestor {
		t.Fatalf("unexpected match: %+v", snap.Matches[0])
	}
}

func TestLoadSnapshot_EventNotFound(t *testing.T) {
	_, err := NewPostgresEventRepository(&fakeDB{}).LoadSnapshot(context.Background(), uuid.New())
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestReplaceMatches_SingleTransaction(t *testing.T) {
	db := &fakeDB{affected: 1}
	matches := []schedule.Match{
		{ID: uuid.New(), StartupID: uuid.New(), TargetID: uuid.New(), SlotID: uuid.New(), Score: 80},
		{ID: uuid.New(), StartupID: uuid.New(), TargetID: uuid.New(), SlotID: uuid.New(), Score: 70},
	}
	if err := NewPostgresEventRepository(db).ReplaceMatches(context.Background(), uuid.New(), matches); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if !db.committed || db.rolledBack {
		t.Fatalf("expected commit without rollback")
	}
	if len(db.execs) != 4 || !strings.Contains(db.execs[0].query, "DELETE FROM matches") {
		t.Fatalf("unexpected statements: %d", len(db.execs))
	}
	if got := db.execs[1].args[9]; !reflect.DeepEqual(got, []string{}) {
		t.Fatalf("nil breakdown should be stored as empty array, got %#v", got)
	}
}

func TestReplaceMatches_RollsBackOnDuplicate(t *testing.T) {
	db := &fakeDB{execErr: func(q string) error {
		if strings.Contains(q, "INSERT INTO matches") {
			return &pgconn.PgError{Code: "23505"}
		}
		return nil
	}}
	err := NewPostgresEventRepository(db).ReplaceMatches(context.Background(), uuid.New(), []schedule.Match{{ID: uuid.New()}})
	if !errors.Is(err, ErrDuplicateMatch) {
		t.Fatalf("expected ErrDuplicateMatch, got %v", err)
	}
	if db.committed || !db.rolledBack {
		t.Fatalf("expected rollback")
	}
}

func TestUpdateMatch_NotFound(t *testing.T) {
	err := NewPostgresEventRepository(&fakeDB{}).UpdateMatch(context.Background(), uuid.New(), schedule.Match{ID: uuid.New()})
	if !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound, got %v", err)
	}
}

func TestSetSlotDone(t *testing.T) {
	db := &fakeDB{affected: 1}
	slotID := uuid.New()
	if err := NewPostgresEventRepository(db).SetSlotDone(context.Background(), uuid.New(), slotID, true); err != nil {
		t.Fatalf("set done: %v", err)
	}
	if db.execs[0].args[1] != slotID || db.execs[0].args[2] != true {
		t.Fatalf("unexpected args: %v", db.execs[0].args)
	}

	err := NewPostgresEventRepository(&fakeDB{}).SetSlotDone(context.Background(), uuid.New(), slotID, true)
	if !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestSaveRoster_UpsertsAndPrunes(t *testing.T) {
	db := &fakeDB{affected: 1}
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	roster := Roster{
		EventName: "Demo Day",
		Startups:  []participant.Startup{{ID: uuid.New(), CompanyName: "Acme"}},
		Targets: []participant.Target{{
			ID: uuid.New(), Kind: participant.KindCorporate, DisplayName: "BigCo", TotalSlots: 2,
			Profile: participant.CorporateProfile{Stages: []string{"Seed"}},
		}},
		Slots: []schedule.TimeSlot{{ID: uuid.New(), Ordinal: 1, Label: "Slot 1", StartTime: start, EndTime: start.Add(time.Hour)}},
	}
	if err := NewPostgresEventRepository(db).SaveRoster(context.Background(), uuid.New(), roster); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !db.committed {
		t.Fatalf("expected commit")
	}
	// event, startup, target, slot, then three prunes
	if len(db.execs) != 7 {
		t.Fatalf("expected 7 statements, got %d", len(db.execs))
	}
	if got := db.execs[1].args[7]; got != "present" {
		t.Fatalf("empty attendance should default to present, got %v", got)
	}
	profile := string(db.execs[2].args[10].([]byte))
	if profile != `{"stages":["Seed"]}` {
		t.Fatalf("unexpected profile json: %s", profile)
	}
}

func TestProfileRoundTripRejectsUnknownKind(t *testing.T) {
	if _, err := decodeProfile("sponsor", []byte(`{}`)); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
