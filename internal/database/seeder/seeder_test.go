package seeder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"matchmaking/internal/database"
	"matchmaking/internal/domain/matching"
)

type recordingSeeder struct {
	name string
	err  error
	ran  *[]string
}

func (s recordingSeeder) Name() string { return s.name }

func (s recordingSeeder) Run(context.Context, database.DB) error {
	*s.ran = append(*s.ran, s.name)
	return s.err
}

func TestRunner_StopsOnFirstError(t *testing.T) {
	var ran []string
	boom := errors.New("boom")
	r := Runner{Seeders: []Seeder{
		recordingSeeder{name: "a", ran: &ran},
		nil,
		recordingSeeder{name: "b", err: boom, ran: &ran},
		recordingSeeder{name: "c", ran: &ran},
	}}

	err := r.Run(context.Background(), stubDB{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if !strings.Contains(err.Error(), "seed b") {
		t.Fatalf("error should name the seeder: %v", err)
	}
	if strings.Join(ran, ",") != "a,b" {
		t.Fatalf("ran = %v", ran)
	}
}

func TestRunner_NilDB(t *testing.T) {
	if err := (Runner{}).Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil db")
	}
}

func TestDemoRoster_IsSchedulable(t *testing.T) {
	roster := DemoEventSeeder{}.Roster()
	if err := matching.ValidateSlots(roster.Slots); err != nil {
		t.Fatalf("slots: %v", err)
	}
	if err := matching.ValidateStartups(roster.Startups); err != nil {
		t.Fatalf("startups: %v", err)
	}
	if err := matching.ValidateTargets(roster.Targets); err != nil {
		t.Fatalf("targets: %v", err)
	}

	out, err := matching.NewEngine(matching.DefaultWeights()).Rematch(matching.Input{
		Startups: roster.Startups,
		Targets:  roster.Targets,
		Slots:    roster.Slots,
		Options:  matching.Options{MinScore: 10},
	})
	if err != nil {
		t.Fatalf("rematch: %v", err)
	}
	if len(out.Matches) == 0 {
		t.Fatalf("demo roster produced no meetings")
	}
	if again := (DemoEventSeeder{}).Roster(); again.Slots[0].ID != roster.Slots[0].ID || DemoEventID != demoID("event") {
		t.Fatalf("demo ids are not stable")
	}
}

// stubDB satisfies database.DB for seeders that never touch it.
type stubDB struct{ database.DB }
