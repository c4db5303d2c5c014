package seeder

import (
	"context"
	"time"

	"matchmaking/internal/database"
	"matchmaking/internal/domain/participant"
	"matchmaking/internal/domain/schedule"
	"matchmaking/internal/repository"

	"github.com/google/uuid"
)

var demoNamespace = uuid.MustParse("3a4f5e02-8f0e-4c67-9d55-5f4d2b61c0aa")

// DemoEventID is stable so re-seeding updates the same event.
var DemoEventID = demoID("event")

func demoID(name string) uuid.UUID {
	return uuid.NewSHA1(demoNamespace, []byte(name))
}

// DemoEventSeeder loads a small pitch event: four slots, five startups and a
// mix of investor, mentor and corporate tables. One member runs two tables.
type DemoEventSeeder struct {
	Start time.Time
}

func (DemoEventSeeder) Name() string { return "demo_event" }

func (s DemoEventSeeder) Run(ctx context.Context, db database.DB) error {
	for table, cols := range map[string][]string{
		"events":     {"id", "name"},
		"startups":   {"id", "event_id", "availability"},
		"targets":    {"id", "event_id", "kind", "profile", "total_slots"},
		"time_slots": {"id", "event_id", "ordinal", "is_done"},
		"matches":    {"id", "event_id", "locked", "completed"},
	} {
		if err := EnsureTableColumns(ctx, db, table, cols...); err != nil {
			return err
		}
	}
	return repository.NewPostgresEventRepository(db).SaveRoster(ctx, DemoEventID, s.Roster())
}

func (s DemoEventSeeder) Roster() repository.Roster {
	start := s.Start
	if start.IsZero() {
		start = time.Date(2026, 11, 5, 9, 0, 0, 0, time.UTC)
	}

	slots := make([]schedule.TimeSlot, 0, 4)
	for i := 0; i < 4; i++ {
		from := start.Add(time.Duration(i) * 20 * time.Minute)
		slots = append(slots, schedule.TimeSlot{
			ID:        demoID("slot-" + from.Format("1504")),
			Ordinal:   i + 1,
			Label:     from.Format("15:04"),
			StartTime: from,
			EndTime:   from.Add(20 * time.Minute),
		})
	}

	startup := func(name, industry, stage string, target int64, geo ...string) participant.Startup {
		return participant.Startup{
			ID:            demoID("startup-" + name),
			CompanyName:   name,
			Industry:      industry,
			FundingStage:  stage,
			FundingTarget: target,
			GeoMarkets:    geo,
			Attendance:    participant.AttendancePresent,
		}
	}
	startups := []participant.Startup{
		startup("Ledgerly", "Fintech", "Seed", 1_500_000, "Europe"),
		startup("Cellwise", "Healthtech", "Series A", 6_000_000, "North America"),
		startup("Gridfox", "Climate", "Pre-seed", 400_000, "Europe", "North America"),
		startup("Parcelbot", "Logistics", "Seed", 2_000_000, "Asia"),
		startup("Tutorloop", "Edtech", "Seed", 900_000, "Europe"),
	}
	startups[4].Availability = participant.Availability{slots[0].ID: false}

	targets := []participant.Target{
		{
			ID:                  demoID("target-northstar"),
			Kind:                participant.KindInvestor,
			DisplayName:         "Northstar Ventures",
			MemberName:          "Priya Raman",
			GeoFocus:            []string{"Europe", "North America"},
			IndustryPreferences: []string{"Fintech", "Climate"},
			TotalSlots:          3,
			Attendance:          participant.AttendancePresent,
			Profile: participant.InvestorProfile{
				StagePreferences: []string{"Pre-seed", "Seed"},
				MinTicketSize:    250_000,
				MaxTicketSize:    1_500_000,
				TableNumber:      "T1",
			},
		},
		{
			ID:                  demoID("target-harbor"),
			Kind:                participant.KindInvestor,
			DisplayName:         "Harbor Growth",
			MemberName:          "Priya Raman",
			GeoFocus:            []string{"North America"},
			IndustryPreferences: []string{"Healthtech"},
			TotalSlots:          2,
			Attendance:          participant.AttendancePresent,
			Profile: participant.InvestorProfile{
				StagePreferences: []string{"Series A"},
				MinTicketSize:    2_000_000,
				MaxTicketSize:    8_000_000,
				TableNumber:      "T2",
			},
		},
		{
			ID:                  demoID("target-mentor-ops"),
			Kind:                participant.KindMentor,
			DisplayName:         "Scaling Ops Clinic",
			MemberName:          "Tomas Berg",
			GeoFocus:            []string{"Europe", "Asia"},
			IndustryPreferences: []string{"Logistics", "Edtech"},
			TotalSlots:          3,
			Attendance:          participant.AttendancePresent,
			Profile: participant.MentorProfile{
				ExpertiseAreas: []string{"Operations", "Hiring"},
				Email:          "tomas@example.com",
			},
		},
		{
			ID:                  demoID("target-corp-energy"),
			Kind:                participant.KindCorporate,
			DisplayName:         "Voltaic Energy",
			MemberName:          "Mei Chen",
			GeoFocus:            []string{"Europe"},
			IndustryPreferences: []string{"Climate", "Logistics"},
			TotalSlots:          2,
			Attendance:          participant.AttendancePresent,
			Profile: participant.CorporateProfile{
				PartnershipTypes: []string{"Pilot", "Procurement"},
				Stages:           []string{"Seed", "Series A"},
				ContactName:      "Mei Chen",
				Email:            "partnerships@voltaic.example.com",
			},
		},
	}

	return repository.Roster{
		EventName: "Demo Day",
		Startups:  startups,
		Targets:   targets,
		Slots:     slots,
	}
}
