package dto

import (
	"time"

	"matchmaking/internal/domain/matching"
	"matchmaking/internal/domain/participant"
	"matchmaking/internal/domain/schedule"
	"matchmaking/internal/repository"

	"github.com/google/uuid"
)

// DefaultTotalSlots applies when a target omits total_slots.
const DefaultTotalSlots = 3

type StartupRequest struct {
	ID            uuid.UUID          `json:"id" yaml:"id"`
	CompanyName   string             `json:"company_name" yaml:"company_name"`
	Industry      string             `json:"industry" yaml:"industry"`
	FundingStage  string             `json:"funding_stage" yaml:"funding_stage"`
	FundingTarget int64              `json:"funding_target" yaml:"funding_target"`
	GeoMarkets    []string           `json:"geo_markets" yaml:"geo_markets"`
	Attendance    string             `json:"attendance" yaml:"attendance"`
	Availability  map[uuid.UUID]bool `json:"availability,omitempty" yaml:"availability,omitempty"`
}

type ProfileRequest struct {
	StagePreferences []string `json:"stage_preferences,omitempty" yaml:"stage_preferences,omitempty"`
	MinTicketSize    int64    `json:"min_ticket_size,omitempty" yaml:"min_ticket_size,omitempty"`
	MaxTicketSize    int64    `json:"max_ticket_size,omitempty" yaml:"max_ticket_size,omitempty"`
	TableNumber      string   `json:"table_number,omitempty" yaml:"table_number,omitempty"`
	ExpertiseAreas   []string `json:"expertise_areas,omitempty" yaml:"expertise_areas,omitempty"`
	LinkedinURL      string   `json:"linkedin_url,omitempty" yaml:"linkedin_url,omitempty"`
	PartnershipTypes []string `json:"partnership_types,omitempty" yaml:"partnership_types,omitempty"`
	Stages           []string `json:"stages,omitempty" yaml:"stages,omitempty"`
	ContactName      string   `json:"contact_name,omitempty" yaml:"contact_name,omitempty"`
	Email            string   `json:"email,omitempty" yaml:"email,omitempty"`
}

type TargetRequest struct {
	ID                  uuid.UUID          `json:"id" yaml:"id"`
	Kind                string             `json:"kind" yaml:"kind"`
	DisplayName         string             `json:"display_name" yaml:"display_name"`
	MemberName          string             `json:"member_name" yaml:"member_name"`
	GeoFocus            []string           `json:"geo_focus" yaml:"geo_focus"`
	IndustryPreferences []string           `json:"industry_preferences" yaml:"industry_preferences"`
	TotalSlots          *int               `json:"total_slots,omitempty" yaml:"total_slots,omitempty"`
	Attendance          string             `json:"attendance" yaml:"attendance"`
	Availability        map[uuid.UUID]bool `json:"availability,omitempty" yaml:"availability,omitempty"`
	Profile             ProfileRequest     `json:"profile" yaml:"profile"`
}

type SlotRequest struct {
	ID        uuid.UUID `json:"id" yaml:"id"`
	Ordinal   int       `json:"ordinal" yaml:"ordinal"`
	Label     string    `json:"label" yaml:"label"`
	StartTime time.Time `json:"start_time" yaml:"start_time"`
	EndTime   time.Time `json:"end_time" yaml:"end_time"`
	IsDone    bool      `json:"is_done" yaml:"is_done"`
}

type MatchRequest struct {
	ID               uuid.UUID `json:"id"`
	StartupID        uuid.UUID `json:"startup_id"`
	TargetID         uuid.UUID `json:"target_id"`
	TargetKind       string    `json:"target_kind"`
	TargetMember     string    `json:"target_member"`
	SlotID           uuid.UUID `json:"slot_id"`
	SlotLabel        string    `json:"slot_label"`
	Score            int       `json:"score"`
	Breakdown        []string  `json:"breakdown"`
	Locked           bool      `json:"locked"`
	Completed        bool      `json:"completed"`
	StartupAttending *bool     `json:"startup_attending,omitempty"`
	TargetAttending  *bool     `json:"target_attending,omitempty"`
}

type OptionsRequest struct {
	MaxMeetingsPerStartup int      `json:"max_meetings_per_startup"`
	MemberNameFilter      []string `json:"member_name_filter"`
	MinScore              int      `json:"min_score"`
}

// SnapshotRequest carries a complete event for the stateless endpoints.
type SnapshotRequest struct {
	Startups []StartupRequest `json:"startups"`
	Targets  []TargetRequest  `json:"targets"`
	Slots    []SlotRequest    `json:"slots"`
	Matches  []MatchRequest   `json:"matches"`
	Options  OptionsRequest   `json:"options"`
}

type RosterRequest struct {
	EventName string           `json:"event_name" yaml:"event_name"`
	Startups  []StartupRequest `json:"startups" yaml:"startups"`
	Targets   []TargetRequest  `json:"targets" yaml:"targets"`
	Slots     []SlotRequest    `json:"slots" yaml:"slots"`
}

type RematchRequest struct {
	MaxMeetingsPerStartup *int     `json:"max_meetings_per_startup,omitempty"`
	MemberNameFilter      []string `json:"member_name_filter,omitempty"`
}

type BatchRematchRequest struct {
	EventIDs []uuid.UUID `json:"event_ids"`
	RematchRequest
}

type LockRequest struct {
	Locked bool `json:"locked"`
}

type CompleteRequest struct {
	Completed bool `json:"completed"`
}

type AttendanceRequest struct {
	StartupAttending *bool `json:"startup_attending"`
	TargetAttending  *bool `json:"target_attending"`
}

type MoveRequest struct {
	SlotID uuid.UUID `json:"slot_id"`
}

type SlotDoneRequest struct {
	IsDone bool `json:"is_done"`
}

func (r StartupRequest) ToDomain() participant.Startup {
	return participant.Startup{
		ID:            r.ID,
		CompanyName:   r.CompanyName,
		Industry:      r.Industry,
		FundingStage:  r.FundingStage,
		FundingTarget: r.FundingTarget,
		GeoMarkets:    r.GeoMarkets,
		Attendance:    participant.Attendance(r.Attendance),
		Availability:  participant.Availability(r.Availability),
	}
}

func (r TargetRequest) ToDomain() participant.Target {
	total := DefaultTotalSlots
	if r.TotalSlots != nil {
		total = *r.TotalSlots
	}
	kind := participant.TargetKind(r.Kind)
	t := participant.Target{
		ID:                  r.ID,
		Kind:                kind,
		DisplayName:         r.DisplayName,
		MemberName:          r.MemberName,
		GeoFocus:            r.GeoFocus,
		IndustryPreferences: r.IndustryPreferences,
		TotalSlots:          total,
		Attendance:          participant.Attendance(r.Attendance),
		Availability:        participant.Availability(r.Availability),
	}
	p := r.Profile
	switch kind {
	case participant.KindInvestor:
		t.Profile = participant.InvestorProfile{StagePreferences: p.StagePreferences, MinTicketSize: p.MinTicketSize, MaxTicketSize: p.MaxTicketSize, TableNumber: p.TableNumber}
	case participant.KindMentor:
		t.Profile = participant.MentorProfile{ExpertiseAreas: p.ExpertiseAreas, Email: p.Email, LinkedinURL: p.LinkedinURL}
	case participant.KindCorporate:
		t.Profile = participant.CorporateProfile{PartnershipTypes: p.PartnershipTypes, Stages: p.Stages, ContactName: p.ContactName, Email: p.Email}
	}
	return t
}

func (r SlotRequest) ToDomain() schedule.TimeSlot {
	return schedule.TimeSlot{ID: r.ID, Ordinal: r.Ordinal, Label: r.Label, StartTime: r.StartTime, EndTime: r.EndTime, IsDone: r.IsDone}
}

func (r MatchRequest) ToDomain() schedule.Match {
	m := schedule.Match{
		ID:               r.ID,
		StartupID:        r.StartupID,
		TargetID:         r.TargetID,
		TargetKind:       participant.TargetKind(r.TargetKind),
		TargetMember:     r.TargetMember,
		SlotID:           r.SlotID,
		SlotLabel:        r.SlotLabel,
		Score:            r.Score,
		Breakdown:        r.Breakdown,
		Locked:           r.Locked,
		Completed:        r.Completed,
		StartupAttending: true,
		TargetAttending:  true,
	}
	if r.StartupAttending != nil {
		m.StartupAttending = *r.StartupAttending
	}
	if r.TargetAttending != nil {
		m.TargetAttending = *r.TargetAttending
	}
	return m
}

func startups(in []StartupRequest) []participant.Startup {
	out := make([]participant.Startup, 0, len(in))
	for _, s := range in {
		out = append(out, s.ToDomain())
	}
	return out
}

func targets(in []TargetRequest) []participant.Target {
	out := make([]participant.Target, 0, len(in))
	for _, t := range in {
		out = append(out, t.ToDomain())
	}
	return out
}

func slots(in []SlotRequest) []schedule.TimeSlot {
	out := make([]schedule.TimeSlot, 0, len(in))
	for _, s := range in {
		out = append(out, s.ToDomain())
	}
	return out
}

func (r SnapshotRequest) PreviousMatches() []schedule.Match {
	out := make([]schedule.Match, 0, len(r.Matches))
	for _, m := range r.Matches {
		out = append(out, m.ToDomain())
	}
	return out
}

func (r SnapshotRequest) ToInput() matching.Input {
	return matching.Input{
		Startups: startups(r.Startups),
		Targets:  targets(r.Targets),
		Slots:    slots(r.Slots),
		Previous: r.PreviousMatches(),
		Options: matching.Options{
			MaxMeetingsPerStartup: r.Options.MaxMeetingsPerStartup,
			MemberNameFilter:      r.Options.MemberNameFilter,
			MinScore:              r.Options.MinScore,
		},
	}
}

func (r SnapshotRequest) ToSchedule() schedule.Schedule {
	return schedule.Schedule{Slots: slots(r.Slots), Matches: r.PreviousMatches()}
}

func (r RosterRequest) ToDomain() repository.Roster {
	return repository.Roster{
		EventName: r.EventName,
		Startups:  startups(r.Startups),
		Targets:   targets(r.Targets),
		Slots:     slots(r.Slots),
	}
}
