package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"matchmaking/internal/database"
	"matchmaking/internal/database/postgres"
	"matchmaking/internal/domain/participant"
	"matchmaking/internal/domain/schedule"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrMatchNotFound  = errors.New("match not found")
	ErrSlotNotFound   = errors.New("slot not found")
	ErrDuplicateMatch = errors.New("duplicate match")
)

// Snapshot is everything the engine needs to know about one event.
type Snapshot struct {
	EventID   uuid.UUID
	EventName string
	Startups  []participant.Startup
	Targets   []participant.Target
	Slots     []schedule.TimeSlot
	Matches   []schedule.Match
}

// Roster is the participant and slot data imported for an event.
type Roster struct {
	EventName string
	Startups  []participant.Startup
	Targets   []participant.Target
	Slots     []schedule.TimeSlot
}

type EventRepository interface {
	ListEventIDs(ctx context.Context) ([]uuid.UUID, error)
	LoadSnapshot(ctx context.Context, eventID uuid.UUID) (Snapshot, error)
	SaveRoster(ctx context.Context, eventID uuid.UUID, roster Roster) error
	ReplaceMatches(ctx context.Context, eventID uuid.UUID, matches []schedule.Match) error
	UpdateMatch(ctx context.Context, eventID uuid.UUID, m schedule.Match) error
	SetSlotDone(ctx context.Context, eventID, slotID uuid.UUID, done bool) error
}

type PostgresEventRepository struct {
	db database.DB
}

func NewPostgresEventRepository(db database.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

func (r *PostgresEventRepository) ListEventIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM events ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *PostgresEventRepository) LoadSnapshot(ctx context.Context, eventID uuid.UUID) (Snapshot, error) {
	snap := Snapshot{EventID: eventID}

	row := r.db.QueryRow(ctx, `SELECT name FROM events WHERE id = $1`, eventID)
	if err := row.Scan(&snap.EventName); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
		}
		return Snapshot{}, err
	}

	var err error
	if snap.Startups, err = r.loadStartups(ctx, eventID); err != nil {
		return Snapshot{}, fmt.Errorf("load startups: %w", err)
	}
	if snap.Targets, err = r.loadTargets(ctx, eventID); err != nil {
		return Snapshot{}, fmt.Errorf("load targets: %w", err)
	}
	if snap.Slots, err = r.loadSlots(ctx, eventID); err != nil {
		return Snapshot{}, fmt.Errorf("load slots: %w", err)
	}
	if snap.Matches, err = r.loadMatches(ctx, eventID); err != nil {
		return Snapshot{}, fmt.Errorf("load matches: %w", err)
	}
	return snap, nil
}

func (r *PostgresEventRepository) loadStartups(ctx context.Context, eventID uuid.UUID) ([]participant.Startup, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, company_name, industry, funding_stage, funding_target, geo_markets, attendance, availability
		 FROM startups
		 WHERE event_id = $1
		 ORDER BY id`,
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]participant.Startup, 0)
	for rows.Next() {
		var s participant.Startup
		var attendance string
		var availability []byte
		if err := rows.Scan(&s.ID, &s.CompanyName, &s.Industry, &s.FundingStage, &s.FundingTarget, &s.GeoMarkets, &attendance, &availability); err != nil {
			return nil, err
		}
		s.Attendance = participant.Attendance(attendance)
		if s.Availability, err = decodeAvailability(availability); err != nil {
			return nil, fmt.Errorf("startup %s: %w", s.ID, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresEventRepository) loadTargets(ctx context.Context, eventID uuid.UUID) ([]participant.Target, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, kind, display_name, member_name, geo_focus, industry_preferences, total_slots, attendance, availability, profile
		 FROM targets
		 WHERE event_id = $1
		 ORDER BY id`,
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]participant.Target, 0)
	for rows.Next() {
		var t participant.Target
		var kind, attendance string
		var availability, profile []byte
		if err := rows.Scan(&t.ID, &kind, &t.DisplayName, &t.MemberName, &t.GeoFocus, &t.IndustryPreferences, &t.TotalSlots, &attendance, &availability, &profile); err != nil {
			return nil, err
		}
		t.Kind = participant.TargetKind(kind)
		t.Attendance = participant.Attendance(attendance)
		if t.Availability, err = decodeAvailability(availability); err != nil {
			return nil, fmt.Errorf("target %s: %w", t.ID, err)
		}
		if t.Profile, err = decodeProfile(t.Kind, profile); err != nil {
			return nil, fmt.Errorf("target %s: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresEventRepository) loadSlots(ctx context.Context, eventID uuid.UUID) ([]schedule.TimeSlot, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, ordinal, label, start_time, end_time, is_done
		 FROM time_slots
		 WHERE event_id = $1
		 ORDER BY ordinal`,
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]schedule.TimeSlot, 0)
	for rows.Next() {
		var s schedule.TimeSlot
		if err := rows.Scan(&s.ID, &s.Ordinal, &s.Label, &s.StartTime, &s.EndTime, &s.IsDone); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresEventRepository) loadMatches(ctx context.Context, eventID uuid.UUID) ([]schedule.Match, error) {
	rows, err := r.db.Query(ctx,
		`SELECT m.id, m.startup_id, m.target_id, m.target_kind, m.target_member, m.slot_id, m.slot_label,
		        m.score, m.breakdown, m.locked, m.completed, m.startup_attending, m.target_attending
		 FROM matches m
		 JOIN time_slots s ON s.id = m.slot_id
		 WHERE m.event_id = $1
		 ORDER BY s.ordinal, m.startup_id, m.target_id`,
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]schedule.Match, 0)
	for rows.Next() {
		var m schedule.Match
		var kind string
		if err := rows.Scan(&m.ID, &m.StartupID, &m.TargetID, &kind, &m.TargetMember, &m.SlotID, &m.SlotLabel,
			&m.Score, &m.Breakdown, &m.Locked, &m.Completed, &m.StartupAttending, &m.TargetAttending); err != nil {
			return nil, err
		}
		m.TargetKind = participant.TargetKind(kind)
		out = append(out, m)
	}
	return out, rows.Err()
}

// SaveRoster upserts the event, its participants and its slots. Participants
// and slots missing from roster are deleted together with their matches.
func (r *PostgresEventRepository) SaveRoster(ctx context.Context, eventID uuid.UUID, roster Roster) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO events (id, name) VALUES ($1, $2)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = now()`,
			eventID, roster.EventName,
		); err != nil {
			return fmt.Errorf("upsert event: %w", err)
		}

		startupIDs := make([]uuid.UUID, 0, len(roster.Startups))
		for _, s := range roster.Startups {
			availability, err := json.Marshal(availabilityOrEmpty(s.Availability))
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO startups (id, event_id, company_name, industry, funding_stage, funding_target, geo_markets, attendance, availability)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				 ON CONFLICT (id) DO UPDATE SET
				   company_name = EXCLUDED.company_name,
				   industry = EXCLUDED.industry,
				   funding_stage = EXCLUDED.funding_stage,
				   funding_target = EXCLUDED.funding_target,
				   geo_markets = EXCLUDED.geo_markets,
				   attendance = EXCLUDED.attendance,
				   availability = EXCLUDED.availability`,
				s.ID, eventID, s.CompanyName, s.Industry, s.FundingStage, s.FundingTarget,
				stringsOrEmpty(s.GeoMarkets), attendanceOrPresent(s.Attendance), availability,
			); err != nil {
				return fmt.Errorf("upsert startup %s: %w", s.ID, err)
			}
			startupIDs = append(startupIDs, s.ID)
		}

		targetIDs := make([]uuid.UUID, 0, len(roster.Targets))
		for _, t := range roster.Targets {
			availability, err := json.Marshal(availabilityOrEmpty(t.Availability))
			if err != nil {
				return err
			}
			profile, err := encodeProfile(t.Profile)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO targets (id, event_id, kind, display_name, member_name, geo_focus, industry_preferences, total_slots, attendance, availability, profile)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
				 ON CONFLICT (id) DO UPDATE SET
				   kind = EXCLUDED.kind,
				   display_name = EXCLUDED.display_name,
				   member_name = EXCLUDED.member_name,
				   geo_focus = EXCLUDED.geo_focus,
				   industry_preferences = EXCLUDED.industry_preferences,
				   total_slots = EXCLUDED.total_slots,
				   attendance = EXCLUDED.attendance,
				   availability = EXCLUDED.availability,
				   profile = EXCLUDED.profile`,
				t.ID, eventID, string(t.Kind), t.DisplayName, t.MemberName,
				stringsOrEmpty(t.GeoFocus), stringsOrEmpty(t.IndustryPreferences), t.TotalSlots,
				attendanceOrPresent(t.Attendance), availability, profile,
			); err != nil {
				return fmt.Errorf("upsert target %s: %w", t.ID, err)
			}
			targetIDs = append(targetIDs, t.ID)
		}

		slotIDs := make([]uuid.UUID, 0, len(roster.Slots))
		for _, s := range roster.Slots {
			if _, err := tx.Exec(ctx,
				`INSERT INTO time_slots (id, event_id, ordinal, label, start_time, end_time, is_done)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)
				 ON CONFLICT (id) DO UPDATE SET
				   ordinal = EXCLUDED.ordinal,
				   label = EXCLUDED.label,
				   start_time = EXCLUDED.start_time,
				   end_time = EXCLUDED.end_time,
				   is_done = EXCLUDED.is_done`,
				s.ID, eventID, s.Ordinal, s.Label, s.StartTime, s.EndTime, s.IsDone,
			); err != nil {
				return fmt.Errorf("upsert slot %s: %w", s.ID, err)
			}
			slotIDs = append(slotIDs, s.ID)
		}

		for _, q := range []struct {
			table string
			ids   []uuid.UUID
		}{
			{"startups", startupIDs},
			{"targets", targetIDs},
			{"time_slots", slotIDs},
		} {
			if _, err := tx.Exec(ctx,
				`DELETE FROM `+q.table+` WHERE event_id = $1 AND NOT (id = ANY($2))`,
				eventID, q.ids,
			); err != nil {
				return fmt.Errorf("prune %s: %w", q.table, err)
			}
		}
		return nil
	})
}

// ReplaceMatches swaps the stored schedule of an event for matches in a
// single transaction.
func (r *PostgresEventRepository) ReplaceMatches(ctx context.Context, eventID uuid.UUID, matches []schedule.Match) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM matches WHERE event_id = $1`, eventID); err != nil {
			return fmt.Errorf("clear matches: %w", err)
		}
		for _, m := range matches {
			if _, err := tx.Exec(ctx,
				`INSERT INTO matches (id, event_id, startup_id, target_id, target_kind, target_member, slot_id, slot_label,
				                      score, breakdown, locked, completed, startup_attending, target_attending)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
				m.ID, eventID, m.StartupID, m.TargetID, string(m.TargetKind), m.TargetMember, m.SlotID, m.SlotLabel,
				m.Score, stringsOrEmpty(m.Breakdown), m.Locked, m.Completed, m.StartupAttending, m.TargetAttending,
			); err != nil {
				if postgres.IsUniqueViolation(err) {
					return fmt.Errorf("%w: startup=%s target=%s", ErrDuplicateMatch, m.StartupID, m.TargetID)
				}
				return fmt.Errorf("insert match %s: %w", m.ID, err)
			}
		}
		if _, err := tx.Exec(ctx, `UPDATE events SET updated_at = now() WHERE id = $1`, eventID); err != nil {
			return fmt.Errorf("touch event: %w", err)
		}
		return nil
	})
}

func (r *PostgresEventRepository) UpdateMatch(ctx context.Context, eventID uuid.UUID, m schedule.Match) error {
	n, err := r.db.Exec(ctx,
		`UPDATE matches
		 SET slot_id = $3, slot_label = $4, locked = $5, completed = $6,
		     startup_attending = $7, target_attending = $8, updated_at = now()
		 WHERE event_id = $1 AND id = $2`,
		eventID, m.ID, m.SlotID, m.SlotLabel, m.Locked, m.Completed, m.StartupAttending, m.TargetAttending,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, m.ID)
	}
	return nil
}

func (r *PostgresEventRepository) SetSlotDone(ctx context.Context, eventID, slotID uuid.UUID, done bool) error {
	n, err := r.db.Exec(ctx,
		`UPDATE time_slots SET is_done = $3 WHERE event_id = $1 AND id = $2`,
		eventID, slotID, done,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSlotNotFound, slotID)
	}
	return nil
}

type profileDoc struct {
	StagePreferences []string `json:"stage_preferences,omitempty"`
	MinTicketSize    int64    `json:"min_ticket_size,omitempty"`
	MaxTicketSize    int64    `json:"max_ticket_size,omitempty"`
	TableNumber      string   `json:"table_number,omitempty"`
	ExpertiseAreas   []string `json:"expertise_areas,omitempty"`
	LinkedinURL      string   `json:"linkedin_url,omitempty"`
	PartnershipTypes []string `json:"partnership_types,omitempty"`
	Stages           []string `json:"stages,omitempty"`
	ContactName      string   `json:"contact_name,omitempty"`
	Email            string   `json:"email,omitempty"`
}

func encodeProfile(p participant.Profile) ([]byte, error) {
	var doc profileDoc
	switch v := p.(type) {
	case nil:
	case participant.InvestorProfile:
		doc = profileDoc{StagePreferences: v.StagePreferences, MinTicketSize: v.MinTicketSize, MaxTicketSize: v.MaxTicketSize, TableNumber: v.TableNumber}
	case participant.MentorProfile:
		doc = profileDoc{ExpertiseAreas: v.ExpertiseAreas, Email: v.Email, LinkedinURL: v.LinkedinURL}
	case participant.CorporateProfile:
		doc = profileDoc{PartnershipTypes: v.PartnershipTypes, Stages: v.Stages, ContactName: v.ContactName, Email: v.Email}
	default:
		return nil, fmt.Errorf("unsupported profile %T", p)
	}
	return json.Marshal(doc)
}

func decodeProfile(kind participant.TargetKind, b []byte) (participant.Profile, error) {
	var doc profileDoc
	if len(b) > 0 {
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
	}
	switch kind {
	case participant.KindInvestor:
		return participant.InvestorProfile{StagePreferences: doc.StagePreferences, MinTicketSize: doc.MinTicketSize, MaxTicketSize: doc.MaxTicketSize, TableNumber: doc.TableNumber}, nil
	case participant.KindMentor:
		return participant.MentorProfile{ExpertiseAreas: doc.ExpertiseAreas, Email: doc.Email, LinkedinURL: doc.LinkedinURL}, nil
	case participant.KindCorporate:
		return participant.CorporateProfile{PartnershipTypes: doc.PartnershipTypes, Stages: doc.Stages, ContactName: doc.ContactName, Email: doc.Email}, nil
	default:
		return nil, fmt.Errorf("unknown target kind %q", kind)
	}
}

func decodeAvailability(b []byte) (participant.Availability, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var out participant.Availability
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode availability: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func availabilityOrEmpty(a participant.Availability) participant.Availability {
	if a == nil {
		return participant.Availability{}
	}
	return a
}

func stringsOrEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func attendanceOrPresent(a participant.Attendance) string {
	if a == "" {
		return string(participant.AttendancePresent)
	}
	return string(a)
}
