package participant

import (
	"strings"

	"github.com/google/uuid"
)

type Attendance string

const (
	AttendancePresent      Attendance = "present"
	AttendanceNotAttending Attendance = "not-attending"
)

// Valid reports whether a is a known attendance value. The empty value is
// accepted and treated as present.
func (a Attendance) Valid() bool {
	switch a {
	case "", AttendancePresent, AttendanceNotAttending:
		return true
	default:
		return false
	}
}

func (a Attendance) IsPresent() bool {
	return a == "" || a == AttendancePresent
}

type TargetKind string

const (
	KindInvestor  TargetKind = "investor"
	KindMentor    TargetKind = "mentor"
	KindCorporate TargetKind = "corporate"
)

func (k TargetKind) Valid() bool {
	switch k {
	case KindInvestor, KindMentor, KindCorporate:
		return true
	default:
		return false
	}
}

// Availability holds per-slot overrides. A slot missing from the map is
// available.
type Availability map[uuid.UUID]bool

func (a Availability) Allows(slotID uuid.UUID) bool {
	if a == nil {
		return true
	}
	ok, set := a[slotID]
	if !set {
		return true
	}
	return ok
}

type Startup struct {
	ID            uuid.UUID
	CompanyName   string
	Industry      string
	FundingStage  string
	FundingTarget int64
	GeoMarkets    []string
	Attendance    Attendance
	Availability  Availability
}

// Participant is the capability every target exposes regardless of kind.
type Participant interface {
	GeoFocusSet() []string
	IndustryPreferenceSet() []string
	Capacity() int
	AttendanceStatus() Attendance
}

// Profile carries the kind-specific preference data of a target.
type Profile interface {
	Kind() TargetKind
}

// StageDeclarer is implemented by profiles that express funding stage
// preferences.
type StageDeclarer interface {
	DeclaredStages() []string
}

type InvestorProfile struct {
	StagePreferences []string
	MinTicketSize    int64
	MaxTicketSize    int64
	TableNumber      string
}

func (InvestorProfile) Kind() TargetKind { return KindInvestor }

func (p InvestorProfile) DeclaredStages() []string { return p.StagePreferences }

type MentorProfile struct {
	ExpertiseAreas []string
	Email          string
	LinkedinURL    string
}

func (MentorProfile) Kind() TargetKind { return KindMentor }

type CorporateProfile struct {
	PartnershipTypes []string
	Stages           []string
	ContactName      string
	Email            string
}

func (CorporateProfile) Kind() TargetKind { return KindCorporate }

func (p CorporateProfile) DeclaredStages() []string { return p.Stages }

type Target struct {
	ID                  uuid.UUID
	Kind                TargetKind
	DisplayName         string
	MemberName          string
	GeoFocus            []string
	IndustryPreferences []string
	TotalSlots          int
	Attendance          Attendance
	Availability        Availability
	Profile             Profile
}

var _ Participant = Target{}

func (t Target) GeoFocusSet() []string           { return t.GeoFocus }
func (t Target) IndustryPreferenceSet() []string { return t.IndustryPreferences }
func (t Target) Capacity() int                   { return t.TotalSlots }
func (t Target) AttendanceStatus() Attendance    { return t.Attendance }

// MemberKey identifies the human behind a target. Targets without a member
// name fall back to their own id so they never collide with each other.
func (t Target) MemberKey() string {
	return MemberKey(t.ID, t.MemberName)
}

func MemberKey(targetID uuid.UUID, memberName string) string {
	n := NormalizeTag(memberName)
	if n == "" {
		return "target:" + targetID.String()
	}
	return "member:" + n
}

// NormalizeTag lowercases, trims and collapses inner whitespace so tags coming
// from different import paths compare equal.
func NormalizeTag(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}
