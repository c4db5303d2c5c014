package matching

import (
	"matchmaking/internal/domain/schedule"

	"github.com/google/uuid"
)

// Usage is the running occupancy of a schedule: which slots each startup,
// target and member already sits in, how many meetings each side has, and
// which pairs already met.
type Usage struct {
	startupSlots map[uuid.UUID]map[uuid.UUID]bool
	targetSlots  map[uuid.UUID]map[uuid.UUID]bool
	memberSlots  map[string]map[uuid.UUID]bool

	targetCommitted map[uuid.UUID]int
	startupMeetings map[uuid.UUID]int
	pairs           map[schedule.PairKey]bool
}

func NewUsage() *Usage {
	return &Usage{
		startupSlots:    map[uuid.UUID]map[uuid.UUID]bool{},
		targetSlots:     map[uuid.UUID]map[uuid.UUID]bool{},
		memberSlots:     map[string]map[uuid.UUID]bool{},
		targetCommitted: map[uuid.UUID]int{},
		startupMeetings: map[uuid.UUID]int{},
		pairs:           map[schedule.PairKey]bool{},
	}
}

// UsageOf seeds occupancy from matches that must stay where they are.
func UsageOf(matches []schedule.Match) *Usage {
	u := NewUsage()
	for _, m := range matches {
		u.Reserve(m)
	}
	return u
}

func (u *Usage) Reserve(m schedule.Match) {
	mark(u.startupSlots, m.StartupID, m.SlotID)
	mark(u.targetSlots, m.TargetID, m.SlotID)
	if u.memberSlots[m.MemberKey()] == nil {
		u.memberSlots[m.MemberKey()] = map[uuid.UUID]bool{}
	}
	u.memberSlots[m.MemberKey()][m.SlotID] = true
	u.targetCommitted[m.TargetID]++
	u.startupMeetings[m.StartupID]++
	u.pairs[m.Pair()] = true
}

func (u *Usage) Clone() *Usage {
	c := NewUsage()
	for k, v := range u.startupSlots {
		c.startupSlots[k] = cloneSet(v)
	}
	for k, v := range u.targetSlots {
		c.targetSlots[k] = cloneSet(v)
	}
	for k, v := range u.memberSlots {
		c.memberSlots[k] = cloneSet(v)
	}
	for k, v := range u.targetCommitted {
		c.targetCommitted[k] = v
	}
	for k, v := range u.startupMeetings {
		c.startupMeetings[k] = v
	}
	for k, v := range u.pairs {
		c.pairs[k] = v
	}
	return c
}

func (u *Usage) StartupBusy(startupID, slotID uuid.UUID) bool {
	return u.startupSlots[startupID][slotID]
}

func (u *Usage) TargetBusy(targetID, slotID uuid.UUID) bool {
	return u.targetSlots[targetID][slotID]
}

func (u *Usage) MemberBusy(memberKey string, slotID uuid.UUID) bool {
	return u.memberSlots[memberKey][slotID]
}

func (u *Usage) Committed(targetID uuid.UUID) int {
	return u.targetCommitted[targetID]
}

func (u *Usage) Meetings(startupID uuid.UUID) int {
	return u.startupMeetings[startupID]
}

func (u *Usage) HasPair(startupID, targetID uuid.UUID) bool {
	return u.pairs[schedule.PairKey{StartupID: startupID, TargetID: targetID}]
}

func mark(m map[uuid.UUID]map[uuid.UUID]bool, owner, slot uuid.UUID) {
	if m[owner] == nil {
		m[owner] = map[uuid.UUID]bool{}
	}
	m[owner][slot] = true
}

func cloneSet(in map[uuid.UUID]bool) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
