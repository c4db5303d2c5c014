package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ScheduleUpdatedEvent struct {
	Type        string `json:"type"`
	EventID     string `json:"event_id"`
	Reason      string `json:"reason"`
	Matches     int    `json:"matches"`
	Unscheduled int    `json:"unscheduled"`
	Conflicts   int    `json:"conflicts"`
	Timestamp   string `json:"timestamp"`
}

type ScheduleSummary struct {
	Matches     int
	Unscheduled int
	Conflicts   int
}

// NotifyScheduleUpdated tells subscribers of eventID to refetch the schedule.
func (h *Hub) NotifyScheduleUpdated(eventID uuid.UUID, reason string, sum ScheduleSummary) {
	if h == nil {
		return
	}
	evt := ScheduleUpdatedEvent{
		Type:        "schedule_updated",
		EventID:     eventID.String(),
		Reason:      reason,
		Matches:     sum.Matches,
		Unscheduled: sum.Unscheduled,
		Conflicts:   sum.Conflicts,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	h.Broadcast(eventID, b)
}
