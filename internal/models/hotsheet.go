package models

import "time"

type NotificationSchedule string

const (
	ScheduleImmediate NotificationSchedule = "immediate"
	ScheduleDaily     NotificationSchedule = "daily"
	ScheduleWeekly    NotificationSchedule = "weekly"
)

// HotSheet is a persisted, recurring saved search owned by one agent,
// optionally tied to one client. Disabled via IsActive=false rather than
// deleted so notification history survives.
type HotSheet struct {
	ID        string               `json:"id"`
	AgentID   string               `json:"agentId"`
	ClientID  string               `json:"clientId,omitempty"`
	Name      string               `json:"name"`
	Criteria  CriteriaRecord       `json:"criteria"`
	Schedule  NotificationSchedule `json:"schedule"`
	IsActive  bool                 `json:"isActive"`
	LastRunAt *time.Time           `json:"lastRunAt,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}
