package models

import "time"

const (
	CalendarSourceTransaction = "transaction"
	CalendarSourceMeeting     = "meeting"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Meeting struct {
	ID          string
	Title       string
	Date        time.Time
	Description string
	Priority    string
	AllDay      bool
}

type CreateMeetingRequest struct {
	Title       string
	Date        time.Time
	Description string
	Priority    string
	AllDay      bool
}

type CalendarItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount,omitempty"`
	Income      bool      `json:"direction,omitempty"`
	Description string    `json:"description,omitempty"`
	EstateID    int64     `json:"estateId,omitempty"`
	Color       string    `json:"color,omitempty"`
	Priority    string    `json:"priority,omitempty"`
	AllDay      bool      `json:"isAllDay,omitempty"`
	Source      string    `json:"source"`
}
