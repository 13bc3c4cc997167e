package models

// Read-side shapes returned by GET /stats. Field names follow the admin
// dashboard's expectations.

type EventTypeCount struct {
	EventType string `bun:"event_type" json:"event_type"`
	Count     int    `bun:"count" json:"count"`
}

type EventTypeSessions struct {
	EventType string `bun:"event_type" json:"event_type"`
	Sessions  int    `bun:"sessions" json:"sessions"`
}

type DailyEventCount struct {
	Date      string `bun:"date" json:"date"` // YYYY-MM-DD
	EventType string `bun:"event_type" json:"event_type"`
	Count     int    `bun:"count" json:"count"`
}

type TrainingClickCount struct {
	Link   string `bun:"link_name" json:"link"`
	Clicks int    `bun:"clicks" json:"clicks"`
}

// Stats aggregates the five dashboard views in one response.
type Stats struct {
	EventsByType   []EventTypeCount     `json:"eventsByType"`
	SessionsByType []EventTypeSessions  `json:"sessionsByType"`
	DailyEvents    []DailyEventCount    `json:"dailyEvents"`
	TotalSessions  int                  `json:"totalSessions"`
	TrainingClicks []TrainingClickCount `json:"trainingClicks"`
}
