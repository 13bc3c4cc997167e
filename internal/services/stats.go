package services

import (
	"context"
	"fmt"

	"github.com/campuscyber/cyberkpi/internal/database"
	"github.com/campuscyber/cyberkpi/internal/models"
)

// StatsService computes the dashboard aggregates. All five views are
// independent read-only queries; nothing here mutates state.
type StatsService struct{}

func NewStatsService() *StatsService {
	return &StatsService{}
}

// Collect runs the five aggregate queries and assembles the response.
func (s *StatsService) Collect(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{
		EventsByType:   []models.EventTypeCount{},
		SessionsByType: []models.EventTypeSessions{},
		DailyEvents:    []models.DailyEventCount{},
		TrainingClicks: []models.TrainingClickCount{},
	}

	// 1. Total events per type
	err := database.DB.NewSelect().
		Model((*models.Event)(nil)).
		Column("event_type").
		ColumnExpr("COUNT(*) AS count").
		Group("event_type").
		OrderExpr("count DESC").
		Scan(ctx, &stats.EventsByType)
	if err != nil {
		return nil, fmt.Errorf("events by type: %w", err)
	}

	// 2. Distinct sessions per type (conversion funnel)
	err = database.DB.NewSelect().
		Model((*models.Event)(nil)).
		Column("event_type").
		ColumnExpr("COUNT(DISTINCT session_id) AS sessions").
		Group("event_type").
		OrderExpr("sessions DESC").
		Scan(ctx, &stats.SessionsByType)
	if err != nil {
		return nil, fmt.Errorf("sessions by type: %w", err)
	}

	// 3. Daily counts, last 30 days
	err = database.DB.NewSelect().
		Model((*models.Event)(nil)).
		ColumnExpr("to_char(created_at, 'YYYY-MM-DD') AS date").
		Column("event_type").
		ColumnExpr("COUNT(*) AS count").
		Where("created_at >= NOW() - INTERVAL '30 days'").
		GroupExpr("to_char(created_at, 'YYYY-MM-DD'), event_type").
		OrderExpr("date DESC, event_type").
		Scan(ctx, &stats.DailyEvents)
	if err != nil {
		return nil, fmt.Errorf("daily events: %w", err)
	}

	// 4. Total unique sessions
	total, err := database.DB.NewSelect().
		Model((*models.Session)(nil)).
		Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("total sessions: %w", err)
	}
	stats.TotalSessions = total

	// 5. Training link clicks, grouped by extra.link
	err = database.DB.NewSelect().
		Model((*models.Event)(nil)).
		ColumnExpr("extra->>'link' AS link_name").
		ColumnExpr("COUNT(*) AS clicks").
		Where("event_type = ?", models.EventCyberTrainingClick).
		Where("extra IS NOT NULL").
		Where("jsonb_exists(extra, 'link')").
		GroupExpr("extra->>'link'").
		OrderExpr("clicks DESC").
		Scan(ctx, &stats.TrainingClicks)
	if err != nil {
		return nil, fmt.Errorf("training clicks: %w", err)
	}

	return stats, nil
}
