package handlers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/campuscyber/cyberkpi/internal/services"
	"github.com/gofiber/fiber/v3"
	"github.com/xuri/excelize/v2"
)

type StatsHandler struct {
	statsService *services.StatsService
	cacheMaxAge  time.Duration
}

func NewStatsHandler(statsService *services.StatsService, cacheMaxAge time.Duration) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
		cacheMaxAge:  cacheMaxAge,
	}
}

// Stats returns the five dashboard views as one JSON object. The response
// is cacheable for a short window: the dashboard is near-real-time, not
// transactional.
func (h *StatsHandler) Stats(c fiber.Ctx) error {
	stats, err := h.statsService.Collect(context.Background())
	if err != nil {
		log.Printf("[KPI Stats] Failed to compute stats: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal server error",
			"details": err.Error(),
		})
	}

	c.Set(fiber.HeaderCacheControl, fmt.Sprintf("public, max-age=%d", int(h.cacheMaxAge.Seconds())))
	return c.JSON(stats)
}

// Export streams the same aggregates as an XLSX workbook, one sheet per
// view, for the campaign report. Admin only.
func (h *StatsHandler) Export(c fiber.Ctx) error {
	stats, err := h.statsService.Collect(context.Background())
	if err != nil {
		log.Printf("[KPI Stats] Failed to compute stats for export: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal server error",
			"details": err.Error(),
		})
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", "Events")
	f.SetCellValue("Events", "A1", "Event type")
	f.SetCellValue("Events", "B1", "Events")
	f.SetCellValue("Events", "C1", "Sessions")
	sessionsByType := make(map[string]int, len(stats.SessionsByType))
	for _, row := range stats.SessionsByType {
		sessionsByType[row.EventType] = row.Sessions
	}
	for i, row := range stats.EventsByType {
		f.SetCellValue("Events", fmt.Sprintf("A%d", i+2), row.EventType)
		f.SetCellValue("Events", fmt.Sprintf("B%d", i+2), row.Count)
		f.SetCellValue("Events", fmt.Sprintf("C%d", i+2), sessionsByType[row.EventType])
	}

	if _, err := f.NewSheet("Daily"); err == nil {
		f.SetCellValue("Daily", "A1", "Date")
		f.SetCellValue("Daily", "B1", "Event type")
		f.SetCellValue("Daily", "C1", "Count")
		for i, row := range stats.DailyEvents {
			f.SetCellValue("Daily", fmt.Sprintf("A%d", i+2), row.Date)
			f.SetCellValue("Daily", fmt.Sprintf("B%d", i+2), row.EventType)
			f.SetCellValue("Daily", fmt.Sprintf("C%d", i+2), row.Count)
		}
	}

	if _, err := f.NewSheet("Training"); err == nil {
		f.SetCellValue("Training", "A1", "Link")
		f.SetCellValue("Training", "B1", "Clicks")
		for i, row := range stats.TrainingClicks {
			f.SetCellValue("Training", fmt.Sprintf("A%d", i+2), row.Link)
			f.SetCellValue("Training", fmt.Sprintf("B%d", i+2), row.Clicks)
		}
	}

	if _, err := f.NewSheet("Summary"); err == nil {
		f.SetCellValue("Summary", "A1", "Total sessions")
		f.SetCellValue("Summary", "B1", stats.TotalSessions)
		f.SetCellValue("Summary", "A2", "Generated at")
		f.SetCellValue("Summary", "B2", time.Now().Format(time.RFC3339))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		log.Printf("[KPI Stats] Failed to build workbook: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal server error",
			"details": err.Error(),
		})
	}

	filename := fmt.Sprintf("kpi-stats-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return c.Send(buf.Bytes())
}
