package handlers

import (
	"context"
	"log"
	"time"

	"github.com/campuscyber/cyberkpi/internal/database"
	"github.com/campuscyber/cyberkpi/internal/models"
	"github.com/campuscyber/cyberkpi/internal/rabbitmq"
	"github.com/gofiber/fiber/v3"
)

type CollectHandler struct{}

func NewCollectHandler() *CollectHandler {
	return &CollectHandler{}
}

// CollectPayload is the wire shape the tracking client sends.
type CollectPayload struct {
	Type       string         `json:"type"`
	SessionID  string         `json:"sessionId"`
	Page       *string        `json:"page,omitempty"`
	Referrer   *string        `json:"referrer,omitempty"`
	UserAgent  *string        `json:"userAgent,omitempty"`
	DeviceType *string        `json:"deviceType,omitempty"`
	Language   *string        `json:"language,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// Collect stores one tracked event: upsert the session row, then append
// the event row. The two writes are deliberately independent statements;
// a session row without events is harmless for the read model.
func (h *CollectHandler) Collect(c fiber.Ctx) error {
	var payload CollectPayload
	if err := c.Bind().JSON(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if payload.Type == "" || payload.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing required fields: type and sessionId",
		})
	}

	ctx := context.Background()
	now := time.Now()

	// Session upsert: metadata and first_seen stick to the first
	// observation, only last_seen moves on conflict
	session := &models.Session{
		SessionID:  payload.SessionID,
		UserAgent:  payload.UserAgent,
		DeviceType: payload.DeviceType,
		Language:   payload.Language,
		FirstSeen:  now,
		LastSeen:   now,
	}

	_, err := database.DB.NewInsert().
		Model(session).
		On("CONFLICT (session_id) DO UPDATE").
		Set("last_seen = EXCLUDED.last_seen").
		Exec(ctx)
	if err != nil {
		log.Printf("[KPI] Failed to upsert session: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal server error",
			"details": err.Error(),
		})
	}

	event := &models.Event{
		SessionID: payload.SessionID,
		EventType: payload.Type,
		PagePath:  payload.Page,
		Referrer:  payload.Referrer,
		Extra:     payload.Extra,
		CreatedAt: now,
	}

	_, err = database.DB.NewInsert().Model(event).Exec(ctx)
	if err != nil {
		log.Printf("[KPI] Failed to insert event: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal server error",
			"details": err.Error(),
		})
	}

	// Best-effort alert feed; a missing or dead broker never fails ingestion
	if rabbitmq.Client != nil {
		msg := rabbitmq.EventMessage{
			EventType: event.EventType,
			SessionID: event.SessionID,
			CreatedAt: now.Format(time.RFC3339),
		}
		if event.PagePath != nil {
			msg.PagePath = *event.PagePath
		}
		if err := rabbitmq.PublishEvent(msg); err != nil {
			log.Printf("[KPI] Failed to publish event to alert feed: %v", err)
		}
	}

	return c.JSON(fiber.Map{"ok": true})
}
