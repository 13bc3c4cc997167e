package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Event is one immutable observed user action. Rows are never updated or
// deleted by the application.
type Event struct {
	bun.BaseModel `bun:"table:kpi_events,alias:e"`

	ID        int64   `bun:"id,pk,autoincrement" json:"id"`
	SessionID string  `bun:"session_id,notnull" json:"session_id"`
	EventType string  `bun:"event_type,notnull" json:"event_type"`
	PagePath  *string `bun:"page_path" json:"page_path,omitempty"`
	Referrer  *string `bun:"referrer" json:"referrer,omitempty"`

	// Extra is a free-form payload. Only cyber_training_click carries a
	// known shape today ({"link": <name>}).
	Extra map[string]any `bun:"extra,type:jsonb,nullzero" json:"extra,omitempty"`

	CreatedAt time.Time `bun:"created_at,notnull,nullzero,default:now()" json:"created_at"`
}

// Known event types of the awareness funnel. The column itself is a plain
// string so a new campaign page can introduce a type without a deploy.
const (
	EventQRScan             = "qr_scan"
	EventENTButtonClick     = "ent_button_click"
	EventStartTyping        = "start_typing"
	EventModalShown         = "modal_shown"
	EventModalClosed        = "modal_closed"
	EventCyberTrainingClick = "cyber_training_click"
)

var _ bun.BeforeInsertHook = (*Event)(nil)

func (e *Event) BeforeInsert(ctx context.Context, query *bun.InsertQuery) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return nil
}
