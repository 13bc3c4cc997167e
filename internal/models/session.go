package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Session is one anonymous browser identity. The row is created on the
// first event a visitor emits and only last_seen moves afterwards; the
// client metadata always reflects the first observation.
type Session struct {
	bun.BaseModel `bun:"table:kpi_sessions,alias:s"`

	SessionID  string  `bun:"session_id,pk" json:"session_id"`
	UserAgent  *string `bun:"user_agent" json:"user_agent,omitempty"`
	DeviceType *string `bun:"device_type" json:"device_type,omitempty"`
	Language   *string `bun:"language" json:"language,omitempty"`

	FirstSeen time.Time `bun:"first_seen,notnull,nullzero,default:now()" json:"first_seen"`
	LastSeen  time.Time `bun:"last_seen,notnull,nullzero,default:now()" json:"last_seen"`
}

// Device types as stored in device_type. Derived client-side from a
// coarse user-agent substring check; tablets land wherever they land.
const (
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
)

var _ bun.BeforeInsertHook = (*Session)(nil)

func (s *Session) BeforeInsert(ctx context.Context, query *bun.InsertQuery) error {
	now := time.Now()
	if s.FirstSeen.IsZero() {
		s.FirstSeen = now
	}
	if s.LastSeen.IsZero() {
		s.LastSeen = now
	}
	return nil
}
