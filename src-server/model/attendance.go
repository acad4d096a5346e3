package model

import (
	"github.com/uptrace/bun"
)

// Exactly one row per (user, event) pair, enforced by the unique
// index rather than an application-level check alone.
type Attendance struct {
	bun.BaseModel `bun:"table:attendances"`

	ID              int64 `bun:"id,pk,autoincrement"`
	UserID          int64 `bun:"user_id,notnull,unique:attendances_user_event_key"`  // required
	EventID         int64 `bun:"event_id,notnull,unique:attendances_user_event_key"` // required
	ScanTimeUnixUTC int64 `bun:"scan_time,notnull"`                                  // required

	User        *User        `bun:"rel:belongs-to,join:user_id=id"`
	Event       *Event       `bun:"rel:belongs-to,join:event_id=id"`
	Certificate *Certificate `bun:"rel:has-one,join:user_id=user_id,join:event_id=event_id"`
}
