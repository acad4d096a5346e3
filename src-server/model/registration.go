package model

import (
	"github.com/uptrace/bun"
)

// One row per (event, user) pair; the unique index makes a second
// sign-up for the same event a constraint violation instead of a
// silent duplicate.
type Registration struct {
	bun.BaseModel `bun:"table:registrations"`

	ID      int64 `bun:"id,pk,autoincrement"`
	EventID int64 `bun:"event_id,notnull,unique:registrations_event_user_key"` // required
	UserID  int64 `bun:"user_id,notnull,unique:registrations_event_user_key"`  // required

	// flipped only by the participation coordinator on admin action
	Attended bool `bun:"attended,notnull,default:false"`

	CreatedAtUnixUTC int64 `bun:"created_at,notnull"`

	User  *User  `bun:"rel:belongs-to,join:user_id=id"`
	Event *Event `bun:"rel:belongs-to,join:event_id=id"`
}
