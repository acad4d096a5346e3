package model

import (
	"github.com/uptrace/bun"
)

// Unique per (user, event). Created lazily with a blank file URL;
// the URL is filled in the first time the renderer produces the
// artifact. A blank FileURL means "row reserved, artifact not
// rendered yet" and is always safe to retry.
type Certificate struct {
	bun.BaseModel `bun:"table:certificates"`

	ID      int64 `bun:"id,pk,autoincrement"`
	UserID  int64 `bun:"user_id,notnull,unique:certificates_user_event_key"`  // required
	EventID int64 `bun:"event_id,notnull,unique:certificates_user_event_key"` // required

	// printable serial embedded in the rendered artifact
	Serial string `bun:"serial,notnull,unique"` // required

	FileURL         string `bun:"file_url"`
	IssuedAtUnixUTC int64  `bun:"issued_at"`

	User  *User  `bun:"rel:belongs-to,join:user_id=id"`
	Event *Event `bun:"rel:belongs-to,join:event_id=id"`
}
