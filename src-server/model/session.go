package model

import (
	"github.com/uptrace/bun"
)

type SessionModelPurposeType string

const (
	// one-time key handed out by the identity layer, exchanged for a session
	SESSION_MODEL_PURPOSE_TEMP = SessionModelPurposeType("temp")
	// for the web client to keep the session
	SESSION_MODEL_PURPOSE_SESSION = SessionModelPurposeType("session")
)

type Session struct {
	bun.BaseModel `bun:"table:sessions"`

	Secret           string                  `bun:"secret,pk"`                    // required
	Purpose          SessionModelPurposeType `bun:"purpose,notnull,type:varchar"` // required
	UserID           int64                   `bun:"user_id,notnull"`              // required
	CreatedAtUnixUTC int64                   `bun:"created_at,notnull"`           // required

	User *User `bun:"rel:belongs-to,join:user_id=id"`
}
