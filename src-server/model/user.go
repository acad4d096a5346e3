package model

import (
	"github.com/uptrace/bun"
)

type UserRole string

const (
	USER_ROLE_PARTICIPANT = UserRole("participant")
	USER_ROLE_ORGANIZER   = UserRole("organizer")
	USER_ROLE_REVIEWER    = UserRole("reviewer")
	USER_ROLE_ADMIN       = UserRole("admin")
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID               int64    `bun:"id,pk,autoincrement"`
	Username         string   `bun:"username,notnull,unique"`   // required
	FullName         string   `bun:"full_name,notnull"`         // required
	Role             UserRole `bun:"role,notnull,type:varchar"` // required
	CreatedAtUnixUTC int64    `bun:"created_at,notnull"`
}
