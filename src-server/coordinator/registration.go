package coordinator

import (
	"context"
	"fmt"
	"time"

	"campushub/src-server/model"

	"github.com/uptrace/bun"
)

// RegistrationLedger records a participant's intent to attend an
// event. Only published events accept sign-ups.
type RegistrationLedger struct {
	db *bun.DB
}

func NewRegistrationLedger(db *bun.DB) *RegistrationLedger {
	return &RegistrationLedger{db: db}
}

func (l *RegistrationLedger) Register(ctx context.Context, eventID int64, userID int64) (*model.Registration, error) {
	eventModel := new(model.Event)
	if err := l.db.NewSelect().
		Model(eventModel).
		Where("id = ?", eventID).
		Scan(ctx); err != nil {
		return nil, NewError(CODE_NOT_FOUND, REASON_EVENT_NOT_FOUND, "event %d does not exist", eventID)
	}
	if eventModel.Status != model.EVENT_STATUS_PUBLISHED {
		return nil, NewError(
			CODE_INVALID_STATE, REASON_INVALID_EVENT_STATUS,
			"event %d is not published", eventID,
		)
	}

	userExists, err := l.db.NewSelect().
		Model((*model.User)(nil)).
		Where("id = ?", userID).
		Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("(*RegistrationLedger).Register: %w", err)
	}
	if !userExists {
		return nil, NewError(CODE_NOT_FOUND, REASON_USER_NOT_FOUND, "user %d does not exist", userID)
	}

	registrationModel := model.Registration{
		EventID:          eventID,
		UserID:           userID,
		CreatedAtUnixUTC: time.Now().UTC().Unix(),
	}
	res, err := l.db.NewInsert().
		Model(&registrationModel).
		On("CONFLICT (event_id, user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("(*RegistrationLedger).Register: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("(*RegistrationLedger).Register: %w", err)
	}
	if affected == 0 {
		return nil, NewError(
			CODE_CONFLICT, REASON_DUPLICATE_REGISTRATION,
			"user %d is already registered for event %d", userID, eventID,
		)
	}

	if err := l.db.NewSelect().
		Model(&registrationModel).
		Where("event_id = ?", eventID).
		Where("user_id = ?", userID).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*RegistrationLedger).Register: %w", err)
	}
	return &registrationModel, nil
}

// Unregister removes the pair's registration. Removing a sign-up
// that doesn't exist is a no-op, not an error.
func (l *RegistrationLedger) Unregister(ctx context.Context, eventID int64, userID int64) error {
	if _, err := l.db.NewDelete().
		Model((*model.Registration)(nil)).
		Where("event_id = ?", eventID).
		Where("user_id = ?", userID).
		Exec(ctx); err != nil {
		return fmt.Errorf("(*RegistrationLedger).Unregister: %w", err)
	}
	return nil
}
