package coordinator

import (
	"context"
	"fmt"
	"time"

	"campushub/src-server/model"

	"github.com/uptrace/bun"
)

// EventStatusMachine owns the event lifecycle:
//
//	draft -> pending -> {approved, rejected}
//	approved -> published
//
// rejected and published are terminal. Every transition checks the
// allowed predecessor set before mutating; who may call which
// transition is the boundary's problem, not this type's.
type EventStatusMachine struct {
	db *bun.DB
}

func NewEventStatusMachine(db *bun.DB) *EventStatusMachine {
	return &EventStatusMachine{db: db}
}

type statusTransition struct {
	from []model.EventStatus
	to   model.EventStatus
}

var statusTransitions = map[string]statusTransition{
	"submit":  {from: []model.EventStatus{model.EVENT_STATUS_DRAFT}, to: model.EVENT_STATUS_PENDING},
	"approve": {from: []model.EventStatus{model.EVENT_STATUS_PENDING}, to: model.EVENT_STATUS_APPROVED},
	"reject":  {from: []model.EventStatus{model.EVENT_STATUS_PENDING}, to: model.EVENT_STATUS_REJECTED},
	"publish": {from: []model.EventStatus{model.EVENT_STATUS_APPROVED}, to: model.EVENT_STATUS_PUBLISHED},
}

func (m *EventStatusMachine) Submit(ctx context.Context, eventID int64) (*model.Event, error) {
	return m.transition(ctx, eventID, "submit")
}

func (m *EventStatusMachine) Approve(ctx context.Context, eventID int64) (*model.Event, error) {
	return m.transition(ctx, eventID, "approve")
}

func (m *EventStatusMachine) Reject(ctx context.Context, eventID int64) (*model.Event, error) {
	return m.transition(ctx, eventID, "reject")
}

func (m *EventStatusMachine) Publish(ctx context.Context, eventID int64) (*model.Event, error) {
	return m.transition(ctx, eventID, "publish")
}

func (m *EventStatusMachine) transition(ctx context.Context, eventID int64, action string) (*model.Event, error) {
	transition, ok := statusTransitions[action]
	if !ok {
		return nil, fmt.Errorf("(*EventStatusMachine).transition: unknown action %q", action)
	}

	eventModel := new(model.Event)
	if err := m.db.NewSelect().
		Model(eventModel).
		Where("id = ?", eventID).
		Scan(ctx); err != nil {
		return nil, NewError(CODE_NOT_FOUND, REASON_EVENT_NOT_FOUND, "event %d does not exist", eventID)
	}

	allowed := false
	for _, from := range transition.from {
		if eventModel.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, NewError(
			CODE_INVALID_STATE, REASON_INVALID_EVENT_STATUS,
			"can't %s event %d while its status is %q", action, eventID, eventModel.Status,
		)
	}

	eventModel.Status = transition.to
	eventModel.UpdatedAtUnixUTC = time.Now().UTC().Unix()
	if _, err := m.db.NewUpdate().
		Model(eventModel).
		Column("status", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("(*EventStatusMachine).transition: %w", err)
	}

	return eventModel, nil
}
