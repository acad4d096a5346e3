package coordinator_test

import (
	"context"
	"testing"

	"campushub/src-server/coordinator"
	"campushub/src-server/model"
)

func TestRegisterAndUnregister(t *testing.T) {
	c, bundb, _ := newTestCoordinator(t)
	ctx := context.Background()

	userModel := seedUser(t, bundb, "signup")
	eventModel := seedEvent(t, bundb, model.EVENT_STATUS_PUBLISHED, false)

	registrationModel, err := c.Ledger.Register(ctx, eventModel.ID, userModel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if registrationModel.Attended {
		t.Error("fresh registration should not be attended")
	}

	// signing up twice is a conflict, not a second row
	_, err = c.Ledger.Register(ctx, eventModel.ID, userModel.ID)
	if coordinator.ReasonOf(err) != coordinator.REASON_DUPLICATE_REGISTRATION {
		t.Fatal("expected duplicate-registration, got", err)
	}

	if err := c.Ledger.Unregister(ctx, eventModel.ID, userModel.ID); err != nil {
		t.Fatal(err)
	}
	count, err := bundb.NewSelect().
		Model((*model.Registration)(nil)).
		Where("event_id = ?", eventModel.ID).
		Where("user_id = ?", userModel.ID).
		Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Error("registration should be gone", count)
	}

	// unregistering again stays a no-op
	if err := c.Ledger.Unregister(ctx, eventModel.ID, userModel.ID); err != nil {
		t.Error(err)
	}
}

func TestRegisterGuards(t *testing.T) {
	c, bundb, _ := newTestCoordinator(t)
	ctx := context.Background()

	userModel := seedUser(t, bundb, "eager")

	// unknown event
	_, err := c.Ledger.Register(ctx, 404, userModel.ID)
	if coordinator.ReasonOf(err) != coordinator.REASON_EVENT_NOT_FOUND {
		t.Error("expected event-not-found, got", err)
	}

	// unpublished event
	pendingModel := seedEvent(t, bundb, model.EVENT_STATUS_PENDING, false)
	_, err = c.Ledger.Register(ctx, pendingModel.ID, userModel.ID)
	if coordinator.ReasonOf(err) != coordinator.REASON_INVALID_EVENT_STATUS {
		t.Error("expected invalid-event-status, got", err)
	}

	// unknown user
	publishedModel := seedEvent(t, bundb, model.EVENT_STATUS_PUBLISHED, false)
	_, err = c.Ledger.Register(ctx, publishedModel.ID, 404)
	if coordinator.ReasonOf(err) != coordinator.REASON_USER_NOT_FOUND {
		t.Error("expected user-not-found, got", err)
	}
}
