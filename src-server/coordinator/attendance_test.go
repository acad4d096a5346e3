package coordinator_test

import (
	"context"
	"testing"
	"time"

	"campushub/src-server/coordinator"
	"campushub/src-server/model"
)

func TestCheckInDuplicateIsHardError(t *testing.T) {
	c, bundb, _ := newTestCoordinator(t)
	ctx := context.Background()

	userModel := seedUser(t, bundb, "scanner")
	eventModel := seedEvent(t, bundb, model.EVENT_STATUS_PUBLISHED, false)

	first := time.Now()
	attendanceModel, err := c.Attendance.CheckIn(ctx, userModel.ID, eventModel.ID, first)
	if err != nil {
		t.Fatal(err)
	}
	if attendanceModel.ScanTimeUnixUTC != first.UTC().Unix() {
		t.Error("check-in should keep the supplied scan time")
	}

	_, err = c.Attendance.CheckIn(ctx, userModel.ID, eventModel.ID, first.Add(time.Minute))
	if coordinator.ReasonOf(err) != coordinator.REASON_DUPLICATE_ATTENDANCE {
		t.Fatal("expected duplicate-attendance, got", err)
	}

	count, err := bundb.NewSelect().
		Model((*model.Attendance)(nil)).
		Where("user_id = ?", userModel.ID).
		Where("event_id = ?", eventModel.ID).
		Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Error("exactly one attendance row expected", count)
	}
}

func TestCheckInGuards(t *testing.T) {
	c, bundb, _ := newTestCoordinator(t)
	ctx := context.Background()

	userModel := seedUser(t, bundb, "guarded")

	// unknown event
	_, err := c.Attendance.CheckIn(ctx, userModel.ID, 404, time.Now())
	if coordinator.ReasonOf(err) != coordinator.REASON_EVENT_NOT_FOUND {
		t.Error("expected event-not-found, got", err)
	}

	// unpublished event
	pendingModel := seedEvent(t, bundb, model.EVENT_STATUS_PENDING, false)
	_, err = c.Attendance.CheckIn(ctx, userModel.ID, pendingModel.ID, time.Now())
	if coordinator.ReasonOf(err) != coordinator.REASON_INVALID_EVENT_STATUS {
		t.Error("expected invalid-event-status, got", err)
	}

	// unknown user
	publishedModel := seedEvent(t, bundb, model.EVENT_STATUS_PUBLISHED, false)
	_, err = c.Attendance.CheckIn(ctx, 404, publishedModel.ID, time.Now())
	if coordinator.ReasonOf(err) != coordinator.REASON_USER_NOT_FOUND {
		t.Error("expected user-not-found, got", err)
	}
}

func TestCheckInByQR(t *testing.T) {
	c, bundb, _ := newTestCoordinator(t)
	ctx := context.Background()

	userModel := seedUser(t, bundb, "qr")
	eventModel := seedEvent(t, bundb, model.EVENT_STATUS_PUBLISHED, false)

	attendanceModel, err := c.Attendance.CheckInByQR(ctx, userModel.ID, eventModel.QRPayload, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if attendanceModel.EventID != eventModel.ID {
		t.Error("QR payload should resolve to its event")
	}

	_, err = c.Attendance.CheckInByQR(ctx, userModel.ID, "bogus-payload", time.Now())
	if coordinator.ReasonOf(err) != coordinator.REASON_EVENT_NOT_FOUND {
		t.Error("expected event-not-found for an unknown payload, got", err)
	}
}

func TestListForUser(t *testing.T) {
	c, bundb, _ := newTestCoordinator(t)
	ctx := context.Background()

	userModel := seedUser(t, bundb, "lister")
	otherModel := seedUser(t, bundb, "other")
	eventModel := seedEvent(t, bundb, model.EVENT_STATUS_PUBLISHED, false)

	if _, err := c.Attendance.CheckIn(ctx, userModel.ID, eventModel.ID, time.Now()); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Attendance.CheckIn(ctx, otherModel.ID, eventModel.ID, time.Now()); err != nil {
		t.Fatal(err)
	}

	mine, err := c.Attendance.ListForUser(ctx, userModel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 {
		t.Fatal("expected one attendance for the user", len(mine))
	}
	if mine[0].Event == nil || mine[0].Event.ID != eventModel.ID {
		t.Error("listing should join the event projection")
	}

	all, err := c.Attendance.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Error("expected two attendances overall", len(all))
	}
}
