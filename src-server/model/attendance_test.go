package model_test

import (
	"context"
	"testing"
	"time"

	"campushub/src-server/model"

	"github.com/google/uuid"
)

func TestAttendanceUniquePair(t *testing.T) {
	bundb := newTestDB(t)
	ctx := context.Background()

	userModel := model.User{
		Username:         "checkin",
		FullName:         "check in",
		Role:             model.USER_ROLE_PARTICIPANT,
		CreatedAtUnixUTC: time.Now().UTC().Unix(),
	}
	if _, err := bundb.NewInsert().Model(&userModel).Exec(ctx); err != nil {
		t.Fatal(err)
	}
	eventModel := model.Event{
		Title:     "guest lecture",
		Status:    model.EVENT_STATUS_PUBLISHED,
		QRPayload: uuid.NewString(),
	}
	if err := eventModel.Upsert(ctx, bundb); err != nil {
		t.Fatal(err)
	}

	first := model.Attendance{
		UserID:          userModel.ID,
		EventID:         eventModel.ID,
		ScanTimeUnixUTC: time.Now().UTC().Unix(),
	}
	if _, err := bundb.NewInsert().Model(&first).Exec(ctx); err != nil {
		t.Fatal(err)
	}

	// case: a plain second insert for the pair hits the unique index
	func() {
		second := model.Attendance{
			UserID:          userModel.ID,
			EventID:         eventModel.ID,
			ScanTimeUnixUTC: time.Now().UTC().Unix() + 60,
		}
		if _, err := bundb.NewInsert().Model(&second).Exec(ctx); err == nil {
			t.Error("duplicate attendance pair should be rejected")
		}
	}()

	// case: conflict-safe insert is a no-op instead of an error
	func() {
		second := model.Attendance{
			UserID:          userModel.ID,
			EventID:         eventModel.ID,
			ScanTimeUnixUTC: time.Now().UTC().Unix() + 120,
		}
		res, err := bundb.NewInsert().
			Model(&second).
			On("CONFLICT (user_id, event_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			t.Fatal(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			t.Fatal(err)
		}
		if affected != 0 {
			t.Error("conflicting insert should not affect rows", affected)
		}
	}()

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

func TestRegistrationUniquePair(t *testing.T) {
	bundb := newTestDB(t)
	ctx := context.Background()

	registrationModel := model.Registration{
		EventID:          1,
		UserID:           1,
		CreatedAtUnixUTC: time.Now().UTC().Unix(),
	}
	if _, err := bundb.NewInsert().Model(&registrationModel).Exec(ctx); err != nil {
		t.Fatal(err)
	}

	duplicate := model.Registration{
		EventID:          1,
		UserID:           1,
		CreatedAtUnixUTC: time.Now().UTC().Unix(),
	}
	if _, err := bundb.NewInsert().Model(&duplicate).Exec(ctx); err == nil {
		t.Error("duplicate registration pair should be rejected")
	}

	// a different user on the same event is fine
	other := model.Registration{
		EventID:          1,
		UserID:           2,
		CreatedAtUnixUTC: time.Now().UTC().Unix(),
	}
	if _, err := bundb.NewInsert().Model(&other).Exec(ctx); err != nil {
		t.Error(err)
	}
}

func TestCertificateUniquePair(t *testing.T) {
	bundb := newTestDB(t)
	ctx := context.Background()

	certificateModel := model.Certificate{
		UserID:  7,
		EventID: 9,
		Serial:  uuid.NewString(),
	}
	if _, err := bundb.NewInsert().Model(&certificateModel).Exec(ctx); err != nil {
		t.Fatal(err)
	}

	duplicate := model.Certificate{
		UserID:  7,
		EventID: 9,
		Serial:  uuid.NewString(),
	}
	res, err := bundb.NewInsert().
		Model(&duplicate).
		On("CONFLICT (user_id, event_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		t.Fatal(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		t.Fatal(err)
	}
	if affected != 0 {
		t.Error("conflicting certificate insert should not affect rows", affected)
	}

	count, err := bundb.NewSelect().
		Model((*model.Certificate)(nil)).
		Where("user_id = ?", 7).
		Where("event_id = ?", 9).
		Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Error("exactly one certificate row expected", count)
	}
}
