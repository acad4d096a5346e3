package model_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"campushub/src-server/model"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	bundb := bun.NewDB(db, sqlitedialect.New())
	if err := model.CreateSchema(bundb); err != nil {
		t.Fatal(err)
	}
	return bundb
}

func TestEventCascadeDelete(t *testing.T) {
	bundb := newTestDB(t)
	ctx := context.Background()

	userModel := model.User{
		Username:         "jdoe",
		FullName:         "jane doe",
		Role:             model.USER_ROLE_PARTICIPANT,
		CreatedAtUnixUTC: time.Now().UTC().Unix(),
	}
	if _, err := bundb.NewInsert().Model(&userModel).Exec(ctx); err != nil {
		t.Fatal(err)
	}

	eventModel := model.Event{
		Title:          "orientation week",
		Status:         model.EVENT_STATUS_PUBLISHED,
		HasCertificate: true,
		QRPayload:      uuid.NewString(),
	}
	if err := eventModel.Upsert(ctx, bundb); err != nil {
		t.Fatal(err)
	}

	registrationModel := model.Registration{
		EventID:          eventModel.ID,
		UserID:           userModel.ID,
		CreatedAtUnixUTC: time.Now().UTC().Unix(),
	}
	if _, err := bundb.NewInsert().Model(&registrationModel).Exec(ctx); err != nil {
		t.Fatal(err)
	}

	attendanceModel := model.Attendance{
		UserID:          userModel.ID,
		EventID:         eventModel.ID,
		ScanTimeUnixUTC: time.Now().UTC().Unix(),
	}
	if _, err := bundb.NewInsert().Model(&attendanceModel).Exec(ctx); err != nil {
		t.Fatal(err)
	}

	certificateModel := model.Certificate{
		UserID:  userModel.ID,
		EventID: eventModel.ID,
		Serial:  uuid.NewString(),
	}
	if _, err := bundb.NewInsert().Model(&certificateModel).Exec(ctx); err != nil {
		t.Fatal(err)
	}

	surveyModel := model.Survey{
		EventID:          eventModel.ID,
		Title:            "feedback",
		CreatedAtUnixUTC: time.Now().UTC().Unix(),
	}
	if _, err := bundb.NewInsert().Model(&surveyModel).Exec(ctx); err != nil {
		t.Fatal(err)
	}

	questionModel := model.SurveyQuestion{
		SurveyID: surveyModel.ID,
		Position: 0,
		Prompt:   "how was it",
		Type:     model.SURVEY_QUESTION_TYPE_SHORT_TEXT,
	}
	if _, err := bundb.NewInsert().Model(&questionModel).Exec(ctx); err != nil {
		t.Fatal(err)
	}

	responseModel := model.SurveyResponse{
		SurveyID:           surveyModel.ID,
		UserID:             userModel.ID,
		Answers:            `{"1":"great"}`,
		SubmittedAtUnixUTC: time.Now().UTC().Unix(),
	}
	if _, err := bundb.NewInsert().Model(&responseModel).Exec(ctx); err != nil {
		t.Fatal(err)
	}

	// delete the event and everything under it should be gone
	if _, err := bundb.NewDelete().
		Model((*model.Event)(nil)).
		Where("id = ?", eventModel.ID).
		Exec(context.WithValue(ctx, model.EventIDCtxKey, eventModel.ID)); err != nil {
		t.Fatal(err)
	}

	for _, dependent := range []interface{}{
		(*model.Registration)(nil),
		(*model.Attendance)(nil),
		(*model.Certificate)(nil),
	} {
		count, err := bundb.NewSelect().
			Model(dependent).
			Where("event_id = ?", eventModel.ID).
			Count(ctx)
		if err != nil {
			t.Error(err)
		}
		if count != 0 {
			t.Errorf("%T rows should be gone, got %d", dependent, count)
		}
	}

	surveyCount, err := bundb.NewSelect().
		Model((*model.Survey)(nil)).
		Where("event_id = ?", eventModel.ID).
		Count(ctx)
	if err != nil {
		t.Error(err)
	}
	if surveyCount != 0 {
		t.Error("survey should be gone", surveyCount)
	}

	questionCount, err := bundb.NewSelect().
		Model((*model.SurveyQuestion)(nil)).
		Where("survey_id = ?", surveyModel.ID).
		Count(ctx)
	if err != nil {
		t.Error(err)
	}
	if questionCount != 0 {
		t.Error("survey questions should be gone", questionCount)
	}

	responseCount, err := bundb.NewSelect().
		Model((*model.SurveyResponse)(nil)).
		Where("survey_id = ?", surveyModel.ID).
		Count(ctx)
	if err != nil {
		t.Error(err)
	}
	if responseCount != 0 {
		t.Error("survey responses should be gone", responseCount)
	}
}

func TestEventUpsertValidation(t *testing.T) {
	bundb := newTestDB(t)
	ctx := context.Background()

	// case: blank title
	func() {
		eventModel := model.Event{
			Status:    model.EVENT_STATUS_DRAFT,
			QRPayload: uuid.NewString(),
		}
		if err := eventModel.Upsert(ctx, bundb); err == nil {
			t.Error("blank title should be rejected")
		}
	}()

	// case: start date after end date
	func() {
		eventModel := model.Event{
			Title:            "backwards",
			Status:           model.EVENT_STATUS_DRAFT,
			QRPayload:        uuid.NewString(),
			StartDateUnixUTC: 200,
			EndDateUnixUTC:   100,
		}
		if err := eventModel.Upsert(ctx, bundb); err == nil {
			t.Error("start date after end date should be rejected")
		}
	}()

	// case: update flows through the same entry point
	func() {
		eventModel := model.Event{
			Title:     "workshop",
			Status:    model.EVENT_STATUS_DRAFT,
			QRPayload: uuid.NewString(),
		}
		if err := eventModel.Upsert(ctx, bundb); err != nil {
			t.Fatal(err)
		}
		eventModel.Title = "workshop (rescheduled)"
		if err := eventModel.Upsert(ctx, bundb); err != nil {
			t.Fatal(err)
		}
		count, err := bundb.NewSelect().
			Model((*model.Event)(nil)).
			Where("title = ?", "workshop (rescheduled)").
			Count(ctx)
		if err != nil {
			t.Error(err)
		}
		if count != 1 {
			t.Error("expected exactly one updated event", count)
		}
	}()
}
