package model

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type EventIDCtxKeyType string

const EventIDCtxKey EventIDCtxKeyType = "event-id"

type EventStatus string

const (
	EVENT_STATUS_DRAFT     = EventStatus("draft")
	EVENT_STATUS_PENDING   = EventStatus("pending")
	EVENT_STATUS_APPROVED  = EventStatus("approved")
	EVENT_STATUS_REJECTED  = EventStatus("rejected")
	EVENT_STATUS_PUBLISHED = EventStatus("published")
)

type ParticipationCategory string

const (
	PARTICIPATION_CATEGORY_P   = ParticipationCategory("P")
	PARTICIPATION_CATEGORY_PAE = ParticipationCategory("PAE")
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          int64       `bun:"id,pk,autoincrement"`
	Title       string      `bun:"title,notnull"`               // required
	Description string      `bun:"description"`
	Location    string      `bun:"location"`
	Status      EventStatus `bun:"status,notnull,type:varchar"` // required

	AcademicYear string                `bun:"academic_year"`
	Category     ParticipationCategory `bun:"category,type:varchar"`

	StartDateUnixUTC int64 `bun:"start_date"`
	EndDateUnixUTC   int64 `bun:"end_date"`
	TotalHours       int   `bun:"total_hours"`

	// whether completing this event entitles the participant to a certificate
	HasCertificate bool `bun:"has_certificate"`

	// opaque identifier scanned by the self check-in flow
	QRPayload string `bun:"qr_payload,notnull,unique"` // required

	CreatedAtUnixUTC int64 `bun:"created_at,notnull"`
	UpdatedAtUnixUTC int64 `bun:"updated_at"`

	Registrations []*Registration `bun:"rel:has-many,join:id=event_id"`
	Attendances   []*Attendance   `bun:"rel:has-many,join:id=event_id"`
	Survey        *Survey         `bun:"rel:has-one,join:id=event_id"`
}

var _ bun.AfterDeleteHook = (*Event)(nil)

// Cleanup registrations, attendances, certificates, and the survey
// (with its questions and responses) owned by the deleted event.
func (e *Event) AfterDelete(ctx context.Context, query *bun.DeleteQuery) error {
	if query.DB() == nil {
		return fmt.Errorf("(*Event).AfterDelete: db is nil")
	}

	switch eventID := ctx.Value(EventIDCtxKey).(type) {
	case int64:
		if eventID == 0 {
			return fmt.Errorf("(*Event).AfterDelete: event id is zero")
		}

		// rm related registrations
		if _, err := query.DB().NewDelete().
			Model((*Registration)(nil)).
			Where("event_id = ?", eventID).
			Exec(ctx); err != nil {
			return fmt.Errorf("(*Event).AfterDelete: can't delete registrations: %w", err)
		}

		// rm related attendances
		if _, err := query.DB().NewDelete().
			Model((*Attendance)(nil)).
			Where("event_id = ?", eventID).
			Exec(ctx); err != nil {
			return fmt.Errorf("(*Event).AfterDelete: can't delete attendances: %w", err)
		}

		// rm related certificates
		if _, err := query.DB().NewDelete().
			Model((*Certificate)(nil)).
			Where("event_id = ?", eventID).
			Exec(ctx); err != nil {
			return fmt.Errorf("(*Event).AfterDelete: can't delete certificates: %w", err)
		}

		// rm the survey and everything under it
		surveyIDs := []int64{}
		if err := query.DB().NewSelect().
			Model((*Survey)(nil)).
			Column("id").
			Where("event_id = ?", eventID).
			Scan(ctx, &surveyIDs); err != nil {
			return fmt.Errorf("(*Event).AfterDelete: can't get survey ids: %w", err)
		}
		if len(surveyIDs) > 0 {
			if _, err := query.DB().NewDelete().
				Model((*SurveyQuestion)(nil)).
				Where("survey_id IN (?)", bun.In(surveyIDs)).
				Exec(ctx); err != nil {
				return fmt.Errorf("(*Event).AfterDelete: can't delete survey questions: %w", err)
			}
			if _, err := query.DB().NewDelete().
				Model((*SurveyResponse)(nil)).
				Where("survey_id IN (?)", bun.In(surveyIDs)).
				Exec(ctx); err != nil {
				return fmt.Errorf("(*Event).AfterDelete: can't delete survey responses: %w", err)
			}
			if _, err := query.DB().NewDelete().
				Model((*Survey)(nil)).
				Where("id IN (?)", bun.In(surveyIDs)).
				Exec(ctx); err != nil {
				return fmt.Errorf("(*Event).AfterDelete: can't delete survey: %w", err)
			}
		}
	case nil:
		return fmt.Errorf("(*Event).AfterDelete: event id is nil")
	default:
		return fmt.Errorf("(*Event).AfterDelete: wrong event id type | type=%T", eventID)
	}

	return nil
}

func (e *Event) Upsert(ctx context.Context, db bun.IDB) error {
	switch {
	case e.Title == "":
		return fmt.Errorf("(*Event).Upsert: title is blank")
	case e.Status == "":
		return fmt.Errorf("(*Event).Upsert: status is blank")
	case e.QRPayload == "":
		return fmt.Errorf("(*Event).Upsert: qr payload is blank")
	case e.StartDateUnixUTC != 0 && e.EndDateUnixUTC != 0 && e.StartDateUnixUTC > e.EndDateUnixUTC:
		return fmt.Errorf("(*Event).Upsert: start date must be before end date")
	case e.Category != "" && e.Category != PARTICIPATION_CATEGORY_P && e.Category != PARTICIPATION_CATEGORY_PAE:
		return fmt.Errorf("(*Event).Upsert: invalid participation category %q", e.Category)
	}
	if e.CreatedAtUnixUTC == 0 {
		e.CreatedAtUnixUTC = time.Now().UTC().Unix()
	}

	exists := e.ID != 0
	if exists {
		var err error
		exists, err = db.NewSelect().
			Model((*Event)(nil)).
			Where("id = ?", e.ID).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("(*Event).Upsert: %w", err)
		}
	}

	switch exists {
	case true:
		e.UpdatedAtUnixUTC = time.Now().UTC().Unix()
		if _, err := db.NewUpdate().
			Model(e).
			WherePK().
			Exec(ctx); err != nil {
			return fmt.Errorf("(*Event).Upsert: %w", err)
		}
	case false:
		if _, err := db.NewInsert().
			Model(e).
			Exec(ctx); err != nil {
			return fmt.Errorf("(*Event).Upsert: %w", err)
		}
	}

	return nil
}
