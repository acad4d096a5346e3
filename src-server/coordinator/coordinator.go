// Package coordinator keeps event status, registrations, attendance,
// survey completion, and certificates mutually consistent under
// administrator- and participant-driven actions. Everything mutating
// more than one of those entities lives here, behind a single shared
// instance per concern.
package coordinator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campushub/src-server/model"
	"campushub/src-server/notify"
	"campushub/src-server/render"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Coordinator bundles the per-concern services over one database so
// call sites share a single certificate issuer instead of growing
// their own.
type Coordinator struct {
	Status        *EventStatusMachine
	Ledger        *RegistrationLedger
	Attendance    *AttendanceRecorder
	Surveys       *SurveyGate
	Certificates  *CertificateIssuer
	Participation *ParticipationCoordinator
}

func New(db *bun.DB, renderer render.Renderer, announcer *notify.Announcer) *Coordinator {
	issuer := NewCertificateIssuer(db, renderer)
	return &Coordinator{
		Status:        NewEventStatusMachine(db),
		Ledger:        NewRegistrationLedger(db),
		Attendance:    NewAttendanceRecorder(db),
		Surveys:       NewSurveyGate(db, issuer),
		Certificates:  issuer,
		Participation: NewParticipationCoordinator(db, announcer),
	}
}

// ParticipationCoordinator is the orchestration entry point for the
// administrator attendance toggle, the one compound operation in the
// system, plus event creation (which fans out the broadcast).
type ParticipationCoordinator struct {
	db        *bun.DB
	announcer *notify.Announcer
}

func NewParticipationCoordinator(db *bun.DB, announcer *notify.Announcer) *ParticipationCoordinator {
	return &ParticipationCoordinator{db: db, announcer: announcer}
}

type ParticipantView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

type RegistrationView struct {
	ID          int64           `json:"id"`
	Attended    bool            `json:"attended"`
	Participant ParticipantView `json:"participant"`
}

type AttendanceView struct {
	ID                 int64           `json:"id"`
	ScanTimeUnixUTC    int64           `json:"scanTime"`
	Participant        ParticipantView `json:"participant"`
	CertificateFileURL string          `json:"certificateFileUrl,omitempty"`
}

// EventSnapshot is the full participation state of one event. Every
// toggle returns it whole so the caller replaces its view state in
// one round trip instead of reconciling partial updates.
type EventSnapshot struct {
	ID             int64              `json:"id"`
	Title          string             `json:"title"`
	Status         model.EventStatus  `json:"status"`
	HasCertificate bool               `json:"hasCertificate"`
	Registrations  []RegistrationView `json:"registrations"`
	Attendances    []AttendanceView   `json:"attendances"`
}

// SetAttended flips a registration's attended flag and keeps the
// attendance row in sync: ticking creates the (user, event) row if
// absent, un-ticking removes it. Both writes run in one transaction
// so a partial failure can't leave the flag and the row disagreeing.
// Un-ticking deliberately leaves any issued certificate alone; an
// admin revokes it explicitly if the attendance was accidental.
func (p *ParticipationCoordinator) SetAttended(ctx context.Context, registrationID int64, attended bool) (*EventSnapshot, error) {
	var eventID int64
	if err := p.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		registrationModel := new(model.Registration)
		if err := tx.NewSelect().
			Model(registrationModel).
			Where("id = ?", registrationID).
			Scan(ctx); err != nil {
			return NewError(
				CODE_NOT_FOUND, REASON_REGISTRATION_NOT_FOUND,
				"registration %d does not exist", registrationID,
			)
		}
		eventID = registrationModel.EventID

		registrationModel.Attended = attended
		if _, err := tx.NewUpdate().
			Model(registrationModel).
			Column("attended").
			WherePK().
			Exec(ctx); err != nil {
			return fmt.Errorf("can't update registration: %w", err)
		}

		switch attended {
		case true:
			if err := ensureAttendance(ctx, tx, registrationModel.UserID, registrationModel.EventID, time.Now()); err != nil {
				return err
			}
		case false:
			if _, err := tx.NewDelete().
				Model((*model.Attendance)(nil)).
				Where("user_id = ?", registrationModel.UserID).
				Where("event_id = ?", registrationModel.EventID).
				Exec(ctx); err != nil {
				return fmt.Errorf("can't delete attendance: %w", err)
			}
		}
		return nil
	}); err != nil {
		var coordErr *Error
		if errors.As(err, &coordErr) {
			return nil, coordErr
		}
		return nil, fmt.Errorf("(*ParticipationCoordinator).SetAttended: %w", err)
	}

	return p.Snapshot(ctx, eventID)
}

// Snapshot loads the event with its full registration and attendance
// lists, each with a participant projection, attendance rows carrying
// the linked certificate's file URL where one exists.
func (p *ParticipationCoordinator) Snapshot(ctx context.Context, eventID int64) (*EventSnapshot, error) {
	eventModel := new(model.Event)
	if err := p.db.NewSelect().
		Model(eventModel).
		Relation("Registrations").
		Relation("Registrations.User").
		Relation("Attendances").
		Relation("Attendances.User").
		Relation("Attendances.Certificate").
		Where("event.id = ?", eventID).
		Scan(ctx); err != nil {
		return nil, NewError(CODE_NOT_FOUND, REASON_EVENT_NOT_FOUND, "event %d does not exist", eventID)
	}

	snapshot := &EventSnapshot{
		ID:             eventModel.ID,
		Title:          eventModel.Title,
		Status:         eventModel.Status,
		HasCertificate: eventModel.HasCertificate,
		Registrations:  make([]RegistrationView, 0, len(eventModel.Registrations)),
		Attendances:    make([]AttendanceView, 0, len(eventModel.Attendances)),
	}
	for _, registration := range eventModel.Registrations {
		view := RegistrationView{
			ID:       registration.ID,
			Attended: registration.Attended,
		}
		if registration.User != nil {
			view.Participant = ParticipantView{
				ID:       registration.User.ID,
				Username: registration.User.Username,
				FullName: registration.User.FullName,
			}
		}
		snapshot.Registrations = append(snapshot.Registrations, view)
	}
	for _, attendance := range eventModel.Attendances {
		view := AttendanceView{
			ID:              attendance.ID,
			ScanTimeUnixUTC: attendance.ScanTimeUnixUTC,
		}
		if attendance.User != nil {
			view.Participant = ParticipantView{
				ID:       attendance.User.ID,
				Username: attendance.User.Username,
				FullName: attendance.User.FullName,
			}
		}
		if attendance.Certificate != nil {
			view.CertificateFileURL = attendance.Certificate.FileURL
		}
		snapshot.Attendances = append(snapshot.Attendances, view)
	}
	return snapshot, nil
}

type CreateEventInput struct {
	Title          string
	Description    string
	Location       string
	AcademicYear   string
	Category       model.ParticipationCategory
	StartDate      time.Time
	EndDate        time.Time
	TotalHours     int
	HasCertificate bool
	Draft          bool
}

// CreateEvent records an organizer's new event (pending review, or
// draft when asked), mints its QR payload, and fires the broadcast.
func (p *ParticipationCoordinator) CreateEvent(ctx context.Context, in CreateEventInput) (*model.Event, error) {
	status := model.EVENT_STATUS_PENDING
	if in.Draft {
		status = model.EVENT_STATUS_DRAFT
	}

	eventModel := model.Event{
		Title:          in.Title,
		Description:    in.Description,
		Location:       in.Location,
		Status:         status,
		AcademicYear:   in.AcademicYear,
		Category:       in.Category,
		TotalHours:     in.TotalHours,
		HasCertificate: in.HasCertificate,
		QRPayload:      uuid.NewString(),
	}
	if !in.StartDate.IsZero() {
		eventModel.StartDateUnixUTC = in.StartDate.UTC().Unix()
	}
	if !in.EndDate.IsZero() {
		eventModel.EndDateUnixUTC = in.EndDate.UTC().Unix()
	}
	if err := eventModel.Upsert(ctx, p.db); err != nil {
		return nil, NewError(CODE_VALIDATION, REASON_INVALID_EVENT, "%s", err.Error())
	}

	p.announcer.EventCreated(&eventModel)
	return &eventModel, nil
}
