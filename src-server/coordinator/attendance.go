package coordinator

import (
	"context"
	"fmt"
	"time"

	"campushub/src-server/model"

	"github.com/uptrace/bun"
)

// AttendanceRecorder is the participant self-service check-in path.
// A second check-in for the same pair is a hard error, not a silent
// success; the admin toggle path (ParticipationCoordinator) is the
// one that gets the idempotent get-or-create treatment.
type AttendanceRecorder struct {
	db *bun.DB
}

func NewAttendanceRecorder(db *bun.DB) *AttendanceRecorder {
	return &AttendanceRecorder{db: db}
}

func (r *AttendanceRecorder) CheckIn(ctx context.Context, userID int64, eventID int64, scanTime time.Time) (*model.Attendance, error) {
	eventModel := new(model.Event)
	if err := r.db.NewSelect().
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

	userExists, err := r.db.NewSelect().
		Model((*model.User)(nil)).
		Where("id = ?", userID).
		Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("(*AttendanceRecorder).CheckIn: %w", err)
	}
	if !userExists {
		return nil, NewError(CODE_NOT_FOUND, REASON_USER_NOT_FOUND, "user %d does not exist", userID)
	}

	attendanceModel := model.Attendance{
		UserID:          userID,
		EventID:         eventID,
		ScanTimeUnixUTC: scanTime.UTC().Unix(),
	}
	res, err := r.db.NewInsert().
		Model(&attendanceModel).
		On("CONFLICT (user_id, event_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("(*AttendanceRecorder).CheckIn: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("(*AttendanceRecorder).CheckIn: %w", err)
	}
	if affected == 0 {
		return nil, NewError(
			CODE_CONFLICT, REASON_DUPLICATE_ATTENDANCE,
			"user %d already checked in to event %d", userID, eventID,
		)
	}

	if err := r.db.NewSelect().
		Model(&attendanceModel).
		Where("user_id = ?", userID).
		Where("event_id = ?", eventID).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*AttendanceRecorder).CheckIn: %w", err)
	}
	return &attendanceModel, nil
}

// CheckInByQR resolves the event from the opaque payload baked into
// its QR code, then runs the regular check-in.
func (r *AttendanceRecorder) CheckInByQR(ctx context.Context, userID int64, qrPayload string, scanTime time.Time) (*model.Attendance, error) {
	eventModel := new(model.Event)
	if err := r.db.NewSelect().
		Model(eventModel).
		Where("qr_payload = ?", qrPayload).
		Scan(ctx); err != nil {
		return nil, NewError(CODE_NOT_FOUND, REASON_EVENT_NOT_FOUND, "no event matches the scanned code")
	}
	return r.CheckIn(ctx, userID, eventModel.ID, scanTime)
}

func (r *AttendanceRecorder) ListAll(ctx context.Context) ([]model.Attendance, error) {
	attendanceModels := make([]model.Attendance, 0)
	if err := r.db.NewSelect().
		Model(&attendanceModels).
		Relation("User").
		Relation("Event").
		Order("scan_time DESC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*AttendanceRecorder).ListAll: %w", err)
	}
	return attendanceModels, nil
}

func (r *AttendanceRecorder) ListForUser(ctx context.Context, userID int64) ([]model.Attendance, error) {
	attendanceModels := make([]model.Attendance, 0)
	if err := r.db.NewSelect().
		Model(&attendanceModels).
		Relation("Event").
		Where("user_id = ?", userID).
		Order("scan_time DESC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*AttendanceRecorder).ListForUser: %w", err)
	}
	return attendanceModels, nil
}

// ensureAttendance is the coordinator's get-or-create step: unlike
// CheckIn, an existing row is not an error. Runs on whatever IDB the
// caller is in, usually a transaction.
func ensureAttendance(ctx context.Context, db bun.IDB, userID int64, eventID int64, scanTime time.Time) error {
	attendanceModel := model.Attendance{
		UserID:          userID,
		EventID:         eventID,
		ScanTimeUnixUTC: scanTime.UTC().Unix(),
	}
	if _, err := db.NewInsert().
		Model(&attendanceModel).
		On("CONFLICT (user_id, event_id) DO NOTHING").
		Exec(ctx); err != nil {
		return fmt.Errorf("ensureAttendance: %w", err)
	}
	return nil
}
