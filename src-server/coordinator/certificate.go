package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"campushub/src-server/model"
	"campushub/src-server/render"
	"campushub/src-server/utils"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CertificateIssuer is the one shared service behind every
// certificate trigger: a participant finishing a survey, an admin
// re-issue, an admin attendance toggle. All of them funnel through
// GetOrCreate + EnsureArtifact so the at-most-one-row and
// at-most-one-render guarantees live in a single place.
type CertificateIssuer struct {
	db       *bun.DB
	renderer render.Renderer

	// serializes renders so two concurrent triggers for the same
	// certificate can't both invoke the renderer
	renderMu sync.Mutex
}

func NewCertificateIssuer(db *bun.DB, renderer render.Renderer) *CertificateIssuer {
	return &CertificateIssuer{db: db, renderer: renderer}
}

// GetOrCreate returns the pair's certificate row, inserting a blank
// one if absent. The conditional insert (not a read-then-write pair)
// is what keeps two concurrent triggers from producing two rows.
func (i *CertificateIssuer) GetOrCreate(ctx context.Context, userID int64, eventID int64) (*model.Certificate, error) {
	userExists, err := i.db.NewSelect().
		Model((*model.User)(nil)).
		Where("id = ?", userID).
		Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("(*CertificateIssuer).GetOrCreate: %w", err)
	}
	eventExists, err := i.db.NewSelect().
		Model((*model.Event)(nil)).
		Where("id = ?", eventID).
		Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("(*CertificateIssuer).GetOrCreate: %w", err)
	}
	if !userExists || !eventExists {
		return nil, NewError(
			CODE_NOT_FOUND, REASON_INVALID_USER_OR_EVENT,
			"user %d or event %d does not exist", userID, eventID,
		)
	}

	certificateModel := model.Certificate{
		UserID:  userID,
		EventID: eventID,
		Serial:  uuid.NewString(),
	}
	if _, err := i.db.NewInsert().
		Model(&certificateModel).
		On("CONFLICT (user_id, event_id) DO NOTHING").
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("(*CertificateIssuer).GetOrCreate: %w", err)
	}

	if err := i.db.NewSelect().
		Model(&certificateModel).
		Where("user_id = ?", userID).
		Where("event_id = ?", eventID).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*CertificateIssuer).GetOrCreate: %w", err)
	}
	return &certificateModel, nil
}

// EnsureArtifact renders the artifact at most once: a certificate
// that already carries a file URL is returned unchanged, and a caller
// that lost the race to another trigger gets the winner's URL. A
// failed or hung render leaves the row with a blank URL, which a
// later call (or an explicit reissue) picks up safely.
func (i *CertificateIssuer) EnsureArtifact(ctx context.Context, cert *model.Certificate, participantName string, eventTitle string) (*model.Certificate, error) {
	if cert.FileURL != "" {
		return cert, nil
	}

	i.renderMu.Lock()
	defer i.renderMu.Unlock()

	// a concurrent trigger may have rendered while we waited for the
	// lock; re-read before spending a render on a stale blank URL
	if err := i.db.NewSelect().
		Model(cert).
		Where("id = ?", cert.ID).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*CertificateIssuer).EnsureArtifact: %w", err)
	}
	if cert.FileURL != "" {
		return cert, nil
	}

	fileURL, err := i.renderer.Render(ctx, render.Request{
		ParticipantName: utils.CleanupName(participantName),
		EventTitle:      eventTitle,
		CertificateID:   cert.ID,
	})
	if err != nil {
		return nil, NewError(
			CODE_DEPENDENCY_FAILURE, REASON_RENDERER_FAILURE,
			"can't render certificate %d: %s", cert.ID, err.Error(),
		)
	}

	cert.FileURL = fileURL
	cert.IssuedAtUnixUTC = time.Now().UTC().Unix()
	res, err := i.db.NewUpdate().
		Model(cert).
		Column("file_url", "issued_at").
		WherePK().
		Where("file_url = ''").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("(*CertificateIssuer).EnsureArtifact: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("(*CertificateIssuer).EnsureArtifact: %w", err)
	}
	if affected == 0 {
		// another process stored an artifact between our re-read and
		// the update; keep that one, drop ours
		superfluous := fileURL
		if err := i.db.NewSelect().
			Model(cert).
			Where("id = ?", cert.ID).
			Scan(ctx); err != nil {
			return nil, fmt.Errorf("(*CertificateIssuer).EnsureArtifact: %w", err)
		}
		go func(fileURL string) {
			discardCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := i.renderer.Discard(discardCtx, fileURL); err != nil {
				slog.Warn("can't discard superfluous certificate artifact", "url", fileURL, "error", err)
			}
		}(superfluous)
	}
	return cert, nil
}

// IssueIfEligible is the survey-completion trigger. Events without
// the certificate entitlement produce nothing and no error.
func (i *CertificateIssuer) IssueIfEligible(ctx context.Context, event *model.Event, userID int64) (*model.Certificate, error) {
	if !event.HasCertificate {
		return nil, nil
	}

	cert, err := i.GetOrCreate(ctx, userID, event.ID)
	if err != nil {
		return nil, err
	}

	userModel := new(model.User)
	if err := i.db.NewSelect().
		Model(userModel).
		Where("id = ?", userID).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*CertificateIssuer).IssueIfEligible: %w", err)
	}
	return i.EnsureArtifact(ctx, cert, userModel.FullName, event.Title)
}

// Reissue ensures the certificate and its artifact exist and
// refreshes the issue timestamp. It does not force a re-render of an
// artifact that is already there; after a revoke the row is gone, so
// a reissue then produces a fresh render.
func (i *CertificateIssuer) Reissue(ctx context.Context, eventID int64, userID int64) (*model.Certificate, error) {
	cert, err := i.GetOrCreate(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	userModel := new(model.User)
	if err := i.db.NewSelect().
		Model(userModel).
		Where("id = ?", userID).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*CertificateIssuer).Reissue: %w", err)
	}
	eventModel := new(model.Event)
	if err := i.db.NewSelect().
		Model(eventModel).
		Where("id = ?", eventID).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*CertificateIssuer).Reissue: %w", err)
	}

	cert, err = i.EnsureArtifact(ctx, cert, userModel.FullName, eventModel.Title)
	if err != nil {
		return nil, err
	}

	cert.IssuedAtUnixUTC = time.Now().UTC().Unix()
	if _, err := i.db.NewUpdate().
		Model(cert).
		Column("issued_at").
		WherePK().
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("(*CertificateIssuer).Reissue: %w", err)
	}
	return cert, nil
}

// Revoke deletes the certificate row, then asks the renderer to drop
// the artifact in the background. The second phase is best effort;
// the record being gone is what matters.
func (i *CertificateIssuer) Revoke(ctx context.Context, eventID int64, userID int64) error {
	certificateModel := new(model.Certificate)
	if err := i.db.NewSelect().
		Model(certificateModel).
		Where("user_id = ?", userID).
		Where("event_id = ?", eventID).
		Scan(ctx); err != nil {
		return NewError(
			CODE_NOT_FOUND, REASON_CERTIFICATE_NOT_FOUND,
			"no certificate for user %d and event %d", userID, eventID,
		)
	}

	if _, err := i.db.NewDelete().
		Model((*model.Certificate)(nil)).
		Where("id = ?", certificateModel.ID).
		Exec(ctx); err != nil {
		return fmt.Errorf("(*CertificateIssuer).Revoke: %w", err)
	}

	if certificateModel.FileURL != "" {
		go func(fileURL string) {
			discardCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := i.renderer.Discard(discardCtx, fileURL); err != nil {
				slog.Warn("can't discard revoked certificate artifact", "url", fileURL, "error", err)
			}
		}(certificateModel.FileURL)
	}
	return nil
}

// Get returns the pair's certificate without creating anything.
func (i *CertificateIssuer) Get(ctx context.Context, eventID int64, userID int64) (*model.Certificate, error) {
	certificateModel := new(model.Certificate)
	if err := i.db.NewSelect().
		Model(certificateModel).
		Relation("Event").
		Relation("User").
		Where("certificate.user_id = ?", userID).
		Where("certificate.event_id = ?", eventID).
		Scan(ctx); err != nil {
		return nil, NewError(
			CODE_NOT_FOUND, REASON_CERTIFICATE_NOT_FOUND,
			"no certificate for user %d and event %d", userID, eventID,
		)
	}
	return certificateModel, nil
}
