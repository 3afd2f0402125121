package audit

import (
	"context"
	"errors"
	"time"

	"github.com/wlhuang/riskgate/model"
	"gorm.io/gorm"
)

var ErrNoRecord = errors.New("no audit record")

// Repository is the persistence layer over the append-only auth_log and
// authenticator_observation tables. Writes are inserts only; the windowed
// count queries back the risk features and may be served by a read replica.
type Repository interface {
	Append(ctx context.Context, record *model.AuthLog) error
	CountBySubjectSince(ctx context.Context, subject string, since time.Time) (int64, error)
	CountByChallengeSince(ctx context.Context, challenge string, since time.Time) (int64, error)
	LatestBySubject(ctx context.Context, subject string) (*model.AuthLog, error)
	AddObservation(ctx context.Context, obs *model.AuthenticatorObservation) error
	LatestObservation(ctx context.Context, subject string) (*model.AuthenticatorObservation, error)
}

type repository struct {
	db *gorm.DB
}

func (r *repository) Append(ctx context.Context, record *model.AuthLog) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// CountBySubjectSince counts this subject's attempts strictly newer than
// `since`: a record created exactly at the window boundary is excluded.
func (r *repository) CountBySubjectSince(ctx context.Context, subject string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.AuthLog{}).
		Where("subject = ? AND created_at > ?", subject, since).
		Count(&count).Error
	return count, err
}

// CountByChallengeSince counts attempts across all subjects presenting the
// identical challenge value strictly newer than `since`.
func (r *repository) CountByChallengeSince(ctx context.Context, challenge string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.AuthLog{}).
		Where("challenge = ? AND created_at > ?", challenge, since).
		Count(&count).Error
	return count, err
}

func (r *repository) LatestBySubject(ctx context.Context, subject string) (*model.AuthLog, error) {
	var record model.AuthLog
	err := r.db.WithContext(ctx).
		Where("subject = ?", subject).
		Order("created_at DESC, id DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) AddObservation(ctx context.Context, obs *model.AuthenticatorObservation) error {
	return r.db.WithContext(ctx).Create(obs).Error
}

func (r *repository) LatestObservation(ctx context.Context, subject string) (*model.AuthenticatorObservation, error) {
	var obs model.AuthenticatorObservation
	err := r.db.WithContext(ctx).
		Where("subject = ?", subject).
		Order("created_at DESC, id DESC").
		First(&obs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, err
	}
	return &obs, nil
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}
