// Package risk turns raw login signals and audit-log history into the
// discrete {0,1,2} tiers the policy table is indexed by.
package risk

import (
	"context"
	"errors"
	"time"

	"github.com/wlhuang/riskgate/internal/audit"
	"github.com/wlhuang/riskgate/internal/metadata"
	"github.com/wlhuang/riskgate/model"
	"github.com/wlhuang/riskgate/params"
)

// History is the read side of the audit log consumed by the extractor. It is
// satisfied by audit.Repository.
type History interface {
	CountBySubjectSince(ctx context.Context, subject string, since time.Time) (int64, error)
	CountByChallengeSince(ctx context.Context, challenge string, since time.Time) (int64, error)
	LatestBySubject(ctx context.Context, subject string) (*model.AuthLog, error)
	LatestObservation(ctx context.Context, subject string) (*model.AuthenticatorObservation, error)
}

// Extractor computes the risk features. All methods are read-only; when the
// history store or metadata service is unavailable they fail closed to the
// high tier and report the cause.
type Extractor struct {
	history  History
	metadata metadata.Service
	nowFunc  func() time.Time
}

func (e *Extractor) now() time.Time {
	if e.nowFunc != nil {
		return e.nowFunc()
	}
	return time.Now()
}

// FrequencyRisk grades how often the subject attempted to authenticate within
// the trailing window.
func (e *Extractor) FrequencyRisk(ctx context.Context, subject string) (int, error) {
	count, err := e.history.CountBySubjectSince(ctx, subject, e.now().Add(-params.RiskWindow))
	if err != nil {
		return model.RiskHigh, err
	}
	switch {
	case count >= params.FrequencyHighCount:
		return model.RiskHigh, nil
	case count >= params.FrequencyMediumCount:
		return model.RiskMedium, nil
	}
	return model.RiskLow, nil
}

// ChallengeRisk grades reuse of the identical challenge value across all
// subjects within the trailing window. A legitimate per-attempt challenge
// appears at most once.
func (e *Extractor) ChallengeRisk(ctx context.Context, challenge string) (int, error) {
	count, err := e.history.CountByChallengeSince(ctx, challenge, e.now().Add(-params.RiskWindow))
	if err != nil {
		return model.RiskHigh, err
	}
	switch {
	case count >= params.ChallengeHighCount:
		return model.RiskHigh, nil
	case count == params.ChallengeMediumCount:
		return model.RiskMedium, nil
	}
	return model.RiskLow, nil
}

// SignCountRisk compares the presented signature counter against the value the
// subject last presented. Regression is the strongest cloning indicator; a
// reset from non-zero and a missing increase are graded suspicious rather than
// failed hard. The first-ever login is never penalized.
func (e *Extractor) SignCountRisk(ctx context.Context, subject string, current uint32) (int, error) {
	last, err := e.history.LatestBySubject(ctx, subject)
	if errors.Is(err, audit.ErrNoRecord) {
		return model.RiskLow, nil
	}
	if err != nil {
		return model.RiskHigh, err
	}
	previous := last.PreCounter
	switch {
	case current == 0 && previous > 0:
		return model.RiskMedium, nil
	case current < previous:
		return model.RiskHigh, nil
	case current == previous:
		return model.RiskMedium, nil
	}
	return model.RiskLow, nil
}

// AuthenticatorRisk grades device trust from the subject's most recently
// observed authenticator model. Subjects with no observation, unknown AAGUIDs,
// and unmapped certification statuses all land on the high tier.
func (e *Extractor) AuthenticatorRisk(ctx context.Context, subject string) (int, error) {
	obs, err := e.history.LatestObservation(ctx, subject)
	if errors.Is(err, audit.ErrNoRecord) {
		return model.RiskHigh, nil
	}
	if err != nil {
		return model.RiskHigh, err
	}

	status, err := e.metadata.GetStatus(ctx, obs.AAGUID)
	if errors.Is(err, metadata.ErrNotFound) {
		return model.RiskHigh, nil
	}
	if err != nil {
		return model.RiskHigh, err
	}
	return StatusTier(status), nil
}

// AccountRisk combines the frequency and challenge tiers: low only when both
// are low, high when either is high, medium otherwise. The authenticator tier
// deliberately does not feed this aggregate.
func AccountRisk(frequencyRisk, challengeRisk int) int {
	if frequencyRisk == model.RiskLow && challengeRisk == model.RiskLow {
		return model.RiskLow
	}
	if frequencyRisk == model.RiskHigh || challengeRisk == model.RiskHigh {
		return model.RiskHigh
	}
	return model.RiskMedium
}

// StatusTier maps an authenticator certification status to a tier. Unmapped
// statuses fail closed to high.
func StatusTier(status string) int {
	switch status {
	case metadata.StatusCertifiedL1,
		metadata.StatusCertifiedL1Plus,
		metadata.StatusCertifiedL2,
		metadata.StatusCertifiedL2Plus,
		metadata.StatusCertifiedL3,
		metadata.StatusCertifiedL3Plus,
		metadata.StatusFIPSValidated:
		return model.RiskLow
	case metadata.StatusCertified,
		metadata.StatusSelfAssertionSubmitted,
		metadata.StatusUpdateAvailable:
		return model.RiskMedium
	}
	return model.RiskHigh
}

type Option func(*Extractor)

// WithNowFunc overrides the clock used for window boundaries.
func WithNowFunc(now func() time.Time) Option {
	return func(e *Extractor) {
		e.nowFunc = now
	}
}

func NewExtractor(history History, mds metadata.Service, opts ...Option) *Extractor {
	extractor := &Extractor{
		history:  history,
		metadata: mds,
	}
	for _, opt := range opts {
		opt(extractor)
	}
	return extractor
}
