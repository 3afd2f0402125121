// Package stepup issues and verifies the time-boxed one-time codes the
// decision engine requires when it selects MFA.
//
// Per authentication attempt the challenge moves through
// NONE -> ISSUED -> {VERIFIED | EXPIRED | FAILED}. Challenges are scoped to
// the caller's session and are single-use; there is no retry counter, so a
// wrong code leaves the challenge usable until it expires.
package stepup

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wlhuang/riskgate/internal/mail"
	"github.com/wlhuang/riskgate/internal/metrics"
	"github.com/wlhuang/riskgate/internal/store"
	"github.com/wlhuang/riskgate/params"
)

// EmailResolver finds the out-of-band contact address for a subject. It is
// satisfied by accounts.Service.
type EmailResolver interface {
	ResolveEmail(ctx context.Context, subject string) (string, error)
}

type Manager struct {
	challenges *challengeStore
	resolver   EmailResolver
	sender     mail.MailSender
	digits     int
	nowFunc    func() time.Time
}

func (m *Manager) now() time.Time {
	if m.nowFunc != nil {
		return m.nowFunc()
	}
	return time.Now()
}

// Issue generates a fresh code for the subject, dispatches it out-of-band,
// and stores the pending challenge under the caller's session ID. A session
// holds at most one pending challenge; reissuing replaces it.
func (m *Manager) Issue(ctx context.Context, sessionID string, subject string) error {
	email, err := m.resolver.ResolveEmail(ctx, subject)
	if err != nil {
		metrics.StepUpIssuedTotal.WithLabelValues("no_email_on_record").Inc()
		return ErrNoEmailOnRecord
	}

	code, err := generateOTP(m.digits)
	if err != nil {
		return err
	}
	if err := mail.SendOTP(m.sender, email, code, int(params.StepUpOTPExpiration.Minutes())); err != nil {
		metrics.StepUpIssuedTotal.WithLabelValues("otp_send_failed").Inc()
		return ErrOTPSendFailed
	}

	now := m.now()
	challenge := PendingChallenge{
		ID:        uuid.NewString(),
		Subject:   subject,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(params.StepUpOTPExpiration),
	}
	if err := m.challenges.Set(ctx, sessionID, challenge, params.StepUpChallengeRetention); err != nil {
		return err
	}
	metrics.StepUpIssuedTotal.WithLabelValues("issued").Inc()
	return nil
}

// Verify checks a submitted code against the session's pending challenge and
// returns the bound subject on success. The challenge is deleted on success
// only; a mismatch keeps it available for further attempts until expiry.
func (m *Manager) Verify(ctx context.Context, sessionID string, code string) (string, error) {
	challenge, err := m.challenges.Get(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		metrics.StepUpVerifyTotal.WithLabelValues("session_expired").Inc()
		return "", ErrSessionExpired
	}
	if err != nil {
		return "", err
	}

	if challenge.ExpiredAt(m.now()) {
		metrics.StepUpVerifyTotal.WithLabelValues("otp_expired").Inc()
		return "", ErrOTPExpired
	}
	if code != challenge.Code {
		metrics.StepUpVerifyTotal.WithLabelValues("bad_otp").Inc()
		return "", ErrBadOTP
	}

	// Single use: delete before reporting success so a concurrent duplicate
	// submission cannot verify twice.
	if err := m.challenges.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.StepUpVerifyTotal.WithLabelValues("session_expired").Inc()
			return "", ErrSessionExpired
		}
		return "", err
	}
	metrics.StepUpVerifyTotal.WithLabelValues("verified").Inc()
	return challenge.Subject, nil
}

type Option func(*Manager)

// WithNowFunc overrides the clock used for expiry checks.
func WithNowFunc(now func() time.Time) Option {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// WithDigits overrides the code length.
func WithDigits(digits int) Option {
	return func(m *Manager) {
		if digits > 0 {
			m.digits = digits
		}
	}
}

func NewManager(storage store.Storage, resolver EmailResolver, sender mail.MailSender, opts ...Option) *Manager {
	manager := &Manager{
		challenges: newChallengeStore(storage),
		resolver:   resolver,
		sender:     sender,
		digits:     params.StepUpOTPDigits,
	}
	for _, opt := range opts {
		opt(manager)
	}
	return manager
}
