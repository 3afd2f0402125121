// Package audit closes the decision feedback loop: every terminal outcome is
// appended to the auth log, and the next request's risk features read it back.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/wlhuang/riskgate/internal/metrics"
	"github.com/wlhuang/riskgate/model"
)

// Entry captures one verification attempt's signals and outcome.
type Entry struct {
	Subject           string
	Challenge         string
	AccountRisk       int
	AuthenticatorRisk int
	ChallengeRisk     int
	FrequencyRisk     int
	SignCountRisk     int
	RpIDMatch         bool
	UserPresent       bool
	UserVerified      bool
	HasUnknownExt     bool
	PreCounter        uint32
	Action            string
	Result            string
}

// FailureEntry is the record written when the flow aborted before producing a
// decision. Risk fields default to the worst-case tier so the incident still
// weighs into future windowed counts.
func FailureEntry(subject, challenge string) Entry {
	return Entry{
		Subject:           subject,
		Challenge:         challenge,
		AccountRisk:       model.RiskHigh,
		AuthenticatorRisk: model.RiskHigh,
		ChallengeRisk:     model.RiskHigh,
		FrequencyRisk:     model.RiskHigh,
		SignCountRisk:     model.RiskHigh,
		Action:            model.ActionNone,
		Result:            model.ResultFail,
	}
}

// Writer persists decision outcomes best-effort. A failed write must never
// fail the caller's authentication result, so errors are logged and swallowed.
type Writer struct {
	repo    Repository
	timeout time.Duration
}

func (w *Writer) Record(ctx context.Context, entry Entry) {
	record := &model.AuthLog{
		Subject:           entry.Subject,
		Challenge:         entry.Challenge,
		AccountRisk:       entry.AccountRisk,
		AuthenticatorRisk: entry.AuthenticatorRisk,
		ChallengeRisk:     entry.ChallengeRisk,
		FrequencyRisk:     entry.FrequencyRisk,
		SignCountRisk:     entry.SignCountRisk,
		RpIDMatch:         entry.RpIDMatch,
		UserPresent:       entry.UserPresent,
		UserVerified:      entry.UserVerified,
		HasUnknownExt:     entry.HasUnknownExt,
		PreCounter:        entry.PreCounter,
		Action:            entry.Action,
		Result:            entry.Result,
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancel()
	if err := w.repo.Append(ctx, record); err != nil {
		metrics.AuditWriteFailures.Inc()
		slog.Error("Could not append auth log record", "subject", entry.Subject, "action", entry.Action, "error", err)
	}
}

// RecordObservation appends a subject->AAGUID link after a successful
// registration. Same best-effort contract as Record.
func (w *Writer) RecordObservation(ctx context.Context, subject, aaguid string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancel()
	obs := &model.AuthenticatorObservation{Subject: subject, AAGUID: aaguid}
	if err := w.repo.AddObservation(ctx, obs); err != nil {
		metrics.AuditWriteFailures.Inc()
		slog.Error("Could not append authenticator observation", "subject", subject, "aaguid", aaguid, "error", err)
	}
}

func NewWriter(repo Repository, timeout time.Duration) *Writer {
	return &Writer{
		repo:    repo,
		timeout: timeout,
	}
}
