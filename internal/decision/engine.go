// Package decision combines the extracted risk tiers with the protocol-level
// flags of a verified assertion, indexes the policy table, and records the
// outcome back into the audit log.
package decision

import (
	"context"
	"log/slog"

	"github.com/wlhuang/riskgate/internal/audit"
	"github.com/wlhuang/riskgate/internal/metrics"
	"github.com/wlhuang/riskgate/internal/policy"
	"github.com/wlhuang/riskgate/internal/risk"
	"github.com/wlhuang/riskgate/model"
)

// Input is the already-verified assertion result handed over by the external
// WebAuthn verification library. Nothing in it is re-derived here.
type Input struct {
	Subject       string // base64 user handle
	Challenge     string // challenge value the client presented
	SignCount     uint32 // counter reported in this assertion
	RpIDMatch     bool
	UserPresent   bool
	UserVerified  bool
	HasUnknownExt bool
}

// Outcome is the terminal result of one decision flow, including the tiers
// that produced it.
type Outcome struct {
	Action            policy.Action
	AccountRisk       int
	AuthenticatorRisk int
	ChallengeRisk     int
	FrequencyRisk     int
	SignCountRisk     int
}

type Engine struct {
	extractor *risk.Extractor
	table     *policy.Table
	writer    *audit.Writer
}

// Evaluate runs one decision flow. Feature extraction happens strictly before
// the outcome is appended, so a request never reads its own record. Extraction
// errors fail closed to the high tier and still yield a decision; only the
// degraded tier is logged.
func (e *Engine) Evaluate(ctx context.Context, input Input) Outcome {
	frequencyRisk := e.feature(ctx, input.Subject, "frequencyRisk", e.extractor.FrequencyRisk)
	challengeRisk := e.feature(ctx, input.Challenge, "challengeRisk", e.extractor.ChallengeRisk)
	authenticatorRisk := e.feature(ctx, input.Subject, "authenticatorRisk", e.extractor.AuthenticatorRisk)

	signCountRisk, err := e.extractor.SignCountRisk(ctx, input.Subject, input.SignCount)
	if err != nil {
		slog.Warn("Risk feature degraded to high tier", "feature", "signCountRisk", "subject", input.Subject, "error", err)
	}
	accountRisk := risk.AccountRisk(frequencyRisk, challengeRisk)

	action := e.table.BestAction(accountRisk, input.UserPresent, input.UserVerified, input.HasUnknownExt, signCountRisk)
	metrics.DecisionsTotal.WithLabelValues(action.String()).Inc()

	outcome := Outcome{
		Action:            action,
		AccountRisk:       accountRisk,
		AuthenticatorRisk: authenticatorRisk,
		ChallengeRisk:     challengeRisk,
		FrequencyRisk:     frequencyRisk,
		SignCountRisk:     signCountRisk,
	}
	e.writer.Record(ctx, audit.Entry{
		Subject:           input.Subject,
		Challenge:         input.Challenge,
		AccountRisk:       accountRisk,
		AuthenticatorRisk: authenticatorRisk,
		ChallengeRisk:     challengeRisk,
		FrequencyRisk:     frequencyRisk,
		SignCountRisk:     signCountRisk,
		RpIDMatch:         input.RpIDMatch,
		UserPresent:       input.UserPresent,
		UserVerified:      input.UserVerified,
		HasUnknownExt:     input.HasUnknownExt,
		PreCounter:        input.SignCount,
		Action:            action.String(),
		Result:            model.ResultSuccess,
	})
	return outcome
}

// RecordFailure writes the worst-case audit row for a flow that aborted before
// a decision was made, keeping the history complete for future features.
func (e *Engine) RecordFailure(ctx context.Context, subject, challenge string) {
	e.writer.Record(ctx, audit.FailureEntry(subject, challenge))
}

func (e *Engine) feature(ctx context.Context, arg, name string, fn func(context.Context, string) (int, error)) int {
	tier, err := fn(ctx, arg)
	if err != nil {
		slog.Warn("Risk feature degraded to high tier", "feature", name, "error", err)
	}
	return tier
}

func NewEngine(extractor *risk.Extractor, table *policy.Table, writer *audit.Writer) *Engine {
	return &Engine{
		extractor: extractor,
		table:     table,
		writer:    writer,
	}
}
