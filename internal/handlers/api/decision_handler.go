package api

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/wlhuang/riskgate/internal/decision"
	"github.com/wlhuang/riskgate/internal/middlewares/sessions"
	"github.com/wlhuang/riskgate/internal/policy"
	"github.com/wlhuang/riskgate/internal/stepup"
	"github.com/wlhuang/riskgate/internal/tokens"
)

// ReasonHighRisk is returned when the policy table rejects the assertion
// outright.
const ReasonHighRisk = "high_risk"

type DecisionHandler struct {
	engine      *decision.Engine
	stepUp      *stepup.Manager
	tokenIssuer *tokens.Issuer
}

// PostAssertionResult decides what to do with an assertion the upstream
// WebAuthn library already verified. ACCEPT grants the session immediately,
// MFA sends an email code and parks the session until /api/otp/verify, REJECT
// terminates the flow.
func (h *DecisionHandler) PostAssertionResult(ctx *fiber.Ctx) error {
	var req assertionResultRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Malformed request body")
	}
	if req.Subject == "" || req.Challenge == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing subject or challenge")
	}

	outcome := h.engine.Evaluate(ctx.Context(), decision.Input{
		Subject:       req.Subject,
		Challenge:     req.Challenge,
		SignCount:     req.SignCount,
		RpIDMatch:     req.RpIDMatch,
		UserPresent:   req.UserPresent,
		UserVerified:  req.UserVerified,
		HasUnknownExt: req.HasUnknownExtension,
	})

	sess := sessions.Get(ctx)
	switch outcome.Action {
	case policy.ActionAccept:
		token, err := h.tokenIssuer.Issue(req.Subject)
		if err != nil {
			h.engine.RecordFailure(ctx.Context(), req.Subject, req.Challenge)
			return err
		}
		sess.Save(sessions.SessionData{
			IP:        ctx.IP(),
			Subject:   req.Subject,
			Challenge: req.Challenge,
			GrantedAt: time.Now(),
		})
		return ctx.JSON(decisionResponse{Status: StatusOK, Token: token})

	case policy.ActionMFA:
		if err := h.stepUp.Issue(ctx.Context(), sess.ID(), req.Subject); err != nil {
			reason := stepup.Reason(err)
			if reason == "" {
				h.engine.RecordFailure(ctx.Context(), req.Subject, req.Challenge)
				return err
			}
			slog.Warn("Could not issue step-up challenge", "subject", req.Subject, "reason", reason)
			return ctx.JSON(decisionResponse{Status: StatusError, Message: reason})
		}
		sess.Save(sessions.SessionData{
			IP:            ctx.IP(),
			Subject:       req.Subject,
			Challenge:     req.Challenge,
			StepUpPending: true,
		})
		return ctx.JSON(decisionResponse{Status: StatusMFARequired})

	default:
		return ctx.JSON(decisionResponse{Status: StatusRejected, Reason: ReasonHighRisk})
	}
}

// PostVerifyOTP completes a pending step-up. The code is checked against the
// challenge stored under the caller's session id; a wrong code leaves the
// challenge in place for another attempt within its lifetime.
func (h *DecisionHandler) PostVerifyOTP(ctx *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Malformed request body")
	}

	sess := sessions.Get(ctx)
	subject, err := h.stepUp.Verify(ctx.Context(), sess.ID(), req.OTP)
	if err != nil {
		reason := stepup.Reason(err)
		if reason == "" {
			h.engine.RecordFailure(ctx.Context(), sess.Subject, sess.Challenge)
			return err
		}
		return ctx.JSON(decisionResponse{Status: StatusError, Message: reason})
	}

	token, err := h.tokenIssuer.Issue(subject)
	if err != nil {
		h.engine.RecordFailure(ctx.Context(), subject, sess.Challenge)
		return err
	}
	sess.Save(sessions.SessionData{
		IP:        ctx.IP(),
		Subject:   subject,
		Challenge: sess.Challenge,
		GrantedAt: time.Now(),
	})
	return ctx.JSON(decisionResponse{Status: StatusOK, Token: token})
}

func NewDecisionHandler(engine *decision.Engine, stepUp *stepup.Manager, tokenIssuer *tokens.Issuer) *DecisionHandler {
	return &DecisionHandler{
		engine:      engine,
		stepUp:      stepUp,
		tokenIssuer: tokenIssuer,
	}
}
