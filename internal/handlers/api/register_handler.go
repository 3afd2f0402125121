package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wlhuang/riskgate/internal/accounts"
	"github.com/wlhuang/riskgate/internal/audit"
)

type RegisterHandler struct {
	accountService *accounts.Service
	auditWriter    *audit.Writer
}

// PostRegisterResult records the outcome of a successful credential
// registration: the subject's contact row for step-up delivery and the
// authenticator model observation consumed by the device-trust feature.
func (h *RegisterHandler) PostRegisterResult(ctx *fiber.Ctx) error {
	var req registerResultRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Malformed request body")
	}
	if req.Subject == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing subject")
	}

	if err := h.accountService.Register(ctx.Context(), req.Subject, req.Username, req.Email); err != nil {
		return err
	}
	if req.AAGUID != "" {
		h.auditWriter.RecordObservation(ctx.Context(), req.Subject, req.AAGUID)
	}
	return ctx.JSON(decisionResponse{Status: StatusOK})
}

func NewRegisterHandler(accountService *accounts.Service, auditWriter *audit.Writer) *RegisterHandler {
	return &RegisterHandler{
		accountService: accountService,
		auditWriter:    auditWriter,
	}
}
