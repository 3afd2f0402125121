package mail

import (
	"fmt"

	"github.com/wlhuang/riskgate/internal/render"
)

// SendOTP delivers a step-up verification code. The expiry shown to the user
// must match the challenge's actual lifetime.
func SendOTP(sender MailSender, toEmail string, otpCode string, expireMinutes int) error {
	body, err := render.RenderHTML("mail/otp-code", map[string]interface{}{
		"otpCode":       otpCode,
		"expireMinutes": expireMinutes,
	})
	if err != nil {
		return err
	}
	return sender.Send(&Message{
		To:      []string{toEmail},
		Subject: fmt.Sprintf("%s is your verification code", otpCode),
		Body:    body,
		IsHTML:  true,
	})
}
