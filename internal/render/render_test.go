package render

import (
	"strings"
	"testing"
)

func TestRenderOTPMail(t *testing.T) {
	if err := Initialize(map[string]interface{}{"siteName": "riskgate"}, ""); err != nil {
		t.Fatal(err)
	}
	body, err := RenderHTML("mail/otp-code", map[string]interface{}{
		"otpCode":       "123456",
		"expireMinutes": 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, "123456") {
		t.Error("rendered body missing otp code")
	}
	if !strings.Contains(body, "3 minutes") {
		t.Error("rendered body missing expiry")
	}
}
