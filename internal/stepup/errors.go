package stepup

import "errors"

var (
	ErrNoEmailOnRecord = errors.New("no email on record")
	ErrOTPSendFailed   = errors.New("otp send failed")
	ErrSessionExpired  = errors.New("session expired")
	ErrOTPExpired      = errors.New("OTP code is expired")
	ErrBadOTP          = errors.New("OTP code mismatch")
)

// Reason returns the wire-level status code for a step-up error, or "" when
// the error is not part of the challenge taxonomy.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrNoEmailOnRecord):
		return "no_email_on_record"
	case errors.Is(err, ErrOTPSendFailed):
		return "otp_send_failed"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrOTPExpired):
		return "otp_expired"
	case errors.Is(err, ErrBadOTP):
		return "bad_otp"
	}
	return ""
}
