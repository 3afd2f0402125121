package api

// Google JSON API style response structures
type APIResponse struct {
	APIVersion string        `json:"apiVersion"`
	Data       any           `json:"data,omitempty"`
	Error      *APIErrorInfo `json:"error,omitempty"`
}

type APIErrorInfo struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewDataResponse(data any) APIResponse {
	return APIResponse{
		APIVersion: "1.0",
		Data:       data,
	}
}

func NewErrorResponse(code int, message string) APIResponse {
	return APIResponse{
		APIVersion: "1.0",
		Error: &APIErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

const (
	StatusOK          = "ok"
	StatusMFARequired = "mfa_required"
	StatusRejected    = "rejected"
	StatusError       = "error"
)

type assertionResultRequest struct {
	Subject             string `json:"subject"`
	Challenge           string `json:"challenge"`
	SignCount           uint32 `json:"signCount"`
	RpIDMatch           bool   `json:"rpIdMatch"`
	UserPresent         bool   `json:"userPresent"`
	UserVerified        bool   `json:"userVerified"`
	HasUnknownExtension bool   `json:"hasUnknownExtension"`
}

type verifyOTPRequest struct {
	OTP string `json:"otp"`
}

type registerResultRequest struct {
	Subject  string `json:"subject"`
	Username string `json:"username"`
	Email    string `json:"email"`
	AAGUID   string `json:"aaguid"`
}

type decisionResponse struct {
	Status  string `json:"status"`
	Token   string `json:"token,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}
