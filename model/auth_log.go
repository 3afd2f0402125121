package model

import "time"

// Risk tier values shared by all five features.
const (
	RiskLow    = 0
	RiskMedium = 1
	RiskHigh   = 2
)

// Actions a decision can resolve to. ActionNone is only ever written by the
// failure path when the flow aborted before a decision was made.
const (
	ActionAccept = "ACCEPT"
	ActionMFA    = "MFA"
	ActionReject = "REJECT"
	ActionNone   = "NONE"
)

const (
	ResultSuccess = "Success"
	ResultFail    = "Fail"
)

// AuthLog is one row per assertion-verification attempt. Rows are append-only:
// they are never updated or deleted, and every future risk computation reads
// them as historical truth.
type AuthLog struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement"`
	Subject           string    `gorm:"size:128;not null;index"` // base64 user handle
	Challenge         string    `gorm:"size:256;not null;index"` // challenge presented by the client
	AccountRisk       int       `gorm:"not null"`
	AuthenticatorRisk int       `gorm:"not null"`
	ChallengeRisk     int       `gorm:"not null"`
	FrequencyRisk     int       `gorm:"not null"`
	SignCountRisk     int       `gorm:"not null"`
	RpIDMatch         bool      `gorm:"not null"`
	UserPresent       bool      `gorm:"not null"`
	UserVerified      bool      `gorm:"not null"`
	HasUnknownExt     bool      `gorm:"not null"`
	PreCounter        uint32    `gorm:"not null"` // signature counter presented in this attempt
	Action            string    `gorm:"size:8;not null"`
	Result            string    `gorm:"size:8;not null"`
	CreatedAt         time.Time `gorm:"autoCreateTime;index"`
}

func (AuthLog) TableName() string {
	return "auth_log"
}
