package model

import "time"

// AuthenticatorObservation links a subject to the authenticator model (AAGUID)
// that created one of its credentials. One row is appended per successful
// registration; device-trust checks read only the most recent row per subject.
type AuthenticatorObservation struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Subject   string    `gorm:"size:128;not null;index"`
	AAGUID    string    `gorm:"size:36;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (AuthenticatorObservation) TableName() string {
	return "authenticator_observation"
}
