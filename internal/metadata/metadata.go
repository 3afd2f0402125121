// Package metadata is the boundary to the authenticator metadata service. The
// live FIDO MDS client is an external collaborator; the shipped backend
// resolves AAGUIDs against a statically configured status map.
package metadata

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("aaguid not found")

// Status values follow the FIDO MDS authenticator status names.
const (
	StatusNotCertified              = "NOT_FIDO_CERTIFIED"
	StatusSelfAssertionSubmitted    = "SELF_ASSERTION_SUBMITTED"
	StatusCertified                 = "FIDO_CERTIFIED"
	StatusCertifiedL1               = "FIDO_CERTIFIED_L1"
	StatusCertifiedL1Plus           = "FIDO_CERTIFIED_L1plus"
	StatusCertifiedL2               = "FIDO_CERTIFIED_L2"
	StatusCertifiedL2Plus           = "FIDO_CERTIFIED_L2plus"
	StatusCertifiedL3               = "FIDO_CERTIFIED_L3"
	StatusCertifiedL3Plus           = "FIDO_CERTIFIED_L3plus"
	StatusFIPSValidated             = "FIPS_VALIDATED"
	StatusUpdateAvailable           = "UPDATE_AVAILABLE"
	StatusRevoked                   = "REVOKED"
	StatusUserVerificationBypass    = "USER_VERIFICATION_BYPASS"
	StatusAttestationKeyCompromise  = "ATTESTATION_KEY_COMPROMISE"
	StatusUserKeyRemoteCompromise   = "USER_KEY_REMOTE_COMPROMISE"
	StatusUserKeyPhysicalCompromise = "USER_KEY_PHYSICAL_COMPROMISE"
)

// Service resolves an authenticator model identifier to its certification
// status. Implementations return ErrNotFound for unknown AAGUIDs.
type Service interface {
	GetStatus(ctx context.Context, aaguid string) (string, error)
}

type staticService struct {
	statuses map[string]string
}

func (s *staticService) GetStatus(ctx context.Context, aaguid string) (string, error) {
	status, ok := s.statuses[strings.ToLower(aaguid)]
	if !ok {
		return "", ErrNotFound
	}
	return status, nil
}

// NewStaticService builds a Service over a fixed AAGUID->status map, keyed
// case-insensitively.
func NewStaticService(statuses map[string]string) Service {
	normalized := make(map[string]string, len(statuses))
	for aaguid, status := range statuses {
		normalized[strings.ToLower(aaguid)] = status
	}
	return &staticService{statuses: normalized}
}
