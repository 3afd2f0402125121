// Package accounts resolves subjects to out-of-band contact addresses.
package accounts

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/wlhuang/riskgate/model"
)

type Service struct {
	accountRepo AccountRepository
}

// ResolveEmail finds the contact address for a subject handle. Older rows were
// keyed by the decoded username, so a miss on the handle retries with the
// base64-decoded form.
func (s *Service) ResolveEmail(ctx context.Context, subject string) (string, error) {
	account, err := s.accountRepo.GetBySubject(ctx, subject)
	if err == nil {
		return account.Email, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return "", err
	}

	decoded, decErr := base64.StdEncoding.DecodeString(subject)
	if decErr != nil {
		return "", ErrAccountNotFound
	}
	account, err = s.accountRepo.GetByUsername(ctx, string(decoded))
	if err != nil {
		return "", err
	}
	return account.Email, nil
}

// Register upserts the contact row for a subject after a successful credential
// registration.
func (s *Service) Register(ctx context.Context, subject, username, email string) error {
	return s.accountRepo.Upsert(ctx, &model.Account{
		Subject:  subject,
		Username: username,
		Email:    email,
	})
}

func NewService(accountRepo AccountRepository) *Service {
	return &Service{
		accountRepo: accountRepo,
	}
}
