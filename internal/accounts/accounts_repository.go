package accounts

import (
	"context"
	"errors"

	"github.com/wlhuang/riskgate/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrAccountNotFound = errors.New("account not found")

type AccountRepository interface {
	GetBySubject(ctx context.Context, subject string) (*model.Account, error)
	GetByUsername(ctx context.Context, username string) (*model.Account, error)
	Upsert(ctx context.Context, account *model.Account) error
}

type accountRepository struct {
	db *gorm.DB
}

func (r *accountRepository) GetBySubject(ctx context.Context, subject string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("subject = ?", subject).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) Upsert(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "email"}),
	}).Create(account).Error
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db}
}
