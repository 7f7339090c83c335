package repository

import (
	"context"
	"errors"
	"time"

	domainAccount "github.com/AzielCF/az-engage/domains/account"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type accountModel struct {
	ID           string    `gorm:"primaryKey;column:id"`
	OwnerID      string    `gorm:"column:owner_id;not null;index"`
	Name         string    `gorm:"column:name;not null"`
	GatewayToken string    `gorm:"column:gateway_token;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"`
}

func (accountModel) TableName() string { return "accounts" }

// AccountGormRepository maps console users to gateway instances. Every read
// is scoped by owner.
type AccountGormRepository struct {
	db *gorm.DB
}

var _ domainAccount.IAccountRepository = (*AccountGormRepository)(nil)

func NewAccountGormRepository(db *gorm.DB) *AccountGormRepository {
	return &AccountGormRepository{db: db}
}

func (r *AccountGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&accountModel{})
}

func (r *AccountGormRepository) Create(ctx context.Context, acc *domainAccount.Account) error {
	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = now
	}
	acc.UpdatedAt = now

	model := toAccountModel(*acc)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *AccountGormRepository) GetForOwner(ctx context.Context, ownerID, accountID string) (*domainAccount.Account, error) {
	var m accountModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", accountID, ownerID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainAccount.ErrAccountNotFound
		}
		return nil, err
	}
	acc := fromAccountModel(m)
	return &acc, nil
}

func (r *AccountGormRepository) ListByOwner(ctx context.Context, ownerID string) ([]domainAccount.Account, error) {
	var models []accountModel
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return fromAccountModels(models), nil
}

// ListAll is for background jobs that act on every account.
func (r *AccountGormRepository) ListAll(ctx context.Context) ([]domainAccount.Account, error) {
	var models []accountModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return fromAccountModels(models), nil
}

func toAccountModel(a domainAccount.Account) accountModel {
	return accountModel{
		ID:           a.ID,
		OwnerID:      a.OwnerID,
		Name:         a.Name,
		GatewayToken: a.GatewayToken,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func fromAccountModel(m accountModel) domainAccount.Account {
	return domainAccount.Account{
		ID:           m.ID,
		OwnerID:      m.OwnerID,
		Name:         m.Name,
		GatewayToken: m.GatewayToken,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func fromAccountModels(models []accountModel) []domainAccount.Account {
	res := make([]domainAccount.Account, len(models))
	for i, m := range models {
		res[i] = fromAccountModel(m)
	}
	return res
}
