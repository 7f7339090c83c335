package account

import (
	"context"
	"errors"
	"time"
)

var ErrAccountNotFound = errors.New("account not found")

// Account maps a console user to a gateway instance token.
type Account struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Name         string    `json:"name"`
	GatewayToken string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateAccountRequest struct {
	Name         string `json:"name"`
	GatewayToken string `json:"gateway_token"`
}

type IAccountRepository interface {
	Create(ctx context.Context, acc *Account) error
	GetForOwner(ctx context.Context, ownerID, accountID string) (*Account, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Account, error)
	ListAll(ctx context.Context) ([]Account, error)
}

type IAccountUsecase interface {
	Create(ctx context.Context, ownerID string, request CreateAccountRequest) (Account, error)
	List(ctx context.Context, ownerID string) ([]Account, error)
}
