package usecase

import (
	"context"
	"strings"

	domainAccount "github.com/AzielCF/az-engage/domains/account"
	pkgError "github.com/AzielCF/az-engage/pkg/error"
	"github.com/AzielCF/az-engage/validations"
	"github.com/sirupsen/logrus"
)

type accountService struct {
	repo domainAccount.IAccountRepository
}

func NewAccountService(repo domainAccount.IAccountRepository) domainAccount.IAccountUsecase {
	return &accountService{repo: repo}
}

func (s *accountService) Create(ctx context.Context, ownerID string, request domainAccount.CreateAccountRequest) (domainAccount.Account, error) {
	if ownerID == "" {
		return domainAccount.Account{}, pkgError.ForbiddenError("missing owner")
	}
	if err := validations.ValidateCreateAccount(ctx, request); err != nil {
		return domainAccount.Account{}, err
	}

	acc := domainAccount.Account{
		OwnerID:      ownerID,
		Name:         strings.TrimSpace(request.Name),
		GatewayToken: strings.TrimSpace(request.GatewayToken),
	}
	if err := s.repo.Create(ctx, &acc); err != nil {
		return domainAccount.Account{}, err
	}
	logrus.Infof("[ACCOUNT] Registered account %s (%s) for %s", acc.ID, acc.Name, ownerID)
	return acc, nil
}

func (s *accountService) List(ctx context.Context, ownerID string) ([]domainAccount.Account, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}
