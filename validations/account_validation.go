package validations

import (
	"context"

	domainAccount "github.com/AzielCF/az-engage/domains/account"
	pkgError "github.com/AzielCF/az-engage/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func ValidateCreateAccount(ctx context.Context, request domainAccount.CreateAccountRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Name, validation.Required, validation.Length(1, 80)),
		validation.Field(&request.GatewayToken, validation.Required, validation.By(notBlank)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}
