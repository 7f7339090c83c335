package validations

import (
	"fmt"

	domainBlacklist "github.com/AzielCF/az-engage/domains/blacklist"
	pkgError "github.com/AzielCF/az-engage/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var reasonRule = validation.In(
	domainBlacklist.ReasonError,
	domainBlacklist.ReasonBlock,
	domainBlacklist.ReasonInvalid,
	domainBlacklist.ReasonSpamReport,
)

func ValidateBlacklistAdd(number string, reason domainBlacklist.Reason, accountID string) error {
	err := validation.Errors{
		"number":     validation.Validate(number, validation.Required, validation.By(notBlank)),
		"reason":     validation.Validate(reason, validation.Required, reasonRule),
		"account_id": validation.Validate(accountID, validation.Required),
	}.Filter()
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

// ValidateBlacklistImport checks every record; a single malformed one rejects the batch.
func ValidateBlacklistImport(entries []domainBlacklist.Entry) error {
	for i := range entries {
		entry := entries[i]
		err := validation.ValidateStruct(&entry,
			validation.Field(&entry.Number, validation.Required, validation.By(notBlank)),
			validation.Field(&entry.Reason, validation.Required, reasonRule),
			validation.Field(&entry.Timestamp, validation.Required),
			validation.Field(&entry.AccountID, validation.Required),
			validation.Field(&entry.RetryCount, validation.Min(1)),
		)
		if err != nil {
			return pkgError.ValidationError(fmt.Sprintf("record %d: %s", i, err.Error()))
		}
	}
	return nil
}
