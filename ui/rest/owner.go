package rest

import (
	"errors"

	domainAccount "github.com/AzielCF/az-engage/domains/account"
	pkgError "github.com/AzielCF/az-engage/pkg/error"
	"github.com/AzielCF/az-engage/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// OwnerLocal is where the basic auth middleware leaves the authenticated user.
const OwnerLocal = "username"

func ownerID(c *fiber.Ctx) string {
	owner, _ := c.Locals(OwnerLocal).(string)
	if owner == "" {
		panic(pkgError.ForbiddenError("no authenticated user"))
	}
	return owner
}

// authorizeAccount panics unless the account belongs to the caller.
func authorizeAccount(c *fiber.Ctx, accounts domainAccount.IAccountRepository, accountID string) {
	if accountID == "" {
		panic(pkgError.ValidationError("account_id: cannot be blank."))
	}
	_, err := accounts.GetForOwner(c.UserContext(), ownerID(c), accountID)
	if errors.Is(err, domainAccount.ErrAccountNotFound) {
		panic(pkgError.ForbiddenError("account " + accountID + " is not available for this user"))
	}
	utils.PanicIfNeeded(err)
}

func parseBody(c *fiber.Ctx, out any) {
	if err := c.BodyParser(out); err != nil {
		panic(pkgError.ValidationError("invalid request body: " + err.Error()))
	}
}
