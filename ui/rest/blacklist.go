package rest

import (
	"fmt"
	"time"

	domainAccount "github.com/AzielCF/az-engage/domains/account"
	domainBlacklist "github.com/AzielCF/az-engage/domains/blacklist"
	"github.com/AzielCF/az-engage/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Blacklist struct {
	Service  domainBlacklist.IBlacklistUsecase
	Accounts domainAccount.IAccountRepository
}

func InitRestBlacklist(app fiber.Router, service domainBlacklist.IBlacklistUsecase, accounts domainAccount.IAccountRepository) Blacklist {
	rest := Blacklist{Service: service, Accounts: accounts}
	app.Get("/blacklist/export", rest.Export)
	app.Post("/blacklist/import", rest.Import)
	app.Post("/blacklist/sweep", rest.Sweep)
	app.Post("/blacklist/check", rest.Check)
	app.Post("/blacklist/filter", rest.Filter)
	app.Get("/blacklist/:account_id", rest.List)
	app.Post("/blacklist", rest.Add)
	app.Delete("/blacklist/:account_id/:number", rest.Remove)
	return rest
}

func (controller *Blacklist) List(c *fiber.Ctx) error {
	accountID := c.Params("account_id")
	authorizeAccount(c, controller.Accounts, accountID)

	entries, err := controller.Service.List(c.UserContext(), accountID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch blacklist",
		Results: entries,
	})
}

func (controller *Blacklist) Add(c *fiber.Ctx) error {
	var request domainBlacklist.AddRequest
	parseBody(c, &request)
	authorizeAccount(c, controller.Accounts, request.AccountID)

	entry, err := controller.Service.Add(c.UserContext(), request.Number, request.Reason, request.AccountID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Number blacklisted",
		Results: entry,
	})
}

func (controller *Blacklist) Remove(c *fiber.Ctx) error {
	accountID := c.Params("account_id")
	authorizeAccount(c, controller.Accounts, accountID)

	err := controller.Service.Remove(c.UserContext(), c.Params("number"), accountID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Number removed from blacklist",
	})
}

func (controller *Blacklist) Check(c *fiber.Ctx) error {
	var request domainBlacklist.AddRequest
	parseBody(c, &request)
	authorizeAccount(c, controller.Accounts, request.AccountID)

	listed, err := controller.Service.IsBlacklisted(c.UserContext(), request.Number, request.AccountID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success check number",
		Results: fiber.Map{"number": request.Number, "blacklisted": listed},
	})
}

func (controller *Blacklist) Filter(c *fiber.Ctx) error {
	var request domainBlacklist.FilterRequest
	parseBody(c, &request)
	authorizeAccount(c, controller.Accounts, request.AccountID)

	result, err := controller.Service.FilterValid(c.UserContext(), request.Numbers, request.AccountID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: fmt.Sprintf("%d valid, %d blacklisted", len(result.Valid), len(result.Blacklisted)),
		Results: result,
	})
}

// Export returns the caller's entries, or those of one account with ?account_id=.
func (controller *Blacklist) Export(c *fiber.Ctx) error {
	accountIDs := controller.scope(c, c.Query("account_id"))
	data, err := controller.Service.ExportAccounts(c.UserContext(), accountIDs)
	utils.PanicIfNeeded(err)

	filename := fmt.Sprintf("whatsapp_blacklist_%s.json", time.Now().UTC().Format("20060102"))
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}

func (controller *Blacklist) Import(c *fiber.Ctx) error {
	imported, err := controller.Service.ImportAccounts(c.UserContext(), c.Body(), controller.scope(c, ""))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: fmt.Sprintf("%d entries imported", imported),
		Results: fiber.Map{"imported": imported},
	})
}

func (controller *Blacklist) Sweep(c *fiber.Ctx) error {
	removed, err := controller.Service.SweepAccounts(c.UserContext(), controller.scope(c, ""))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: fmt.Sprintf("%d entries purged", removed),
		Results: fiber.Map{"removed": removed},
	})
}

// scope resolves the accounts a bulk call may touch: the one given, after an
// ownership check, or every account of the caller.
func (controller *Blacklist) scope(c *fiber.Ctx, accountID string) []string {
	if accountID != "" {
		authorizeAccount(c, controller.Accounts, accountID)
		return []string{accountID}
	}
	owned, err := controller.Accounts.ListByOwner(c.UserContext(), ownerID(c))
	utils.PanicIfNeeded(err)

	ids := make([]string, len(owned))
	for i, acc := range owned {
		ids[i] = acc.ID
	}
	return ids
}
