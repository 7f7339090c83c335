package rest

import (
	domainAccount "github.com/AzielCF/az-engage/domains/account"
	"github.com/AzielCF/az-engage/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Account struct {
	Service domainAccount.IAccountUsecase
}

func InitRestAccount(app fiber.Router, service domainAccount.IAccountUsecase) Account {
	rest := Account{Service: service}
	app.Post("/accounts", rest.Create)
	app.Get("/accounts", rest.List)
	return rest
}

func (controller *Account) Create(c *fiber.Ctx) error {
	var request domainAccount.CreateAccountRequest
	parseBody(c, &request)

	acc, err := controller.Service.Create(c.UserContext(), ownerID(c), request)
	utils.PanicIfNeeded(err)

	return c.Status(fiber.StatusCreated).JSON(utils.ResponseData{
		Status:  fiber.StatusCreated,
		Code:    "SUCCESS",
		Message: "Account registered",
		Results: acc,
	})
}

func (controller *Account) List(c *fiber.Ctx) error {
	accounts, err := controller.Service.List(c.UserContext(), ownerID(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch accounts",
		Results: accounts,
	})
}
