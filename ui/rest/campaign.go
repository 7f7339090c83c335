package rest

import (
	"fmt"

	domainCampaign "github.com/AzielCF/az-engage/domains/campaign"
	"github.com/AzielCF/az-engage/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Campaign struct {
	Service domainCampaign.ICampaignUsecase
}

func InitRestCampaign(app fiber.Router, service domainCampaign.ICampaignUsecase) Campaign {
	rest := Campaign{Service: service}
	app.Post("/campaigns", rest.Dispatch)
	app.Get("/campaigns", rest.ListLocal)
	app.Get("/campaigns/:id", rest.Details)

	app.Get("/accounts/:account_id/campaigns", rest.ListRemote)
	app.Post("/accounts/:account_id/campaigns/sweep", rest.SweepStuck)
	app.Post("/accounts/:account_id/campaigns/:folder_id/pause", rest.Pause)
	app.Post("/accounts/:account_id/campaigns/:folder_id/resume", rest.Resume)
	app.Post("/accounts/:account_id/campaigns/:folder_id/collect-failures", rest.CollectFailures)
	app.Delete("/accounts/:account_id/campaigns/:folder_id", rest.Delete)
	return rest
}

func (controller *Campaign) Dispatch(c *fiber.Ctx) error {
	var request domainCampaign.CampaignSpec
	parseBody(c, &request)

	result, err := controller.Service.Dispatch(c.UserContext(), ownerID(c), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: fmt.Sprintf("Campaign dispatched to %d recipients", result.Count),
		Results: result,
	})
}

func (controller *Campaign) ListLocal(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch campaigns",
		Results: controller.Service.ListLocal(c.UserContext(), ownerID(c)),
	})
}

func (controller *Campaign) Details(c *fiber.Ctx) error {
	details, err := controller.Service.Details(c.UserContext(), ownerID(c), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch campaign",
		Results: details,
	})
}

func (controller *Campaign) ListRemote(c *fiber.Ctx) error {
	campaigns, err := controller.Service.ListRemote(c.UserContext(), ownerID(c), c.Params("account_id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch remote campaigns",
		Results: campaigns,
	})
}

func (controller *Campaign) Pause(c *fiber.Ctx) error {
	err := controller.Service.Pause(c.UserContext(), ownerID(c), c.Params("account_id"), c.Params("folder_id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Pause requested",
	})
}

func (controller *Campaign) Resume(c *fiber.Ctx) error {
	err := controller.Service.Resume(c.UserContext(), ownerID(c), c.Params("account_id"), c.Params("folder_id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Resume requested",
	})
}

func (controller *Campaign) Delete(c *fiber.Ctx) error {
	err := controller.Service.Delete(c.UserContext(), ownerID(c), c.Params("account_id"), c.Params("folder_id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Campaign deleted",
	})
}

func (controller *Campaign) SweepStuck(c *fiber.Ctx) error {
	stuck, err := controller.Service.SweepStuck(c.UserContext(), ownerID(c), c.Params("account_id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: fmt.Sprintf("%d stuck campaigns found", len(stuck)),
		Results: stuck,
	})
}

func (controller *Campaign) CollectFailures(c *fiber.Ctx) error {
	added, err := controller.Service.CollectFailures(c.UserContext(), ownerID(c), c.Params("account_id"), c.Params("folder_id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: fmt.Sprintf("%d failed recipients blacklisted", added),
		Results: fiber.Map{"blacklisted": added},
	})
}
