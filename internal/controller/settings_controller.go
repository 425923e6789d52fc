package controller

import (
	"dyor-ai-be/internal/dto"
	"dyor-ai-be/internal/pkg/apperror"
	"dyor-ai-be/internal/pkg/serverutils"
	"dyor-ai-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISettingsController interface {
	RegisterRoutes(r fiber.Router)
	GetSettings(ctx *fiber.Ctx) error
	UpdateSettings(ctx *fiber.Ctx) error
	ResetSettings(ctx *fiber.Ctx) error
	GetModels(ctx *fiber.Ctx) error
	TestConnection(ctx *fiber.Ctx) error
}

type settingsController struct {
	settingsService service.ISettingsService
}

func NewSettingsController(settingsService service.ISettingsService) ISettingsController {
	return &settingsController{
		settingsService: settingsService,
	}
}

func (c *settingsController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/settings/v1")
	h.Get("", c.GetSettings)
	h.Put("", c.UpdateSettings)
	h.Post("reset", c.ResetSettings)
	h.Get("models", c.GetModels)
	h.Post("test-connection", c.TestConnection)
}

func (c *settingsController) GetSettings(ctx *fiber.Ctx) error {
	res, err := c.settingsService.GetSettings(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get settings", res))
}

func (c *settingsController) UpdateSettings(ctx *fiber.Ctx) error {
	var patch service.Settings
	if err := ctx.BodyParser(&patch); err != nil {
		return apperror.InvalidArgument("invalid request body")
	}
	if len(patch) == 0 {
		return apperror.InvalidArgument("settings payload is empty")
	}

	res, err := c.settingsService.UpdateSettings(ctx.Context(), patch)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update settings", res))
}

func (c *settingsController) ResetSettings(ctx *fiber.Ctx) error {
	res, err := c.settingsService.ResetSettings(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success reset settings", res))
}

func (c *settingsController) GetModels(ctx *fiber.Ctx) error {
	models := c.settingsService.GetAvailableModels(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse("Success list models", fiber.Map{"models": models}))
}

func (c *settingsController) TestConnection(ctx *fiber.Ctx) error {
	var req dto.TestConnectionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.InvalidArgument("invalid request body")
	}

	result := c.settingsService.TestModelConnection(ctx.Context(), req.ModelConfig)
	return ctx.JSON(serverutils.SuccessResponse("Connection test completed", result))
}
