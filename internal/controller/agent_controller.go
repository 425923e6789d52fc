package controller

import (
	"dyor-ai-be/internal/dto"
	"dyor-ai-be/internal/pkg/apperror"
	"dyor-ai-be/internal/pkg/serverutils"
	"dyor-ai-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// restClientId keys the shared conversation used by REST callers; websocket
// clients each get their own connection-scoped conversation.
const restClientId = "00000000-0000-0000-0000-000000000000"

type IAgentController interface {
	RegisterRoutes(r fiber.Router)
	SendMessage(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	GetStatus(ctx *fiber.Ctx) error
	ClearHistory(ctx *fiber.Ctx) error
}

type agentController struct {
	agentService service.IAgentService
}

func NewAgentController(agentService service.IAgentService) IAgentController {
	return &agentController{
		agentService: agentService,
	}
}

func (c *agentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/agent/v1")
	h.Post("messages", c.SendMessage)
	h.Get("history", c.GetHistory)
	h.Get("status", c.GetStatus)
	h.Delete("history", c.ClearHistory)
}

func (c *agentController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendAgentMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.InvalidArgument("invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.agentService.ProcessMessage(ctx.Context(), restClientId, req.Message)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *agentController) GetHistory(ctx *fiber.Ctx) error {
	history := c.agentService.GetHistory(restClientId)
	return ctx.JSON(serverutils.SuccessResponse("Success get history", fiber.Map{"history": history}))
}

func (c *agentController) GetStatus(ctx *fiber.Ctx) error {
	status := c.agentService.GetStatus(restClientId)
	return ctx.JSON(serverutils.SuccessResponse("Success get status", status))
}

func (c *agentController) ClearHistory(ctx *fiber.Ctx) error {
	c.agentService.ClearHistory(restClientId)
	return ctx.JSON(serverutils.SuccessResponse("Success clear history", fiber.Map{"success": true}))
}
