package controller

import (
	"dyor-ai-be/internal/dto"
	"dyor-ai-be/internal/pkg/apperror"
	"dyor-ai-be/internal/pkg/serverutils"
	"dyor-ai-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	GetSessions(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	UpdateSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	AddMessage(ctx *fiber.Ctx) error
	ClearSession(ctx *fiber.Ctx) error
	SearchSessions(ctx *fiber.Ctx) error
	GetTemplates(ctx *fiber.Ctx) error
	CreateTemplate(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Get("sessions/search", c.SearchSessions)
	h.Post("sessions", c.CreateSession)
	h.Get("sessions", c.GetSessions)
	h.Get("sessions/:id", c.GetSession)
	h.Put("sessions/:id", c.UpdateSession)
	h.Delete("sessions/:id", c.DeleteSession)
	h.Post("sessions/:id/messages", c.AddMessage)
	h.Post("sessions/:id/clear", c.ClearSession)
	h.Get("templates", c.GetTemplates)
	h.Post("templates", c.CreateTemplate)
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.InvalidArgument("invalid request body")
	}

	res, err := c.chatService.CreateSession(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *chatController) GetSessions(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 50)
	offset := ctx.QueryInt("offset", 0)
	if limit < 1 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	res, err := c.chatService.GetSessions(ctx.Context(), limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}

func (c *chatController) GetSession(ctx *fiber.Ctx) error {
	id, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatService.GetSession(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *chatController) UpdateSession(ctx *fiber.Ctx) error {
	id, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.InvalidArgument("invalid request body")
	}

	res, err := c.chatService.UpdateSession(ctx.Context(), id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update session", res))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	id, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.chatService.DeleteSession(ctx.Context(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete session", nil))
}

func (c *chatController) AddMessage(ctx *fiber.Ctx) error {
	id, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	var req dto.AddMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.InvalidArgument("invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.AddMessage(ctx.Context(), id, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success add message", res))
}

func (c *chatController) ClearSession(ctx *fiber.Ctx) error {
	id, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.chatService.ClearSession(ctx.Context(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success clear session", nil))
}

func (c *chatController) SearchSessions(ctx *fiber.Ctx) error {
	query := ctx.Query("q")
	if query == "" {
		return apperror.InvalidArgument("query parameter 'q' is required")
	}

	limit := ctx.QueryInt("limit", 20)
	if limit < 1 {
		limit = 20
	}

	res, err := c.chatService.SearchSessions(ctx.Context(), query, limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search sessions", res))
}

func (c *chatController) GetTemplates(ctx *fiber.Ctx) error {
	res, err := c.chatService.GetTemplates(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list templates", res))
}

func (c *chatController) CreateTemplate(ctx *fiber.Ctx) error {
	var req dto.CreateTemplateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.InvalidArgument("invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.CreateTemplate(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create template", res))
}

func parseIdParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.InvalidArgument("invalid session id")
	}
	return id, nil
}
