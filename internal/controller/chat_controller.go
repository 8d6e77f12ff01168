package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"notebooklm-chat-be/internal/config"
	"notebooklm-chat-be/internal/dto"
	"notebooklm-chat-be/internal/pkg/serverutils"
	"notebooklm-chat-be/internal/service"
	"notebooklm-chat-be/pkg/store"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	SendChat(ctx *fiber.Ctx) error
}

type chatController struct {
	cfg     *config.Config
	service service.IChatService
}

func NewChatController(cfg *config.Config, service service.IChatService) IChatController {
	return &chatController{cfg: cfg, service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Post("", c.SendChat)
}

func (c *chatController) SendChat(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	log.Printf("[Chat] Request received: %d history turns, %d notebook(s)", len(req.ChatHistory), len(req.NotebookIDs))

	creds := serverutils.NewCookieStore(ctx, c.cfg.App.Environment == "production")
	res, err := c.service.SendChat(ctx.Context(), creds.Get(store.KeyAccessToken), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}
