package controller

import (
	"errors"
	"log"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"notebooklm-chat-be/internal/config"
	"notebooklm-chat-be/internal/dto"
	"notebooklm-chat-be/internal/pkg/serverutils"
	"notebooklm-chat-be/internal/service"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Login(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
	Refresh(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
}

type authController struct {
	cfg     *config.Config
	service service.IAuthService
}

func NewAuthController(cfg *config.Config, service service.IAuthService) IAuthController {
	return &authController{cfg: cfg, service: service}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Get("/login", c.Login)
	h.Get("/callback", c.Callback)
	h.Post("/refresh", c.Refresh)
	h.Post("/logout", c.Logout)
	h.Get("/status", c.Status)
}

func (c *authController) creds(ctx *fiber.Ctx) *serverutils.CookieStore {
	return serverutils.NewCookieStore(ctx, c.cfg.App.Environment == "production")
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	log.Printf("[Auth] Login initiated")

	url, err := c.service.GetLoginURL(c.creds(ctx))
	if err != nil {
		log.Printf("[Auth] ERROR - Failed to build login URL: %v", err)
		return err
	}

	log.Printf("[Auth] Redirecting user to Google consent screen")
	return ctx.Redirect(url, fiber.StatusTemporaryRedirect)
}

func (c *authController) Callback(ctx *fiber.Ctx) error {
	req := &dto.OAuthCallbackRequest{
		Code:          ctx.Query("code"),
		State:         ctx.Query("state"),
		ProviderError: ctx.Query("error"),
	}

	log.Printf("[Auth] Callback received")

	if err := c.service.HandleCallback(ctx.Context(), c.creds(ctx), req); err != nil {
		log.Printf("[Auth] ERROR - Callback failed: %v", err)
		return ctx.Redirect(c.errorRedirect(err), fiber.StatusTemporaryRedirect)
	}

	log.Printf("[Auth] ✅ User authenticated successfully")
	return ctx.Redirect(c.cfg.App.ClientURL+"/", fiber.StatusTemporaryRedirect)
}

// errorRedirect sends the browser back to the frontend with a machine-readable
// error code so the UI can show a useful message.
func (c *authController) errorRedirect(err error) string {
	code := "callback_failed"
	var appErr *serverutils.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
	}
	return c.cfg.App.ClientURL + "/?error=" + url.QueryEscape(code)
}

func (c *authController) Refresh(ctx *fiber.Ctx) error {
	if err := c.service.Refresh(ctx.Context(), c.creds(ctx)); err != nil {
		log.Printf("[Auth] ERROR - Token refresh failed: %v", err)
		return err
	}

	log.Printf("[Auth] ✅ Access token refreshed")
	return ctx.JSON(serverutils.SuccessResponse("Token refreshed", &dto.RefreshResponse{Success: true}))
}

func (c *authController) Logout(ctx *fiber.Ctx) error {
	c.service.Logout(c.creds(ctx))
	log.Printf("[Auth] User logged out")
	return ctx.JSON(serverutils.SuccessResponse[any]("Logged out", nil))
}

func (c *authController) Status(ctx *fiber.Ctx) error {
	res := c.service.Status(c.creds(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Success get auth status", res))
}
