package handlers

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService   *services.AuthService
	defaultOrigin string
	redirectPath  string
	exposeCodes   bool
}

// NewAuthHandler builds the auth endpoints. exposeCodes echoes verification
// codes back in send-code responses and must be off in production.
func NewAuthHandler(authService *services.AuthService, defaultOrigin, redirectPath string, exposeCodes bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		defaultOrigin: defaultOrigin,
		redirectPath:  redirectPath,
		exposeCodes:   exposeCodes,
	}
}

// redirectURI must be identical for the login and callback legs.
func (h *AuthHandler) redirectURI(c *fiber.Ctx) string {
	origin := c.Get(fiber.HeaderOrigin)
	if origin == "" {
		origin = h.defaultOrigin
	}
	return strings.TrimRight(origin, "/") + h.redirectPath
}

func (h *AuthHandler) VKLogin(c *fiber.Ctx) error {
	url, state, err := h.authService.ProviderLoginURL(c.UserContext(), h.redirectURI(c))
	if err != nil {
		return respondError(c, "vk_login", err)
	}
	return c.JSON(dto.LoginURLResponse{RedirectURL: url, State: state})
}

func (h *AuthHandler) VKCallback(c *fiber.Ctx) error {
	resp, err := h.authService.ProviderCallback(c.UserContext(), c.Query("code"), c.Query("state"), h.redirectURI(c))
	if err != nil {
		return respondError(c, "vk_callback", err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) SendCode(c *fiber.Ctx) error {
	var req dto.SendCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	code, err := h.authService.SendCode(c.UserContext(), req.Email)
	if err != nil {
		return respondError(c, "email_send_code", err)
	}

	resp := dto.SendCodeResponse{Message: "Code sent"}
	if h.exposeCodes {
		resp.CodeForDemo = code
	}
	return c.JSON(resp)
}

func (h *AuthHandler) VerifyCode(c *fiber.Ctx) error {
	var req dto.VerifyCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	resp, err := h.authService.VerifyCode(c.UserContext(), req.Email, req.Code)
	if err != nil {
		return respondError(c, "email_verify_code", err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	resp, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		return respondError(c, "email_register", err)
	}
	return c.JSON(resp)
}
