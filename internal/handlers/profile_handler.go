package handlers

import (
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	resp, err := h.profileService.GetProfile(c.UserContext(), userID)
	if err != nil {
		return respondError(c, "get_profile", err)
	}
	return c.JSON(resp)
}

func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.profileService.UpdateProfile(c.UserContext(), userID, &req); err != nil {
		return respondError(c, "update_profile", err)
	}
	return c.JSON(dto.MessageResponse{Message: "Profile updated"})
}

func (h *ProfileHandler) PremiumStatus(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	resp, err := h.profileService.PremiumStatus(c.UserContext(), userID)
	if err != nil {
		return respondError(c, "premium_status", err)
	}
	return c.JSON(resp)
}

func (h *ProfileHandler) ActivatePremium(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.ActivatePremiumRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
	}

	resp, err := h.profileService.ActivatePremium(c.UserContext(), userID, req.Plan)
	if err != nil {
		return respondError(c, "activate_premium", err)
	}
	return c.JSON(resp)
}

func (h *ProfileHandler) Statistics(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	resp, err := h.profileService.Statistics(c.UserContext(), userID)
	if err != nil {
		return respondError(c, "statistics", err)
	}
	return c.JSON(resp)
}

func (h *ProfileHandler) RecordAction(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.RecordActionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.profileService.RecordAction(c.UserContext(), userID, req.ActionType); err != nil {
		return respondError(c, "record_action", err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MessageResponse{Message: "Action recorded"})
}
