package handlers

import (
	"errors"
	"strings"

	"github.com/cloudary/backend/internal/middleware"
	"github.com/cloudary/backend/internal/models"
	"github.com/cloudary/backend/internal/services"
	"github.com/cloudary/backend/pkg/logger"
	"github.com/cloudary/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type SharesHandler struct {
	Shares *services.ShareService
}

func NewSharesHandler(shares *services.ShareService) *SharesHandler {
	return &SharesHandler{Shares: shares}
}

type createShareRequest struct {
	ShareType  string `json:"shareType"`
	Permission string `json:"permission"`
	SharedWith string `json:"sharedWith"`
	ExpiresIn  int    `json:"expiresIn"`
}

func (h *SharesHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("fileId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	var req createShareRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if !isValidShareType(req.ShareType) {
		return utils.Error(c, fiber.StatusBadRequest, "invalid share type")
	}
	if req.Permission == "" {
		req.Permission = string(models.SharePermissionView)
	}
	if !isValidSharePermission(req.Permission) {
		return utils.Error(c, fiber.StatusBadRequest, "invalid permission")
	}

	shareType := models.ShareType(strings.ToLower(strings.TrimSpace(req.ShareType)))
	recipient := strings.ToLower(strings.TrimSpace(req.SharedWith))
	if shareType == models.ShareTypePrivate && recipient == "" {
		return utils.Error(c, fiber.StatusBadRequest, "sharedWith email is required for private shares")
	}
	if req.ExpiresIn < 0 {
		return utils.Error(c, fiber.StatusBadRequest, "expiresIn must be positive")
	}

	share, link, err := h.Shares.Create(c.Context(), services.CreateShareParams{
		FileID:           fileID,
		OwnerID:          currentUser.ID,
		ShareType:        shareType,
		Permission:       models.SharePermission(strings.ToLower(strings.TrimSpace(req.Permission))),
		RecipientEmail:   recipient,
		ExpiresInMinutes: req.ExpiresIn,
	})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			if shareType == models.ShareTypePrivate {
				return utils.Error(c, fiber.StatusNotFound, "file or recipient not found")
			}
			return utils.Error(c, fiber.StatusNotFound, "file not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating share")
	}

	logger.InfoWithUser(currentUser.ID.String(), "share_created", map[string]interface{}{
		"share_id":   share.ID.String(),
		"file_id":    share.FileID.String(),
		"share_type": string(share.ShareType),
	})

	payload := fiber.Map{"share": share}
	if link != "" {
		payload["link"] = link
	}
	return utils.Success(c, fiber.StatusCreated, payload)
}

func (h *SharesHandler) ResolveByToken(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Params("token"))
	if token == "" {
		return utils.Error(c, fiber.StatusBadRequest, "token is required")
	}

	file, err := h.Shares.ResolveByToken(c.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return utils.Error(c, fiber.StatusNotFound, "invalid or expired link")
		case errors.Is(err, services.ErrExpired):
			return utils.Error(c, fiber.StatusGone, "link expired")
		default:
			return utils.Error(c, fiber.StatusInternalServerError, "failed resolving share")
		}
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"file": file})
}

func (h *SharesHandler) ResolvePrivate(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	shareID, err := parseUUID(c.Params("shareId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid share id")
	}

	file, err := h.Shares.ResolvePrivate(c.Context(), shareID, currentUser.ID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return utils.Error(c, fiber.StatusNotFound, "share not found")
		case errors.Is(err, services.ErrForbidden):
			return utils.Error(c, fiber.StatusForbidden, "you don't have access to this file")
		case errors.Is(err, services.ErrExpired):
			return utils.Error(c, fiber.StatusGone, "file is not available")
		default:
			return utils.Error(c, fiber.StatusInternalServerError, "failed resolving share")
		}
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"file": file})
}

func (h *SharesHandler) ListSharedWithMe(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	shares, err := h.Shares.ListSharedWithMe(c.Context(), currentUser.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing shares")
	}
	return utils.Success(c, fiber.StatusOK, shares)
}

func (h *SharesHandler) RemoveFromMyList(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	shareID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid share id")
	}

	if err := h.Shares.RemoveFromMyList(c.Context(), shareID, currentUser.ID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "share not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed removing share")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "file removed from your list"})
}
