package handlers

import (
	"strings"

	"github.com/cloudary/backend/internal/middleware"
	"github.com/cloudary/backend/internal/services"
	"github.com/cloudary/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type SearchHandler struct {
	Service *services.SearchService
}

func NewSearchHandler(search *services.SearchService) *SearchHandler {
	return &SearchHandler{Service: search}
}

func (h *SearchHandler) Search(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		return utils.Error(c, fiber.StatusBadRequest, "search query required")
	}

	result, err := h.Service.Search(c.Context(), currentUser.ID, query)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed searching")
	}
	return utils.Success(c, fiber.StatusOK, result)
}
