package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pontis/backend/internal/middleware"
	"github.com/pontis/backend/internal/services"
	"github.com/pontis/backend/pkg/logger"
	"github.com/pontis/backend/pkg/utils"
)

type MaintenanceHandler struct {
	Service *services.MaintenanceService
}

func NewMaintenanceHandler(service *services.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{Service: service}
}

func (h *MaintenanceHandler) Deduplicate(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	removed, err := h.Service.DeduplicateBestEffort(c.Context(), currentUser.ID)
	if err != nil {
		logger.Error("deduplicate_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed deduplicating files")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"removed": removed})
}

func (h *MaintenanceHandler) MigrateLegacy(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	migrated, err := h.Service.MigrateLegacy(c.Context())
	if err != nil {
		logger.Error("legacy_migration_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed migrating legacy media")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"migrated": migrated})
}
