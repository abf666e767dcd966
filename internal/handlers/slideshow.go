package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pontis/backend/internal/middleware"
	"github.com/pontis/backend/internal/models"
	"github.com/pontis/backend/pkg/logger"
	"github.com/pontis/backend/pkg/utils"
	"gorm.io/gorm"
)

type SlideshowHandler struct {
	DB *gorm.DB
}

func NewSlideshowHandler(db *gorm.DB) *SlideshowHandler {
	return &SlideshowHandler{DB: db}
}

// View is the public presentation feed: published entries only, joined
// with their image, ascending display order.
func (h *SlideshowHandler) View(c *fiber.Ctx) error {
	projectID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "project not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading project")
	}

	var slides []models.SlideshowImage
	if err := h.DB.Preload("File").
		Where("project_id = ? AND is_published = ?", projectID, true).
		Order("display_order ASC").
		Find(&slides).Error; err != nil {
		logger.Error("slideshow_view_failed", err, map[string]interface{}{"project_id": projectID.String()})
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading slideshow")
	}

	return utils.Success(c, fiber.StatusOK, slides)
}

// ListAll is the management view: every entry regardless of publish state.
func (h *SlideshowHandler) ListAll(c *fiber.Ctx) error {
	projectID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "project not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading project")
	}

	var slides []models.SlideshowImage
	if err := h.DB.Preload("File").
		Where("project_id = ?", projectID).
		Order("display_order ASC").
		Find(&slides).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading slideshow")
	}

	return utils.Success(c, fiber.StatusOK, slides)
}

type addSlideRequest struct {
	FileID      string `json:"fileId"`
	Order       *int   `json:"order"`
	IsPublished bool   `json:"isPublished"`
}

func (h *SlideshowHandler) Add(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	projectID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}

	var req addSlideRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	fileID, err := parseUUID(req.FileID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid fileId")
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "project not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading project")
	}

	var file models.File
	if err := h.DB.First(&file, "id = ? AND is_deleted = ?", fileID, false).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "file not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading file")
	}
	if file.FileType != models.FileTypeImage {
		return utils.Error(c, fiber.StatusBadRequest, "file is not an image")
	}

	slide := models.SlideshowImage{
		ProjectID:   projectID,
		FileID:      fileID,
		IsPublished: req.IsPublished,
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if req.Order != nil {
			var taken int64
			if err := tx.Model(&models.SlideshowImage{}).
				Where("project_id = ? AND display_order = ?", projectID, *req.Order).
				Count(&taken).Error; err != nil {
				return err
			}
			if taken > 0 {
				return errOrderTaken
			}
			slide.Order = *req.Order
		} else {
			var maxOrder int
			if err := tx.Model(&models.SlideshowImage{}).
				Where("project_id = ?", projectID).
				Select("COALESCE(MAX(display_order), 0)").
				Scan(&maxOrder).Error; err != nil {
				return err
			}
			slide.Order = maxOrder + 1
		}
		return tx.Create(&slide).Error
	})
	if err != nil {
		if err == errOrderTaken {
			return utils.Error(c, fiber.StatusConflict, "order already in use for this project")
		}
		logger.Error("slideshow_add_failed", err, map[string]interface{}{"project_id": projectID.String()})
		return utils.Error(c, fiber.StatusInternalServerError, "failed adding slide")
	}

	logger.InfoWithUser(currentUser.ID.String(), "slide_added", map[string]interface{}{
		"project_id": projectID.String(),
		"file_id":    fileID.String(),
		"order":      slide.Order,
	})

	return utils.Success(c, fiber.StatusCreated, slide)
}

func (h *SlideshowHandler) Remove(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid slide id")
	}

	var slide models.SlideshowImage
	if err := h.DB.First(&slide, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "slide not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading slide")
	}

	if err := h.DB.Delete(&slide).Error; err != nil {
		logger.Error("slideshow_remove_failed", err, map[string]interface{}{"slide_id": id.String()})
		return utils.Error(c, fiber.StatusInternalServerError, "failed removing slide")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

type updateSlideRequest struct {
	IsPublished *bool `json:"isPublished"`
}

func (h *SlideshowHandler) Update(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid slide id")
	}

	var req updateSlideRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.IsPublished == nil {
		return utils.Error(c, fiber.StatusBadRequest, "isPublished is required")
	}

	var slide models.SlideshowImage
	if err := h.DB.First(&slide, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "slide not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading slide")
	}

	if err := h.DB.Model(&slide).Update("is_published", *req.IsPublished).Error; err != nil {
		logger.Error("slideshow_update_failed", err, map[string]interface{}{"slide_id": id.String()})
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating slide")
	}

	return utils.Success(c, fiber.StatusOK, slide)
}

type reorderRequest struct {
	SlideIDs []string `json:"slideIds"`
}

// Reorder rewrites the whole sequence as 1..n inside one transaction so
// no read ever observes duplicate order values within the project.
func (h *SlideshowHandler) Reorder(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	projectID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "project not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading project")
	}

	var req reorderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.SlideIDs) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "slideIds is required")
	}

	ids := parseUUIDList(req.SlideIDs)
	if len(ids) != len(req.SlideIDs) {
		return utils.Error(c, fiber.StatusBadRequest, "slideIds contains invalid ids")
	}

	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return utils.Error(c, fiber.StatusBadRequest, "slideIds contains duplicates")
		}
		seen[id] = true
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var total int64
		if err := tx.Model(&models.SlideshowImage{}).
			Where("project_id = ?", projectID).
			Count(&total).Error; err != nil {
			return err
		}
		if total != int64(len(ids)) {
			return errIncompleteSequence
		}

		var matching int64
		if err := tx.Model(&models.SlideshowImage{}).
			Where("project_id = ? AND id IN ?", projectID, ids).
			Count(&matching).Error; err != nil {
			return err
		}
		if matching != int64(len(ids)) {
			return errIncompleteSequence
		}

		for position, id := range ids {
			if err := tx.Model(&models.SlideshowImage{}).
				Where("id = ?", id).
				Update("display_order", position+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if err == errIncompleteSequence {
			return utils.Error(c, fiber.StatusBadRequest, "slideIds must list every slide of the project exactly once")
		}
		logger.Error("slideshow_reorder_failed", err, map[string]interface{}{"project_id": projectID.String()})
		return utils.Error(c, fiber.StatusInternalServerError, "failed reordering slideshow")
	}

	logger.InfoWithUser(currentUser.ID.String(), "slideshow_reordered", map[string]interface{}{
		"project_id": projectID.String(),
		"slides":     len(ids),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"reordered": len(ids)})
}
