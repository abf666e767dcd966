package handlers

import (
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pontis/backend/internal/middleware"
	"github.com/pontis/backend/internal/models"
	"github.com/pontis/backend/pkg/logger"
	"github.com/pontis/backend/pkg/utils"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

type ProjectsHandler struct {
	DB *gorm.DB
}

func NewProjectsHandler(db *gorm.DB) *ProjectsHandler {
	return &ProjectsHandler{DB: db}
}

type projectSummary struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Country string    `json:"country"`
}

// List returns the minimal project directory in locale-aware natural
// order. System projects (sentinel country) stay hidden from non-admins.
func (h *ProjectsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	query := h.DB.Model(&models.Project{}).Select("id", "name", "country")
	if !middleware.HasRole(currentUser, models.UserRoleAdmin) {
		query = query.Where("country <> ?", models.SystemCountry)
	}

	var projects []projectSummary
	if err := query.Scan(&projects).Error; err != nil {
		logger.Error("projects_list_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing projects")
	}

	collator := collate.New(language.French, collate.Numeric, collate.IgnoreCase)
	sort.SliceStable(projects, func(i, j int) bool {
		return collator.CompareString(projects[i].Name, projects[j].Name) < 0
	})

	return utils.Success(c, fiber.StatusOK, projects)
}

func (h *ProjectsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "project not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading project")
	}

	if project.IsSystem() && !middleware.HasRole(currentUser, models.UserRoleAdmin) {
		return utils.Error(c, fiber.StatusNotFound, "project not found")
	}

	return utils.Success(c, fiber.StatusOK, project)
}

type projectRequest struct {
	Name                 string  `json:"name"`
	Country              string  `json:"country"`
	Type                 string  `json:"type"`
	Status               string  `json:"status"`
	Latitude             float64 `json:"latitude"`
	Longitude            float64 `json:"longitude"`
	Description          string  `json:"description"`
	ProgressProspection  int     `json:"progressProspection"`
	ProgressStudies      int     `json:"progressStudies"`
	ProgressFabrication  int     `json:"progressFabrication"`
	ProgressTransport    int     `json:"progressTransport"`
	ProgressConstruction int     `json:"progressConstruction"`
}

func (r projectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Country, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Type, validation.Required, validation.In(
			string(models.ProjectTypeBridge),
			string(models.ProjectTypeRoad),
			string(models.ProjectTypeOther),
		)),
		validation.Field(&r.Status, validation.Required, validation.In(
			string(models.ProjectStatusPlanned),
			string(models.ProjectStatusInProgress),
			string(models.ProjectStatusCompleted),
			string(models.ProjectStatusSuspended),
		)),
		validation.Field(&r.Latitude, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&r.Longitude, validation.Min(-180.0), validation.Max(180.0)),
		validation.Field(&r.ProgressProspection, validation.Min(0), validation.Max(100)),
		validation.Field(&r.ProgressStudies, validation.Min(0), validation.Max(100)),
		validation.Field(&r.ProgressFabrication, validation.Min(0), validation.Max(100)),
		validation.Field(&r.ProgressTransport, validation.Min(0), validation.Max(100)),
		validation.Field(&r.ProgressConstruction, validation.Min(0), validation.Max(100)),
	)
}

func (r projectRequest) apply(project *models.Project) {
	project.Name = strings.TrimSpace(r.Name)
	project.Country = strings.TrimSpace(r.Country)
	project.Type = models.ProjectType(r.Type)
	project.Status = models.ProjectStatus(r.Status)
	project.Latitude = r.Latitude
	project.Longitude = r.Longitude
	project.Description = r.Description
	project.ProgressProspection = r.ProgressProspection
	project.ProgressStudies = r.ProgressStudies
	project.ProgressFabrication = r.ProgressFabrication
	project.ProgressTransport = r.ProgressTransport
	project.ProgressConstruction = r.ProgressConstruction
}

func (h *ProjectsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req projectRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Country) == models.SystemCountry {
		return utils.Error(c, fiber.StatusBadRequest, "country value is reserved")
	}

	project := models.Project{OwnerID: &currentUser.ID}
	req.apply(&project)

	if err := h.DB.Create(&project).Error; err != nil {
		logger.Error("project_create_failed", err, map[string]interface{}{"name": project.Name})
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating project")
	}

	logger.InfoWithUser(currentUser.ID.String(), "project_created", map[string]interface{}{
		"project_id": project.ID.String(),
		"name":       project.Name,
		"country":    project.Country,
	})

	return utils.Success(c, fiber.StatusCreated, project)
}

func (h *ProjectsHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "project not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading project")
	}

	if project.IsSystem() {
		return utils.Error(c, fiber.StatusBadRequest, "system projects cannot be modified")
	}

	var req projectRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Country) == models.SystemCountry {
		return utils.Error(c, fiber.StatusBadRequest, "country value is reserved")
	}

	req.apply(&project)

	if err := h.DB.Save(&project).Error; err != nil {
		logger.Error("project_update_failed", err, map[string]interface{}{"project_id": id.String()})
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating project")
	}

	return utils.Success(c, fiber.StatusOK, project)
}

type deleteProjectRequest struct {
	ConfirmName string `json:"confirmName"`
}

// Delete removes a project after the caller repeats its exact name, then
// detaches its files and drops its slideshow entries in one transaction.
func (h *ProjectsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid project id")
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "project not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading project")
	}

	if project.IsSystem() {
		return utils.Error(c, fiber.StatusBadRequest, "system projects cannot be deleted")
	}

	var req deleteProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.ConfirmName != project.Name {
		return utils.Error(c, fiber.StatusBadRequest, "confirmName does not match project name")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.File{}).
			Where("project_id = ?", project.ID).
			Update("project_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).
			Delete(&models.SlideshowImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&project).Error
	})
	if err != nil {
		logger.Error("project_delete_failed", err, map[string]interface{}{"project_id": id.String()})
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting project")
	}

	logger.InfoWithUser(currentUser.ID.String(), "project_deleted", map[string]interface{}{
		"project_id": id.String(),
		"name":       project.Name,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}
