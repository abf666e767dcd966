package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pontis/backend/internal/middleware"
	"github.com/pontis/backend/internal/models"
	"github.com/pontis/backend/pkg/logger"
	"github.com/pontis/backend/pkg/utils"
	"gorm.io/gorm"
)

// UsersHandler is the admin-only account management surface.
type UsersHandler struct {
	DB *gorm.DB
}

func NewUsersHandler(db *gorm.DB) *UsersHandler {
	return &UsersHandler{DB: db}
}

func (h *UsersHandler) List(c *fiber.Ctx) error {
	var users []models.User
	if err := h.DB.Order("username ASC").Find(&users).Error; err != nil {
		logger.Error("users_list_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing users")
	}
	return utils.Success(c, fiber.StatusOK, users)
}

type createUserRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Color    string `json:"color"`
}

func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)
	if email == "" || username == "" || req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "email, username and password are required")
	}
	if len(req.Password) < 8 {
		return utils.Error(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}

	role := models.UserRole(strings.ToUpper(strings.TrimSpace(req.Role)))
	if req.Role == "" {
		role = models.UserRoleUser
	}
	if !role.Valid() {
		return utils.Error(c, fiber.StatusBadRequest, "invalid role")
	}

	var conflicts int64
	if err := h.DB.Model(&models.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&conflicts).Error; err != nil {
		logger.Error("user_conflict_check_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating user")
	}
	if conflicts > 0 {
		return utils.Error(c, fiber.StatusConflict, "email or username already in use")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		logger.Error("password_hash_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating user")
	}

	user := models.User{
		Email:        email,
		Username:     username,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         role,
	}
	if color := strings.TrimSpace(req.Color); color != "" {
		user.Color = color
	}

	if err := h.DB.Create(&user).Error; err != nil {
		logger.Error("user_create_failed", err, map[string]interface{}{"email": email})
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating user")
	}

	logger.Info("user_created", map[string]interface{}{
		"user_id":  user.ID.String(),
		"username": username,
		"role":     string(role),
	})

	return utils.Success(c, fiber.StatusCreated, user)
}

type updateUserRequest struct {
	Name  *string `json:"name"`
	Role  *string `json:"role"`
	Color *string `json:"color"`
}

func (h *UsersHandler) Update(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading user")
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		role := models.UserRole(strings.ToUpper(strings.TrimSpace(*req.Role)))
		if !role.Valid() {
			return utils.Error(c, fiber.StatusBadRequest, "invalid role")
		}
		user.Role = role
	}
	if req.Color != nil {
		user.Color = strings.TrimSpace(*req.Color)
	}

	if err := h.DB.Save(&user).Error; err != nil {
		logger.Error("user_update_failed", err, map[string]interface{}{"user_id": id.String()})
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating user")
	}

	return utils.Success(c, fiber.StatusOK, user)
}

func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	if id == currentUser.ID {
		return utils.Error(c, fiber.StatusBadRequest, "cannot delete your own account")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading user")
	}

	if err := h.DB.Delete(&user).Error; err != nil {
		logger.Error("user_delete_failed", err, map[string]interface{}{"user_id": id.String()})
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting user")
	}

	logger.InfoWithUser(currentUser.ID.String(), "user_deleted", map[string]interface{}{
		"deleted_user_id": id.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}
