package handlers

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pontis/backend/internal/middleware"
	"github.com/pontis/backend/internal/models"
	"github.com/pontis/backend/pkg/logger"
	"github.com/pontis/backend/pkg/utils"
	"gorm.io/gorm"
)

// storageQuotaLabel is a display string for the current storage tier, not
// a computed limit.
const storageQuotaLabel = "10 GB"

// BlobStore is the slice of the object-store client the file lifecycle
// needs: bytes in, bytes gone, and a public URL per key.
type BlobStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

type FilesHandler struct {
	DB      *gorm.DB
	Storage BlobStore
}

func NewFilesHandler(db *gorm.DB, store BlobStore) *FilesHandler {
	return &FilesHandler{DB: db, Storage: store}
}

func (h *FilesHandler) Upload(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}

	var projectID *uuid.UUID
	projectIDRaw := strings.TrimSpace(c.FormValue("projectID"))
	if projectIDRaw != "" {
		parsed, parseErr := parseUUID(projectIDRaw)
		if parseErr != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid projectID")
		}

		var project models.Project
		if err := h.DB.First(&project, "id = ?", parsed).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.Error(c, fiber.StatusNotFound, "project not found")
			}
			return utils.Error(c, fiber.StatusInternalServerError, "failed validating project")
		}
		projectID = &parsed
	}

	name := utils.SanitizeFileName(fileHeader.Filename)
	if name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "invalid filename")
	}

	contentType := fileHeader.Header.Get("Content-Type")

	stream, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed opening uploaded file")
	}
	defer stream.Close()

	key := fmt.Sprintf("%s/%s", uuid.New().String(), name)
	if err := h.Storage.Upload(c.Context(), key, stream, fileHeader.Size, contentType); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed uploading file")
	}

	entry := models.File{
		Name:      name,
		BlobURL:   h.Storage.PublicURL(key),
		BlobPath:  key,
		Size:      fileHeader.Size,
		FileType:  fileTypeFor(contentType, name),
		ProjectID: projectID,
	}

	if err := h.DB.Create(&entry).Error; err != nil {
		_ = h.Storage.Delete(c.Context(), key)
		logger.Error("file_record_create_failed", err, map[string]interface{}{"key": key})
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating file record")
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_uploaded", map[string]interface{}{
		"file_id":   entry.ID.String(),
		"file_name": name,
		"file_size": fileHeader.Size,
		"file_type": string(entry.FileType),
		"blob_path": key,
	})

	return utils.Success(c, fiber.StatusCreated, entry)
}

// List returns non-deleted files, optionally scoped to one project.
// Admins may pass deleted=true to inspect the trash.
func (h *FilesHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	query := h.DB.Model(&models.File{}).Order("created_at DESC")

	if c.Query("deleted") == "true" {
		if !middleware.HasRole(currentUser, models.UserRoleAdmin) {
			return utils.Error(c, fiber.StatusForbidden, "admin access required")
		}
		query = query.Where("is_deleted = ?", true)
	} else {
		query = query.Where("is_deleted = ?", false)
	}

	if projectIDRaw := strings.TrimSpace(c.Query("projectID")); projectIDRaw != "" {
		projectID, err := parseUUID(projectIDRaw)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid projectID")
		}
		query = query.Where("project_id = ?", projectID)
	}

	var files []models.File
	if err := query.Find(&files).Error; err != nil {
		logger.Error("files_list_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing files")
	}

	return utils.Success(c, fiber.StatusOK, files)
}

func (h *FilesHandler) Get(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	var file models.File
	if err := h.DB.Preload("Project").First(&file, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "file not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading file")
	}

	return utils.Success(c, fiber.StatusOK, file)
}

type updateFileRequest struct {
	Name      *string `json:"name"`
	ProjectID *string `json:"projectID"`
}

// Update renames a file and/or reassigns it to another project. At least
// one of the two fields must be present.
func (h *FilesHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	var req updateFileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == nil && req.ProjectID == nil {
		return utils.Error(c, fiber.StatusBadRequest, "name or projectID is required")
	}

	var file models.File
	if err := h.DB.First(&file, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "file not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading file")
	}

	if req.Name != nil {
		name := utils.SanitizeFileName(*req.Name)
		if name == "" {
			return utils.Error(c, fiber.StatusBadRequest, "invalid name")
		}
		file.Name = name
	}

	if req.ProjectID != nil {
		projectIDRaw := strings.TrimSpace(*req.ProjectID)
		if projectIDRaw == "" {
			file.ProjectID = nil
		} else {
			projectID, parseErr := parseUUID(projectIDRaw)
			if parseErr != nil {
				return utils.Error(c, fiber.StatusBadRequest, "invalid projectID")
			}

			var project models.Project
			if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return utils.Error(c, fiber.StatusNotFound, "project not found")
				}
				return utils.Error(c, fiber.StatusInternalServerError, "failed validating project")
			}
			file.ProjectID = &projectID
		}
	}

	if err := h.DB.Save(&file).Error; err != nil {
		logger.Error("file_update_failed", err, map[string]interface{}{"file_id": id.String()})
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating file")
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_updated", map[string]interface{}{
		"file_id": id.String(),
	})

	return utils.Success(c, fiber.StatusOK, file)
}

type bulkMoveRequest struct {
	FileIDs   []string `json:"fileIds"`
	ProjectID string   `json:"projectId"`
}

// BulkMove reassigns a batch of files to one target project. The target is
// validated once; ids that match nothing are skipped, and only the count
// of rows actually moved is reported.
func (h *FilesHandler) BulkMove(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req bulkMoveRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.FileIDs) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "fileIds is required")
	}

	projectID, err := parseUUID(req.ProjectID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid projectId")
	}

	ids := parseUUIDList(req.FileIDs)

	var count int64
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, "id = ?", projectID).Error; err != nil {
			return err
		}

		result := tx.Model(&models.File{}).
			Where("id IN ?", ids).
			Update("project_id", projectID)
		count = result.RowsAffected
		return result.Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "project not found")
		}
		logger.Error("files_bulk_move_failed", err, map[string]interface{}{"project_id": projectID.String()})
		return utils.Error(c, fiber.StatusInternalServerError, "failed moving files")
	}

	logger.InfoWithUser(currentUser.ID.String(), "files_bulk_moved", map[string]interface{}{
		"project_id": projectID.String(),
		"requested":  len(req.FileIDs),
		"moved":      count,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"count": count})
}

type fileIDsRequest struct {
	FileIDs []string `json:"fileIds"`
}

// SoftDelete marks files deleted, stamping deletedAt/deletedBy together so
// the pairing invariant holds. Rows already deleted are not re-stamped.
func (h *FilesHandler) SoftDelete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req fileIDsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.FileIDs) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "fileIds is required")
	}

	ids := parseUUIDList(req.FileIDs)
	now := time.Now().UTC()

	result := h.DB.Model(&models.File{}).
		Where("id IN ? AND is_deleted = ?", ids, false).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": now,
			"deleted_by": currentUser.ID,
		})
	if result.Error != nil {
		logger.Error("files_soft_delete_failed", result.Error, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting files")
	}

	logger.InfoWithUser(currentUser.ID.String(), "files_soft_deleted", map[string]interface{}{
		"requested": len(req.FileIDs),
		"deleted":   result.RowsAffected,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"count": result.RowsAffected})
}

// Restore clears the soft-delete triple on the given files.
func (h *FilesHandler) Restore(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req fileIDsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.FileIDs) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "fileIds is required")
	}

	ids := parseUUIDList(req.FileIDs)

	result := h.DB.Model(&models.File{}).
		Where("id IN ? AND is_deleted = ?", ids, true).
		Updates(map[string]interface{}{
			"is_deleted": false,
			"deleted_at": nil,
			"deleted_by": nil,
		})
	if result.Error != nil {
		logger.Error("files_restore_failed", result.Error, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed restoring files")
	}

	logger.InfoWithUser(currentUser.ID.String(), "files_restored", map[string]interface{}{
		"requested": len(req.FileIDs),
		"restored":  result.RowsAffected,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"count": result.RowsAffected})
}

// Purge permanently removes a soft-deleted file and its blob. A failed
// blob delete is logged and the record still goes away; orphaned blobs are
// tolerated for now.
func (h *FilesHandler) Purge(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	var file models.File
	if err := h.DB.First(&file, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "file not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading file")
	}

	if !file.IsDeleted {
		return utils.Error(c, fiber.StatusBadRequest, "file must be deleted before purge")
	}

	if err := h.Storage.Delete(c.Context(), file.BlobPath); err != nil {
		logger.WarnWithUser(currentUser.ID.String(), "purge_blob_delete_failed", map[string]interface{}{
			"file_id":   id.String(),
			"blob_path": file.BlobPath,
			"error":     err.Error(),
		})
	}

	if err := h.DB.Where("file_id = ?", file.ID).Delete(&models.SlideshowImage{}).Error; err != nil {
		logger.Error("purge_slideshow_cleanup_failed", err, map[string]interface{}{"file_id": id.String()})
		return utils.Error(c, fiber.StatusInternalServerError, "failed purging file")
	}

	if err := h.DB.Delete(&file).Error; err != nil {
		logger.Error("purge_record_delete_failed", err, map[string]interface{}{"file_id": id.String()})
		return utils.Error(c, fiber.StatusInternalServerError, "failed purging file")
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_purged", map[string]interface{}{
		"file_id":   id.String(),
		"blob_path": file.BlobPath,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"purged": true})
}

type fileStatistics struct {
	Images       int64  `json:"images"`
	Documents    int64  `json:"documents"`
	Videos       int64  `json:"videos"`
	Others       int64  `json:"others"`
	TotalSize    int64  `json:"totalSize"`
	ProjectCount int64  `json:"projectCount"`
	Quota        string `json:"quota"`
}

// Statistics aggregates the library over non-deleted rows only.
func (h *FilesHandler) Statistics(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	type typeRow struct {
		FileType models.FileType
		Count    int64
		Size     int64
	}

	var rows []typeRow
	if err := h.DB.Model(&models.File{}).
		Select("file_type, COUNT(*) AS count, COALESCE(SUM(size), 0) AS size").
		Where("is_deleted = ?", false).
		Group("file_type").
		Scan(&rows).Error; err != nil {
		logger.Error("files_statistics_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed computing statistics")
	}

	stats := fileStatistics{Quota: storageQuotaLabel}
	for _, row := range rows {
		stats.TotalSize += row.Size
		switch row.FileType {
		case models.FileTypeImage:
			stats.Images += row.Count
		case models.FileTypeDocument:
			stats.Documents += row.Count
		case models.FileTypeVideo:
			stats.Videos += row.Count
		default:
			stats.Others += row.Count
		}
	}

	if err := h.DB.Model(&models.File{}).
		Where("is_deleted = ? AND project_id IS NOT NULL", false).
		Distinct("project_id").
		Count(&stats.ProjectCount).Error; err != nil {
		logger.Error("files_statistics_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed computing statistics")
	}

	return utils.Success(c, fiber.StatusOK, stats)
}
