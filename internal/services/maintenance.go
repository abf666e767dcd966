package services

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pontis/backend/internal/models"
	"github.com/pontis/backend/pkg/logger"
	"gorm.io/gorm"
)

// MaintenanceService hosts the offline-style operations that are not part
// of the normal request path: best-effort deduplication and folding the
// legacy media tables into the unified File table.
type MaintenanceService struct {
	DB *gorm.DB
}

func NewMaintenanceService(db *gorm.DB) *MaintenanceService {
	return &MaintenanceService{DB: db}
}

type dedupKey struct {
	ProjectID uuid.UUID
	HasOwner  bool
	Name      string
	Size      int64
}

// DeduplicateBestEffort soft-deletes files that share (project, name,
// size) with a newer file. The triple is an identity heuristic, not a
// content hash: distinct files that coincide on all three are treated as
// duplicates. The newest row in each group survives.
func (s *MaintenanceService) DeduplicateBestEffort(ctx context.Context, actorID uuid.UUID) (int64, error) {
	var files []models.File
	if err := s.DB.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("created_at DESC, id DESC").
		Find(&files).Error; err != nil {
		return 0, err
	}

	seen := make(map[dedupKey]bool, len(files))
	var losers []uuid.UUID
	for _, file := range files {
		key := dedupKey{Name: file.Name, Size: file.Size}
		if file.ProjectID != nil {
			key.ProjectID = *file.ProjectID
			key.HasOwner = true
		}
		if seen[key] {
			losers = append(losers, file.ID)
			continue
		}
		seen[key] = true
	}

	if len(losers) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	result := s.DB.WithContext(ctx).Model(&models.File{}).
		Where("id IN ?", losers).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": now,
			"deleted_by": actorID,
		})
	if result.Error != nil {
		return 0, result.Error
	}

	logger.InfoWithUser(actorID.String(), "files_deduplicated", map[string]interface{}{
		"scanned": len(files),
		"removed": result.RowsAffected,
	})

	return result.RowsAffected, nil
}

// MigrateLegacy copies rows from the legacy Document/Image/Video tables
// into File. Idempotent: rows whose URL already exists as a blobUrl are
// skipped, so the endpoint can be re-run mid-migration.
func (s *MaintenanceService) MigrateLegacy(ctx context.Context) (int64, error) {
	var migrated int64

	var documents []models.Document
	if err := s.DB.WithContext(ctx).Find(&documents).Error; err != nil {
		return migrated, err
	}
	for _, row := range documents {
		ok, err := s.migrateLegacyRow(ctx, row.Name, row.URL, row.Size, row.ProjectID, models.FileTypeDocument)
		if err != nil {
			return migrated, err
		}
		if ok {
			migrated++
		}
	}

	var images []models.Image
	if err := s.DB.WithContext(ctx).Find(&images).Error; err != nil {
		return migrated, err
	}
	for _, row := range images {
		ok, err := s.migrateLegacyRow(ctx, row.Name, row.URL, row.Size, row.ProjectID, models.FileTypeImage)
		if err != nil {
			return migrated, err
		}
		if ok {
			migrated++
		}
	}

	var videos []models.Video
	if err := s.DB.WithContext(ctx).Find(&videos).Error; err != nil {
		return migrated, err
	}
	for _, row := range videos {
		ok, err := s.migrateLegacyRow(ctx, row.Name, row.URL, row.Size, row.ProjectID, models.FileTypeVideo)
		if err != nil {
			return migrated, err
		}
		if ok {
			migrated++
		}
	}

	logger.Info("legacy_media_migrated", map[string]interface{}{
		"migrated": migrated,
	})

	return migrated, nil
}

func (s *MaintenanceService) migrateLegacyRow(ctx context.Context, name, blobURL string, size int64, projectID *uuid.UUID, fileType models.FileType) (bool, error) {
	var existing int64
	if err := s.DB.WithContext(ctx).Model(&models.File{}).
		Where("blob_url = ?", blobURL).
		Count(&existing).Error; err != nil {
		return false, err
	}
	if existing > 0 {
		return false, nil
	}

	entry := models.File{
		Name:      name,
		BlobURL:   blobURL,
		BlobPath:  blobPathFromURL(blobURL),
		Size:      size,
		FileType:  fileType,
		ProjectID: projectID,
	}
	if err := s.DB.WithContext(ctx).Create(&entry).Error; err != nil {
		return false, err
	}
	return true, nil
}

func blobPathFromURL(blobURL string) string {
	parsed, err := url.Parse(blobURL)
	if err != nil {
		return blobURL
	}
	return strings.TrimLeft(parsed.Path, "/")
}
