package database

import (
	"fmt"

	"github.com/pontis/backend/internal/config"
	"github.com/pontis/backend/internal/models"
	"github.com/pontis/backend/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := EnsureSeed(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.File{},
		&models.SlideshowImage{},
		&models.Document{},
		&models.Image{},
		&models.Video{},
	)
}

// EnsureSeed creates the initial admin account and the reserved system
// projects when they are missing. Safe to run on every cold start; the
// unique email index backs the single-writer race.
func EnsureSeed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}

	if count == 0 {
		hash, err := utils.HashPassword("admin123")
		if err != nil {
			return err
		}

		admin := models.User{
			Email:        "admin@pontis.local",
			Username:     "admin",
			Name:         "Administrateur",
			PasswordHash: hash,
			Role:         models.UserRoleAdmin,
			Color:        "#dc2626",
		}
		if err := db.Create(&admin).Error; err != nil {
			return err
		}
	}

	return seedSystemProjects(db)
}

func seedSystemProjects(db *gorm.DB) error {
	reserved := []models.Project{
		{
			BaseModel: models.BaseModel{ID: models.SystemProjectFlagID},
			Name:      "Flag",
			Country:   models.SystemCountry,
			Type:      models.ProjectTypeOther,
			Status:    models.ProjectStatusPlanned,
		},
		{
			BaseModel: models.BaseModel{ID: models.SystemProjectClientID},
			Name:      "Client",
			Country:   models.SystemCountry,
			Type:      models.ProjectTypeOther,
			Status:    models.ProjectStatusPlanned,
		},
	}

	for _, project := range reserved {
		var existing models.Project
		err := db.First(&existing, "id = ?", project.ID).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&project).Error; err != nil {
			return err
		}
	}

	return nil
}
