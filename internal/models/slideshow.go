package models

import "github.com/google/uuid"

// SlideshowImage is one entry of a project's ordered slide sequence.
// Order values need not be contiguous but must be unique within a project
// whenever a read occurs; only published entries are visible to viewers.
type SlideshowImage struct {
	BaseModel
	ProjectID   uuid.UUID `json:"projectID" gorm:"type:uuid;not null;index"`
	FileID      uuid.UUID `json:"fileID" gorm:"type:uuid;not null"`
	Order       int       `json:"order" gorm:"column:display_order;not null"`
	IsPublished bool      `json:"isPublished" gorm:"not null;default:false"`

	Project *Project `json:"-" gorm:"foreignKey:ProjectID"`
	File    *File    `json:"file,omitempty" gorm:"foreignKey:FileID"`
}
