package models

import "github.com/google/uuid"

// Legacy media tables from before the unified File table. Kept only so the
// maintenance migration can fold their rows into File; new code must not
// write to them.

type Document struct {
	BaseModel
	Name      string     `json:"name" gorm:"type:varchar(255);not null"`
	URL       string     `json:"url" gorm:"type:text;not null"`
	Size      int64      `json:"size" gorm:"not null;default:0"`
	ProjectID *uuid.UUID `json:"projectID,omitempty" gorm:"type:uuid;index"`
}

type Image struct {
	BaseModel
	Name      string     `json:"name" gorm:"type:varchar(255);not null"`
	URL       string     `json:"url" gorm:"type:text;not null"`
	Size      int64      `json:"size" gorm:"not null;default:0"`
	ProjectID *uuid.UUID `json:"projectID,omitempty" gorm:"type:uuid;index"`
}

type Video struct {
	BaseModel
	Name      string     `json:"name" gorm:"type:varchar(255);not null"`
	URL       string     `json:"url" gorm:"type:text;not null"`
	Size      int64      `json:"size" gorm:"not null;default:0"`
	ProjectID *uuid.UUID `json:"projectID,omitempty" gorm:"type:uuid;index"`
}
