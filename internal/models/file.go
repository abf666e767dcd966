package models

import (
	"time"

	"github.com/google/uuid"
)

type FileType string

const (
	FileTypeImage    FileType = "IMAGE"
	FileTypeDocument FileType = "DOCUMENT"
	FileTypeVideo    FileType = "VIDEO"
	FileTypeAudio    FileType = "AUDIO"
	FileTypeArchive  FileType = "ARCHIVE"
	FileTypeOther    FileType = "OTHER"
)

// File is the unified media record. Soft-delete invariant: IsDeleted is
// true iff DeletedAt and DeletedBy are both set; the three fields are only
// ever written together.
type File struct {
	BaseModel
	Name      string     `json:"name" gorm:"type:varchar(255);not null"`
	BlobURL   string     `json:"blobUrl" gorm:"type:text;not null"`
	BlobPath  string     `json:"blobPath" gorm:"type:text;not null"`
	Size      int64      `json:"size" gorm:"not null;default:0"`
	FileType  FileType   `json:"fileType" gorm:"type:varchar(20);not null;default:'OTHER';index"`
	ProjectID *uuid.UUID `json:"projectID,omitempty" gorm:"type:uuid;index"`
	IsDeleted bool       `json:"isDeleted" gorm:"not null;default:false;index"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	DeletedBy *uuid.UUID `json:"deletedBy,omitempty" gorm:"type:uuid"`

	Project *Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
}
