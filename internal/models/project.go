package models

import (
	"github.com/google/uuid"
)

type ProjectType string

const (
	ProjectTypeBridge ProjectType = "BRIDGE"
	ProjectTypeRoad   ProjectType = "ROAD"
	ProjectTypeOther  ProjectType = "OTHER"
)

type ProjectStatus string

const (
	ProjectStatusPlanned    ProjectStatus = "PLANNED"
	ProjectStatusInProgress ProjectStatus = "IN_PROGRESS"
	ProjectStatusCompleted  ProjectStatus = "COMPLETED"
	ProjectStatusSuspended  ProjectStatus = "SUSPENDED"
)

// SystemCountry is the sentinel country value marking reserved system
// projects. Projects carrying it are hidden from non-admin listings.
const SystemCountry = "Système"

// Reserved system projects acting as namespaces for cross-project assets.
var (
	SystemProjectFlagID   = uuid.MustParse("00000000-0000-4000-8000-000000000001")
	SystemProjectClientID = uuid.MustParse("00000000-0000-4000-8000-000000000002")
)

type Project struct {
	BaseModel
	Name                 string        `json:"name" gorm:"type:varchar(255);not null"`
	Country              string        `json:"country" gorm:"type:varchar(100);not null;index"`
	Type                 ProjectType   `json:"type" gorm:"type:varchar(20);not null;default:'OTHER'"`
	Status               ProjectStatus `json:"status" gorm:"type:varchar(20);not null;default:'PLANNED'"`
	Latitude             float64       `json:"latitude"`
	Longitude            float64       `json:"longitude"`
	Description          string        `json:"description" gorm:"type:text"`
	ProgressProspection  int           `json:"progressProspection" gorm:"not null;default:0"`
	ProgressStudies      int           `json:"progressStudies" gorm:"not null;default:0"`
	ProgressFabrication  int           `json:"progressFabrication" gorm:"not null;default:0"`
	ProgressTransport    int           `json:"progressTransport" gorm:"not null;default:0"`
	ProgressConstruction int           `json:"progressConstruction" gorm:"not null;default:0"`
	OwnerID              *uuid.UUID    `json:"ownerID,omitempty" gorm:"type:uuid;index"`

	Owner *User  `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Files []File `json:"-" gorm:"foreignKey:ProjectID"`
}

// IsSystem reports whether the project is one of the reserved namespaces.
func (p *Project) IsSystem() bool {
	return p.Country == SystemCountry
}
