package models

type UserRole string

const (
	UserRoleAdmin   UserRole = "ADMIN"
	UserRoleUser    UserRole = "USER"
	UserRoleVisitor UserRole = "VISITOR"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleUser, UserRoleVisitor:
		return true
	default:
		return false
	}
}

type User struct {
	BaseModel
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Username     string    `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"type:varchar(100);not null"`
	PasswordHash string    `json:"-" gorm:"type:text;not null"`
	Role         UserRole  `json:"role" gorm:"type:varchar(20);not null;default:'USER'"`
	Color        string    `json:"color" gorm:"type:varchar(20);not null;default:'#2563eb'"`
	Projects     []Project `json:"-" gorm:"foreignKey:OwnerID"`
}
