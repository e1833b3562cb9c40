package authstub

import (
	"time"

	"gorm.io/gorm"
)

const defaultRole = "employee"

// User is the stored account record
type User struct {
	ID             int64   `gorm:"primaryKey;autoIncrement"`
	Email          string  `gorm:"uniqueIndex;not null"`
	Username       string  `gorm:"uniqueIndex;not null"`
	FullName       string  `gorm:"not null"`
	HashedPassword string  `gorm:"not null"`
	ProfilePicture *string
	IsActive       bool      `gorm:"not null;default:true"`
	Role           string    `gorm:"not null;default:employee"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

// UserResponse is the public view of a user (no password hash)
type UserResponse struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	FullName       string    `json:"full_name"`
	ProfilePicture *string   `json:"profile_picture"`
	IsActive       bool      `json:"is_active"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

func (u *User) response() *UserResponse {
	return &UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		FullName:       u.FullName,
		ProfilePicture: u.ProfilePicture,
		IsActive:       u.IsActive,
		Role:           u.Role,
		CreatedAt:      u.CreatedAt,
	}
}

// AutoMigrate creates the schema
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{})
}
