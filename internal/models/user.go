package models

import (
	"time"

	"gorm.io/gorm"
)

const DefaultTimezone = "Asia/Kolkata"

type User struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Username     string `json:"username" gorm:"uniqueIndex;not null;size:150"`
	Email        string `json:"email" gorm:"index;size:255"`
	PasswordHash string `json:"-" gorm:"not null;size:255"`
	FirstName    string `json:"first_name" gorm:"size:150"`
	LastName     string `json:"last_name" gorm:"size:150"`

	IsActive    bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt *time.Time `json:"last_login_at"`

	Profile *Profile `json:"profile,omitempty" gorm:"foreignKey:UserID"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// IsModerator reports whether the user may author content.
func (u *User) IsModerator() bool {
	return u != nil && u.Profile != nil && u.Profile.IsModerator
}

type Profile struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	UserID      uint   `json:"user_id" gorm:"uniqueIndex;not null"`
	RollNumber  string `json:"roll_number" gorm:"size:20"`
	Institute   string `json:"institute" gorm:"size:128"`
	Department  string `json:"department" gorm:"size:64"`
	Position    string `json:"position" gorm:"size:64"`
	Timezone    string `json:"timezone" gorm:"size:64;default:Asia/Kolkata"`
	Bio         string `json:"bio" gorm:"type:text"`
	Phone       string `json:"phone" gorm:"size:20"`
	City        string `json:"city" gorm:"size:64"`
	Country     string `json:"country" gorm:"size:64"`
	LinkedIn    string `json:"linkedin" gorm:"size:255"`
	GitHub      string `json:"github" gorm:"size:255"`
	DisplayName string `json:"display_name" gorm:"size:128"`
	IsModerator bool   `json:"is_moderator" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// AuthToken backs one issued bearer token per user. Deleting the row revokes it.
type AuthToken struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (AuthToken) TableName() string {
	return "auth_tokens"
}
