package models

import (
	"time"

	"gorm.io/gorm"
)

type Course struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Name      string `json:"name" gorm:"not null;size:128"`
	Code      string `json:"code" gorm:"size:128"`
	Active    bool   `json:"active" gorm:"default:true"`
	CreatorID uint   `json:"creator_id" gorm:"not null;index"`

	Creator  *User  `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	Teachers []User `json:"-" gorm:"many2many:course_teachers"`
	Students []User `json:"-" gorm:"many2many:course_students"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Course) TableName() string {
	return "courses"
}
