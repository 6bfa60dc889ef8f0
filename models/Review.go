package models

import "gorm.io/gorm"

type Review struct {
	gorm.Model
	UserID uint          `json:"userID" gorm:"not null;index"`
	SpotID uint          `json:"spotID" gorm:"not null;index"`
	User   User          `json:"user" gorm:"foreignKey:UserID"`
	Spot   Spot          `json:"spot" gorm:"foreignKey:SpotID"`
	Body   string        `json:"body" gorm:"type:text;not null"`
	Stars  int           `json:"stars" gorm:"not null;check:stars >= 1 AND stars <= 5"`
	Images []ReviewImage `json:"images"`
}
