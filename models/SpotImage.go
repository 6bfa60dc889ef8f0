package models

import "gorm.io/gorm"

type SpotImage struct {
	gorm.Model
	SpotID  uint   `json:"spotID" gorm:"not null;index"`
	URL     string `json:"url" gorm:"not null"`
	Preview bool   `json:"preview" gorm:"default:false"`
}
