package models

import "gorm.io/gorm"

type ReviewImage struct {
	gorm.Model
	ReviewID uint   `json:"reviewID" gorm:"not null;index"`
	URL      string `json:"url" gorm:"not null"`
}
