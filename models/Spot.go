package models

import (
	"encoding/json"

	"gorm.io/gorm"
)

type Spot struct {
	gorm.Model
	OwnerID      uint        `json:"ownerID"`
	Name         string      `json:"name"`
	Description  string      `json:"description" gorm:"type:text"`
	AddressLine1 string      `json:"addressLine1"`
	AddressLine2 string      `json:"addressLine2"`
	City         string      `json:"city"`
	State        string      `json:"state"`
	Zip          string      `json:"zip"`
	Country      string      `json:"country"`
	Lat          float32     `json:"lat"`
	Lng          float32     `json:"lng"`
	NightlyPrice float32     `json:"nightlyPrice"`
	Currency     string      `json:"currency"`
	Images       []SpotImage `json:"images"`
	Reviews      []Review    `json:"reviews"`
	Bookings     []Booking   `json:"bookings"`
	Owner        User        `json:"owner" gorm:"foreignKey:OwnerID;references:ID"`
}

// MarshalJSON trims the owner to avoid a circular reference and only
// includes it when the association was actually loaded.
func (s *Spot) MarshalJSON() ([]byte, error) {
	type Alias Spot
	aux := &struct {
		Owner *User `json:"owner,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(s),
	}

	if s.Owner.ID > 0 {
		ownerCopy := s.Owner
		ownerCopy.Spots = nil
		aux.Owner = &ownerCopy
	}

	return json.Marshal(aux)
}
