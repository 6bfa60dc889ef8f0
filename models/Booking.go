package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Derived booking states relative to the current date. State is never
// stored; it always follows from StartDate/EndDate.
const (
	BookingScheduled  = "scheduled"
	BookingInProgress = "in_progress"
	BookingCompleted  = "completed"
)

// Booking is a claim on a Spot for an inclusive calendar-date range.
// StartDate and EndDate carry no time-of-day component.
type Booking struct {
	gorm.Model
	SpotID    uint      `json:"spotID" gorm:"not null;index"`
	UserID    uint      `json:"userID" gorm:"not null;index"`
	StartDate time.Time `json:"startDate" gorm:"type:date;not null"`
	EndDate   time.Time `json:"endDate" gorm:"type:date;not null"`
	Reference string    `json:"reference" gorm:"type:varchar(36);uniqueIndex"`

	Spot *Spot `json:"spot,omitempty" gorm:"foreignKey:SpotID"`
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// StateAt derives the temporal state of the booking for the given clock
// reading. Comparison is date-granular.
func (b *Booking) StateAt(now time.Time) string {
	today := DateOnly(now)
	start, end := DateOnly(b.StartDate), DateOnly(b.EndDate)
	switch {
	case start.After(today):
		return BookingScheduled
	case today.After(end):
		return BookingCompleted
	default:
		return BookingInProgress
	}
}

// MarshalJSON renders the date columns in the canonical YYYY-MM-DD form.
func (b *Booking) MarshalJSON() ([]byte, error) {
	type Alias Booking
	aux := &struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
		*Alias
	}{
		StartDate: b.StartDate.Format("2006-01-02"),
		EndDate:   b.EndDate.Format("2006-01-02"),
		Alias:     (*Alias)(b),
	}

	return json.Marshal(aux)
}

// DateOnly discards the time-of-day component, normalizing to UTC midnight.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
