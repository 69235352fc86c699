package booking

import (
	"time"

	"github.com/medibook/clinic-booking/internal/appointments"
)

// TimeSlots are the half-hour start times offered on the booking form.
var TimeSlots = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"14:00", "14:30", "15:00", "15:30", "16:00", "16:30",
}

// Window is the range of dates the booking form offers.
type Window struct {
	MinDate string   `json:"min_date"`
	MaxDate string   `json:"max_date"`
	Slots   []string `json:"time_slots"`
}

// BookableWindow runs from tomorrow to three months ahead of now in loc.
func BookableWindow(now time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return Window{
		MinDate: local.AddDate(0, 0, 1).Format(appointments.DateLayout),
		MaxDate: local.AddDate(0, 3, 0).Format(appointments.DateLayout),
		Slots:   TimeSlots,
	}
}
