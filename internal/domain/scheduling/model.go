// Package scheduling exposes the appointment endpoints. Booking is not
// implemented yet: requests are validated and then refused with 501.
package scheduling

type AppointmentRequest struct {
	ScheduledTime string `json:"scheduledTime" validate:"required,datetime=2006-01-02T15:04:05Z07:00" msg:"Valid scheduled time is required"`
	Reason        string `json:"reason" validate:"required" msg:"Reason for appointment is required"`
}

const (
	createNotImplemented = "Scheduling logic not yet implemented in this stable version."
	updateNotImplemented = "Scheduling update logic not yet implemented in this stable version."
)
