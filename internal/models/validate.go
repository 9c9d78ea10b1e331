package models

import (
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterStructValidation(carpoolTripStructLevel, CarpoolTrip{})
	v.RegisterStructValidation(eventHostingStructLevel, EventHosting{})

	return v
}

// Validate checks a decoded resource against its schema. A non-nil
// error means the payload does not match the backend contract.
func Validate(resource any) error {
	return validate.Struct(resource)
}

func carpoolTripStructLevel(sl validator.StructLevel) {
	trip := sl.Current().Interface().(CarpoolTrip)

	if trip.SeatsAvailable < 0 || trip.SeatsAvailable > trip.SeatsTotal {
		sl.ReportError(trip.SeatsAvailable, "seats_available", "SeatsAvailable", "seats_range", "")
	}
	if trip.IsFull != (trip.SeatsAvailable == 0) {
		sl.ReportError(trip.IsFull, "is_full", "IsFull", "is_full_consistent", "")
	}
}

func eventHostingStructLevel(sl validator.StructLevel) {
	hosting := sl.Current().Interface().(EventHosting)

	if hosting.AvailableBedsRemaining < 0 || hosting.AvailableBedsRemaining > hosting.AvailableBeds {
		sl.ReportError(hosting.AvailableBedsRemaining, "available_beds_remaining", "AvailableBedsRemaining", "beds_range", "")
	}
}
