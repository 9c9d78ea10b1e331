package models

import (
	"time"

	"github.com/mlefevre/amicale-client/internal/lifecycle"
)

// CarpoolTrip is a driver-offered ride to an event. seats_available
// and is_full are derived server-side from accepted requests; the
// client never computes them locally.
type CarpoolTrip struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	Driver User `json:"driver" gorm:"foreignKey:DriverID"`
	Event  Event `json:"event" gorm:"foreignKey:EventID"`

	DriverID uint `json:"-" gorm:"column:driver_id"`
	EventID  uint `json:"-" gorm:"column:event_id"`

	DepartureCity     string     `json:"departure_city" gorm:"column:departure_city;not null" validate:"required"`
	DepartureAddress  *string    `json:"departure_address" gorm:"column:departure_address"`
	ArrivalCity       string     `json:"arrival_city" gorm:"column:arrival_city;not null" validate:"required"`
	ArrivalAddress    *string    `json:"arrival_address" gorm:"column:arrival_address"`
	DepartureDatetime time.Time  `json:"departure_datetime" gorm:"column:departure_datetime"`
	ReturnDatetime    *time.Time `json:"return_datetime" gorm:"column:return_datetime"`
	HasReturn         bool       `json:"has_return" gorm:"column:has_return"`

	SeatsTotal     int    `json:"seats_total" gorm:"column:seats_total" validate:"gte=1"`
	PricePerSeat   string `json:"price_per_seat" gorm:"column:price_per_seat" validate:"required,numeric"`
	AdditionalInfo *string `json:"additional_info" gorm:"column:additional_info"`
	IsActive       bool   `json:"is_active" gorm:"column:is_active"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`

	SeatsAvailable int  `json:"seats_available" gorm:"-"`
	IsFull         bool `json:"is_full" gorm:"-"`
}

func (CarpoolTrip) TableName() string {
	return "carpool_trips"
}

func (t CarpoolTrip) EntityID() uint {
	return t.ID
}

// CarpoolRequest is a passenger's ask for seats on a trip. is_paid,
// total_paid and expected_amount are derived from payments.
type CarpoolRequest struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	Passenger User        `json:"passenger" gorm:"foreignKey:PassengerID"`
	Trip      CarpoolTrip `json:"trip" gorm:"foreignKey:TripID"`

	PassengerID uint `json:"-" gorm:"column:passenger_id;uniqueIndex:idx_passenger_trip"`
	TripID      uint `json:"-" gorm:"column:trip_id;uniqueIndex:idx_passenger_trip"`

	Status          lifecycle.Status `json:"status" gorm:"column:status" validate:"required,oneof=PENDING ACCEPTED REJECTED CANCELLED"`
	SeatsRequested  int              `json:"seats_requested" gorm:"column:seats_requested" validate:"gte=1"`
	Message         *string          `json:"message" gorm:"column:message"`
	ResponseMessage *string          `json:"response_message" gorm:"column:response_message"`
	IsActive        bool             `json:"is_active" gorm:"column:is_active"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`

	IsPaid         bool    `json:"is_paid" gorm:"-"`
	TotalPaid      float64 `json:"total_paid" gorm:"-"`
	ExpectedAmount float64 `json:"expected_amount" gorm:"-"`
}

func (CarpoolRequest) TableName() string {
	return "carpool_requests"
}

func (r CarpoolRequest) EntityID() uint {
	return r.ID
}

// CarpoolPayment records money handed over for an accepted request.
type CarpoolPayment struct {
	ID      uint                `json:"id" gorm:"primaryKey"`
	Request Ref[CarpoolRequest] `json:"request" gorm:"-"`

	RequestID uint `json:"-" gorm:"column:request_id"`

	Amount        float64 `json:"amount" gorm:"column:amount" validate:"gt=0"`
	PaymentMethod string  `json:"payment_method" gorm:"column:payment_method" validate:"required"`
	IsCompleted   bool    `json:"is_completed" gorm:"column:is_completed"`
	PaymentNotes  *string `json:"payment_notes" gorm:"column:payment_notes"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (CarpoolPayment) TableName() string {
	return "carpool_payments"
}

func (p CarpoolPayment) EntityID() uint {
	return p.ID
}
