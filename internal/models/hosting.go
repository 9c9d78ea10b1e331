package models

import (
	"time"

	"github.com/mlefevre/amicale-client/internal/lifecycle"
)

// EventHosting is a host-offered lodging slot around an event. The
// override fields replace the host profile's address block for this
// event only; available_beds_remaining is derived server-side.
type EventHosting struct {
	ID    uint       `json:"id" gorm:"primaryKey"`
	Event Ref[Event] `json:"event" gorm:"-"`
	Host  User       `json:"host" gorm:"foreignKey:HostID"`

	EventID uint `json:"-" gorm:"column:event_id;uniqueIndex:idx_event_host"`
	HostID  uint `json:"-" gorm:"column:host_id;uniqueIndex:idx_event_host"`

	AvailableBeds   int     `json:"available_beds" gorm:"column:available_beds" validate:"gte=0"`
	CustomRules     *string `json:"custom_rules" gorm:"column:custom_rules"`
	AddressOverride *string `json:"address_override" gorm:"column:address_override"`
	CityOverride    *string `json:"city_override" gorm:"column:city_override"`
	ZipCodeOverride *string `json:"zip_code_override" gorm:"column:zip_code_override"`
	CountryOverride *string `json:"country_override" gorm:"column:country_override"`
	IsActive        bool    `json:"is_active" gorm:"column:is_active"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`

	AvailableBedsRemaining int `json:"available_beds_remaining" gorm:"-"`
}

func (EventHosting) TableName() string {
	return "event_hostings"
}

func (h EventHosting) EntityID() uint {
	return h.ID
}

// EventHostingRequest is a guest's ask for a bed. hosting and
// requester may arrive expanded or as bare ids depending on the
// endpoint, hence the Ref fields.
type EventHostingRequest struct {
	ID        uint              `json:"id" gorm:"primaryKey"`
	Hosting   Ref[EventHosting] `json:"hosting" gorm:"-"`
	Requester Ref[User]         `json:"requester" gorm:"-"`

	HostingID   uint `json:"-" gorm:"column:hosting_id;uniqueIndex:idx_hosting_requester"`
	RequesterID uint `json:"-" gorm:"column:requester_id;uniqueIndex:idx_hosting_requester"`

	Status      lifecycle.Status `json:"status" gorm:"column:status" validate:"required,oneof=PENDING ACCEPTED REJECTED CANCELLED"`
	Message     *string          `json:"message" gorm:"column:message"`
	HostMessage *string          `json:"host_message" gorm:"column:host_message"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (EventHostingRequest) TableName() string {
	return "event_hosting_requests"
}

func (r EventHostingRequest) EntityID() uint {
	return r.ID
}
