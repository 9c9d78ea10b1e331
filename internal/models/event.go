package models

import "time"

// SubscriptionBreakdown counts RSVP answers per event.
type SubscriptionBreakdown struct {
	Yes   int `json:"YES" validate:"gte=0"`
	No    int `json:"NO" validate:"gte=0"`
	Maybe int `json:"MAYBE" validate:"gte=0"`
}

// Event is an association event members can subscribe to, offer
// carpool trips for, and offer hosting around.
type Event struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"column:name;not null" validate:"required"`
	Description *string   `json:"description" gorm:"column:description"`
	Location    string    `json:"location" gorm:"column:location"`
	StartDate   time.Time `json:"start_date" gorm:"column:start_date"`
	EndDate     time.Time `json:"end_date" gorm:"column:end_date"`
	URLSignup   *string   `json:"url_signup" gorm:"column:url_signup"`
	URLWebsite  *string   `json:"url_website" gorm:"column:url_website"`
	Prices      *string   `json:"prices" gorm:"column:prices"`
	Type        string    `json:"type" gorm:"column:type"`
	IsPublic    bool      `json:"is_public" gorm:"column:is_public"`
	IsActive    bool      `json:"is_active" gorm:"column:is_active"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`

	// Derived by the server from subscriptions; always the full
	// YES/NO/MAYBE breakdown, never a bare total.
	SubscriptionsCount *SubscriptionBreakdown `json:"subscriptions_count,omitempty" gorm:"-"`
}

func (Event) TableName() string {
	return "events"
}

func (e Event) EntityID() uint {
	return e.ID
}
