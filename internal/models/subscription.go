package models

import "time"

// Answer is a member's RSVP to an event.
type Answer string

const (
	AnswerYes   Answer = "YES"
	AnswerNo    Answer = "NO"
	AnswerMaybe Answer = "MAYBE"
)

func (a Answer) Valid() bool {
	switch a {
	case AnswerYes, AnswerNo, AnswerMaybe:
		return true
	}
	return false
}

// EventSubscription is one member's RSVP for one event. Re-subscribing
// updates the row in place; there is never more than one per
// (user, event).
type EventSubscription struct {
	ID      uint `json:"id" gorm:"primaryKey"`
	EventID uint `json:"event" gorm:"column:event_id;uniqueIndex:idx_event_user"`
	UserID  uint `json:"user" gorm:"column:user_id;uniqueIndex:idx_event_user"`

	Answer    Answer `json:"answer" gorm:"column:answer" validate:"required,oneof=YES NO MAYBE"`
	CanInvite bool   `json:"can_invite" gorm:"column:can_invite"`
	IsActive  bool   `json:"is_active" gorm:"column:is_active"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (EventSubscription) TableName() string {
	return "event_subscriptions"
}

func (s EventSubscription) EntityID() uint {
	return s.ID
}

// SubscribeAction is the payload and echo of the subscribe endpoint.
type SubscribeAction struct {
	ID        uint   `json:"id"`
	Answer    Answer `json:"answer" validate:"required,oneof=YES NO MAYBE"`
	CanInvite bool   `json:"can_invite"`
}
