package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is a member profile as the backend exposes it. The profile
// doubles as the default source for hosting offers (home beds and
// rules) when a host leaves those fields blank.
type User struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Email       string     `json:"email" gorm:"column:email;unique;not null" validate:"required,email"`
	FirstName   string     `json:"first_name" gorm:"column:first_name"`
	LastName    string     `json:"last_name" gorm:"column:last_name"`
	IsSuperuser bool       `json:"is_superuser" gorm:"column:is_superuser"`
	IsStaff     bool       `json:"is_staff" gorm:"column:is_staff"`
	IsActive    bool       `json:"is_active" gorm:"column:is_active"`
	LastLogin   *time.Time `json:"last_login" gorm:"column:last_login"`
	DateJoined  time.Time  `json:"date_joined" gorm:"column:date_joined"`

	Address     *string    `json:"address" gorm:"column:address"`
	City        *string    `json:"city" gorm:"column:city"`
	ZipCode     *string    `json:"zip_code" gorm:"column:zip_code"`
	Country     *string    `json:"country" gorm:"column:country"`
	PhoneNumber *string    `json:"phone_number" gorm:"column:phone_number"`
	BirthDate   *time.Time `json:"birth_date" gorm:"column:birth_date"`

	HasCar            bool   `json:"has_car" gorm:"column:has_car"`
	CarSeats          int    `json:"car_seats" gorm:"column:car_seats" validate:"gte=0"`
	CanHostPeoples    bool   `json:"can_host_peoples" gorm:"column:can_host_peoples"`
	HomeAvailableBeds int    `json:"home_available_beds" gorm:"column:home_available_beds" validate:"gte=0"`
	HomeRules         string `json:"home_rules" gorm:"column:home_rules"`

	FalucheNickname *string `json:"faluche_nickname" gorm:"column:faluche_nickname"`
	FalucheStatus   *string `json:"faluche_status" gorm:"column:faluche_status"`

	// Password is only ever set on the way in; the hash never leaves
	// the server.
	Password     string `json:"-" gorm:"-"`
	PasswordHash string `json:"-" gorm:"column:password_hash"`
}

func (User) TableName() string {
	return "users"
}

func (u User) EntityID() uint {
	return u.ID
}

func (u *User) HashPassword() error {
	if u.Password == "" {
		return nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashed)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
