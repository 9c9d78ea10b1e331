package server

import (
	"context"
	"errors"

	"github.com/mlefevre/amicale-client/internal/lifecycle"
	"github.com/mlefevre/amicale-client/internal/models"
)

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a uniqueness rule is violated:
	// one request per (passenger, trip), one hosting per (event, host),
	// one request per (hosting, requester).
	ErrDuplicate = errors.New("duplicate")
)

// TripFilter narrows a carpool trip listing. Zero values mean
// "no filter".
type TripFilter struct {
	EventID  uint
	DriverID uint
}

// CarpoolRequestFilter narrows a carpool request listing. DriverID
// matches the driver of the request's trip.
type CarpoolRequestFilter struct {
	TripID      uint
	PassengerID uint
	DriverID    uint
	Statuses    []lifecycle.Status
}

// HostingFilter narrows a hosting listing.
type HostingFilter struct {
	EventID uint
	HostID  uint
}

// HostingRequestFilter narrows a hosting request listing. HostID
// matches the host of the request's hosting; EventID the hosting's
// event.
type HostingRequestFilter struct {
	HostingID   uint
	RequesterID uint
	HostID      uint
	EventID     uint
	Statuses    []lifecycle.Status
}

// Store is the persistence boundary of the reference server. Every
// returned entity has its related objects populated (Driver, Event,
// Trip and so on); derived counters are the handlers' concern.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id uint) (*models.User, error)

	CreateEvent(ctx context.Context, event *models.Event) error
	EventByID(ctx context.Context, id uint) (*models.Event, error)
	Events(ctx context.Context) ([]models.Event, error)

	CreateTrip(ctx context.Context, trip *models.CarpoolTrip) error
	TripByID(ctx context.Context, id uint) (*models.CarpoolTrip, error)
	Trips(ctx context.Context, filter TripFilter) ([]models.CarpoolTrip, error)

	CreateCarpoolRequest(ctx context.Context, request *models.CarpoolRequest) error
	CarpoolRequestByID(ctx context.Context, id uint) (*models.CarpoolRequest, error)
	CarpoolRequests(ctx context.Context, filter CarpoolRequestFilter) ([]models.CarpoolRequest, error)
	UpdateCarpoolRequest(ctx context.Context, request *models.CarpoolRequest) error

	CreateHosting(ctx context.Context, hosting *models.EventHosting) error
	HostingByID(ctx context.Context, id uint) (*models.EventHosting, error)
	Hostings(ctx context.Context, filter HostingFilter) ([]models.EventHosting, error)

	CreateHostingRequest(ctx context.Context, request *models.EventHostingRequest) error
	HostingRequestByID(ctx context.Context, id uint) (*models.EventHostingRequest, error)
	HostingRequests(ctx context.Context, filter HostingRequestFilter) ([]models.EventHostingRequest, error)
	UpdateHostingRequest(ctx context.Context, request *models.EventHostingRequest) error

	// AcceptedSeats sums seats_requested over a trip's accepted requests.
	AcceptedSeats(ctx context.Context, tripID uint) (int, error)

	UpsertSubscription(ctx context.Context, subscription *models.EventSubscription) error
	Subscriptions(ctx context.Context, eventID uint) ([]models.EventSubscription, error)

	CreatePayment(ctx context.Context, payment *models.CarpoolPayment) error
	Payments(ctx context.Context, requestID uint) ([]models.CarpoolPayment, error)
}
