package server

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mlefevre/amicale-client/internal/lifecycle"
	"github.com/mlefevre/amicale-client/internal/models"
)

// MemStore is the in-memory Store used by tests and by the devserver
// when no database is configured.
type MemStore struct {
	mu sync.RWMutex

	nextID          uint
	users           map[uint]models.User
	events          map[uint]models.Event
	trips           map[uint]models.CarpoolTrip
	carpoolRequests map[uint]models.CarpoolRequest
	hostings        map[uint]models.EventHosting
	hostingRequests map[uint]models.EventHostingRequest
	subscriptions   map[uint]models.EventSubscription
	payments        map[uint]models.CarpoolPayment
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:           make(map[uint]models.User),
		events:          make(map[uint]models.Event),
		trips:           make(map[uint]models.CarpoolTrip),
		carpoolRequests: make(map[uint]models.CarpoolRequest),
		hostings:        make(map[uint]models.EventHosting),
		hostingRequests: make(map[uint]models.EventHostingRequest),
		subscriptions:   make(map[uint]models.EventSubscription),
		payments:        make(map[uint]models.CarpoolPayment),
	}
}

func (m *MemStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *MemStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrDuplicate
		}
	}
	user.ID = m.id()
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now()
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MemStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemStore) UserByID(_ context.Context, id uint) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u := user
	return &u, nil
}

func (m *MemStore) CreateEvent(_ context.Context, event *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.ID = m.id()
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	m.events[event.ID] = *event
	return nil
}

func (m *MemStore) EventByID(_ context.Context, id uint) (*models.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	event, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	e := event
	return &e, nil
}

func (m *MemStore) Events(_ context.Context) ([]models.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	events := make([]models.Event, 0, len(m.events))
	for _, event := range m.events {
		events = append(events, event)
	}
	sortByID(events, func(e models.Event) uint { return e.ID })
	return events, nil
}

func (m *MemStore) CreateTrip(_ context.Context, trip *models.CarpoolTrip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip.ID = m.id()
	trip.CreatedAt = time.Now()
	trip.UpdatedAt = trip.CreatedAt
	m.trips[trip.ID] = *trip
	return nil
}

func (m *MemStore) TripByID(_ context.Context, id uint) (*models.CarpoolTrip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, ErrNotFound
	}
	t := m.populateTrip(trip)
	return &t, nil
}

func (m *MemStore) Trips(_ context.Context, filter TripFilter) ([]models.CarpoolTrip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var trips []models.CarpoolTrip
	for _, trip := range m.trips {
		if filter.EventID != 0 && trip.EventID != filter.EventID {
			continue
		}
		if filter.DriverID != 0 && trip.DriverID != filter.DriverID {
			continue
		}
		trips = append(trips, m.populateTrip(trip))
	}
	sortByID(trips, func(t models.CarpoolTrip) uint { return t.ID })
	return trips, nil
}

func (m *MemStore) CreateCarpoolRequest(_ context.Context, request *models.CarpoolRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.carpoolRequests {
		if existing.PassengerID == request.PassengerID && existing.TripID == request.TripID {
			return ErrDuplicate
		}
	}
	request.ID = m.id()
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	m.carpoolRequests[request.ID] = *request
	return nil
}

func (m *MemStore) CarpoolRequestByID(_ context.Context, id uint) (*models.CarpoolRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	request, ok := m.carpoolRequests[id]
	if !ok {
		return nil, ErrNotFound
	}
	r := m.populateCarpoolRequest(request)
	return &r, nil
}

func (m *MemStore) CarpoolRequests(_ context.Context, filter CarpoolRequestFilter) ([]models.CarpoolRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var requests []models.CarpoolRequest
	for _, request := range m.carpoolRequests {
		if filter.TripID != 0 && request.TripID != filter.TripID {
			continue
		}
		if filter.PassengerID != 0 && request.PassengerID != filter.PassengerID {
			continue
		}
		if filter.DriverID != 0 {
			trip, ok := m.trips[request.TripID]
			if !ok || trip.DriverID != filter.DriverID {
				continue
			}
		}
		if !statusMatches(filter.Statuses, request.Status) {
			continue
		}
		requests = append(requests, m.populateCarpoolRequest(request))
	}
	sortByID(requests, func(r models.CarpoolRequest) uint { return r.ID })
	return requests, nil
}

func (m *MemStore) UpdateCarpoolRequest(_ context.Context, request *models.CarpoolRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.carpoolRequests[request.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Status = request.Status
	stored.ResponseMessage = request.ResponseMessage
	stored.UpdatedAt = time.Now()
	m.carpoolRequests[request.ID] = stored
	request.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *MemStore) CreateHosting(_ context.Context, hosting *models.EventHosting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.hostings {
		if existing.EventID == hosting.EventID && existing.HostID == hosting.HostID {
			return ErrDuplicate
		}
	}
	hosting.ID = m.id()
	hosting.CreatedAt = time.Now()
	hosting.UpdatedAt = hosting.CreatedAt
	m.hostings[hosting.ID] = *hosting
	return nil
}

func (m *MemStore) HostingByID(_ context.Context, id uint) (*models.EventHosting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hosting, ok := m.hostings[id]
	if !ok {
		return nil, ErrNotFound
	}
	h := m.populateHosting(hosting)
	return &h, nil
}

func (m *MemStore) Hostings(_ context.Context, filter HostingFilter) ([]models.EventHosting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var hostings []models.EventHosting
	for _, hosting := range m.hostings {
		if filter.EventID != 0 && hosting.EventID != filter.EventID {
			continue
		}
		if filter.HostID != 0 && hosting.HostID != filter.HostID {
			continue
		}
		hostings = append(hostings, m.populateHosting(hosting))
	}
	sortByID(hostings, func(h models.EventHosting) uint { return h.ID })
	return hostings, nil
}

func (m *MemStore) CreateHostingRequest(_ context.Context, request *models.EventHostingRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.hostingRequests {
		if existing.HostingID == request.HostingID && existing.RequesterID == request.RequesterID {
			return ErrDuplicate
		}
	}
	request.ID = m.id()
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	m.hostingRequests[request.ID] = *request
	return nil
}

func (m *MemStore) HostingRequestByID(_ context.Context, id uint) (*models.EventHostingRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	request, ok := m.hostingRequests[id]
	if !ok {
		return nil, ErrNotFound
	}
	r := m.populateHostingRequest(request)
	return &r, nil
}

func (m *MemStore) HostingRequests(_ context.Context, filter HostingRequestFilter) ([]models.EventHostingRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var requests []models.EventHostingRequest
	for _, request := range m.hostingRequests {
		hosting, ok := m.hostings[request.HostingID]
		if !ok {
			continue
		}
		if filter.HostingID != 0 && request.HostingID != filter.HostingID {
			continue
		}
		if filter.RequesterID != 0 && request.RequesterID != filter.RequesterID {
			continue
		}
		if filter.HostID != 0 && hosting.HostID != filter.HostID {
			continue
		}
		if filter.EventID != 0 && hosting.EventID != filter.EventID {
			continue
		}
		if !statusMatches(filter.Statuses, request.Status) {
			continue
		}
		requests = append(requests, m.populateHostingRequest(request))
	}
	sortByID(requests, func(r models.EventHostingRequest) uint { return r.ID })
	return requests, nil
}

func (m *MemStore) UpdateHostingRequest(_ context.Context, request *models.EventHostingRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.hostingRequests[request.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Status = request.Status
	stored.HostMessage = request.HostMessage
	stored.UpdatedAt = time.Now()
	m.hostingRequests[request.ID] = stored
	request.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *MemStore) AcceptedSeats(_ context.Context, tripID uint) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, request := range m.carpoolRequests {
		if request.TripID == tripID && request.Status == lifecycle.StatusAccepted {
			total += request.SeatsRequested
		}
	}
	return total, nil
}

func (m *MemStore) UpsertSubscription(_ context.Context, subscription *models.EventSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.subscriptions {
		if existing.EventID == subscription.EventID && existing.UserID == subscription.UserID {
			existing.Answer = subscription.Answer
			existing.CanInvite = subscription.CanInvite
			existing.IsActive = true
			existing.UpdatedAt = time.Now()
			m.subscriptions[id] = existing
			*subscription = existing
			return nil
		}
	}
	subscription.ID = m.id()
	subscription.IsActive = true
	subscription.CreatedAt = time.Now()
	subscription.UpdatedAt = subscription.CreatedAt
	m.subscriptions[subscription.ID] = *subscription
	return nil
}

func (m *MemStore) Subscriptions(_ context.Context, eventID uint) ([]models.EventSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var subscriptions []models.EventSubscription
	for _, subscription := range m.subscriptions {
		if subscription.EventID == eventID && subscription.IsActive {
			subscriptions = append(subscriptions, subscription)
		}
	}
	sortByID(subscriptions, func(s models.EventSubscription) uint { return s.ID })
	return subscriptions, nil
}

func (m *MemStore) CreatePayment(_ context.Context, payment *models.CarpoolPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.carpoolRequests[payment.RequestID]; !ok {
		return ErrNotFound
	}
	payment.ID = m.id()
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt
	m.payments[payment.ID] = *payment
	return nil
}

func (m *MemStore) Payments(_ context.Context, requestID uint) ([]models.CarpoolPayment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var payments []models.CarpoolPayment
	for _, payment := range m.payments {
		if payment.RequestID == requestID {
			payments = append(payments, payment)
		}
	}
	sortByID(payments, func(p models.CarpoolPayment) uint { return p.ID })
	return payments, nil
}

// populate helpers run under the read lock.

func (m *MemStore) populateTrip(trip models.CarpoolTrip) models.CarpoolTrip {
	trip.Driver = m.users[trip.DriverID]
	trip.Event = m.events[trip.EventID]
	return trip
}

func (m *MemStore) populateCarpoolRequest(request models.CarpoolRequest) models.CarpoolRequest {
	request.Passenger = m.users[request.PassengerID]
	request.Trip = m.populateTrip(m.trips[request.TripID])
	return request
}

func (m *MemStore) populateHosting(hosting models.EventHosting) models.EventHosting {
	hosting.Host = m.users[hosting.HostID]
	hosting.Event = models.IDRef[models.Event](hosting.EventID)
	return hosting
}

func (m *MemStore) populateHostingRequest(request models.EventHostingRequest) models.EventHostingRequest {
	request.Hosting = models.ExpandedRef(m.populateHosting(m.hostings[request.HostingID]))
	request.Requester = models.ExpandedRef(m.users[request.RequesterID])
	return request
}

func statusMatches(statuses []lifecycle.Status, status lifecycle.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func sortByID[T any](items []T, id func(T) uint) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
}
