package database

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mlefevre/amicale-client/internal/lifecycle"
	"github.com/mlefevre/amicale-client/internal/models"
	"github.com/mlefevre/amicale-client/internal/server"
)

// GormStore is the postgres-backed server.Store. Relation structs are
// preloaded; Ref fields are not gorm-managed and get filled in from
// the foreign keys after load.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return server.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
		return server.ErrDuplicate
	}
	return err
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *GormStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) CreateEvent(ctx context.Context, event *models.Event) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *GormStore) EventByID(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	if err := s.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (s *GormStore) Events(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := s.db.WithContext(ctx).Order("id").Find(&events).Error; err != nil {
		return nil, translate(err)
	}
	return events, nil
}

func (s *GormStore) CreateTrip(ctx context.Context, trip *models.CarpoolTrip) error {
	if err := s.db.WithContext(ctx).Omit("Driver", "Event").Create(trip).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *GormStore) TripByID(ctx context.Context, id uint) (*models.CarpoolTrip, error) {
	var trip models.CarpoolTrip
	err := s.db.WithContext(ctx).
		Preload("Driver").Preload("Event").
		First(&trip, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &trip, nil
}

func (s *GormStore) Trips(ctx context.Context, filter server.TripFilter) ([]models.CarpoolTrip, error) {
	query := s.db.WithContext(ctx).Preload("Driver").Preload("Event")
	if filter.EventID != 0 {
		query = query.Where("event_id = ?", filter.EventID)
	}
	if filter.DriverID != 0 {
		query = query.Where("driver_id = ?", filter.DriverID)
	}
	var trips []models.CarpoolTrip
	if err := query.Order("id").Find(&trips).Error; err != nil {
		return nil, translate(err)
	}
	return trips, nil
}

func (s *GormStore) CreateCarpoolRequest(ctx context.Context, request *models.CarpoolRequest) error {
	if err := s.db.WithContext(ctx).Omit("Passenger", "Trip").Create(request).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *GormStore) CarpoolRequestByID(ctx context.Context, id uint) (*models.CarpoolRequest, error) {
	var request models.CarpoolRequest
	err := s.db.WithContext(ctx).
		Preload("Passenger").Preload("Trip").Preload("Trip.Driver").Preload("Trip.Event").
		First(&request, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &request, nil
}

func (s *GormStore) CarpoolRequests(ctx context.Context, filter server.CarpoolRequestFilter) ([]models.CarpoolRequest, error) {
	query := s.db.WithContext(ctx).
		Preload("Passenger").Preload("Trip").Preload("Trip.Driver").Preload("Trip.Event")
	if filter.TripID != 0 {
		query = query.Where("trip_id = ?", filter.TripID)
	}
	if filter.PassengerID != 0 {
		query = query.Where("passenger_id = ?", filter.PassengerID)
	}
	if filter.DriverID != 0 {
		query = query.Where("trip_id IN (?)",
			s.db.Model(&models.CarpoolTrip{}).Select("id").Where("driver_id = ?", filter.DriverID))
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	var requests []models.CarpoolRequest
	if err := query.Order("id").Find(&requests).Error; err != nil {
		return nil, translate(err)
	}
	return requests, nil
}

func (s *GormStore) UpdateCarpoolRequest(ctx context.Context, request *models.CarpoolRequest) error {
	err := s.db.WithContext(ctx).Model(&models.CarpoolRequest{}).
		Where("id = ?", request.ID).
		Updates(map[string]any{
			"status":           request.Status,
			"response_message": request.ResponseMessage,
		}).Error
	if err != nil {
		return translate(err)
	}
	return nil
}

func (s *GormStore) CreateHosting(ctx context.Context, hosting *models.EventHosting) error {
	if err := s.db.WithContext(ctx).Omit("Host").Create(hosting).Error; err != nil {
		return translate(err)
	}
	hosting.Event = models.IDRef[models.Event](hosting.EventID)
	return nil
}

func (s *GormStore) HostingByID(ctx context.Context, id uint) (*models.EventHosting, error) {
	var hosting models.EventHosting
	if err := s.db.WithContext(ctx).Preload("Host").First(&hosting, id).Error; err != nil {
		return nil, translate(err)
	}
	hosting.Event = models.IDRef[models.Event](hosting.EventID)
	return &hosting, nil
}

func (s *GormStore) Hostings(ctx context.Context, filter server.HostingFilter) ([]models.EventHosting, error) {
	query := s.db.WithContext(ctx).Preload("Host")
	if filter.EventID != 0 {
		query = query.Where("event_id = ?", filter.EventID)
	}
	if filter.HostID != 0 {
		query = query.Where("host_id = ?", filter.HostID)
	}
	var hostings []models.EventHosting
	if err := query.Order("id").Find(&hostings).Error; err != nil {
		return nil, translate(err)
	}
	for i := range hostings {
		hostings[i].Event = models.IDRef[models.Event](hostings[i].EventID)
	}
	return hostings, nil
}

func (s *GormStore) CreateHostingRequest(ctx context.Context, request *models.EventHostingRequest) error {
	if err := s.db.WithContext(ctx).Create(request).Error; err != nil {
		return translate(err)
	}
	return s.expandHostingRequest(ctx, request)
}

func (s *GormStore) HostingRequestByID(ctx context.Context, id uint) (*models.EventHostingRequest, error) {
	var request models.EventHostingRequest
	if err := s.db.WithContext(ctx).First(&request, id).Error; err != nil {
		return nil, translate(err)
	}
	if err := s.expandHostingRequest(ctx, &request); err != nil {
		return nil, err
	}
	return &request, nil
}

func (s *GormStore) HostingRequests(ctx context.Context, filter server.HostingRequestFilter) ([]models.EventHostingRequest, error) {
	query := s.db.WithContext(ctx)
	if filter.HostingID != 0 {
		query = query.Where("hosting_id = ?", filter.HostingID)
	}
	if filter.RequesterID != 0 {
		query = query.Where("requester_id = ?", filter.RequesterID)
	}
	if filter.HostID != 0 {
		query = query.Where("hosting_id IN (?)",
			s.db.Model(&models.EventHosting{}).Select("id").Where("host_id = ?", filter.HostID))
	}
	if filter.EventID != 0 {
		query = query.Where("hosting_id IN (?)",
			s.db.Model(&models.EventHosting{}).Select("id").Where("event_id = ?", filter.EventID))
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	var requests []models.EventHostingRequest
	if err := query.Order("id").Find(&requests).Error; err != nil {
		return nil, translate(err)
	}
	for i := range requests {
		if err := s.expandHostingRequest(ctx, &requests[i]); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

func (s *GormStore) UpdateHostingRequest(ctx context.Context, request *models.EventHostingRequest) error {
	err := s.db.WithContext(ctx).Model(&models.EventHostingRequest{}).
		Where("id = ?", request.ID).
		Updates(map[string]any{
			"status":       request.Status,
			"host_message": request.HostMessage,
		}).Error
	if err != nil {
		return translate(err)
	}
	return nil
}

func (s *GormStore) expandHostingRequest(ctx context.Context, request *models.EventHostingRequest) error {
	hosting, err := s.HostingByID(ctx, request.HostingID)
	if err != nil {
		return err
	}
	requester, err := s.UserByID(ctx, request.RequesterID)
	if err != nil {
		return err
	}
	request.Hosting = models.ExpandedRef(*hosting)
	request.Requester = models.ExpandedRef(*requester)
	return nil
}

func (s *GormStore) UpsertSubscription(ctx context.Context, subscription *models.EventSubscription) error {
	subscription.IsActive = true
	var existing models.EventSubscription
	err := s.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", subscription.EventID, subscription.UserID).
		First(&existing).Error
	if err == nil {
		subscription.ID = existing.ID
		subscription.CreatedAt = existing.CreatedAt
		return translateNil(s.db.WithContext(ctx).Save(subscription).Error)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return translate(err)
	}
	return translateNil(s.db.WithContext(ctx).Create(subscription).Error)
}

func (s *GormStore) Subscriptions(ctx context.Context, eventID uint) ([]models.EventSubscription, error) {
	var subscriptions []models.EventSubscription
	err := s.db.WithContext(ctx).
		Where("event_id = ? AND is_active = ?", eventID, true).
		Order("id").Find(&subscriptions).Error
	if err != nil {
		return nil, translate(err)
	}
	return subscriptions, nil
}

func (s *GormStore) CreatePayment(ctx context.Context, payment *models.CarpoolPayment) error {
	if err := s.db.WithContext(ctx).Create(payment).Error; err != nil {
		return translate(err)
	}
	payment.Request = models.IDRef[models.CarpoolRequest](payment.RequestID)
	return nil
}

func (s *GormStore) Payments(ctx context.Context, requestID uint) ([]models.CarpoolPayment, error) {
	var payments []models.CarpoolPayment
	err := s.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("id").Find(&payments).Error
	if err != nil {
		return nil, translate(err)
	}
	for i := range payments {
		payments[i].Request = models.IDRef[models.CarpoolRequest](requestID)
	}
	return payments, nil
}

func translateNil(err error) error {
	if err != nil {
		return translate(err)
	}
	return nil
}

// AcceptedSeats sums the seats of accepted requests for a trip.
func (s *GormStore) AcceptedSeats(ctx context.Context, tripID uint) (int, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.CarpoolRequest{}).
		Where("trip_id = ? AND status = ?", tripID, lifecycle.StatusAccepted).
		Select("COALESCE(SUM(seats_requested), 0)").Scan(&total).Error
	if err != nil {
		return 0, translate(err)
	}
	return int(total), nil
}
