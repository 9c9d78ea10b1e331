package cache

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/mlefevre/amicale-client/internal/client"
	"github.com/mlefevre/amicale-client/internal/lifecycle"
	"github.com/mlefevre/amicale-client/internal/models"
)

// Config wires a Queries layer.
type Config struct {
	API   *client.Client
	Store Store
	Log   *logrus.Logger
	// TTL bounds staleness for reads that no mutation invalidates,
	// such as another user accepting a request. Zero means 5 minutes.
	TTL time.Duration
	// Identity supplies the signed-in user for eligibility pre-checks.
	// When nil the checks are skipped and the backend is the only
	// arbiter.
	Identity func() *models.User
}

// Queries is the cached view over the API client. Reads are cached by
// (resource kind, discriminant) and deduplicated in flight; mutations
// go straight to the backend and then drop every key whose data could
// be stale. Cached entities are never mutated locally.
type Queries struct {
	api      *client.Client
	store    Store
	log      *logrus.Logger
	ttl      time.Duration
	identity func() *models.User
	group    singleflight.Group
}

func New(cfg Config) *Queries {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	log := cfg.Log
	if log == nil {
		log = logrus.New()
	}
	return &Queries{
		api:      cfg.API,
		store:    cfg.Store,
		log:      log,
		ttl:      ttl,
		identity: cfg.Identity,
	}
}

// cached serves key from the store, collapsing concurrent misses into
// one backend call. A store failure degrades to a plain fetch.
func cached[T any](ctx context.Context, q *Queries, key string, fetch func(context.Context) (T, error)) (T, error) {
	var hit T
	found, err := q.store.Get(ctx, key, &hit)
	if err != nil {
		q.log.WithField("key", key).WithError(err).Warn("cache read failed")
	} else if found {
		return hit, nil
	}

	value, err, _ := q.group.Do(key, func() (any, error) {
		fresh, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := q.store.Set(ctx, key, fresh, q.ttl); err != nil {
			q.log.WithField("key", key).WithError(err).Warn("cache write failed")
		}
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return value.(T), nil
}

func (q *Queries) invalidate(ctx context.Context, keys ...string) {
	if err := q.store.Delete(ctx, keys...); err != nil {
		q.log.WithError(err).Warn("cache invalidation failed")
	}
}

func (q *Queries) invalidatePrefix(ctx context.Context, prefix string) {
	if err := q.store.DeletePrefix(ctx, prefix); err != nil {
		q.log.WithField("prefix", prefix).WithError(err).Warn("cache invalidation failed")
	}
}

func (q *Queries) me() *models.User {
	if q.identity == nil {
		return nil
	}
	return q.identity()
}

// Reads.

func (q *Queries) Events(ctx context.Context) (models.Paginated[models.Event], error) {
	return cached(ctx, q, KeyEvents, q.api.Events)
}

func (q *Queries) EventCarpoolTrips(ctx context.Context, eventID uint) (models.Paginated[models.CarpoolTrip], error) {
	return cached(ctx, q, Key(KeyEventCarpoolTrips, eventID), func(ctx context.Context) (models.Paginated[models.CarpoolTrip], error) {
		return q.api.EventCarpoolTrips(ctx, eventID)
	})
}

func (q *Queries) UserCarpoolTrips(ctx context.Context) (models.Paginated[models.CarpoolTrip], error) {
	return cached(ctx, q, KeyUserCarpoolTrips, q.api.UserCarpoolTrips)
}

func (q *Queries) ReceivedCarpoolRequests(ctx context.Context) (models.Paginated[models.CarpoolRequest], error) {
	return cached(ctx, q, KeyReceivedCarpoolRequests, q.api.ReceivedCarpoolRequests)
}

func (q *Queries) SentCarpoolRequests(ctx context.Context) (models.Paginated[models.CarpoolRequest], error) {
	return cached(ctx, q, KeySentCarpoolRequests, q.api.SentCarpoolRequests)
}

func (q *Queries) RequestPayments(ctx context.Context, requestID uint) (models.Paginated[models.CarpoolPayment], error) {
	return cached(ctx, q, Key(KeyRequestPayments, requestID), func(ctx context.Context) (models.Paginated[models.CarpoolPayment], error) {
		return q.api.RequestPayments(ctx, requestID)
	})
}

func (q *Queries) EventHostings(ctx context.Context, eventID uint) (models.Paginated[models.EventHosting], error) {
	return cached(ctx, q, Key(KeyEventHostings, eventID), func(ctx context.Context) (models.Paginated[models.EventHosting], error) {
		return q.api.EventHostings(ctx, eventID)
	})
}

func (q *Queries) UserHostings(ctx context.Context) (models.Paginated[models.EventHosting], error) {
	return cached(ctx, q, KeyUserHostings, q.api.UserHostings)
}

func (q *Queries) ReceivedHostingRequests(ctx context.Context) (models.Paginated[models.EventHostingRequest], error) {
	return cached(ctx, q, KeyReceivedHostingRequests, q.api.ReceivedHostingRequests)
}

func (q *Queries) SentHostingRequests(ctx context.Context) (models.Paginated[models.EventHostingRequest], error) {
	return cached(ctx, q, KeySentHostingRequests, q.api.SentHostingRequests)
}

// Mutations. Each one calls the backend, then invalidates the
// collections whose derived counters it may have changed. No cached
// entity is patched in place.

func (q *Queries) Subscribe(ctx context.Context, eventID uint, answer models.Answer, canInvite bool) (*models.SubscribeAction, error) {
	action, err := q.api.Subscribe(ctx, eventID, answer, canInvite)
	if err != nil {
		return nil, err
	}
	q.invalidate(ctx, KeyEvents)
	return action, nil
}

func (q *Queries) CreateCarpoolTrip(ctx context.Context, input client.CreateTripInput) (*models.CarpoolTrip, error) {
	trip, err := q.api.CreateCarpoolTrip(ctx, input)
	if err != nil {
		return nil, err
	}
	q.invalidate(ctx, Key(KeyEventCarpoolTrips, input.Event), KeyUserCarpoolTrips)
	return trip, nil
}

// CreateCarpoolRequest asks for seats on trip. The caller passes the
// trip it is looking at so eligibility can be checked before the
// round-trip; the backend re-checks everything regardless.
func (q *Queries) CreateCarpoolRequest(ctx context.Context, trip models.CarpoolTrip, seatsRequested int, message *string) (*models.CarpoolRequest, error) {
	if me := q.me(); me != nil {
		if err := lifecycle.CheckCarpoolRequest(trip.Driver.ID, me.ID, trip.SeatsAvailable, seatsRequested); err != nil {
			return nil, err
		}
	}
	request, err := q.api.CreateCarpoolRequest(ctx, trip.ID, seatsRequested, message)
	if err != nil {
		return nil, err
	}
	q.invalidate(ctx, KeySentCarpoolRequests, Key(KeyEventCarpoolTrips, trip.Event.ID), KeyUserCarpoolTrips)
	return request, nil
}

// UpdateCarpoolRequestStatus accepts, rejects or cancels. A capacity
// error from the backend is authoritative: another accept won the
// race, and the refreshed trip list will show it.
func (q *Queries) UpdateCarpoolRequestStatus(ctx context.Context, request models.CarpoolRequest, status lifecycle.Status, responseMessage *string) (*models.CarpoolRequest, error) {
	if me := q.me(); me != nil {
		if err := lifecycle.CheckCarpoolTransition(request.Trip.Driver.ID, request.Passenger.ID, me.ID, request.Status, status); err != nil {
			return nil, err
		}
	}
	updated, err := q.api.UpdateCarpoolRequestStatus(ctx, request.ID, status, responseMessage)
	if err != nil {
		return nil, err
	}
	q.invalidate(ctx, KeyReceivedCarpoolRequests, KeySentCarpoolRequests, KeyUserCarpoolTrips)
	q.invalidatePrefix(ctx, KeyEventCarpoolTrips)
	return updated, nil
}

func (q *Queries) CreateCarpoolPayment(ctx context.Context, input client.CreatePaymentInput) (*models.CarpoolPayment, error) {
	payment, err := q.api.CreateCarpoolPayment(ctx, input)
	if err != nil {
		return nil, err
	}
	q.invalidate(ctx,
		Key(KeyRequestPayments, input.RequestID),
		KeyReceivedCarpoolRequests, KeySentCarpoolRequests)
	return payment, nil
}

func (q *Queries) CreateEventHosting(ctx context.Context, input client.CreateHostingInput) (*models.EventHosting, error) {
	hosting, err := q.api.CreateEventHosting(ctx, input)
	if err != nil {
		return nil, err
	}
	q.invalidate(ctx, Key(KeyEventHostings, input.Event), KeyUserHostings)
	return hosting, nil
}

// CanRequestHosting is the form-gating check: it refuses when the
// caller already holds an active request for the hosting's event, or
// owns the hosting. The sent-requests collection comes through the
// cache, so gating many hostings on one page costs one fetch.
func (q *Queries) CanRequestHosting(ctx context.Context, hosting models.EventHosting) error {
	me := q.me()
	sent, err := q.SentHostingRequests(ctx)
	if err != nil {
		return err
	}
	refs := make([]lifecycle.RequestRef, 0, len(sent.Results))
	for _, request := range sent.Results {
		if request.Hosting.Value == nil {
			continue
		}
		refs = append(refs, lifecycle.RequestRef{
			EventID: request.Hosting.Value.Event.ID,
			Status:  request.Status,
		})
	}
	var meID uint
	if me != nil {
		meID = me.ID
	}
	return lifecycle.CheckHostingRequest(hosting.Host.ID, meID, hosting.Event.ID, refs)
}

func (q *Queries) CreateEventHostingRequest(ctx context.Context, hosting models.EventHosting, message *string) (*models.EventHostingRequest, error) {
	if err := q.CanRequestHosting(ctx, hosting); err != nil {
		return nil, err
	}
	request, err := q.api.CreateEventHostingRequest(ctx, hosting.ID, message)
	if err != nil {
		return nil, err
	}
	q.invalidate(ctx, KeySentHostingRequests, Key(KeyEventHostings, hosting.Event.ID))
	return request, nil
}

func (q *Queries) UpdateHostingRequestStatus(ctx context.Context, request models.EventHostingRequest, status lifecycle.Status, hostMessage *string) (*models.EventHostingRequest, error) {
	if me := q.me(); me != nil && request.Hosting.Value != nil {
		err := lifecycle.CheckHostingTransition(
			request.Hosting.Value.Host.ID, request.Requester.ID, me.ID, request.Status, status)
		if err != nil {
			return nil, err
		}
	}
	updated, err := q.api.UpdateHostingRequestStatus(ctx, request.ID, status, hostMessage)
	if err != nil {
		return nil, err
	}
	q.invalidate(ctx, KeyReceivedHostingRequests, KeySentHostingRequests, KeyUserHostings)
	q.invalidatePrefix(ctx, KeyEventHostings)
	return updated, nil
}
