package client_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mlefevre/amicale-client/internal/cache"
	"github.com/mlefevre/amicale-client/internal/client"
	"github.com/mlefevre/amicale-client/internal/lifecycle"
	"github.com/mlefevre/amicale-client/internal/models"
	"github.com/mlefevre/amicale-client/internal/server"
	"github.com/mlefevre/amicale-client/internal/session"
)

// These tests run the whole stack hermetically: the SDK (session,
// cache, client) against the reference server on an in-memory store.

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newBackend(t *testing.T) (*httptest.Server, *server.MemStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := server.NewMemStore()
	srv := server.New(store, quietLog())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, store
}

func seedEvent(t *testing.T, store *server.MemStore, name string) *models.Event {
	t.Helper()
	event := models.Event{
		Name:      name,
		Location:  "Lyon",
		StartDate: time.Now().Add(30 * 24 * time.Hour),
		EndDate:   time.Now().Add(32 * 24 * time.Hour),
		IsPublic:  true,
		IsActive:  true,
	}
	if err := store.CreateEvent(context.Background(), &event); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return &event
}

// actor bundles one signed-in user's session and cached queries.
type actor struct {
	sess    *session.Session
	queries *cache.Queries
}

func newActor(t *testing.T, baseURL, email string) *actor {
	t.Helper()
	sess, err := session.New(client.Config{BaseURL: baseURL, Log: quietLog()})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	queries := cache.New(cache.Config{
		API:      sess.Client(),
		Store:    cache.NewMemoryStore(),
		Log:      quietLog(),
		Identity: sess.CurrentUser,
	})

	_, err = sess.Register(context.Background(), client.RegisterInput{
		Email:     email,
		Password:  "password123",
		FirstName: "Test",
		LastName:  "User",
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return &actor{sess: sess, queries: queries}
}

func (a *actor) createTrip(t *testing.T, eventID uint, seats int) *models.CarpoolTrip {
	t.Helper()
	trip, err := a.queries.CreateCarpoolTrip(context.Background(), client.CreateTripInput{
		Event:             eventID,
		DepartureCity:     "Paris",
		ArrivalCity:       "Lyon",
		DepartureDatetime: time.Now().Add(29 * 24 * time.Hour).Format(time.RFC3339),
		SeatsTotal:        seats,
		PricePerSeat:      "15.00",
	})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}
	return trip
}

func TestSeatAccountingAcrossAccepts(t *testing.T) {
	ts, store := newBackend(t)
	event := seedEvent(t, store, "Congres")
	ctx := context.Background()

	driver := newActor(t, ts.URL, "driver@example.org")
	first := newActor(t, ts.URL, "first@example.org")
	second := newActor(t, ts.URL, "second@example.org")

	trip := driver.createTrip(t, event.ID, 3)
	if trip.SeatsAvailable != 3 || trip.IsFull {
		t.Fatalf("fresh trip: %+v", trip)
	}

	// Two passengers each want two of the three seats.
	trips, err := first.queries.EventCarpoolTrips(ctx, event.ID)
	if err != nil || trips.Count != 1 {
		t.Fatalf("trips for passenger: %v (count %d)", err, trips.Count)
	}
	if _, err := first.queries.CreateCarpoolRequest(ctx, trips.Results[0], 2, nil); err != nil {
		t.Fatalf("first request: %v", err)
	}
	trips, err = second.queries.EventCarpoolTrips(ctx, event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := second.queries.CreateCarpoolRequest(ctx, trips.Results[0], 2, nil); err != nil {
		t.Fatalf("second request: %v", err)
	}

	received, err := driver.queries.ReceivedCarpoolRequests(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if received.Count != 2 {
		t.Fatalf("driver sees %d requests, want 2", received.Count)
	}

	// First accept fits; the second would overflow seats_total and the
	// backend, counting only accepted seats, must refuse it.
	if _, err := driver.queries.UpdateCarpoolRequestStatus(ctx, received.Results[0], lifecycle.StatusAccepted, nil); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	_, err = driver.queries.UpdateCarpoolRequestStatus(ctx, received.Results[1], lifecycle.StatusAccepted, nil)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("second accept: got %T (%v), want *client.APIError", err, err)
	}
	if apiErr.Field != "seats_requested" {
		t.Fatalf("second accept refused on field %q: %s", apiErr.Field, apiErr.Message)
	}

	// Seat counts are re-fetched, never decremented locally.
	trips, err = driver.queries.EventCarpoolTrips(ctx, event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got := trips.Results[0].SeatsAvailable; got != 1 {
		t.Fatalf("seats_available = %d after one accepted 2-seat request, want 1", got)
	}
	if trips.Results[0].IsFull {
		t.Fatal("trip must not report full with a seat left")
	}
}

func TestAcceptedRequestIsTerminal(t *testing.T) {
	ts, store := newBackend(t)
	event := seedEvent(t, store, "WEI")
	ctx := context.Background()

	driver := newActor(t, ts.URL, "driver@example.org")
	passenger := newActor(t, ts.URL, "passenger@example.org")

	driver.createTrip(t, event.ID, 2)
	trips, err := passenger.queries.EventCarpoolTrips(ctx, event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := passenger.queries.CreateCarpoolRequest(ctx, trips.Results[0], 1, nil); err != nil {
		t.Fatal(err)
	}

	received, err := driver.queries.ReceivedCarpoolRequests(ctx)
	if err != nil {
		t.Fatal(err)
	}
	accepted, err := driver.queries.UpdateCarpoolRequestStatus(ctx, received.Results[0], lifecycle.StatusAccepted, nil)
	if err != nil {
		t.Fatal(err)
	}

	// The engine refuses before any network call.
	_, err = passenger.queries.UpdateCarpoolRequestStatus(ctx, *accepted, lifecycle.StatusCancelled, nil)
	var rule *lifecycle.RuleError
	if !errors.As(err, &rule) {
		t.Fatalf("local pre-check: got %T (%v), want *lifecycle.RuleError", err, err)
	}

	// And the backend refuses authoritatively when called directly.
	_, err = passenger.sess.Client().UpdateCarpoolRequestStatus(ctx, accepted.ID, lifecycle.StatusCancelled, nil)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("server check: got %T (%v), want *client.APIError", err, err)
	}
	if apiErr.Message != "this request has already been accepted" {
		t.Fatalf("unexpected server message %q", apiErr.Message)
	}
}

func TestDriverCannotRequestOwnTrip(t *testing.T) {
	ts, store := newBackend(t)
	event := seedEvent(t, store, "WEI")
	ctx := context.Background()

	driver := newActor(t, ts.URL, "driver@example.org")
	driver.createTrip(t, event.ID, 2)

	trips, err := driver.queries.EventCarpoolTrips(ctx, event.ID)
	if err != nil {
		t.Fatal(err)
	}
	_, err = driver.queries.CreateCarpoolRequest(ctx, trips.Results[0], 1, nil)
	var rule *lifecycle.RuleError
	if !errors.As(err, &rule) {
		t.Fatalf("got %T (%v), want *lifecycle.RuleError", err, err)
	}
	if rule.Field != "passenger" {
		t.Fatalf("refused on field %q", rule.Field)
	}
}

func TestDuplicateTripRequestRefused(t *testing.T) {
	ts, store := newBackend(t)
	event := seedEvent(t, store, "WEI")
	ctx := context.Background()

	driver := newActor(t, ts.URL, "driver@example.org")
	passenger := newActor(t, ts.URL, "passenger@example.org")
	driver.createTrip(t, event.ID, 3)

	trips, err := passenger.queries.EventCarpoolTrips(ctx, event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := passenger.queries.CreateCarpoolRequest(ctx, trips.Results[0], 1, nil); err != nil {
		t.Fatal(err)
	}
	_, err = passenger.queries.CreateCarpoolRequest(ctx, trips.Results[0], 1, nil)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %T (%v), want *client.APIError", err, err)
	}
	if apiErr.Field != "trip" {
		t.Fatalf("refused on field %q: %s", apiErr.Field, apiErr.Message)
	}
}

func TestOneActiveHostingRequestPerEvent(t *testing.T) {
	ts, store := newBackend(t)
	event := seedEvent(t, store, "WEI")
	ctx := context.Background()

	hostA := newActor(t, ts.URL, "hosta@example.org")
	hostB := newActor(t, ts.URL, "hostb@example.org")
	guest := newActor(t, ts.URL, "guest@example.org")

	for _, host := range []*actor{hostA, hostB} {
		_, err := host.queries.CreateEventHosting(ctx, client.CreateHostingInput{
			Event:         event.ID,
			AvailableBeds: 2,
		})
		if err != nil {
			t.Fatalf("create hosting: %v", err)
		}
	}

	hostings, err := guest.queries.EventHostings(ctx, event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if hostings.Count != 2 {
		t.Fatalf("guest sees %d hostings, want 2", hostings.Count)
	}

	if _, err := guest.queries.CreateEventHostingRequest(ctx, hostings.Results[0], nil); err != nil {
		t.Fatalf("first hosting request: %v", err)
	}

	// A pending request for the event blocks a second one, across
	// hostings, before any network call.
	_, err = guest.queries.CreateEventHostingRequest(ctx, hostings.Results[1], nil)
	var rule *lifecycle.RuleError
	if !errors.As(err, &rule) {
		t.Fatalf("got %T (%v), want *lifecycle.RuleError", err, err)
	}
	if rule.Field != "hosting" {
		t.Fatalf("refused on field %q: %s", rule.Field, rule.Message)
	}
}

func TestBedCapacityOnAccept(t *testing.T) {
	ts, store := newBackend(t)
	event := seedEvent(t, store, "WEI")
	ctx := context.Background()

	host := newActor(t, ts.URL, "host@example.org")
	guestA := newActor(t, ts.URL, "guesta@example.org")
	guestB := newActor(t, ts.URL, "guestb@example.org")

	if _, err := host.queries.CreateEventHosting(ctx, client.CreateHostingInput{
		Event:         event.ID,
		AvailableBeds: 1,
	}); err != nil {
		t.Fatal(err)
	}

	for _, guest := range []*actor{guestA, guestB} {
		hostings, err := guest.queries.EventHostings(ctx, event.ID)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := guest.queries.CreateEventHostingRequest(ctx, hostings.Results[0], nil); err != nil {
			t.Fatalf("hosting request: %v", err)
		}
	}

	received, err := host.queries.ReceivedHostingRequests(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if received.Count != 2 {
		t.Fatalf("host sees %d requests, want 2", received.Count)
	}

	if _, err := host.queries.UpdateHostingRequestStatus(ctx, received.Results[0], lifecycle.StatusAccepted, nil); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	_, err = host.queries.UpdateHostingRequestStatus(ctx, received.Results[1], lifecycle.StatusAccepted, nil)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("second accept: got %T (%v), want *client.APIError", err, err)
	}
	if apiErr.Field != "hosting" {
		t.Fatalf("refused on field %q: %s", apiErr.Field, apiErr.Message)
	}

	hostings, err := host.queries.EventHostings(ctx, event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got := hostings.Results[0].AvailableBedsRemaining; got != 0 {
		t.Fatalf("beds remaining = %d, want 0", got)
	}
}

func TestSubscribeUpsertsInPlace(t *testing.T) {
	ts, store := newBackend(t)
	event := seedEvent(t, store, "WEI")
	ctx := context.Background()

	member := newActor(t, ts.URL, "member@example.org")

	yes, err := member.queries.Subscribe(ctx, event.ID, models.AnswerYes, false)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	maybe, err := member.queries.Subscribe(ctx, event.ID, models.AnswerMaybe, true)
	if err != nil {
		t.Fatalf("re-subscribe: %v", err)
	}
	if maybe.ID != yes.ID {
		t.Fatalf("re-subscribing created a new row: %d then %d", yes.ID, maybe.ID)
	}
	if maybe.Answer != models.AnswerMaybe || !maybe.CanInvite {
		t.Fatalf("latest answer not kept: %+v", maybe)
	}

	events, err := member.queries.Events(ctx)
	if err != nil {
		t.Fatal(err)
	}
	breakdown := events.Results[0].SubscriptionsCount
	if breakdown == nil {
		t.Fatal("events must carry the RSVP breakdown")
	}
	if breakdown.Maybe != 1 || breakdown.Yes != 0 {
		t.Fatalf("breakdown = %+v, want one MAYBE", breakdown)
	}
}

func TestPaymentsFlow(t *testing.T) {
	ts, store := newBackend(t)
	event := seedEvent(t, store, "WEI")
	ctx := context.Background()

	driver := newActor(t, ts.URL, "driver@example.org")
	passenger := newActor(t, ts.URL, "passenger@example.org")
	driver.createTrip(t, event.ID, 3)

	trips, err := passenger.queries.EventCarpoolTrips(ctx, event.ID)
	if err != nil {
		t.Fatal(err)
	}
	request, err := passenger.queries.CreateCarpoolRequest(ctx, trips.Results[0], 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if request.ExpectedAmount != 30 {
		t.Fatalf("expected_amount = %v, want 30 (2 seats at 15.00)", request.ExpectedAmount)
	}

	received, err := driver.queries.ReceivedCarpoolRequests(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := driver.queries.UpdateCarpoolRequestStatus(ctx, received.Results[0], lifecycle.StatusAccepted, nil); err != nil {
		t.Fatal(err)
	}

	_, err = passenger.queries.CreateCarpoolPayment(ctx, client.CreatePaymentInput{
		RequestID:     request.ID,
		Amount:        30,
		PaymentMethod: "lydia",
		IsCompleted:   true,
	})
	if err != nil {
		t.Fatalf("payment: %v", err)
	}

	sent, err := passenger.queries.SentCarpoolRequests(ctx)
	if err != nil {
		t.Fatal(err)
	}
	paid := sent.Results[0]
	if !paid.IsPaid || paid.TotalPaid != 30 {
		t.Fatalf("payment not reflected: is_paid=%v total_paid=%v", paid.IsPaid, paid.TotalPaid)
	}

	payments, err := passenger.queries.RequestPayments(ctx, request.ID)
	if err != nil {
		t.Fatal(err)
	}
	if payments.Count != 1 || payments.Results[0].Amount != 30 {
		t.Fatalf("payments list wrong: %+v", payments)
	}
}

func TestSessionLifecycle(t *testing.T) {
	ts, store := newBackend(t)
	seedEvent(t, store, "WEI")
	ctx := context.Background()

	sess, err := session.New(client.Config{BaseURL: ts.URL, Log: quietLog()})
	if err != nil {
		t.Fatal(err)
	}

	var changes []*models.User
	sess.OnChange(func(user *models.User) { changes = append(changes, user) })

	if sess.CurrentUser() != nil {
		t.Fatal("fresh session must have no user")
	}

	registered, err := sess.Register(ctx, client.RegisterInput{
		Email:     "member@example.org",
		Password:  "password123",
		FirstName: "Test",
		LastName:  "User",
	})
	if err != nil {
		t.Fatal(err)
	}
	if sess.CurrentUser() == nil || sess.CurrentUser().ID != registered.ID {
		t.Fatal("register must set the current user")
	}

	refreshed, err := sess.Refresh(ctx)
	if err != nil || refreshed == nil || refreshed.Email != "member@example.org" {
		t.Fatalf("refresh: %v %+v", err, refreshed)
	}

	if err := sess.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if sess.CurrentUser() != nil {
		t.Fatal("logout must clear the current user")
	}

	// Signed out: protected calls fail and the session stays cleared.
	if _, err := sess.Client().Events(ctx); !errors.Is(err, client.ErrNotAuthenticated) {
		t.Fatalf("got %v, want ErrNotAuthenticated", err)
	}
	refreshed, err = sess.Refresh(ctx)
	if err != nil || refreshed != nil {
		t.Fatalf("signed-out refresh: %v %+v", err, refreshed)
	}

	if len(changes) != 2 {
		t.Fatalf("got %d change notifications, want sign-in and sign-out", len(changes))
	}
	if changes[0] == nil || changes[1] != nil {
		t.Fatal("notifications must carry the user then nil")
	}
}
