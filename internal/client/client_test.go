package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestClient(t *testing.T, handler http.Handler, onAuthChanged func()) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	c, err := New(Config{BaseURL: srv.URL, Log: log, OnAuthChanged: onAuthChanged})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c, srv
}

func TestCSRFHeaderOnMutationsOnly(t *testing.T) {
	headers := map[string]string{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/config/", func(w http.ResponseWriter, r *http.Request) {
		headers["GET"] = r.Header.Get("X-CSRFToken")
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok123", Path: "/"})
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"version": "1.0.0", "is_authenticated": false}`))
	})
	mux.HandleFunc("POST /api/auth/logout/", func(w http.ResponseWriter, r *http.Request) {
		headers["POST"] = r.Header.Get("X-CSRFToken")
		w.Write([]byte(`{"detail": "Logged out."}`))
	})

	c, _ := newTestClient(t, mux, nil)
	ctx := context.Background()

	if _, err := c.Config(ctx); err != nil {
		t.Fatalf("config: %v", err)
	}
	if headers["GET"] != "" {
		t.Errorf("GET carried a CSRF header: %q", headers["GET"])
	}
	if err := c.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if headers["POST"] != "tok123" {
		t.Errorf("POST CSRF header = %q, want cookie value tok123", headers["POST"])
	}
}

func TestErrorFieldPriority(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/event/carpool-requests/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(400)
		// Two field keys present: the earlier one in the priority list
		// must win regardless of map order.
		w.Write([]byte(`{"seats_requested": ["too many"], "trip": ["already requested"]}`))
	})

	c, _ := newTestClient(t, mux, nil)
	_, err := c.CreateCarpoolRequest(context.Background(), 1, 2, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %T, want *APIError", err)
	}
	if apiErr.Field != "trip" || apiErr.Message != "already requested" {
		t.Fatalf("got field=%q message=%q, want trip/already requested", apiErr.Field, apiErr.Message)
	}
	if apiErr.StatusCode != 400 {
		t.Fatalf("status = %d", apiErr.StatusCode)
	}
}

func TestErrorDetailFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/event/events/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(403)
		w.Write([]byte(`{"detail": "You do not have permission to perform this action."}`))
	})

	c, _ := newTestClient(t, mux, nil)
	_, err := c.Events(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %T: %v", err, err)
	}
	if apiErr.Field != "detail" {
		t.Fatalf("field = %q, want detail", apiErr.Field)
	}
}

func TestErrorUnknownFieldStillSurfaces(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/event/carpool-requests/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		w.Write([]byte(`{"non_field_errors": ["something odd"]}`))
	})

	c, _ := newTestClient(t, mux, nil)
	_, err := c.CreateCarpoolRequest(context.Background(), 1, 1, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %T: %v", err, err)
	}
	if apiErr.Message != "something odd" {
		t.Fatalf("message = %q", apiErr.Message)
	}
}

func TestSchemaDriftIsFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/event/carpool-trips/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// is_full contradicts seats_available: the invariant check must
		// refuse the page instead of passing bad data through.
		w.Write([]byte(`{"count": 1, "next": null, "previous": null, "results": [{
			"id": 1,
			"driver": {"id": 2, "email": "d@example.org"},
			"event": {"id": 3, "name": "WEI"},
			"departure_city": "Paris",
			"arrival_city": "Lille",
			"seats_total": 3,
			"price_per_seat": "10",
			"seats_available": 2,
			"is_full": true
		}]}`))
	})

	c, _ := newTestClient(t, mux, nil)
	_, err := c.EventCarpoolTrips(context.Background(), 3)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("got %T, want *SchemaError: %v", err, err)
	}
}

func TestUnauthorizedTriggersAuthChanged(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/user/me/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
		w.Write([]byte(`{"detail": "Authentication credentials were not provided."}`))
	})

	notified := false
	c, _ := newTestClient(t, mux, func() { notified = true })
	_, err := c.CurrentUser(context.Background())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("got %v, want ErrNotAuthenticated", err)
	}
	if !notified {
		t.Fatal("401 must fire the auth-changed hook")
	}
}
