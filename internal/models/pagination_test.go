package models

import (
	"encoding/json"
	"strings"
	"testing"
)

// The envelope combinator must work for any item type, so it is
// exercised here with two unrelated resources.

func TestPaginatedDecodeEvents(t *testing.T) {
	payload := `{
		"count": 2,
		"next": "http://api.example.org/api/event/events/?page=2",
		"previous": null,
		"results": [
			{"id": 1, "name": "Congres de printemps", "location": "Lyon"},
			{"id": 2, "name": "WEI", "location": "Biarritz"}
		]
	}`

	var page Paginated[Event]
	if err := json.Unmarshal([]byte(payload), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := page.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if page.Count != 2 || len(page.Results) != 2 {
		t.Fatalf("got count=%d len=%d, want 2/2", page.Count, len(page.Results))
	}
	if page.Next == nil || page.Previous != nil {
		t.Fatal("next/previous arms decoded wrong")
	}
	if page.Results[1].Name != "WEI" {
		t.Fatalf("unexpected item: %+v", page.Results[1])
	}
}

func TestPaginatedDecodeTrips(t *testing.T) {
	payload := `{
		"count": 1,
		"next": null,
		"previous": null,
		"results": [{
			"id": 7,
			"driver": {"id": 3, "email": "driver@example.org", "first_name": "Ana", "last_name": "B"},
			"event": {"id": 1, "name": "WEI"},
			"departure_city": "Paris",
			"arrival_city": "Biarritz",
			"seats_total": 3,
			"price_per_seat": "25.50",
			"seats_available": 1,
			"is_full": false
		}]
	}`

	var page Paginated[CarpoolTrip]
	if err := json.Unmarshal([]byte(payload), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := page.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if page.Results[0].PricePerSeat != "25.50" {
		t.Fatal("price must stay a decimal string")
	}
}

func TestPaginatedOneBadItemFailsWholePage(t *testing.T) {
	payload := `{
		"count": 2,
		"next": null,
		"previous": null,
		"results": [
			{"id": 1, "name": "Valid event"},
			{"id": 2, "name": ""}
		]
	}`

	var page Paginated[Event]
	if err := json.Unmarshal([]byte(payload), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	err := page.Validate()
	if err == nil {
		t.Fatal("envelope with a malformed item must fail validation")
	}
	if !strings.Contains(err.Error(), "result 1") {
		t.Fatalf("error should name the offending index: %v", err)
	}
}

func TestPaginatedInvariantViolationFails(t *testing.T) {
	// seats_available above seats_total and is_full inconsistent with a
	// non-zero availability must both be refused, not coerced.
	trips := []CarpoolTrip{{
		ID:             1,
		DepartureCity:  "Paris",
		ArrivalCity:    "Lille",
		SeatsTotal:     2,
		PricePerSeat:   "10",
		SeatsAvailable: 5,
	}}
	trips[0].Driver = User{ID: 1, Email: "d@example.org"}
	trips[0].Event = Event{ID: 1, Name: "WEI"}

	page := Page(trips)
	if err := page.Validate(); err == nil {
		t.Fatal("seats_available > seats_total must fail")
	}

	page.Results[0].SeatsAvailable = 1
	page.Results[0].IsFull = true
	if err := page.Validate(); err == nil {
		t.Fatal("is_full with seats left must fail")
	}

	page.Results[0].IsFull = false
	if err := page.Validate(); err != nil {
		t.Fatalf("consistent trip rejected: %v", err)
	}
}

func TestNegativeCountFails(t *testing.T) {
	page := Paginated[Event]{Count: -1}
	if err := page.Validate(); err == nil {
		t.Fatal("negative count must fail")
	}
}

func TestPageHelper(t *testing.T) {
	page := Page[Event](nil)
	if page.Count != 0 || page.Results == nil {
		t.Fatal("empty page must carry a non-nil results slice")
	}
	data, err := json.Marshal(page)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"results":[]`) {
		t.Fatalf("empty page must serialize results as [], got %s", data)
	}
}
