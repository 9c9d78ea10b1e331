package models

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestRefUnmarshalBareID(t *testing.T) {
	var ref Ref[Event]
	if err := json.Unmarshal([]byte(`42`), &ref); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ref.ID != 42 || ref.Expanded() {
		t.Fatalf("got %+v, want unexpanded id 42", ref)
	}
}

func TestRefUnmarshalExpanded(t *testing.T) {
	var ref Ref[Event]
	if err := json.Unmarshal([]byte(`{"id": 7, "name": "WEI"}`), &ref); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !ref.Expanded() {
		t.Fatal("object arm must mark the ref expanded")
	}
	if ref.ID != 7 || ref.Value.Name != "WEI" {
		t.Fatalf("got %+v", ref)
	}
}

func TestRefUnmarshalNull(t *testing.T) {
	ref := IDRef[Event](9)
	if err := json.Unmarshal([]byte(`null`), &ref); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ref.ID != 0 || ref.Expanded() {
		t.Fatalf("null must reset the ref, got %+v", ref)
	}
}

func TestRefMarshalBothArms(t *testing.T) {
	data, err := json.Marshal(IDRef[Event](3))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "3" {
		t.Fatalf("bare ref must serialize as the id, got %s", data)
	}

	data, err = json.Marshal(ExpandedRef(Event{ID: 3, Name: "WEI"}))
	if err != nil {
		t.Fatal(err)
	}
	var decoded Event
	if err := json.Unmarshal(data, &decoded); err != nil || decoded.Name != "WEI" {
		t.Fatalf("expanded ref must serialize the object, got %s", data)
	}
}

func TestRefResolveFetchesOnce(t *testing.T) {
	calls := 0
	fetch := func(_ context.Context, id uint) (*Event, error) {
		calls++
		return &Event{ID: id, Name: "WEI"}, nil
	}

	ref := IDRef[Event](5)
	for i := 0; i < 2; i++ {
		event, err := ref.Resolve(context.Background(), fetch)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if event.ID != 5 {
			t.Fatalf("got event %d, want 5", event.ID)
		}
	}
	if calls != 1 {
		t.Fatalf("fetch called %d times, want 1", calls)
	}
	if !ref.Expanded() {
		t.Fatal("resolve must retain the fetched value")
	}
}

func TestRefResolveError(t *testing.T) {
	wantErr := errors.New("backend down")
	ref := IDRef[Event](5)
	_, err := ref.Resolve(context.Background(), func(context.Context, uint) (*Event, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want fetch error", err)
	}
	if ref.Expanded() {
		t.Fatal("failed resolve must not mark the ref expanded")
	}
}

func TestRefInsideResource(t *testing.T) {
	// The same field decodes from either arm depending on the endpoint.
	bare := `{"id": 1, "event": 4, "host": {"id": 2, "email": "h@example.org"}, "available_beds": 2}`
	expanded := `{"id": 1, "event": {"id": 4, "name": "WEI"}, "host": {"id": 2, "email": "h@example.org"}, "available_beds": 2}`

	var fromBare, fromExpanded EventHosting
	if err := json.Unmarshal([]byte(bare), &fromBare); err != nil {
		t.Fatalf("bare arm: %v", err)
	}
	if err := json.Unmarshal([]byte(expanded), &fromExpanded); err != nil {
		t.Fatalf("expanded arm: %v", err)
	}
	if fromBare.Event.ID != 4 || fromBare.Event.Expanded() {
		t.Fatalf("bare arm decoded wrong: %+v", fromBare.Event)
	}
	if fromExpanded.Event.ID != 4 || !fromExpanded.Event.Expanded() {
		t.Fatalf("expanded arm decoded wrong: %+v", fromExpanded.Event)
	}
}
