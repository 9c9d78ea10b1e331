// Package lifecycle encodes the legal state transitions and
// eligibility rules for carpool and hosting requests. The same rules
// run in two places: the client uses them to refuse obviously invalid
// intents before any round trip, the server enforces them
// authoritatively.
package lifecycle

import "fmt"

// Status of a carpool or hosting request. PENDING is the only
// non-terminal state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted out of s.
func (s Status) Terminal() bool {
	return s.Valid() && s != StatusPending
}

// display returns the past participle used in "already ..." messages.
func (s Status) display() string {
	switch s {
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	case StatusCancelled:
		return "cancelled"
	default:
		return "pending"
	}
}

// CanTransition reports whether from -> to is a legal edge. The only
// legal edges are PENDING -> ACCEPTED/REJECTED/CANCELLED.
func CanTransition(from, to Status) bool {
	if from != StatusPending {
		return false
	}
	switch to {
	case StatusAccepted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Party identifies which side of a request may drive a transition.
type Party int

const (
	// PartyOfferer is the driver of a trip or the host of a hosting.
	PartyOfferer Party = iota
	// PartyRequester is the passenger or the would-be guest.
	PartyRequester
)

// TransitionActor returns the party allowed to move a request to the
// given target status: the offerer accepts/rejects, the requester
// cancels.
func TransitionActor(to Status) Party {
	if to == StatusCancelled {
		return PartyRequester
	}
	return PartyOfferer
}

// RuleError is a lifecycle rule violation. Field names the wire-level
// field the violation maps to, matching the backend's error bodies.
type RuleError struct {
	Field   string
	Message string
}

func (e *RuleError) Error() string {
	return e.Field + ": " + e.Message
}

// CheckCarpoolRequest validates a new seat request against the trip as
// currently known. Client-side this is advisory; the server re-checks
// against authoritative seat counts.
func CheckCarpoolRequest(driverID, passengerID uint, seatsAvailable, seatsRequested int) error {
	if passengerID == driverID {
		return &RuleError{Field: "passenger", Message: "the driver cannot request a seat on their own trip"}
	}
	if seatsRequested < 1 {
		return &RuleError{Field: "seats_requested", Message: "at least one seat must be requested"}
	}
	return CheckSeatCapacity(seatsAvailable, seatsRequested)
}

// CheckSeatCapacity rejects a request or an accept that would overbook
// the trip.
func CheckSeatCapacity(seatsAvailable, seatsRequested int) error {
	if seatsRequested > seatsAvailable {
		return &RuleError{
			Field:   "seats_requested",
			Message: fmt.Sprintf("only %d seat(s) available", seatsAvailable),
		}
	}
	return nil
}

// CheckCarpoolTransition validates that actorID may move a carpool
// request from its current status to the target one.
func CheckCarpoolTransition(driverID, passengerID, actorID uint, from, to Status) error {
	return checkTransition(driverID, passengerID, actorID, from, to, "driver", "passenger")
}

// CheckHostingTransition validates that actorID may move a hosting
// request from its current status to the target one.
func CheckHostingTransition(hostID, requesterID, actorID uint, from, to Status) error {
	return checkTransition(hostID, requesterID, actorID, from, to, "host", "requester")
}

func checkTransition(offererID, requesterID, actorID uint, from, to Status, offerer, requester string) error {
	if !to.Valid() || to == StatusPending {
		return &RuleError{Field: "status", Message: "invalid target status"}
	}
	if from.Terminal() {
		return &RuleError{
			Field:   "status",
			Message: fmt.Sprintf("this request has already been %s", from.display()),
		}
	}
	switch TransitionActor(to) {
	case PartyOfferer:
		if actorID != offererID {
			return &RuleError{
				Field:   "status",
				Message: fmt.Sprintf("only the %s can accept or reject a request", offerer),
			}
		}
	case PartyRequester:
		if actorID != requesterID {
			return &RuleError{
				Field:   "status",
				Message: fmt.Sprintf("only the %s can cancel a request", requester),
			}
		}
	}
	if !CanTransition(from, to) {
		return &RuleError{Field: "status", Message: "transition not permitted"}
	}
	return nil
}

// RequestRef is the slice element used for cross-request hosting
// checks: which event a sent request belongs to and where it stands.
type RequestRef struct {
	EventID uint
	Status  Status
}

// HasAcceptedForEvent reports whether any sent request for the event is
// already ACCEPTED. A guest cannot be hosted twice for one event.
func HasAcceptedForEvent(sent []RequestRef, eventID uint) bool {
	for _, ref := range sent {
		if ref.EventID == eventID && ref.Status == StatusAccepted {
			return true
		}
	}
	return false
}

// HasActiveForEvent reports whether any sent request for the event is
// still PENDING or ACCEPTED.
func HasActiveForEvent(sent []RequestRef, eventID uint) bool {
	for _, ref := range sent {
		if ref.EventID != eventID {
			continue
		}
		if ref.Status == StatusPending || ref.Status == StatusAccepted {
			return true
		}
	}
	return false
}

// CheckHostingRequest validates a new hosting request: no
// self-request, and at most one PENDING/ACCEPTED request per event
// across all hostings for that event.
func CheckHostingRequest(hostID, requesterID, eventID uint, sent []RequestRef) error {
	if requesterID == hostID {
		return &RuleError{Field: "hosting", Message: "you cannot request your own hosting"}
	}
	if HasActiveForEvent(sent, eventID) {
		return &RuleError{Field: "hosting", Message: "you already have an active request for this event"}
	}
	return nil
}

// CheckBedCapacity rejects an accept when the hosting has no bed left.
// Each accepted request consumes one bed.
func CheckBedCapacity(bedsRemaining int) error {
	if bedsRemaining <= 0 {
		return &RuleError{Field: "hosting", Message: "no beds remaining for this hosting"}
	}
	return nil
}
