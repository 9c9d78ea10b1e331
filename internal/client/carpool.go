package client

import (
	"context"
	"net/url"

	"github.com/mlefevre/amicale-client/internal/lifecycle"
	"github.com/mlefevre/amicale-client/internal/models"
)

// carpoolRequestFields is the error-body priority for request
// creation. The serializer may report the problem on any of these.
var carpoolRequestFields = []string{"passenger", "trip_id", "trip", "seats_requested", "message"}

func (c *Client) EventCarpoolTrips(ctx context.Context, eventID uint) (models.Paginated[models.CarpoolTrip], error) {
	query := url.Values{"event": {itoa(eventID)}}
	return getPage[models.CarpoolTrip](ctx, c, "/api/event/carpool-trips/", query)
}

func (c *Client) UserCarpoolTrips(ctx context.Context) (models.Paginated[models.CarpoolTrip], error) {
	query := url.Values{"as_driver": {"true"}}
	return getPage[models.CarpoolTrip](ctx, c, "/api/event/carpool-trips/", query)
}

type CreateTripInput struct {
	Event             uint    `json:"event"`
	DepartureCity     string  `json:"departure_city"`
	DepartureAddress  *string `json:"departure_address,omitempty"`
	ArrivalCity       string  `json:"arrival_city"`
	ArrivalAddress    *string `json:"arrival_address,omitempty"`
	DepartureDatetime string  `json:"departure_datetime"`
	ReturnDatetime    *string `json:"return_datetime,omitempty"`
	HasReturn         bool    `json:"has_return"`
	SeatsTotal        int     `json:"seats_total"`
	PricePerSeat      string  `json:"price_per_seat"`
	AdditionalInfo    *string `json:"additional_info,omitempty"`
}

func (c *Client) CreateCarpoolTrip(ctx context.Context, input CreateTripInput) (*models.CarpoolTrip, error) {
	var trip models.CarpoolTrip
	err := c.post(ctx, "/api/event/carpool-trips/", input, &trip,
		[]string{"event", "seats_total", "price_per_seat", "departure_city", "arrival_city"})
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

func (c *Client) CreateCarpoolRequest(ctx context.Context, tripID uint, seatsRequested int, message *string) (*models.CarpoolRequest, error) {
	body := map[string]any{"trip_id": tripID, "seats_requested": seatsRequested}
	if message != nil {
		body["message"] = *message
	}
	var request models.CarpoolRequest
	if err := c.post(ctx, "/api/event/carpool-requests/", body, &request, carpoolRequestFields); err != nil {
		return nil, err
	}
	return &request, nil
}

func (c *Client) ReceivedCarpoolRequests(ctx context.Context) (models.Paginated[models.CarpoolRequest], error) {
	query := url.Values{"as_driver": {"true"}}
	return getPage[models.CarpoolRequest](ctx, c, "/api/event/carpool-requests/", query)
}

func (c *Client) SentCarpoolRequests(ctx context.Context) (models.Paginated[models.CarpoolRequest], error) {
	query := url.Values{"as_passenger": {"true"}}
	return getPage[models.CarpoolRequest](ctx, c, "/api/event/carpool-requests/", query)
}

// UpdateCarpoolRequestStatus moves a request to a terminal status. The
// backend re-checks seat capacity on accept; a "seats" validation
// error here means another accept won the race and the caller should
// re-fetch rather than retry.
func (c *Client) UpdateCarpoolRequestStatus(ctx context.Context, requestID uint, status lifecycle.Status, responseMessage *string) (*models.CarpoolRequest, error) {
	body := map[string]any{"status": status}
	if responseMessage != nil {
		body["response_message"] = *responseMessage
	}
	var request models.CarpoolRequest
	err := c.patch(ctx, "/api/event/carpool-requests/"+itoa(requestID)+"/", body, &request,
		[]string{"status", "seats_requested"})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (c *Client) RequestPayments(ctx context.Context, requestID uint) (models.Paginated[models.CarpoolPayment], error) {
	query := url.Values{"request": {itoa(requestID)}}
	return getPage[models.CarpoolPayment](ctx, c, "/api/event/carpool-payments/", query)
}

type CreatePaymentInput struct {
	RequestID     uint    `json:"request_id"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
	PaymentNotes  *string `json:"payment_notes,omitempty"`
	IsCompleted   bool    `json:"is_completed"`
}

func (c *Client) CreateCarpoolPayment(ctx context.Context, input CreatePaymentInput) (*models.CarpoolPayment, error) {
	var payment models.CarpoolPayment
	err := c.post(ctx, "/api/event/carpool-payments/", input, &payment,
		[]string{"request_id", "amount", "payment_method"})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
