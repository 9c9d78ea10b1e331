package client

import (
	"context"
	"net/url"

	"github.com/mlefevre/amicale-client/internal/lifecycle"
	"github.com/mlefevre/amicale-client/internal/models"
)

var hostingRequestFields = []string{"requester", "hosting_id", "hosting", "message"}

func (c *Client) EventHostings(ctx context.Context, eventID uint) (models.Paginated[models.EventHosting], error) {
	query := url.Values{"event": {itoa(eventID)}}
	return getPage[models.EventHosting](ctx, c, "/api/event/event-hostings/", query)
}

func (c *Client) UserHostings(ctx context.Context) (models.Paginated[models.EventHosting], error) {
	return getPage[models.EventHosting](ctx, c, "/api/event/event-hostings/", nil)
}

type CreateHostingInput struct {
	Event           uint    `json:"event"`
	AvailableBeds   int     `json:"available_beds"`
	CustomRules     *string `json:"custom_rules,omitempty"`
	AddressOverride *string `json:"address_override,omitempty"`
	CityOverride    *string `json:"city_override,omitempty"`
	ZipCodeOverride *string `json:"zip_code_override,omitempty"`
	CountryOverride *string `json:"country_override,omitempty"`
}

func (c *Client) CreateEventHosting(ctx context.Context, input CreateHostingInput) (*models.EventHosting, error) {
	var hosting models.EventHosting
	err := c.post(ctx, "/api/event/event-hostings/", input, &hosting,
		[]string{"event", "available_beds"})
	if err != nil {
		return nil, err
	}
	return &hosting, nil
}

func (c *Client) CreateEventHostingRequest(ctx context.Context, hostingID uint, message *string) (*models.EventHostingRequest, error) {
	body := map[string]any{"hosting_id": hostingID}
	if message != nil {
		body["message"] = *message
	}
	var request models.EventHostingRequest
	if err := c.post(ctx, "/api/event/event-hosting-requests/", body, &request, hostingRequestFields); err != nil {
		return nil, err
	}
	return &request, nil
}

func (c *Client) ReceivedHostingRequests(ctx context.Context) (models.Paginated[models.EventHostingRequest], error) {
	query := url.Values{"as_host": {"true"}}
	return getPage[models.EventHostingRequest](ctx, c, "/api/event/event-hosting-requests/", query)
}

func (c *Client) SentHostingRequests(ctx context.Context) (models.Paginated[models.EventHostingRequest], error) {
	query := url.Values{"as_requester": {"true"}}
	return getPage[models.EventHostingRequest](ctx, c, "/api/event/event-hosting-requests/", query)
}

func (c *Client) UpdateHostingRequestStatus(ctx context.Context, requestID uint, status lifecycle.Status, hostMessage *string) (*models.EventHostingRequest, error) {
	body := map[string]any{"status": status}
	if hostMessage != nil {
		body["host_message"] = *hostMessage
	}
	var request models.EventHostingRequest
	err := c.patch(ctx, "/api/event/event-hosting-requests/"+itoa(requestID)+"/", body, &request,
		[]string{"status"})
	if err != nil {
		return nil, err
	}
	return &request, nil
}
