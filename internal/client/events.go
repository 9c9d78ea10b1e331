package client

import (
	"context"
	"net/url"

	"github.com/mlefevre/amicale-client/internal/models"
)

// getPage fetches a paginated collection. A malformed item anywhere in
// the page fails the whole call.
func getPage[T any](ctx context.Context, c *Client, path string, query url.Values) (models.Paginated[T], error) {
	var page models.Paginated[T]
	if err := c.get(ctx, path, query, &page); err != nil {
		return models.Paginated[T]{}, err
	}
	return page, nil
}

func (c *Client) Events(ctx context.Context) (models.Paginated[models.Event], error) {
	return getPage[models.Event](ctx, c, "/api/event/events/", nil)
}

// Subscribe records the caller's RSVP. Re-subscribing to the same
// event updates the existing answer rather than duplicating it.
func (c *Client) Subscribe(ctx context.Context, eventID uint, answer models.Answer, canInvite bool) (*models.SubscribeAction, error) {
	body := map[string]any{"answer": answer, "can_invite": canInvite}
	var action models.SubscribeAction
	err := c.post(ctx, "/api/event/events/"+itoa(eventID)+"/subscribe/", body, &action,
		[]string{"answer"})
	if err != nil {
		return nil, err
	}
	return &action, nil
}
