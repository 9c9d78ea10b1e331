package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mlefevre/amicale-client/internal/lifecycle"
	"github.com/mlefevre/amicale-client/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// paginate slices items into the DRF envelope, honoring ?page= and
// ?page_size=.
func paginate[T any](c *gin.Context, items []T) models.Paginated[T] {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	total := len(items)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	envelope := models.Paginated[T]{
		Count:   total,
		Results: items[start:end],
	}
	if envelope.Results == nil {
		envelope.Results = []T{}
	}
	if end < total {
		next := pageURL(c, page+1)
		envelope.Next = &next
	}
	if page > 1 {
		previous := pageURL(c, page-1)
		envelope.Previous = &previous
	}
	return envelope
}

func pageURL(c *gin.Context, page int) string {
	u := *c.Request.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + u.String()
}

// ruleError writes a lifecycle violation as a DRF-style field error
// body and reports whether it handled the error.
func (s *Server) ruleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	var rule *lifecycle.RuleError
	if errors.As(err, &rule) {
		c.JSON(400, gin.H{rule.Field: []string{rule.Message}})
		return true
	}
	return false
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.log.WithError(err).Error("request failed")
	c.JSON(500, gin.H{"detail": "Internal server error."})
}

// decorateTrip fills the derived seat fields from accepted requests.
func (s *Server) decorateTrip(ctx context.Context, trip *models.CarpoolTrip) error {
	taken, err := s.store.AcceptedSeats(ctx, trip.ID)
	if err != nil {
		return err
	}
	trip.SeatsAvailable = trip.SeatsTotal - taken
	if trip.SeatsAvailable < 0 {
		trip.SeatsAvailable = 0
	}
	trip.IsFull = trip.SeatsAvailable == 0
	return nil
}

// decorateCarpoolRequest fills payment-derived fields and the nested
// trip's seat counters.
func (s *Server) decorateCarpoolRequest(ctx context.Context, request *models.CarpoolRequest) error {
	if err := s.decorateTrip(ctx, &request.Trip); err != nil {
		return err
	}
	payments, err := s.store.Payments(ctx, request.ID)
	if err != nil {
		return err
	}
	request.IsPaid = false
	request.TotalPaid = 0
	for _, payment := range payments {
		request.TotalPaid += payment.Amount
		if payment.IsCompleted {
			request.IsPaid = true
		}
	}
	// price_per_seat is validated numeric at trip creation; a parse
	// failure here means the stored row is corrupt.
	price, err := strconv.ParseFloat(request.Trip.PricePerSeat, 64)
	if err != nil {
		return fmt.Errorf("trip %d: bad price_per_seat %q: %w", request.Trip.ID, request.Trip.PricePerSeat, err)
	}
	request.ExpectedAmount = price * float64(request.SeatsRequested)
	return nil
}

// decorateHosting fills the remaining-beds counter; each accepted
// request takes one bed.
func (s *Server) decorateHosting(ctx context.Context, hosting *models.EventHosting) error {
	accepted, err := s.store.HostingRequests(ctx, HostingRequestFilter{
		HostingID: hosting.ID,
		Statuses:  []lifecycle.Status{lifecycle.StatusAccepted},
	})
	if err != nil {
		return err
	}
	hosting.AvailableBedsRemaining = hosting.AvailableBeds - len(accepted)
	if hosting.AvailableBedsRemaining < 0 {
		hosting.AvailableBedsRemaining = 0
	}
	return nil
}

// decorateEvent fills the RSVP breakdown.
func (s *Server) decorateEvent(ctx context.Context, event *models.Event) error {
	subscriptions, err := s.store.Subscriptions(ctx, event.ID)
	if err != nil {
		return err
	}
	breakdown := &models.SubscriptionBreakdown{}
	for _, subscription := range subscriptions {
		switch subscription.Answer {
		case models.AnswerYes:
			breakdown.Yes++
		case models.AnswerNo:
			breakdown.No++
		case models.AnswerMaybe:
			breakdown.Maybe++
		}
	}
	event.SubscriptionsCount = breakdown
	return nil
}
