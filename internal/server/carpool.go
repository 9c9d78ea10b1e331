package server

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mlefevre/amicale-client/internal/lifecycle"
	"github.com/mlefevre/amicale-client/internal/models"
)

func (s *Server) listTrips(c *gin.Context) {
	filter := TripFilter{}
	if raw := c.Query("event"); raw != "" {
		eventID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"event": []string{"invalid event id"}})
			return
		}
		filter.EventID = uint(eventID)
	}
	if c.Query("as_driver") == "true" {
		filter.DriverID = authedUser(c).ID
	}

	trips, err := s.store.Trips(c.Request.Context(), filter)
	if err != nil {
		s.internalError(c, err)
		return
	}
	for i := range trips {
		if err := s.decorateTrip(c.Request.Context(), &trips[i]); err != nil {
			s.internalError(c, err)
			return
		}
	}
	c.JSON(200, paginate(c, trips))
}

func (s *Server) createTrip(c *gin.Context) {
	var input struct {
		Event             uint       `json:"event" binding:"required"`
		DepartureCity     string     `json:"departure_city" binding:"required"`
		DepartureAddress  *string    `json:"departure_address"`
		ArrivalCity       string     `json:"arrival_city" binding:"required"`
		ArrivalAddress    *string    `json:"arrival_address"`
		DepartureDatetime time.Time  `json:"departure_datetime" binding:"required"`
		ReturnDatetime    *time.Time `json:"return_datetime"`
		HasReturn         bool       `json:"has_return"`
		SeatsTotal        int        `json:"seats_total" binding:"required,gte=1"`
		PricePerSeat      string     `json:"price_per_seat" binding:"required,numeric"`
		AdditionalInfo    *string    `json:"additional_info"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"detail": err.Error()})
		return
	}

	event, err := s.store.EventByID(c.Request.Context(), input.Event)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(400, gin.H{"event": []string{"event not found"}})
			return
		}
		s.internalError(c, err)
		return
	}

	user := authedUser(c)
	trip := models.CarpoolTrip{
		Driver:            *user,
		Event:             *event,
		DriverID:          user.ID,
		EventID:           event.ID,
		DepartureCity:     input.DepartureCity,
		DepartureAddress:  input.DepartureAddress,
		ArrivalCity:       input.ArrivalCity,
		ArrivalAddress:    input.ArrivalAddress,
		DepartureDatetime: input.DepartureDatetime,
		ReturnDatetime:    input.ReturnDatetime,
		HasReturn:         input.HasReturn,
		SeatsTotal:        input.SeatsTotal,
		PricePerSeat:      input.PricePerSeat,
		AdditionalInfo:    input.AdditionalInfo,
		IsActive:          true,
	}
	if err := s.store.CreateTrip(c.Request.Context(), &trip); err != nil {
		s.internalError(c, err)
		return
	}
	if err := s.decorateTrip(c.Request.Context(), &trip); err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(201, trip)
}

func (s *Server) listCarpoolRequests(c *gin.Context) {
	user := authedUser(c)
	ctx := c.Request.Context()

	var requests []models.CarpoolRequest
	var err error
	switch {
	case c.Query("as_driver") == "true":
		requests, err = s.store.CarpoolRequests(ctx, CarpoolRequestFilter{DriverID: user.ID})
	case c.Query("as_passenger") == "true":
		requests, err = s.store.CarpoolRequests(ctx, CarpoolRequestFilter{PassengerID: user.ID})
	default:
		// Without a role filter the caller sees both sides, like the
		// backend's involvement-scoped queryset.
		var received, sent []models.CarpoolRequest
		received, err = s.store.CarpoolRequests(ctx, CarpoolRequestFilter{DriverID: user.ID})
		if err == nil {
			sent, err = s.store.CarpoolRequests(ctx, CarpoolRequestFilter{PassengerID: user.ID})
		}
		seen := map[uint]bool{}
		for _, request := range append(received, sent...) {
			if !seen[request.ID] {
				seen[request.ID] = true
				requests = append(requests, request)
			}
		}
	}
	if err != nil {
		s.internalError(c, err)
		return
	}

	for i := range requests {
		if err := s.decorateCarpoolRequest(ctx, &requests[i]); err != nil {
			s.internalError(c, err)
			return
		}
	}
	c.JSON(200, paginate(c, requests))
}

func (s *Server) createCarpoolRequest(c *gin.Context) {
	var input struct {
		TripID         uint    `json:"trip_id" binding:"required"`
		SeatsRequested int     `json:"seats_requested"`
		Message        *string `json:"message"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"detail": err.Error()})
		return
	}
	if input.SeatsRequested == 0 {
		input.SeatsRequested = 1
	}

	ctx := c.Request.Context()
	trip, err := s.store.TripByID(ctx, input.TripID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(400, gin.H{"trip_id": []string{"trip not found"}})
			return
		}
		s.internalError(c, err)
		return
	}
	if err := s.decorateTrip(ctx, trip); err != nil {
		s.internalError(c, err)
		return
	}

	user := authedUser(c)
	if err := lifecycle.CheckCarpoolRequest(trip.DriverID, user.ID, trip.SeatsAvailable, input.SeatsRequested); err != nil {
		if !s.ruleError(c, err) {
			s.internalError(c, err)
		}
		return
	}

	request := models.CarpoolRequest{
		Passenger:      *user,
		Trip:           *trip,
		PassengerID:    user.ID,
		TripID:         trip.ID,
		Status:         lifecycle.StatusPending,
		SeatsRequested: input.SeatsRequested,
		Message:        input.Message,
		IsActive:       true,
	}
	if err := s.store.CreateCarpoolRequest(ctx, &request); err != nil {
		if errors.Is(err, ErrDuplicate) {
			c.JSON(400, gin.H{"trip": []string{"you have already requested a seat on this trip"}})
			return
		}
		s.internalError(c, err)
		return
	}
	if err := s.decorateCarpoolRequest(ctx, &request); err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(201, request)
}

// updateCarpoolRequest moves a request out of PENDING. The driver
// accepts or rejects; the passenger cancels. Seat capacity is
// re-checked here, against current accepted seats, so a second accept
// that would overflow the trip fails no matter what the caller saw.
func (s *Server) updateCarpoolRequest(c *gin.Context) {
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(404, gin.H{"detail": "Not found."})
		return
	}

	var input struct {
		Status          lifecycle.Status `json:"status" binding:"required"`
		ResponseMessage *string          `json:"response_message"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"detail": err.Error()})
		return
	}

	ctx := c.Request.Context()
	request, err := s.store.CarpoolRequestByID(ctx, uint(requestID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(404, gin.H{"detail": "Not found."})
			return
		}
		s.internalError(c, err)
		return
	}

	user := authedUser(c)
	if err := lifecycle.CheckCarpoolTransition(request.Trip.DriverID, request.PassengerID, user.ID, request.Status, input.Status); err != nil {
		if !s.ruleError(c, err) {
			s.internalError(c, err)
		}
		return
	}

	if input.Status == lifecycle.StatusAccepted {
		if err := s.decorateTrip(ctx, &request.Trip); err != nil {
			s.internalError(c, err)
			return
		}
		if err := lifecycle.CheckSeatCapacity(request.Trip.SeatsAvailable, request.SeatsRequested); err != nil {
			if !s.ruleError(c, err) {
				s.internalError(c, err)
			}
			return
		}
	}

	request.Status = input.Status
	if input.ResponseMessage != nil {
		request.ResponseMessage = input.ResponseMessage
	}
	if err := s.store.UpdateCarpoolRequest(ctx, request); err != nil {
		s.internalError(c, err)
		return
	}
	if err := s.decorateCarpoolRequest(ctx, request); err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(200, request)
}

func (s *Server) listPayments(c *gin.Context) {
	raw := c.Query("request")
	if raw == "" {
		c.JSON(400, gin.H{"request": []string{"request query parameter is required"}})
		return
	}
	requestID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"request": []string{"invalid request id"}})
		return
	}

	ctx := c.Request.Context()
	request, err := s.store.CarpoolRequestByID(ctx, uint(requestID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(404, gin.H{"detail": "Not found."})
			return
		}
		s.internalError(c, err)
		return
	}

	user := authedUser(c)
	if request.PassengerID != user.ID && request.Trip.DriverID != user.ID {
		c.JSON(403, gin.H{"detail": "You do not have permission to perform this action."})
		return
	}

	payments, err := s.store.Payments(ctx, request.ID)
	if err != nil {
		s.internalError(c, err)
		return
	}
	for i := range payments {
		payments[i].Request = models.IDRef[models.CarpoolRequest](request.ID)
	}
	c.JSON(200, paginate(c, payments))
}

func (s *Server) createPayment(c *gin.Context) {
	var input struct {
		RequestID     uint    `json:"request_id" binding:"required"`
		Amount        float64 `json:"amount" binding:"required,gt=0"`
		PaymentMethod string  `json:"payment_method" binding:"required"`
		PaymentNotes  *string `json:"payment_notes"`
		IsCompleted   bool    `json:"is_completed"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"detail": err.Error()})
		return
	}

	ctx := c.Request.Context()
	request, err := s.store.CarpoolRequestByID(ctx, input.RequestID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(400, gin.H{"request_id": []string{"request not found"}})
			return
		}
		s.internalError(c, err)
		return
	}

	user := authedUser(c)
	if request.PassengerID != user.ID && request.Trip.DriverID != user.ID {
		c.JSON(403, gin.H{"detail": "You do not have permission to perform this action."})
		return
	}

	payment := models.CarpoolPayment{
		Request:       models.IDRef[models.CarpoolRequest](request.ID),
		RequestID:     request.ID,
		Amount:        input.Amount,
		PaymentMethod: input.PaymentMethod,
		PaymentNotes:  input.PaymentNotes,
		IsCompleted:   input.IsCompleted,
	}
	if err := s.store.CreatePayment(ctx, &payment); err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(201, payment)
}
