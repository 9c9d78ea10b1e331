package server

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mlefevre/amicale-client/internal/models"
)

func (s *Server) listEvents(c *gin.Context) {
	events, err := s.store.Events(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}
	for i := range events {
		if err := s.decorateEvent(c.Request.Context(), &events[i]); err != nil {
			s.internalError(c, err)
			return
		}
	}
	c.JSON(200, paginate(c, events))
}

// createEvent is limited to staff, mirroring the association's
// board-only event administration.
func (s *Server) createEvent(c *gin.Context) {
	user := authedUser(c)
	if !user.IsStaff {
		c.JSON(403, gin.H{"detail": "You do not have permission to perform this action."})
		return
	}

	var input struct {
		Name        string    `json:"name" binding:"required"`
		Description *string   `json:"description"`
		Location    string    `json:"location"`
		StartDate   time.Time `json:"start_date" binding:"required"`
		EndDate     time.Time `json:"end_date" binding:"required"`
		URLSignup   *string   `json:"url_signup"`
		URLWebsite  *string   `json:"url_website"`
		Prices      *string   `json:"prices"`
		Type        string    `json:"type"`
		IsPublic    bool      `json:"is_public"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"detail": err.Error()})
		return
	}

	event := models.Event{
		Name:        input.Name,
		Description: input.Description,
		Location:    input.Location,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		URLSignup:   input.URLSignup,
		URLWebsite:  input.URLWebsite,
		Prices:      input.Prices,
		Type:        input.Type,
		IsPublic:    input.IsPublic,
		IsActive:    true,
	}
	if err := s.store.CreateEvent(c.Request.Context(), &event); err != nil {
		s.internalError(c, err)
		return
	}
	if err := s.decorateEvent(c.Request.Context(), &event); err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(201, event)
}

// subscribe records or updates the caller's RSVP for an event. One row
// per (user, event); repeat calls update in place.
func (s *Server) subscribe(c *gin.Context) {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(404, gin.H{"detail": "Not found."})
		return
	}
	if _, err := s.store.EventByID(c.Request.Context(), uint(eventID)); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(404, gin.H{"detail": "Not found."})
			return
		}
		s.internalError(c, err)
		return
	}

	var input struct {
		Answer    models.Answer `json:"answer"`
		CanInvite bool          `json:"can_invite"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"detail": err.Error()})
		return
	}
	if input.Answer == "" {
		input.Answer = models.AnswerYes
	}
	if !input.Answer.Valid() {
		c.JSON(400, gin.H{"answer": []string{"answer must be one of YES, NO, MAYBE"}})
		return
	}

	subscription := models.EventSubscription{
		EventID:   uint(eventID),
		UserID:    authedUser(c).ID,
		Answer:    input.Answer,
		CanInvite: input.CanInvite,
		IsActive:  true,
	}
	if err := s.store.UpsertSubscription(c.Request.Context(), &subscription); err != nil {
		s.internalError(c, err)
		return
	}

	c.JSON(200, models.SubscribeAction{
		ID:        subscription.ID,
		Answer:    subscription.Answer,
		CanInvite: subscription.CanInvite,
	})
}
