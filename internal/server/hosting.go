package server

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mlefevre/amicale-client/internal/lifecycle"
	"github.com/mlefevre/amicale-client/internal/models"
)

func (s *Server) listHostings(c *gin.Context) {
	filter := HostingFilter{}
	if raw := c.Query("event"); raw != "" {
		eventID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"event": []string{"invalid event id"}})
			return
		}
		filter.EventID = uint(eventID)
	} else {
		filter.HostID = authedUser(c).ID
	}

	hostings, err := s.store.Hostings(c.Request.Context(), filter)
	if err != nil {
		s.internalError(c, err)
		return
	}
	for i := range hostings {
		if err := s.decorateHosting(c.Request.Context(), &hostings[i]); err != nil {
			s.internalError(c, err)
			return
		}
	}
	c.JSON(200, paginate(c, hostings))
}

func (s *Server) createHosting(c *gin.Context) {
	var input struct {
		Event           uint    `json:"event" binding:"required"`
		AvailableBeds   int     `json:"available_beds" binding:"gte=0"`
		CustomRules     *string `json:"custom_rules"`
		AddressOverride *string `json:"address_override"`
		CityOverride    *string `json:"city_override"`
		ZipCodeOverride *string `json:"zip_code_override"`
		CountryOverride *string `json:"country_override"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"detail": err.Error()})
		return
	}

	ctx := c.Request.Context()
	event, err := s.store.EventByID(ctx, input.Event)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(400, gin.H{"event": []string{"event not found"}})
			return
		}
		s.internalError(c, err)
		return
	}

	// Unset fields fall back to the host's profile, same as the
	// frontend pre-filling the offer form from account settings.
	user := authedUser(c)
	if input.AvailableBeds == 0 {
		input.AvailableBeds = user.HomeAvailableBeds
	}
	if input.CustomRules == nil && user.HomeRules != "" {
		rules := user.HomeRules
		input.CustomRules = &rules
	}

	hosting := models.EventHosting{
		Event:           models.ExpandedRef(*event),
		Host:            *user,
		EventID:         event.ID,
		HostID:          user.ID,
		AvailableBeds:   input.AvailableBeds,
		CustomRules:     input.CustomRules,
		AddressOverride: input.AddressOverride,
		CityOverride:    input.CityOverride,
		ZipCodeOverride: input.ZipCodeOverride,
		CountryOverride: input.CountryOverride,
		IsActive:        true,
	}
	if err := s.store.CreateHosting(ctx, &hosting); err != nil {
		if errors.Is(err, ErrDuplicate) {
			c.JSON(400, gin.H{"event": []string{"you already offer hosting for this event"}})
			return
		}
		s.internalError(c, err)
		return
	}
	if err := s.decorateHosting(ctx, &hosting); err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(201, hosting)
}

func (s *Server) listHostingRequests(c *gin.Context) {
	user := authedUser(c)
	ctx := c.Request.Context()

	var requests []models.EventHostingRequest
	var err error
	switch {
	case c.Query("as_host") == "true":
		requests, err = s.store.HostingRequests(ctx, HostingRequestFilter{HostID: user.ID})
	case c.Query("as_requester") == "true":
		requests, err = s.store.HostingRequests(ctx, HostingRequestFilter{RequesterID: user.ID})
	default:
		var received, sent []models.EventHostingRequest
		received, err = s.store.HostingRequests(ctx, HostingRequestFilter{HostID: user.ID})
		if err == nil {
			sent, err = s.store.HostingRequests(ctx, HostingRequestFilter{RequesterID: user.ID})
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
	c.JSON(200, paginate(c, requests))
}

func (s *Server) createHostingRequest(c *gin.Context) {
	var input struct {
		HostingID uint    `json:"hosting_id" binding:"required"`
		Message   *string `json:"message"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"detail": err.Error()})
		return
	}

	ctx := c.Request.Context()
	hosting, err := s.store.HostingByID(ctx, input.HostingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(400, gin.H{"hosting_id": []string{"hosting not found"}})
			return
		}
		s.internalError(c, err)
		return
	}

	user := authedUser(c)
	sent, err := s.store.HostingRequests(ctx, HostingRequestFilter{RequesterID: user.ID, EventID: hosting.EventID})
	if err != nil {
		s.internalError(c, err)
		return
	}
	refs := make([]lifecycle.RequestRef, 0, len(sent))
	for _, request := range sent {
		refs = append(refs, lifecycle.RequestRef{EventID: hosting.EventID, Status: request.Status})
	}
	if err := lifecycle.CheckHostingRequest(hosting.HostID, user.ID, hosting.EventID, refs); err != nil {
		if !s.ruleError(c, err) {
			s.internalError(c, err)
		}
		return
	}

	request := models.EventHostingRequest{
		Hosting:     models.ExpandedRef(*hosting),
		Requester:   models.ExpandedRef(*user),
		HostingID:   hosting.ID,
		RequesterID: user.ID,
		Status:      lifecycle.StatusPending,
		Message:     input.Message,
	}
	if err := s.store.CreateHostingRequest(ctx, &request); err != nil {
		if errors.Is(err, ErrDuplicate) {
			c.JSON(400, gin.H{"hosting": []string{"you have already requested this hosting"}})
			return
		}
		s.internalError(c, err)
		return
	}
	c.JSON(201, request)
}

// updateHostingRequest is the host accepting or rejecting, or the
// requester cancelling. Bed capacity is re-checked at accept time.
func (s *Server) updateHostingRequest(c *gin.Context) {
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(404, gin.H{"detail": "Not found."})
		return
	}

	var input struct {
		Status      lifecycle.Status `json:"status" binding:"required"`
		HostMessage *string          `json:"host_message"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"detail": err.Error()})
		return
	}

	ctx := c.Request.Context()
	request, err := s.store.HostingRequestByID(ctx, uint(requestID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(404, gin.H{"detail": "Not found."})
			return
		}
		s.internalError(c, err)
		return
	}

	hosting, err := s.store.HostingByID(ctx, request.HostingID)
	if err != nil {
		s.internalError(c, err)
		return
	}

	user := authedUser(c)
	if err := lifecycle.CheckHostingTransition(hosting.HostID, request.RequesterID, user.ID, request.Status, input.Status); err != nil {
		if !s.ruleError(c, err) {
			s.internalError(c, err)
		}
		return
	}

	if input.Status == lifecycle.StatusAccepted {
		if err := s.decorateHosting(ctx, hosting); err != nil {
			s.internalError(c, err)
			return
		}
		if err := lifecycle.CheckBedCapacity(hosting.AvailableBedsRemaining); err != nil {
			if !s.ruleError(c, err) {
				s.internalError(c, err)
			}
			return
		}
	}

	request.Status = input.Status
	if input.HostMessage != nil {
		request.HostMessage = input.HostMessage
	}
	if err := s.store.UpdateHostingRequest(ctx, request); err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(200, request)
}
