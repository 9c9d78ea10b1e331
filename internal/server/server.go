package server

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mlefevre/amicale-client/internal/models"
)

const (
	sessionCookie = "sessionid"
	csrfCookie    = "csrftoken"
	csrfHeader    = "X-CSRFToken"

	sessionMaxAge = 14 * 24 * 60 * 60
	csrfMaxAge    = 365 * 24 * 60 * 60
)

// Server is the reference implementation of the REST contract the SDK
// consumes: cookie sessions, CSRF double-submit, DRF-style pagination
// envelopes and field-keyed error bodies.
type Server struct {
	store   Store
	log     *logrus.Logger
	version string

	mu       sync.Mutex
	sessions map[string]uint
}

func New(store Store, log *logrus.Logger) *Server {
	return &Server{
		store:    store,
		log:      log,
		version:  "1.0.0",
		sessions: make(map[string]uint),
	}
}

// Router builds the gin engine with all routes registered. Extra
// middleware (CORS in the dev binary) runs before the CSRF layer.
func (s *Server) Router(middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware...)
	router.Use(s.ensureCSRFCookie())
	router.Use(s.checkCSRF())

	api := router.Group("/api")
	{
		api.GET("/config/", s.config)

		auth := api.Group("/auth")
		{
			auth.POST("/register/", s.register)
			auth.POST("/login/", s.login)
			auth.POST("/logout/", s.requireAuth(), s.logout)
		}

		user := api.Group("/user", s.requireAuth())
		{
			user.GET("/me/", s.currentUser)
		}

		event := api.Group("/event", s.requireAuth())
		{
			event.GET("/events/", s.listEvents)
			event.POST("/events/", s.createEvent)
			event.POST("/events/:id/subscribe/", s.subscribe)

			event.GET("/carpool-trips/", s.listTrips)
			event.POST("/carpool-trips/", s.createTrip)

			event.GET("/carpool-requests/", s.listCarpoolRequests)
			event.POST("/carpool-requests/", s.createCarpoolRequest)
			event.PATCH("/carpool-requests/:id/", s.updateCarpoolRequest)

			event.GET("/carpool-payments/", s.listPayments)
			event.POST("/carpool-payments/", s.createPayment)

			event.GET("/event-hostings/", s.listHostings)
			event.POST("/event-hostings/", s.createHosting)

			event.GET("/event-hosting-requests/", s.listHostingRequests)
			event.POST("/event-hosting-requests/", s.createHostingRequest)
			event.PATCH("/event-hosting-requests/:id/", s.updateHostingRequest)
		}
	}

	return router
}

func newToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

func (s *Server) openSession(c *gin.Context, userID uint) {
	sid := newToken()
	s.mu.Lock()
	s.sessions[sid] = userID
	s.mu.Unlock()
	c.SetCookie(sessionCookie, sid, sessionMaxAge, "/", "", false, true)
	c.SetCookie(csrfCookie, newToken(), csrfMaxAge, "/", "", false, false)
}

func (s *Server) closeSession(c *gin.Context) {
	if sid, err := c.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, sid)
		s.mu.Unlock()
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
}

func (s *Server) sessionUserID(c *gin.Context) (uint, bool) {
	sid, err := c.Cookie(sessionCookie)
	if err != nil {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.sessions[sid]
	return userID, ok
}

// ensureCSRFCookie sets the csrftoken cookie on responses to requests
// that arrived without one, so a client can bootstrap from any GET.
func (s *Server) ensureCSRFCookie() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := c.Cookie(csrfCookie); err != nil {
			c.SetCookie(csrfCookie, newToken(), csrfMaxAge, "/", "", false, false)
		}
		c.Next()
	}
}

// checkCSRF enforces the double-submit check on every mutating method:
// the X-CSRFToken header must match the csrftoken cookie.
func (s *Server) checkCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case "POST", "PUT", "PATCH", "DELETE":
		default:
			c.Next()
			return
		}
		cookie, err := c.Cookie(csrfCookie)
		if err != nil {
			c.JSON(403, gin.H{"detail": "CSRF Failed: CSRF cookie not set."})
			c.Abort()
			return
		}
		header := c.GetHeader(csrfHeader)
		if header == "" || header != cookie {
			c.JSON(403, gin.H{"detail": "CSRF Failed: CSRF token missing or incorrect."})
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireAuth resolves the session cookie into a user and stores it in
// the context.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := s.sessionUserID(c)
		if !ok {
			c.JSON(401, gin.H{"detail": "Authentication credentials were not provided."})
			c.Abort()
			return
		}
		user, err := s.store.UserByID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(401, gin.H{"detail": "Invalid session."})
			c.Abort()
			return
		}
		c.Set("user", user)
		c.Next()
	}
}

func authedUser(c *gin.Context) *models.User {
	return c.MustGet("user").(*models.User)
}
