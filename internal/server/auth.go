package server

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mlefevre/amicale-client/internal/models"
)

// config reports the API version and whether the caller holds a live
// session. It is also the cheapest way for a client to obtain the
// csrftoken cookie.
func (s *Server) config(c *gin.Context) {
	_, authenticated := s.sessionUserID(c)
	c.JSON(200, gin.H{
		"version":          s.version,
		"is_authenticated": authenticated,
	})
}

// register creates a member account and opens a session.
func (s *Server) register(c *gin.Context) {
	var input struct {
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required,min=8"`
		FirstName string `json:"first_name" binding:"required"`
		LastName  string `json:"last_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"detail": err.Error()})
		return
	}

	user := models.User{
		Email:     input.Email,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		IsActive:  true,
	}
	if err := user.HashPassword(); err != nil {
		s.internalError(c, err)
		return
	}
	if err := s.store.CreateUser(c.Request.Context(), &user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			c.JSON(400, gin.H{"email": []string{"a user with this email already exists"}})
			return
		}
		s.internalError(c, err)
		return
	}

	s.openSession(c, user.ID)
	c.JSON(201, user)
}

// login opens a session against email/password credentials.
func (s *Server) login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"detail": err.Error()})
		return
	}

	user, err := s.store.UserByEmail(c.Request.Context(), input.Email)
	if err != nil {
		c.JSON(400, gin.H{"detail": "Invalid credentials."})
		return
	}
	if err := user.CheckPassword(input.Password); err != nil {
		c.JSON(400, gin.H{"detail": "Invalid credentials."})
		return
	}

	now := time.Now()
	user.LastLogin = &now
	s.openSession(c, user.ID)
	c.JSON(200, user)
}

func (s *Server) logout(c *gin.Context) {
	s.closeSession(c)
	c.JSON(200, gin.H{"detail": "Logged out."})
}

// currentUser returns the profile bound to the session.
func (s *Server) currentUser(c *gin.Context) {
	c.JSON(200, authedUser(c))
}
