package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"grove/internal/models"
	"grove/internal/service"
)

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		abort(c, http.StatusBadRequest, "BAD_REQUEST", name+": must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		badRequest(c, err)
		return false
	}
	return true
}

// auth

func (s *Server) register(c *gin.Context) {
	var in service.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	u, err := s.Users.Register(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := signIn(c, u.ID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (s *Server) login(c *gin.Context) {
	var in service.LoginInput
	if !bindJSON(c, &in) {
		return
	}
	u, err := s.Users.Login(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := signIn(c, u.ID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) logout(c *gin.Context) {
	if err := signOut(c); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// session reports who is signed in, if anyone, and the cart size.
func (s *Server) session(c *gin.Context) {
	var user *models.User
	if uid, ok := sessionUID(c); ok {
		if u, err := s.Users.Get(c.Request.Context(), uid); err == nil && u.Active {
			user = &u
		}
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "cartCount": getCart(c).Count()})
}

// reviews

func (s *Server) createReview(c *gin.Context) {
	var in service.ReviewInput
	if !bindJSON(c, &in) {
		return
	}
	rv, err := s.Reviews.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rv)
}

func (s *Server) productReviews(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rs, err := s.Reviews.ForProduct(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rs)
}

func (s *Server) userReviews(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rs, err := s.Reviews.ForUser(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rs)
}
