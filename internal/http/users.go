package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grove/internal/models"
	"grove/internal/service"
)

func (s *Server) listUsers(c *gin.Context) {
	out, err := s.Users.List(c.Request.Context(), currentUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// exposeUser hides contact details from anyone but the user and admins.
func exposeUser(viewer *models.User, u models.User) any {
	if service.SeesContact(viewer, u.ID) {
		return u
	}
	return service.UserRef{ID: u.ID, Name: u.Name}
}

func (s *Server) getUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	u, err := s.Users.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, exposeUser(currentUser(c), u))
}

func (s *Server) userProfile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := s.Users.WithReviews(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": exposeUser(currentUser(c), p.User), "reviews": p.Reviews})
}

func (s *Server) updateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.UpdateUserInput
	if !bindJSON(c, &in) {
		return
	}
	u, err := s.Users.Update(c.Request.Context(), currentUser(c), id, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) deleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	actor := currentUser(c)
	u, err := s.Users.Delete(c.Request.Context(), actor, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if actor.ID == id {
		_ = signOut(c)
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) addresses(c *gin.Context) {
	out, err := s.Users.Addresses(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) addAddress(c *gin.Context) {
	var in service.AddressInput
	if !bindJSON(c, &in) {
		return
	}
	a, err := s.Users.AddAddress(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (s *Server) paymentMethods(c *gin.Context) {
	out, err := s.Users.PaymentMethods(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) addPaymentMethod(c *gin.Context) {
	var in service.PaymentMethodInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := s.Users.AddPaymentMethod(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}
