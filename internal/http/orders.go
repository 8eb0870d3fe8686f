package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grove/internal/service"
)

// createOrder checks out the submitted items, or the session cart when none
// are sent, and drops the ordered lines from the cart.
func (s *Server) createOrder(c *gin.Context) {
	var in service.CreateOrderInput
	if !bindJSON(c, &in) {
		return
	}
	ct := getCart(c)
	if len(in.Items) == 0 {
		in.Items = service.Items(ct)
	}
	o, err := s.Orders.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	for _, it := range o.Items {
		ct.Remove(it.ProductID)
	}
	if err := saveCart(c, ct); err != nil {
		s.Log.Warn().Err(err).Uint("order_id", o.ID).Msg("cart not cleared after checkout")
	}
	c.JSON(http.StatusCreated, o)
}

// listOrders returns live orders, or the archive with ?archived=true.
func (s *Server) listOrders(c *gin.Context) {
	archived := c.Query("archived") == "true"
	out, err := s.Orders.List(c.Request.Context(), currentUser(c).ID, archived)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	o, err := s.Orders.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) orderItems(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := s.Orders.Items(c.Request.Context(), currentUser(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) myOrderItems(c *gin.Context) {
	out, err := s.Orders.UserItems(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) toggleOrderItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	it, err := s.Orders.ToggleItem(c.Request.Context(), currentUser(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}
