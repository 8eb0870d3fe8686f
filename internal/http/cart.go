package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grove/internal/cart"
	"grove/internal/pricing"
	"grove/internal/service"
)

type cartItemRequest struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

// respondCart resolves ct, persists it and writes the priced view.
func (s *Server) respondCart(c *gin.Context, ct cart.Cart) {
	v, _, err := s.Carts.Resolve(c.Request.Context(), ct)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := saveCart(c, ct); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) getCart(c *gin.Context) {
	s.respondCart(c, getCart(c))
}

func (s *Server) clearCart(c *gin.Context) {
	ct := getCart(c)
	ct.Clear()
	s.respondCart(c, ct)
}

func (s *Server) addCartItem(c *gin.Context) {
	var in cartItemRequest
	if !bindJSON(c, &in) {
		return
	}
	ct := getCart(c)
	if err := s.Carts.Add(c.Request.Context(), ct, in.ProductID, in.Quantity); err != nil {
		s.fail(c, err)
		return
	}
	s.respondCart(c, ct)
}

func (s *Server) setCartItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in cartItemRequest
	if !bindJSON(c, &in) {
		return
	}
	ct := getCart(c)
	ct.Set(id, in.Quantity)
	s.respondCart(c, ct)
}

func (s *Server) removeCartItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ct := getCart(c)
	ct.Remove(id)
	s.respondCart(c, ct)
}

func (s *Server) removeCartItems(c *gin.Context) {
	var in struct {
		ProductIDs []uint `json:"productIds"`
	}
	if !bindJSON(c, &in) {
		return
	}
	ct := getCart(c)
	ct.Remove(in.ProductIDs...)
	s.respondCart(c, ct)
}

func (s *Server) deliveryOptions(c *gin.Context) {
	c.JSON(http.StatusOK, pricing.DeliveryOptions)
}

// quote prices the given items, or the session cart when none are sent.
func (s *Server) quote(c *gin.Context) {
	var in service.QuoteInput
	if !bindJSON(c, &in) {
		return
	}
	if len(in.Items) == 0 {
		in.Items = service.Items(getCart(c))
	}
	q, err := s.Orders.Quote(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}
