package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"grove/internal/models"
	"grove/internal/service"
)

func bindQuery(c *gin.Context, v any) bool {
	if err := c.ShouldBindQuery(v); err != nil {
		badRequest(c, err)
		return false
	}
	return true
}

func (s *Server) adminProducts(c *gin.Context) {
	var q service.AdminProductQuery
	if !bindQuery(c, &q) {
		return
	}
	out, err := s.Admin.ListProducts(c.Request.Context(), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) adminProduct(c *gin.Context) {
	s.adminProductBy(c, s.Admin.Product)
}

func (s *Server) adminPrevProduct(c *gin.Context) {
	s.adminProductBy(c, s.Admin.PrevProduct)
}

func (s *Server) adminNextProduct(c *gin.Context) {
	s.adminProductBy(c, s.Admin.NextProduct)
}

func (s *Server) adminDeleteProduct(c *gin.Context) {
	s.adminProductBy(c, s.Admin.DeleteProduct)
}

func (s *Server) adminProductBy(c *gin.Context, get func(ctx context.Context, id uint) (models.Product, error)) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) adminCreateProduct(c *gin.Context) {
	var in service.AdminProductInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := s.Admin.CreateProduct(c.Request.Context(), currentUser(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) adminUpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.AdminProductInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := s.Admin.UpdateProduct(c.Request.Context(), id, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) adminUsers(c *gin.Context) {
	var q service.AdminUserQuery
	if !bindQuery(c, &q) {
		return
	}
	out, err := s.Admin.ListUsers(c.Request.Context(), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) adminOrders(c *gin.Context) {
	var q service.AdminOrderQuery
	if !bindQuery(c, &q) {
		return
	}
	out, err := s.Admin.ListOrders(c.Request.Context(), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) adminOrderStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.StatusInput
	if !bindJSON(c, &in) {
		return
	}
	o, err := s.Admin.UpdateOrderStatus(c.Request.Context(), id, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
