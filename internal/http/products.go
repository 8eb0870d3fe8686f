package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grove/internal/models"
	"grove/internal/service"
)

// listProducts serves the storefront grid, a category page or a search,
// depending on the query.
func (s *Server) listProducts(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		out []service.ProductView
		err error
	)
	switch {
	case c.Query("category") != "":
		out, err = s.Products.ByCategory(ctx, models.Category(c.Query("category")))
	case c.Query("q") != "":
		out, err = s.Products.Search(ctx, c.Query("q"))
	default:
		out, err = s.Products.List(ctx)
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := s.Products.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) categories(c *gin.Context) {
	out, err := s.Products.Categories(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) suggestions(c *gin.Context) {
	out, err := s.Products.Suggestions(c.Request.Context(), c.Query("q"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createProduct(c *gin.Context) {
	var in service.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := s.Products.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) updateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := s.Products.UpdateListing(c.Request.Context(), currentUser(c), id, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := s.Products.DeleteListing(c.Request.Context(), currentUser(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) myListings(c *gin.Context) {
	out, err := s.Products.Listings(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
