package http

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"grove/internal/service"
)

type Server struct {
	Log zerolog.Logger
	DB  *gorm.DB

	Products *service.Products
	Carts    *service.Carts
	Orders   *service.Orders
	Reviews  *service.Reviews
	Users    *service.Users
	Admin    *service.Admin
}

type Options struct {
	ServiceName   string
	SessionSecret string
	SessionName   string
	SecureCookie  bool
}

func NewRouter(s *Server, opt Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(s.Log), MetricsMiddleware(opt.ServiceName))

	store := cookie.NewStore([]byte(opt.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		Secure:   opt.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(opt.SessionName, store))

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	auth := s.requireUser()

	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)
	api.POST("/auth/logout", s.logout)
	api.GET("/auth/session", s.session)

	api.GET("/products", s.listProducts)
	api.GET("/products/:id", s.getProduct)
	api.GET("/products/:id/reviews", auth, s.productReviews)
	api.POST("/products", auth, s.createProduct)
	api.PUT("/products/:id", auth, s.updateProduct)
	api.DELETE("/products/:id", auth, s.deleteProduct)
	api.GET("/categories", s.categories)
	api.GET("/search/suggestions", s.suggestions)

	api.POST("/reviews", auth, s.createReview)

	api.GET("/cart", s.getCart)
	api.DELETE("/cart", s.clearCart)
	api.POST("/cart/items", s.addCartItem)
	api.PUT("/cart/items/:id", s.setCartItem)
	api.DELETE("/cart/items/:id", s.removeCartItem)
	api.POST("/cart/remove", s.removeCartItems)

	api.GET("/checkout/delivery-options", s.deliveryOptions)
	api.POST("/checkout/quote", s.quote)

	me := api.Group("/me", auth)
	me.GET("/listings", s.myListings)
	me.GET("/addresses", s.addresses)
	me.POST("/addresses", s.addAddress)
	me.GET("/payment-methods", s.paymentMethods)
	me.POST("/payment-methods", s.addPaymentMethod)
	me.GET("/order-items", s.myOrderItems)

	orders := api.Group("", auth)
	orders.POST("/orders", s.createOrder)
	orders.GET("/orders", s.listOrders)
	orders.GET("/orders/:id", s.getOrder)
	orders.GET("/orders/:id/items", s.orderItems)
	orders.PATCH("/order-items/:id", s.toggleOrderItem)

	api.GET("/users", auth, s.listUsers)
	api.GET("/users/:id", s.identify(), s.getUser)
	api.GET("/users/:id/profile", s.identify(), s.userProfile)
	api.GET("/users/:id/reviews", s.userReviews)
	api.PUT("/users/:id", auth, s.updateUser)
	api.DELETE("/users/:id", auth, s.deleteUser)

	admin := api.Group("/admin", auth, requireAdmin())
	admin.GET("/products", s.adminProducts)
	admin.POST("/products", s.adminCreateProduct)
	admin.GET("/products/:id", s.adminProduct)
	admin.PUT("/products/:id", s.adminUpdateProduct)
	admin.DELETE("/products/:id", s.adminDeleteProduct)
	admin.GET("/products/:id/prev", s.adminPrevProduct)
	admin.GET("/products/:id/next", s.adminNextProduct)
	admin.GET("/users", s.adminUsers)
	admin.GET("/orders", s.adminOrders)
	admin.PATCH("/orders/:id/status", s.adminOrderStatus)

	return r
}

func (s *Server) health(c *gin.Context) {
	sqlDB, err := s.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "db": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
