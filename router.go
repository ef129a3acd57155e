package rentall

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// detail aborts the request with the marketplace error envelope. Every error
// response carries a single human-readable detail string.
func detail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": message})
}

// orEmpty keeps list responses JSON arrays even when nothing matched.
func orEmpty[S ~[]E, E any](items S) S {
	if items == nil {
		return make(S, 0)
	}
	return items
}

// internalError logs the underlying error and hides it behind a generic 500.
func (server *Server) internalError(c *gin.Context, err error) {
	requestId, _ := RequestIDFromContext(c)
	server.Logger.Error("internal error",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestId.String()),
	)
	detail(c, http.StatusInternalServerError, "Internal server error")
}

func (server *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "RentAll API", "version": "1.0.0"})
}

func (server *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// corsMiddleware builds the CORS policy from the configured origins. A "*"
// entry allows every origin, explicit origins additionally allow
// credentialed requests.
func (server *Server) corsMiddleware() gin.HandlerFunc {
	config := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", "Payment-Signature"},
		MaxAge:       12 * time.Hour,
	}
	origins := server.Config.AllowedOrigins
	if len(origins) == 0 || slices.Contains(origins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}
	return cors.New(config)
}

// routes builds the gin engine with the full API mounted under /api.
func (server *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(server.RequestLogger())
	router.Use(server.corsMiddleware())
	router.Use(server.RateLimit())
	router.Use(Compress())

	api := router.Group("/api")
	authed := api.Group("", server.RequireAuth())

	api.GET("/", server.root)
	api.GET("/health", server.health)
	api.GET("/categories", server.getCategories)

	api.POST("/auth/register", server.register)
	api.POST("/auth/login", server.login)
	authed.GET("/auth/me", server.me)
	authed.PUT("/auth/profile", server.updateProfile)

	authed.POST("/listings", server.createListing)
	api.GET("/listings", server.getListings)
	api.GET("/listings/featured", server.getFeaturedListings)
	authed.GET("/listings/my", server.getMyListings)
	api.GET("/listings/:id", server.getListing)
	authed.PUT("/listings/:id", server.updateListing)
	authed.DELETE("/listings/:id", server.deleteListing)

	authed.POST("/bookings", server.createBooking)
	authed.GET("/bookings/my", server.getMyBookings)
	authed.GET("/bookings/requests", server.getBookingRequests)
	authed.GET("/bookings/:id", server.getBooking)
	authed.PUT("/bookings/:id/status", server.updateBookingStatus)
	api.GET("/bookings/listing/:id/dates", server.getBookedDates)

	authed.POST("/reviews", server.createReview)
	api.GET("/reviews/listing/:id", server.getListingReviews)

	authed.POST("/messages", server.sendMessage)
	authed.GET("/messages/conversations", server.getConversations)
	authed.GET("/messages/thread/:user_id", server.getThread)

	authed.POST("/payments/checkout", server.createCheckout)
	authed.GET("/payments/status/:session_id", server.getPaymentStatus)
	api.POST("/payments/webhook", server.paymentsWebhook)

	authed.POST("/media/upload", server.uploadMedia)
	api.GET("/media/:name", server.getMedia)

	return router
}
