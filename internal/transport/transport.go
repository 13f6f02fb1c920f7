package transport

import (
	"net/http"
	"time"

	"github.com/ds124wfegd/eventtickets/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

func InitRoutes(eventHandler *EventHandler, ticketHandler *TicketHandler, requestTimeout time.Duration) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(requestTimeout))

	router.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, codeNotFound, "route not found")
	})

	// API routes
	api := router.Group("/api/v1")
	{
		// Event routes
		events := api.Group("/events")
		{
			events.POST("", eventHandler.CreateEvent)
			events.GET("", eventHandler.GetAllEvents)
			events.GET("/:id", eventHandler.GetEvent)
			events.PATCH("/:id", eventHandler.UpdateEvent)
			events.DELETE("/:id", eventHandler.DeleteEvent)
			events.POST("/:id/tickets", eventHandler.SellTicket)
			events.GET("/:id/tickets", eventHandler.GetEventTickets)
		}

		// Ticket routes
		tickets := api.Group("/tickets")
		{
			tickets.GET("", ticketHandler.GetAllTickets)
			tickets.GET("/:id", ticketHandler.GetTicket)
			tickets.POST("/:id/redeem", ticketHandler.RedeemTicket)
			tickets.DELETE("/:id", ticketHandler.DeleteTicket)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	return router
}
