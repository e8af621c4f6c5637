package server

import (
	"auction-sync/internal/notify"
	handler "auction-sync/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes of the client UI
func SetupRouter(service handler.AuctionServiceInterface, emitter *notify.Emitter) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(service, emitter)

	auctions := router.Group("/auctions")
	{
		auctions.GET("", auctionHandler.ListAuctionsHandler)
		auctions.POST("", auctionHandler.CreateAuctionHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.POST("/:auction_id/bids", auctionHandler.PlaceBidHandler)
		auctions.POST("/:auction_id/bids/increment", auctionHandler.PlaceIncrementBidHandler)
	}

	router.GET("/status", auctionHandler.StatusHandler)
	router.GET("/events", auctionHandler.EventsHandler)

	return router
}
