package api

import (
	"github.com/gin-gonic/gin"

	"offerhub/internal/api/middleware"
	v1 "offerhub/internal/api/v1"
	"offerhub/internal/service"
)

type Services struct {
	Venue      *service.VenueService
	Offer      *service.OfferService
	Claim      *service.ClaimService
	Redemption *service.RedemptionService
	CheckIn    *service.CheckInService
}

func RegisterRoutes(router gin.IRouter, jwtSecret string, services Services) {
	apiV1 := router.Group("/api/v1")
	apiV1.Use(middleware.JWTAuth(jwtSecret))

	v1.RegisterVenueRoutes(apiV1, services.Venue, services.Offer)
	v1.RegisterOfferRoutes(apiV1, services.Offer, services.Claim)
	v1.RegisterClaimRoutes(apiV1, services.Claim)
	v1.RegisterRedemptionRoutes(apiV1, services.Redemption)
	v1.RegisterCheckInRoutes(apiV1, services.CheckIn)
}
