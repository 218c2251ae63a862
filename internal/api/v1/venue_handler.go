package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"offerhub/internal/api/middleware"
	"offerhub/internal/api/response"
	inputsanitize "offerhub/internal/api/sanitize"
	"offerhub/internal/service"
)

type VenueHandler struct {
	venueService *service.VenueService
	offerService *service.OfferService
}

type createVenueRequest struct {
	Name string `json:"name" binding:"required"`
}

func NewVenueHandler(venueService *service.VenueService, offerService *service.OfferService) *VenueHandler {
	return &VenueHandler{venueService: venueService, offerService: offerService}
}

func RegisterVenueRoutes(group *gin.RouterGroup, venueService *service.VenueService, offerService *service.OfferService) {
	if venueService == nil || offerService == nil {
		return
	}

	handler := NewVenueHandler(venueService, offerService)
	venues := group.Group("/venues")

	venues.POST("", middleware.RequireStaff(), handler.Create)
	venues.GET("/:id", handler.Get)
	venues.GET("/:id/offers", handler.ListOffers)
}

func (h *VenueHandler) Create(c *gin.Context) {
	var req createVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request body")
		return
	}

	venue, err := h.venueService.Create(c.Request.Context(), inputsanitize.Text(req.Name))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, venue)
}

func (h *VenueHandler) Get(c *gin.Context) {
	venue, err := h.venueService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, venue)
}

func (h *VenueHandler) ListOffers(c *gin.Context) {
	page := parseIntOrDefault(c.Query("page"), 1)
	pageSize := parseIntOrDefault(c.Query("page_size"), 20)

	offers, total, err := h.offerService.ListByVenue(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Paginated(c, offers, page, pageSize, total)
}
