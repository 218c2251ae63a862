package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"offerhub/internal/api/middleware"
	"offerhub/internal/api/response"
	inputsanitize "offerhub/internal/api/sanitize"
	"offerhub/internal/service"
)

type OfferHandler struct {
	offerService *service.OfferService
	claimService *service.ClaimService
}

type createOfferRequest struct {
	VenueID             string    `json:"venue_id" binding:"required"`
	Title               string    `json:"title" binding:"required"`
	Description         string    `json:"description"`
	ValueText           string    `json:"value_text"`
	MaxClaims           int       `json:"max_claims" binding:"required"`
	RadiusMeters        int       `json:"radius_meters"`
	RestrictToFavorites bool      `json:"restrict_to_favorites"`
	StartTime           time.Time `json:"start_time" binding:"required"`
	EndTime             time.Time `json:"end_time" binding:"required"`
}

func NewOfferHandler(offerService *service.OfferService, claimService *service.ClaimService) *OfferHandler {
	return &OfferHandler{offerService: offerService, claimService: claimService}
}

func RegisterOfferRoutes(group *gin.RouterGroup, offerService *service.OfferService, claimService *service.ClaimService) {
	if offerService == nil || claimService == nil {
		return
	}

	handler := NewOfferHandler(offerService, claimService)
	offers := group.Group("/offers")

	offers.POST("", middleware.RequireStaff(), handler.Create)
	offers.GET("/:id", handler.Get)
	offers.POST("/:id/cancel", middleware.RequireStaff(), handler.Cancel)
	offers.GET("/:id/eligibility", handler.Eligibility)
	offers.GET("/:id/claims", middleware.RequireStaff(), handler.ListClaims)
}

func (h *OfferHandler) Create(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req createOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request body")
		return
	}

	offer, err := h.offerService.Create(c.Request.Context(), claims.UserID, service.CreateOfferRequest{
		VenueID:             req.VenueID,
		Title:               inputsanitize.Text(req.Title),
		Description:         inputsanitize.Description(req.Description),
		ValueText:           inputsanitize.Text(req.ValueText),
		MaxClaims:           req.MaxClaims,
		RadiusMeters:        req.RadiusMeters,
		RestrictToFavorites: req.RestrictToFavorites,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, offer)
}

func (h *OfferHandler) Get(c *gin.Context) {
	offer, err := h.offerService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, offer)
}

func (h *OfferHandler) Cancel(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	offer, err := h.offerService.Cancel(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, offer)
}

func (h *OfferHandler) Eligibility(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	snapshot, err := h.claimService.Eligibility(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, snapshot)
}

func (h *OfferHandler) ListClaims(c *gin.Context) {
	page := parseIntOrDefault(c.Query("page"), 1)
	pageSize := parseIntOrDefault(c.Query("page_size"), 20)

	items, total, err := h.claimService.ListOfferClaims(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Paginated(c, items, page, pageSize, total)
}
