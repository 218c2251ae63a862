package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"offerhub/internal/api/middleware"
	"offerhub/internal/api/response"
	"offerhub/internal/service"
)

type CheckInHandler struct {
	checkInService *service.CheckInService
}

type checkInRequest struct {
	VenueID string `json:"venue_id" binding:"required"`
}

func NewCheckInHandler(checkInService *service.CheckInService) *CheckInHandler {
	return &CheckInHandler{checkInService: checkInService}
}

func RegisterCheckInRoutes(group *gin.RouterGroup, checkInService *service.CheckInService) {
	if checkInService == nil {
		return
	}

	handler := NewCheckInHandler(checkInService)

	group.POST("/checkins", middleware.RateLimit("checkins.create", 20, time.Minute), handler.CheckIn)
	group.DELETE("/checkins", handler.CheckOut)
}

func (h *CheckInHandler) CheckIn(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request body")
		return
	}

	checkIn, err := h.checkInService.CheckIn(c.Request.Context(), claims.UserID, req.VenueID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, checkIn)
}

func (h *CheckInHandler) CheckOut(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request body")
		return
	}

	if err := h.checkInService.CheckOut(c.Request.Context(), claims.UserID, req.VenueID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, gin.H{"checked_out": true})
}
