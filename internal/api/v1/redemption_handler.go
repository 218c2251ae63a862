package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"offerhub/internal/api/middleware"
	"offerhub/internal/api/response"
	"offerhub/internal/service"
)

type RedemptionHandler struct {
	redemptionService *service.RedemptionService
}

type redeemRequest struct {
	VenueID string `json:"venue_id" binding:"required"`
	Token   string `json:"token" binding:"required"`
}

func NewRedemptionHandler(redemptionService *service.RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{redemptionService: redemptionService}
}

func RegisterRedemptionRoutes(group *gin.RouterGroup, redemptionService *service.RedemptionService) {
	if redemptionService == nil {
		return
	}

	handler := NewRedemptionHandler(redemptionService)

	group.POST(
		"/redemptions",
		middleware.RequireStaff(),
		middleware.RateLimit("redemptions.redeem", 30, time.Minute),
		handler.Redeem,
	)
	group.GET("/venues/:id/claims/:token", middleware.RequireStaff(), handler.Lookup)
}

func (h *RedemptionHandler) Redeem(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request body")
		return
	}

	result, err := h.redemptionService.Redeem(c.Request.Context(), req.VenueID, req.Token, claims.UserID)
	if err != nil {
		// AlreadyRedeemed includes who honored the claim and when so the
		// staff UI can explain the conflict.
		if errors.Is(err, service.ErrAlreadyRedeemed) && result != nil {
			c.JSON(http.StatusConflict, response.Response{
				Code:    response.ErrAlreadyRedeemed,
				Message: "claim already redeemed",
				Data:    result,
			})
			return
		}
		handleServiceError(c, err)
		return
	}

	response.Success(c, result)
}

func (h *RedemptionHandler) Lookup(c *gin.Context) {
	claim, err := h.redemptionService.LookupByToken(c.Request.Context(), c.Param("id"), c.Param("token"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, claim)
}
