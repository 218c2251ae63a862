package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"offerhub/internal/api/middleware"
	"offerhub/internal/api/response"
	"offerhub/internal/service"
)

type ClaimHandler struct {
	claimService *service.ClaimService
}

func NewClaimHandler(claimService *service.ClaimService) *ClaimHandler {
	return &ClaimHandler{claimService: claimService}
}

func RegisterClaimRoutes(group *gin.RouterGroup, claimService *service.ClaimService) {
	if claimService == nil {
		return
	}

	handler := NewClaimHandler(claimService)

	group.POST(
		"/offers/:id/claims",
		middleware.RateLimit("claims.allocate", 10, time.Minute),
		handler.Allocate,
	)
	group.GET("/users/me/claims", handler.ListMine)
}

func (h *ClaimHandler) Allocate(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	claim, err := h.claimService.AllocateClaim(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, claim)
}

func (h *ClaimHandler) ListMine(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	page := parseIntOrDefault(c.Query("page"), 1)
	pageSize := parseIntOrDefault(c.Query("page_size"), 20)

	items, total, err := h.claimService.ListUserClaims(c.Request.Context(), claims.UserID, page, pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Paginated(c, items, page, pageSize, total)
}
