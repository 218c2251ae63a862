package v1

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"offerhub/internal/api/response"
	"offerhub/internal/service"
)

func parseIntOrDefault(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// handleServiceError maps the service error taxonomy onto HTTP status and
// stable app codes so clients choose UI copy without string matching.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrVenueNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrVenueNotFound, "venue not found")
	case errors.Is(err, service.ErrOfferNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrOfferNotFound, "offer not found")
	case errors.Is(err, service.ErrOfferNotActive):
		response.Fail(c, http.StatusConflict, response.ErrOfferNotActive, "offer not active")
	case errors.Is(err, service.ErrOfferExpired):
		response.Fail(c, http.StatusGone, response.ErrOfferExpired, "offer expired")
	case errors.Is(err, service.ErrOfferFull):
		response.Fail(c, http.StatusConflict, response.ErrOfferFull, "no remaining claims")
	case errors.Is(err, service.ErrDuplicateClaim):
		response.Fail(c, http.StatusConflict, response.ErrDuplicateClaim, "offer already claimed")
	case errors.Is(err, service.ErrNotCheckedIn):
		response.Fail(c, http.StatusPreconditionFailed, response.ErrNotCheckedIn, "check in at the venue first")
	case errors.Is(err, service.ErrTokenNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrTokenNotFound, "token not found")
	case errors.Is(err, service.ErrClaimExpired):
		response.Fail(c, http.StatusGone, response.ErrClaimExpired, "claim expired")
	case errors.Is(err, service.ErrAlreadyRedeemed):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyRedeemed, "claim already redeemed")
	case errors.Is(err, service.ErrTransient):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrTransient, "temporary failure, try again")
	case errors.Is(err, service.ErrInvalidInput):
		response.Fail(c, http.StatusBadRequest, response.ErrInternal, "invalid request")
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
	}
}
