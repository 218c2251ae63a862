package response

import "github.com/gin-gonic/gin"

const (
	CodeSuccess = 0
)

const (
	ErrUnauthorized = 10001
	ErrTokenExpired = 10002
	ErrForbidden    = 10003
)

const (
	ErrVenueNotFound = 20001
)

const (
	ErrOfferNotFound  = 30001
	ErrOfferNotActive = 30002
	ErrOfferExpired   = 30003
	ErrOfferFull      = 30004
)

const (
	ErrDuplicateClaim = 40001
	ErrNotCheckedIn   = 40002
)

const (
	ErrTokenNotFound   = 50001
	ErrClaimExpired    = 50002
	ErrAlreadyRedeemed = 50003
)

const (
	ErrRateLimited = 90001
	ErrTransient   = 90002
	ErrInternal    = 99999
)

type Response struct {
	Code       int         `json:"code"`
	Message    string      `json:"message"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

func Success(c *gin.Context, data any) {
	c.JSON(200, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Paginated(c *gin.Context, data any, page, pageSize int, total int64) {
	c.JSON(200, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
		Pagination: &Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	})
}

func Fail(c *gin.Context, httpStatus, appCode int, message string) {
	c.JSON(httpStatus, Response{
		Code:    appCode,
		Message: message,
	})
}
