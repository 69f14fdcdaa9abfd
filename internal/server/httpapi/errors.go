package httpapi

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/common"
	"github.com/gin-gonic/gin"
)

// writeError maps a service error to a status code and a JSON body of the
// form {"error": <code>, "message": <text>}.
func (a *API) writeError(c *gin.Context, err error) {
	var ve *common.ValidationError
	var rl *common.RateLimitError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": common.ErrValidation.Error(),
			"fields":  ve.Fields,
		})

	case errors.As(err, &rl):
		now := a.now()
		wait := rl.RetryAfter(now)
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":    "rate_limited",
			"message":  common.ErrRateLimited.Error(),
			"reset_at": rl.ResetAt.UTC().Format(time.RFC3339),
		})

	case errors.Is(err, common.ErrValidation):
		respond(c, http.StatusBadRequest, "validation_failed", err.Error())

	case errors.Is(err, common.ErrConflict), errors.Is(err, common.ErrAlreadyExists):
		respond(c, http.StatusConflict, "conflict", common.ErrConflict.Error())
	case errors.Is(err, common.ErrAlreadyVerified):
		respond(c, http.StatusConflict, "already_verified", common.ErrAlreadyVerified.Error())

	case errors.Is(err, common.ErrorNotFound):
		respond(c, http.StatusNotFound, "not_found", common.ErrorNotFound.Error())

	case errors.Is(err, common.ErrInvalidCredentials):
		respond(c, http.StatusUnauthorized, "invalid_credentials", common.ErrInvalidCredentials.Error())
	case errors.Is(err, common.ErrInvalidCode):
		respond(c, http.StatusUnauthorized, "invalid_code", common.ErrInvalidCode.Error())
	case errors.Is(err, common.ErrNoOTPRequested):
		respond(c, http.StatusUnauthorized, "no_code_requested", common.ErrNoOTPRequested.Error())
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		respond(c, http.StatusUnauthorized, "token_invalid", common.ErrInvalidToken.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		respond(c, http.StatusUnauthorized, "unauthorized", common.ErrorUnauthorized.Error())

	case errors.Is(err, common.ErrOTPExpired):
		respond(c, http.StatusBadRequest, "code_expired", common.ErrOTPExpired.Error())
	case errors.Is(err, common.ErrAccountNotVerified):
		respond(c, http.StatusForbidden, "account_not_verified", common.ErrAccountNotVerified.Error())

	case errors.Is(err, common.ErrTransactionConflict), errors.Is(err, common.ErrTransientStore),
		errors.Is(err, context.DeadlineExceeded):
		a.logger.Warn(c.Request.Context(), "store unavailable", "path", c.FullPath(), "error", err)
		respond(c, http.StatusServiceUnavailable, "unavailable", "service temporarily unavailable")

	case errors.Is(err, common.ErrDependencyFailure):
		a.logger.Error(c.Request.Context(), "dependency failure", "path", c.FullPath(), "error", err)
		respond(c, http.StatusBadGateway, "email_delivery_failed", "email delivery failed")

	default:
		a.logger.Error(c.Request.Context(), "internal error", "path", c.FullPath(), "error", err)
		respond(c, http.StatusInternalServerError, "internal_error", common.ErrorInternal.Error())
	}
}

func respond(c *gin.Context, code int, errCode, message string) {
	c.JSON(code, gin.H{
		"error":   errCode,
		"message": message,
	})
}
