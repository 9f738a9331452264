package api

import (
	"net/http"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/gin-gonic/gin"
)

// kindRateLimited marks rejections by the rate limiter; no domain error maps to it.
const kindRateLimited domain.ErrorKind = "RATE_LIMITED"

type errorResponse struct {
	Error string            `json:"error"`
	Kind  domain.ErrorKind `json:"kind"`
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindOutOfInventory, domain.KindAllocationConflict:
		return http.StatusConflict
	case domain.KindInvariantViolation:
		return http.StatusBadRequest
	case domain.KindTransactionAborted:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	_ = c.Error(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: msg, Kind: kind})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg, Kind: domain.KindInvariantViolation})
}
