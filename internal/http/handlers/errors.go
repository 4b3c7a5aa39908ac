package handlers

import (
	"errors"
	"net/http"

	"oink_ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// writeError maps service errors onto HTTP responses. Store outages never
// leak details and are marked retryable.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		verr  *service.ValidationError
		funds *service.InsufficientFundsError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": verr.Error(), "field": verr.Field})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case errors.As(err, &funds):
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"error":     "insufficient balance",
			"balance":   funds.Balance,
			"requested": funds.Requested,
		})
	case errors.Is(err, service.ErrAlreadyCheckedIn):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "already checked in today"})
	case errors.Is(err, service.ErrSenderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "sender not found"})
	case errors.Is(err, service.ErrRecipientNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "recipient not found"})
	case errors.Is(err, service.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "account not found"})
	case errors.Is(err, service.ErrDuplicateTransfer):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "transfer already recorded for this message"})
	case errors.Is(err, service.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "ledger temporarily unavailable", "retryable": true})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}
